package rpc

import "net/http"

type automationInitRequest struct {
	Authority   string `json:"authority"`
	MinInterval uint64 `json:"minInterval"`
}

func (s *Server) handleAutomationInit(w http.ResponseWriter, r *http.Request) {
	var req automationInitRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	authority, err := parseAddress(req.Authority)
	if err != nil {
		s.writeError(w, err)
		return
	}
	state, err := s.automation.InitializeState(authority, req.MinInterval)
	s.observe("automation", "initialize", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newAutomationStateView(state))
}

type automationSettingsRequest struct {
	Enabled     *bool   `json:"enabled"`
	MinInterval *uint64 `json:"minInterval"`
}

func (s *Server) handleAutomationSettings(w http.ResponseWriter, r *http.Request) {
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req automationSettingsRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	state, err := s.automation.UpdateSettings(caller, req.Enabled, req.MinInterval)
	s.observe("automation", "update-settings", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newAutomationStateView(state))
}

func (s *Server) handleAutomationConfig(w http.ResponseWriter, r *http.Request) {
	id, err := s.circleID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cfg, err := s.automation.Config(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newCircleAutomationView(cfg))
}

type automationSetupRequest struct {
	AutoCollect    bool `json:"autoCollect"`
	AutoDistribute bool `json:"autoDistribute"`
	AutoPenalty    bool `json:"autoPenalty"`
}

func (s *Server) handleAutomationSetup(w http.ResponseWriter, r *http.Request) {
	id, err := s.circleID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req automationSetupRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	cfg, err := s.automation.SetupCircle(id, req.AutoCollect, req.AutoDistribute, req.AutoPenalty)
	s.observe("automation", "setup-circle", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newCircleAutomationView(cfg))
}

type collectResponse struct {
	Collected uint64 `json:"collected"`
}

func (s *Server) handleAutomationCollect(w http.ResponseWriter, r *http.Request) {
	id, err := s.circleID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	collected, err := s.automation.CollectContributions(id)
	s.observe("automation", "collect", err)
	s.metrics.ObserveTrigger("collection", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, collectResponse{Collected: collected})
}

func (s *Server) handleAutomationDistribute(w http.ResponseWriter, r *http.Request) {
	s.automationTrigger(w, r, "distribute", "distribution", s.automation.DistributePot)
}

func (s *Server) handleAutomationPenalties(w http.ResponseWriter, r *http.Request) {
	s.automationTrigger(w, r, "penalties", "penalty", s.automation.EnforcePenalties)
}

func (s *Server) automationTrigger(w http.ResponseWriter, r *http.Request, operation, trigger string, op func([32]byte) error) {
	id, err := s.circleID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	err = op(id)
	s.observe("automation", operation, err)
	s.metrics.ObserveTrigger(trigger, err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}
