package rpc

import "net/http"

func (s *Server) handleInsurancePool(w http.ResponseWriter, r *http.Request) {
	id, err := s.circleID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pool, err := s.insurance.Pool(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPoolView(pool))
}

type insuranceStakeRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleInsuranceStake(w http.ResponseWriter, r *http.Request) {
	id, err := s.circleID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req insuranceStakeRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	err = s.insurance.Stake(id, caller, amount)
	s.observe("insurance", "stake", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleInsuranceReturn(w http.ResponseWriter, r *http.Request) {
	id, err := s.circleID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	err = s.insurance.ReturnWithBonus(id, caller)
	s.observe("insurance", "return", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}
