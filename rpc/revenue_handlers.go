package rpc

import (
	"net/http"
	"strconv"
)

func (s *Server) handleTreasuryGet(w http.ResponseWriter, r *http.Request) {
	treasury, err := s.revenue.Treasury()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newTreasuryView(treasury))
}

func (s *Server) handleRevenueParams(w http.ResponseWriter, r *http.Request) {
	params, err := s.revenue.Params()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newRevenueParamsView(params))
}

type paramsUpdateRequest struct {
	DistributionFeeBps *uint32 `json:"distributionFeeBps"`
	YieldFeeBps        *uint32 `json:"yieldFeeBps"`
	ManagementFeeBps   *uint32 `json:"managementFeeBps"`
	ManagementInterval *uint64 `json:"managementInterval"`
}

func (s *Server) handleRevenueParamsUpdate(w http.ResponseWriter, r *http.Request) {
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req paramsUpdateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	params, err := s.revenue.UpdateParams(caller, req.DistributionFeeBps, req.YieldFeeBps, req.ManagementFeeBps, req.ManagementInterval)
	s.observe("revenue", "update-params", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newRevenueParamsView(params))
}

type managementCollectResponse struct {
	Fee string `json:"fee"`
}

func (s *Server) handleManagementCollect(w http.ResponseWriter, r *http.Request) {
	id, err := s.circleID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	fee, err := s.revenue.CollectManagementFees(id)
	s.observe("revenue", "collect-management", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.ObserveFee("management")
	s.writeJSON(w, http.StatusOK, managementCollectResponse{Fee: bigString(fee)})
}

type reportCreateRequest struct {
	PeriodStart uint64 `json:"periodStart"`
	PeriodEnd   uint64 `json:"periodEnd"`
}

func (s *Server) handleReportCreate(w http.ResponseWriter, r *http.Request) {
	var req reportCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	report, err := s.revenue.CreateReport(req.PeriodStart, req.PeriodEnd)
	s.observe("revenue", "create-report", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newReportView(report))
}

func (s *Server) handleReportGet(w http.ResponseWriter, r *http.Request) {
	start, err := strconv.ParseUint(r.URL.Query().Get("start"), 10, 64)
	if err != nil {
		s.writeError(w, err)
		return
	}
	end, err := strconv.ParseUint(r.URL.Query().Get("end"), 10, 64)
	if err != nil {
		s.writeError(w, err)
		return
	}
	report, err := s.revenue.Report(start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newReportView(report))
}
