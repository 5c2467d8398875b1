package rpc

import (
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type circleCreateRequest struct {
	Nonce              uint64 `json:"nonce"`
	ContributionAmount string `json:"contributionAmount"`
	DurationRounds     uint64 `json:"durationRounds"`
	MaxMembers         uint64 `json:"maxMembers"`
	PenaltyRateBps     uint32 `json:"penaltyRateBps"`
}

func (s *Server) handleCircleCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req circleCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseAmount(req.ContributionAmount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	created, err := s.circles.Initialize(caller, req.Nonce, amount, req.DurationRounds, req.MaxMembers, req.PenaltyRateBps)
	s.observe("circle", "initialize", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newCircleView(created, nil))
}

func (s *Server) circleID(r *http.Request) ([32]byte, error) {
	return parseID(chi.URLParam(r, "circleID"))
}

func (s *Server) handleCircleGet(w http.ResponseWriter, r *http.Request) {
	id, err := s.circleID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	c, ok, err := s.circles.CircleGet(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "circle not found"})
		return
	}
	esc, _, err := s.circles.EscrowGet(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newCircleView(c, esc))
}

type joinRequest struct {
	Stake string `json:"stake"`
}

func (s *Server) handleCircleJoin(w http.ResponseWriter, r *http.Request) {
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
	var req joinRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	stake, err := parseAmount(req.Stake)
	if err != nil {
		s.writeError(w, err)
		return
	}
	member, err := s.circles.Join(id, caller, stake)
	s.observe("circle", "join", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newMemberView(member))
}

func (s *Server) handleCircleLeave(w http.ResponseWriter, r *http.Request) {
	s.memberAction(w, r, "leave", s.circles.Leave)
}

type contributeRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleCircleContribute(w http.ResponseWriter, r *http.Request) {
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
	var req contributeRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	err = s.circles.Contribute(id, caller, amount)
	s.observe("circle", "contribute", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}

type distributeRequest struct {
	Recipient string `json:"recipient"`
}

func (s *Server) handleCircleDistribute(w http.ResponseWriter, r *http.Request) {
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
	var req distributeRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		s.writeError(w, err)
		return
	}
	err = s.circles.DistributePot(id, caller, recipient)
	s.observe("circle", "distribute", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleCircleClaim(w http.ResponseWriter, r *http.Request) {
	s.memberAction(w, r, "claim", s.circles.ClaimPayout)
}

func (s *Server) handleCircleDissolve(w http.ResponseWriter, r *http.Request) {
	s.memberAction(w, r, "dissolve", s.circles.Dissolve)
}

// memberAction factors the circle operations whose input is just the caller
// identity and the circle identifier.
func (s *Server) memberAction(w http.ResponseWriter, r *http.Request, operation string, op func([32]byte, [20]byte) error) {
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
	err = op(id, caller)
	s.observe("circle", operation, err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleMemberGet(w http.ResponseWriter, r *http.Request) {
	id, err := s.circleID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	identity, err := parseAddress(chi.URLParam(r, "identity"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	member, ok, err := s.circles.MemberGet(id, identity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "member not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, newMemberView(member))
}

type yieldAmountRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) yieldAmountAction(w http.ResponseWriter, r *http.Request, operation string, op func([32]byte, [20]byte, *big.Int) error) {
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
	var req yieldAmountRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	err = op(id, caller, amount)
	s.observe("circle", operation, err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleYieldDeposit(w http.ResponseWriter, r *http.Request) {
	s.yieldAmountAction(w, r, "yield-deposit", s.circles.DepositToYield)
}

func (s *Server) handleYieldWithdraw(w http.ResponseWriter, r *http.Request) {
	s.yieldAmountAction(w, r, "yield-withdraw", s.circles.WithdrawFromYield)
}

func (s *Server) handleYieldAccrue(w http.ResponseWriter, r *http.Request) {
	id, err := s.circleID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req yieldAmountRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	err = s.circles.AccrueYield(id, amount)
	s.observe("circle", "yield-accrue", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleYieldDistribute(w http.ResponseWriter, r *http.Request) {
	s.memberAction(w, r, "yield-distribute", s.circles.DistributeYield)
}
