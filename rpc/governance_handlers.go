package rpc

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tandachain/native/governance"
)

type proposalCreateRequest struct {
	CircleID            string `json:"circleId"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	Kind                string `json:"kind"`
	NewPenaltyRateBps   uint32 `json:"newPenaltyRateBps"`
	ExtensionRounds     uint64 `json:"extensionRounds"`
	VotingPeriodSeconds uint64 `json:"votingPeriodSeconds"`
	Threshold           uint64 `json:"threshold"`
}

func parseKind(value string) (governance.Kind, error) {
	for _, kind := range []governance.Kind{
		governance.KindPenaltyRate,
		governance.KindDurationExtension,
		governance.KindEmergencyPause,
		governance.KindEmergencyResume,
	} {
		if kind.String() == value {
			return kind, nil
		}
	}
	return 0, errors.New("rpc: unknown proposal kind")
}

func (s *Server) handleProposalCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req proposalCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	circleID, err := parseID(req.CircleID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	payload := governance.Payload{
		NewPenaltyRateBps: req.NewPenaltyRateBps,
		ExtensionRounds:   req.ExtensionRounds,
	}
	proposal, err := s.governance.CreateProposal(circleID, caller, req.Title, req.Description, kind, payload, req.VotingPeriodSeconds, req.Threshold)
	s.observe("governance", "create-proposal", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newProposalView(proposal))
}

func (s *Server) proposalID(r *http.Request) ([32]byte, error) {
	return parseID(chi.URLParam(r, "proposalID"))
}

func (s *Server) handleProposalGet(w http.ResponseWriter, r *http.Request) {
	id, err := s.proposalID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	proposal, err := s.governance.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newProposalView(proposal))
}

type voteRequest struct {
	Support bool   `json:"support"`
	Power   string `json:"power"`
}

func (s *Server) handleVoteCast(w http.ResponseWriter, r *http.Request) {
	id, err := s.proposalID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req voteRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	power, err := parseAmount(req.Power)
	if err != nil {
		s.writeError(w, err)
		return
	}
	vote, err := s.governance.CastVote(id, caller, req.Support, power)
	s.observe("governance", "cast-vote", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newVoteView(vote))
}

func (s *Server) handleProposalExecute(w http.ResponseWriter, r *http.Request) {
	id, err := s.proposalID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	proposal, err := s.governance.Execute(id)
	s.observe("governance", "execute", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newProposalView(proposal))
}
