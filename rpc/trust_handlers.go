package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) trustIdentity(r *http.Request) ([20]byte, error) {
	return parseAddress(chi.URLParam(r, "identity"))
}

func (s *Server) handleTrustGet(w http.ResponseWriter, r *http.Request) {
	identity, err := s.trustIdentity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	score, err := s.trust.Get(identity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newScoreView(score))
}

func (s *Server) handleTrustInit(w http.ResponseWriter, r *http.Request) {
	identity, err := s.trustIdentity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	score, err := s.trust.Initialize(identity)
	s.observe("trust", "initialize", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newScoreView(score))
}

type endorseRequest struct {
	Weight uint32 `json:"weight"`
}

func (s *Server) handleTrustEndorse(w http.ResponseWriter, r *http.Request) {
	identity, err := s.trustIdentity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req endorseRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	err = s.trust.RecordEndorsement(identity, req.Weight)
	s.observe("trust", "endorse", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	score, err := s.trust.Get(identity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newScoreView(score))
}
