package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type auctionCreateRequest struct {
	CircleID        string `json:"circleId"`
	PotAmount       string `json:"potAmount"`
	StartingBid     string `json:"startingBid"`
	DurationSeconds uint64 `json:"durationSeconds"`
}

func (s *Server) handleAuctionCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req auctionCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	circleID, err := parseID(req.CircleID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pot, err := parseAmount(req.PotAmount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	starting, err := parseAmount(req.StartingBid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	created, err := s.auctions.Create(circleID, caller, pot, starting, req.DurationSeconds)
	s.observe("auction", "create", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newAuctionView(created))
}

func (s *Server) auctionID(r *http.Request) ([32]byte, error) {
	return parseID(chi.URLParam(r, "auctionID"))
}

func (s *Server) handleAuctionGet(w http.ResponseWriter, r *http.Request) {
	id, err := s.auctionID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	a, err := s.auctions.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newAuctionView(a))
}

type bidRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleBidPlace(w http.ResponseWriter, r *http.Request) {
	id, err := s.auctionID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req bidRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	bid, err := s.auctions.PlaceBid(id, caller, amount)
	s.observe("auction", "bid", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newBidView(bid))
}

func (s *Server) handleAuctionSettle(w http.ResponseWriter, r *http.Request) {
	id, err := s.auctionID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	settled, err := s.auctions.Settle(id)
	s.observe("auction", "settle", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newAuctionView(settled))
}
