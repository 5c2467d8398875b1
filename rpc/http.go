package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tandachain/native/auction"
	"tandachain/native/automation"
	"tandachain/native/circle"
	"tandachain/native/governance"
	"tandachain/native/insurance"
	"tandachain/native/revenue"
	"tandachain/native/trust"
	"tandachain/observability/metrics"
)

// identityHeader carries the authenticated caller identity. Authentication
// itself happens upstream; the daemon trusts the header and the engines
// compare it against stored authority fields.
const identityHeader = "X-Tanda-Identity"

// Server exposes the engines over HTTP JSON.
type Server struct {
	circles    *circle.Engine
	trust      *trust.Engine
	insurance  *insurance.Engine
	governance *governance.Engine
	auctions   *auction.Engine
	automation *automation.Engine
	revenue    *revenue.Engine
	log        *slog.Logger
	metrics    *metrics.EngineMetrics
}

// NewServer wires the handler set over the provided engines.
func NewServer(
	circles *circle.Engine,
	trustEngine *trust.Engine,
	insuranceEngine *insurance.Engine,
	governanceEngine *governance.Engine,
	auctions *auction.Engine,
	automationEngine *automation.Engine,
	revenueEngine *revenue.Engine,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		circles:    circles,
		trust:      trustEngine,
		insurance:  insuranceEngine,
		governance: governanceEngine,
		auctions:   auctions,
		automation: automationEngine,
		revenue:    revenueEngine,
		log:        logger,
		metrics:    metrics.Engine(),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/circles", s.handleCircleCreate)
		r.Route("/circles/{circleID}", func(r chi.Router) {
			r.Get("/", s.handleCircleGet)
			r.Post("/join", s.handleCircleJoin)
			r.Post("/leave", s.handleCircleLeave)
			r.Post("/contribute", s.handleCircleContribute)
			r.Post("/distribute", s.handleCircleDistribute)
			r.Post("/claim", s.handleCircleClaim)
			r.Post("/dissolve", s.handleCircleDissolve)
			r.Get("/members/{identity}", s.handleMemberGet)
			r.Route("/yield", func(r chi.Router) {
				r.Post("/deposit", s.handleYieldDeposit)
				r.Post("/withdraw", s.handleYieldWithdraw)
				r.Post("/accrue", s.handleYieldAccrue)
				r.Post("/distribute", s.handleYieldDistribute)
			})
			r.Route("/insurance", func(r chi.Router) {
				r.Get("/", s.handleInsurancePool)
				r.Post("/stake", s.handleInsuranceStake)
				r.Post("/return", s.handleInsuranceReturn)
			})
		})

		r.Get("/trust/{identity}", s.handleTrustGet)
		r.Post("/trust/{identity}/init", s.handleTrustInit)
		r.Post("/trust/{identity}/endorse", s.handleTrustEndorse)

		r.Post("/proposals", s.handleProposalCreate)
		r.Get("/proposals/{proposalID}", s.handleProposalGet)
		r.Post("/proposals/{proposalID}/votes", s.handleVoteCast)
		r.Post("/proposals/{proposalID}/execute", s.handleProposalExecute)

		r.Post("/auctions", s.handleAuctionCreate)
		r.Get("/auctions/{auctionID}", s.handleAuctionGet)
		r.Post("/auctions/{auctionID}/bids", s.handleBidPlace)
		r.Post("/auctions/{auctionID}/settle", s.handleAuctionSettle)

		r.Route("/automation", func(r chi.Router) {
			r.Post("/init", s.handleAutomationInit)
			r.Post("/settings", s.handleAutomationSettings)
			r.Route("/circles/{circleID}", func(r chi.Router) {
				r.Get("/", s.handleAutomationConfig)
				r.Post("/setup", s.handleAutomationSetup)
				r.Post("/collect", s.handleAutomationCollect)
				r.Post("/distribute", s.handleAutomationDistribute)
				r.Post("/penalties", s.handleAutomationPenalties)
			})
		})

		r.Route("/revenue", func(r chi.Router) {
			r.Get("/treasury", s.handleTreasuryGet)
			r.Get("/params", s.handleRevenueParams)
			r.Post("/params", s.handleRevenueParamsUpdate)
			r.Post("/management/{circleID}", s.handleManagementCollect)
			r.Post("/reports", s.handleReportCreate)
			r.Get("/reports", s.handleReportGet)
		})
	})
	return r
}

func (s *Server) observe(engine, operation string, err error) {
	s.metrics.ObserveOperation(engine, operation, err)
	if err != nil {
		s.log.Warn("engine operation failed", "engine", engine, "operation", operation, "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.log.Error("encode response", "error", err)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

// statusFor maps the engines' sentinel errors onto HTTP status codes: absent
// records 404, authorization failures 403, duplicate or replayed operations
// 409, timing gates 425, everything else a plain 400.
func statusFor(err error) int {
	switch {
	case errors.Is(err, circle.ErrCircleNotFound),
		errors.Is(err, circle.ErrMemberNotFound),
		errors.Is(err, trust.ErrScoreNotFound),
		errors.Is(err, governance.ErrProposalNotFound),
		errors.Is(err, auction.ErrAuctionNotFound),
		errors.Is(err, automation.ErrNotConfigured),
		errors.Is(err, revenue.ErrTreasuryNotFound),
		errors.Is(err, revenue.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, circle.ErrNotAuthority),
		errors.Is(err, circle.ErrNotRecipient),
		errors.Is(err, automation.ErrNotAuthority),
		errors.Is(err, revenue.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, circle.ErrCircleExists),
		errors.Is(err, circle.ErrMemberExists),
		errors.Is(err, circle.ErrContributionAlreadyMade),
		errors.Is(err, circle.ErrPotAlreadyDistributed),
		errors.Is(err, circle.ErrMemberAlreadyReceivedPot),
		errors.Is(err, trust.ErrAlreadyInitialized),
		errors.Is(err, governance.ErrDuplicateVote),
		errors.Is(err, governance.ErrAlreadyExecuted),
		errors.Is(err, governance.ErrProposalExists),
		errors.Is(err, auction.ErrAlreadySettled),
		errors.Is(err, auction.ErrAuctionExists),
		errors.Is(err, insurance.ErrAlreadyReturned),
		errors.Is(err, automation.ErrAlreadyInitialized),
		errors.Is(err, automation.ErrAlreadyConfigured),
		errors.Is(err, revenue.ErrTreasuryExists),
		errors.Is(err, revenue.ErrParamsExist),
		errors.Is(err, revenue.ErrReportExists):
		return http.StatusConflict
	case errors.Is(err, automation.ErrNotYetDue),
		errors.Is(err, automation.ErrTriggerTooSoon),
		errors.Is(err, revenue.ErrCollectionTooFrequent),
		errors.Is(err, governance.ErrVotingNotEnded),
		errors.Is(err, auction.ErrAuctionStillOpen):
		return http.StatusTooEarly
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) decode(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func (s *Server) identity(r *http.Request) ([20]byte, error) {
	return parseAddress(r.Header.Get(identityHeader))
}

func parseAddress(value string) ([20]byte, error) {
	var addr [20]byte
	cleaned := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(cleaned)
	if err != nil || len(raw) != len(addr) {
		return addr, errors.New("rpc: invalid identity")
	}
	copy(addr[:], raw)
	return addr, nil
}

func parseID(value string) ([32]byte, error) {
	var id [32]byte
	cleaned := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(cleaned)
	if err != nil || len(raw) != len(id) {
		return id, errors.New("rpc: invalid identifier")
	}
	copy(id[:], raw)
	return id, nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || amount.Sign() < 0 {
		return nil, errors.New("rpc: invalid amount")
	}
	return amount, nil
}

func hexID(id [32]byte) string { return hex.EncodeToString(id[:]) }

func hexAddr(addr [20]byte) string { return hex.EncodeToString(addr[:]) }

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
