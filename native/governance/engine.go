package governance

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"tandachain/core/events"
	"tandachain/core/types"
	"tandachain/native/circle"
)

var (
	errNilState = errors.New("governance engine: state not configured")
	// ErrProposalNotFound marks lookups of unknown proposals.
	ErrProposalNotFound = errors.New("governance: proposal not found")
	// ErrMemberNotFound marks proposals or votes from non-members.
	ErrMemberNotFound = errors.New("governance: member not found")
	// ErrDuplicateVote marks a second ballot for the same (proposal, voter)
	// pair, regardless of the support value.
	ErrDuplicateVote = errors.New("governance: duplicate vote")
	// ErrProposalExpired marks votes cast after the deadline.
	ErrProposalExpired = errors.New("governance: proposal expired")
	// ErrVotingNotEnded marks execution attempts before the deadline.
	ErrVotingNotEnded = errors.New("governance: voting not ended")
	// ErrAlreadyExecuted marks a second execution attempt.
	ErrAlreadyExecuted = errors.New("governance: already executed")
	// ErrInvalidPayload marks payloads out of range for their kind.
	ErrInvalidPayload = errors.New("governance: invalid payload")
	// ErrInvalidVotingPeriod marks proposals with a zero voting window.
	ErrInvalidVotingPeriod = errors.New("governance: invalid voting period")
	// ErrProposalExists marks a creation whose derived ID is already taken.
	ErrProposalExists = errors.New("governance: proposal already exists")
)

type engineState interface {
	ProposalPut(*Proposal) error
	ProposalGet(id [32]byte) (*Proposal, bool, error)
	VotePut(*Vote) error
	VoteHas(proposalID [32]byte, voter [20]byte) (bool, error)
	VotesList(proposalID [32]byte) ([]*Vote, error)
}

// circleBridge gives the engine member checks and, on successful execution,
// write access to the target circle's configuration.
type circleBridge interface {
	CircleGet(id [32]byte) (*circle.Circle, bool, error)
	CirclePut(*circle.Circle) error
	MemberGet(circleID [32]byte, identity [20]byte) (*circle.Member, bool, error)
}

type governanceEvent struct {
	evt *types.Event
}

func (g governanceEvent) EventType() string {
	if g.evt == nil {
		return ""
	}
	return g.evt.Type
}

func (g governanceEvent) Event() *types.Event { return g.evt }

// Engine orchestrates proposal admission, quadratic voting and execution for
// circle-scoped governance.
type Engine struct {
	state   engineState
	circles circleBridge
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a governance engine with default no-op dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState wires the engine to the state backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCircles wires the circle state the engine validates and mutates.
func (e *Engine) SetCircles(circles circleBridge) { e.circles = circles }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used to stamp proposals and evaluate
// deadlines. Nil restores the default clock.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(governanceEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) requireMember(circleID [32]byte, identity [20]byte) error {
	member, ok, err := e.circles.MemberGet(circleID, identity)
	if err != nil {
		return err
	}
	if !ok || member.Status != circle.MemberActive {
		return ErrMemberNotFound
	}
	return nil
}

func validatePayload(kind Kind, payload Payload) error {
	switch kind {
	case KindPenaltyRate:
		if payload.NewPenaltyRateBps > 10_000 {
			return ErrInvalidPayload
		}
	case KindDurationExtension:
		if payload.ExtensionRounds == 0 {
			return ErrInvalidPayload
		}
	case KindEmergencyPause, KindEmergencyResume:
		// No payload fields.
	default:
		return ErrInvalidPayload
	}
	return nil
}

// CreateProposal admits a proposal scoped to a circle. Only members may
// propose. The voting deadline and execution threshold are fixed at creation.
func (e *Engine) CreateProposal(circleID [32]byte, caller [20]byte, title, description string, kind Kind, payload Payload, votingPeriodSeconds uint64, threshold uint64) (*Proposal, error) {
	if e == nil || e.state == nil || e.circles == nil {
		return nil, errNilState
	}
	if _, ok, err := e.circles.CircleGet(circleID); err != nil {
		return nil, err
	} else if !ok {
		return nil, circle.ErrCircleNotFound
	}
	if err := e.requireMember(circleID, caller); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, ErrInvalidPayload
	}
	if err := validatePayload(kind, payload); err != nil {
		return nil, err
	}
	if votingPeriodSeconds == 0 {
		return nil, ErrInvalidVotingPeriod
	}
	now := uint64(e.now())
	id := DeriveProposalID(circleID, now)
	if _, ok, err := e.state.ProposalGet(id); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrProposalExists
	}
	proposal := &Proposal{
		ID:           id,
		CircleID:     circleID,
		Proposer:     caller,
		Title:        strings.TrimSpace(title),
		Description:  strings.TrimSpace(description),
		Kind:         kind,
		Payload:      payload,
		Deadline:     now + votingPeriodSeconds,
		Threshold:    threshold,
		VotesFor:     big.NewInt(0),
		VotesAgainst: big.NewInt(0),
		CreatedAt:    now,
	}
	if err := e.state.ProposalPut(proposal); err != nil {
		return nil, err
	}
	e.emit(newProposedEvent(proposal))
	return proposal.Clone(), nil
}

// CastVote records an immutable ballot. The linear power accumulates into
// the stored tallies for auditing; the quadratic weight recorded on the vote
// is what the execution decision sums.
func (e *Engine) CastVote(proposalID [32]byte, voter [20]byte, support bool, power *big.Int) (*Vote, error) {
	if e == nil || e.state == nil || e.circles == nil {
		return nil, errNilState
	}
	proposal, ok, err := e.state.ProposalGet(proposalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProposalNotFound
	}
	if uint64(e.now()) > proposal.Deadline {
		return nil, ErrProposalExpired
	}
	if err := e.requireMember(proposal.CircleID, voter); err != nil {
		return nil, err
	}
	if exists, err := e.state.VoteHas(proposalID, voter); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDuplicateVote
	}
	weight, err := QuadraticWeightOf(power)
	if err != nil {
		return nil, err
	}
	vote := &Vote{
		ProposalID:      proposalID,
		Voter:           voter,
		Support:         support,
		Power:           cloneBig(power),
		QuadraticWeight: weight,
		CastAt:          uint64(e.now()),
	}
	if err := e.state.VotePut(vote); err != nil {
		return nil, err
	}
	if support {
		proposal.VotesFor = new(big.Int).Add(proposal.VotesFor, vote.Power)
	} else {
		proposal.VotesAgainst = new(big.Int).Add(proposal.VotesAgainst, vote.Power)
	}
	if err := e.state.ProposalPut(proposal); err != nil {
		return nil, err
	}
	e.emit(newVoteEvent(vote))
	return vote.Clone(), nil
}

// Execute tallies the recorded ballots after the deadline and, when the
// aggregate quadratic weight in favour strictly exceeds the weight against
// and meets the threshold, applies the payload to the target circle. The
// proposal is marked executed either way so it can never run twice; a tie is
// a fail.
func (e *Engine) Execute(proposalID [32]byte) (*Proposal, error) {
	if e == nil || e.state == nil || e.circles == nil {
		return nil, errNilState
	}
	proposal, ok, err := e.state.ProposalGet(proposalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProposalNotFound
	}
	if proposal.Executed {
		return nil, ErrAlreadyExecuted
	}
	if uint64(e.now()) <= proposal.Deadline {
		return nil, ErrVotingNotEnded
	}
	votes, err := e.state.VotesList(proposalID)
	if err != nil {
		return nil, err
	}
	var quadFor, quadAgainst uint64
	for _, vote := range votes {
		if vote == nil {
			continue
		}
		if vote.Support {
			quadFor += vote.QuadraticWeight
		} else {
			quadAgainst += vote.QuadraticWeight
		}
	}
	passed := quadFor > quadAgainst && quadFor+quadAgainst >= proposal.Threshold
	if passed {
		if err := e.apply(proposal); err != nil {
			return nil, err
		}
	}
	proposal.Executed = true
	proposal.Passed = passed
	proposal.ExecutedAt = uint64(e.now())
	if err := e.state.ProposalPut(proposal); err != nil {
		return nil, err
	}
	e.emit(newExecutedEvent(proposal, quadFor, quadAgainst))
	return proposal.Clone(), nil
}

// apply mutates the target circle according to the proposal's tagged payload.
func (e *Engine) apply(proposal *Proposal) error {
	c, ok, err := e.circles.CircleGet(proposal.CircleID)
	if err != nil {
		return err
	}
	if !ok {
		return circle.ErrCircleNotFound
	}
	switch proposal.Kind {
	case KindPenaltyRate:
		c.PenaltyRateBps = proposal.Payload.NewPenaltyRateBps
	case KindDurationExtension:
		c.DurationRounds += proposal.Payload.ExtensionRounds
		for i := uint64(0); i < proposal.Payload.ExtensionRounds; i++ {
			c.Rounds = append(c.Rounds, circle.Round{TotalCollected: big.NewInt(0)})
		}
		if c.Status == circle.StatusCompleted {
			c.Status = circle.StatusActive
		}
	case KindEmergencyPause:
		c.Status = circle.StatusForming
	case KindEmergencyResume:
		c.Status = circle.StatusActive
	default:
		return ErrInvalidPayload
	}
	return e.circles.CirclePut(c)
}

// Get returns a copy of the stored proposal.
func (e *Engine) Get(proposalID [32]byte) (*Proposal, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	proposal, ok, err := e.state.ProposalGet(proposalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProposalNotFound
	}
	return proposal.Clone(), nil
}
