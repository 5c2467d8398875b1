package trust

import (
	"errors"
	"math/big"
	"time"

	"tandachain/core/events"
	"tandachain/core/types"
)

var (
	errNilState = errors.New("trust engine: state not configured")
	// ErrAlreadyInitialized marks a second initialization for one identity.
	// Reputation persists: initialization never resets an existing record.
	ErrAlreadyInitialized = errors.New("trust: score already initialized")
	// ErrScoreNotFound marks lookups for identities without a record.
	ErrScoreNotFound = errors.New("trust: score not found")
)

// Fixed adjustment steps. Score updates are pure, deterministic functions of
// accumulated history; there is no external randomness.
const (
	onTimePaymentStep  = 25
	missedPaymentStep  = 50
	payoutPaymentStep  = 10
	activityStep       = 10
	completionStep     = 100
	maxEndorsementStep = 100
)

type engineState interface {
	TrustPut(*Score) error
	TrustGet(identity [20]byte) (*Score, bool, error)
}

type trustEvent struct {
	evt *types.Event
}

func (e trustEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e trustEvent) Event() *types.Event { return e.evt }

// Engine owns the portable reputation score. It is decoupled from any single
// circle: the circle engine reads it for stake sizing and feeds it
// contribution and completion events.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a trust engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// Initialize creates the score record for an identity with all sub-scores at
// zero. A second call for the same identity fails rather than resetting.
func (e *Engine) Initialize(identity [20]byte) (*Score, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok, err := e.state.TrustGet(identity); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	score := &Score{Identity: identity, UpdatedAt: uint64(e.now())}
	if err := e.state.TrustPut(score); err != nil {
		return nil, err
	}
	return score.Clone(), nil
}

// Get returns the stored score for an identity.
func (e *Engine) Get(identity [20]byte) (*Score, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	score, ok, err := e.state.TrustGet(identity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrScoreNotFound
	}
	return score.Clone(), nil
}

// load returns the score, creating it on first use.
func (e *Engine) load(identity [20]byte) (*Score, error) {
	score, ok, err := e.state.TrustGet(identity)
	if err != nil {
		return nil, err
	}
	if !ok {
		score = &Score{Identity: identity}
	}
	return score, nil
}

func (e *Engine) store(score *Score) error {
	score.UpdatedAt = uint64(e.now())
	score.recompute()
	if err := e.state.TrustPut(score); err != nil {
		return err
	}
	e.emit(newUpdatedEvent(score))
	return nil
}

// RecordContribution adjusts the payment-history component: up for an on-time
// contribution, down for a miss. Activity moves up either way because the
// identity stays engaged with the protocol.
func (e *Engine) RecordContribution(identity [20]byte, onTime bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	score, err := e.load(identity)
	if err != nil {
		return err
	}
	if onTime {
		score.PaymentHistory = bump(score.PaymentHistory, onTimePaymentStep)
		score.Activity = bump(score.Activity, activityStep)
	} else {
		score.PaymentHistory = drop(score.PaymentHistory, missedPaymentStep)
	}
	return e.store(score)
}

// RecordPayout nudges payment history when the identity receives a pot,
// reflecting a completed obligation cycle.
func (e *Engine) RecordPayout(identity [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	score, err := e.load(identity)
	if err != nil {
		return err
	}
	score.PaymentHistory = bump(score.PaymentHistory, payoutPaymentStep)
	return e.store(score)
}

// RecordCompletion credits the completion-rate component after a circle
// finishes without the identity defaulting.
func (e *Engine) RecordCompletion(identity [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	score, err := e.load(identity)
	if err != nil {
		return err
	}
	score.CompletionRate = bump(score.CompletionRate, completionStep)
	return e.store(score)
}

// RecordEndorsement credits the social-proof component. The step is capped to
// keep a single endorsement from dominating the score.
func (e *Engine) RecordEndorsement(identity [20]byte, weight uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if weight > maxEndorsementStep {
		weight = maxEndorsementStep
	}
	score, err := e.load(identity)
	if err != nil {
		return err
	}
	score.SocialProof = bump(score.SocialProof, weight)
	return e.store(score)
}

// MinimumStake sizes the join stake for an identity against a circle's
// contribution amount. Unknown identities are Newcomers.
func (e *Engine) MinimumStake(identity [20]byte, contribution *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	tier := TierNewcomer
	score, ok, err := e.state.TrustGet(identity)
	if err != nil {
		return nil, err
	}
	if ok {
		tier = score.Tier()
	}
	return MinimumStakeFor(tier, contribution), nil
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(trustEvent{evt: event})
}

func bump(current uint32, step uint32) uint32 {
	next := current + step
	if next > maxScore {
		return maxScore
	}
	return next
}

func drop(current uint32, step uint32) uint32 {
	if current < step {
		return 0
	}
	return current - step
}
