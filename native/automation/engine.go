package automation

import (
	"errors"
	"time"

	"tandachain/core/events"
	"tandachain/core/types"
	"tandachain/native/circle"
)

var (
	errNilState = errors.New("automation engine: state not configured")
	// ErrAlreadyInitialized marks a second global initialization.
	ErrAlreadyInitialized = errors.New("automation: state already initialized")
	// ErrNotInitialized marks triggers before the global state exists.
	ErrNotInitialized = errors.New("automation: state not initialized")
	// ErrNotAuthority marks settings updates from other identities.
	ErrNotAuthority = errors.New("automation: caller is not the authority")
	// ErrDisabled marks triggers while automation is switched off.
	ErrDisabled = errors.New("automation: automation disabled")
	// ErrTriggerTooSoon marks triggers inside the global rate-limit window.
	ErrTriggerTooSoon = errors.New("automation: trigger too soon")
	// ErrNotYetDue marks triggers before the next scheduled entry. Dispatchers
	// poll and must be able to tell "not yet time" from genuine failure.
	ErrNotYetDue = errors.New("automation: not yet due")
	// ErrScheduleExhausted marks triggers after every entry has fired.
	ErrScheduleExhausted = errors.New("automation: schedule exhausted")
	// ErrTriggerDisabled marks triggers the circle did not opt into.
	ErrTriggerDisabled = errors.New("automation: trigger disabled for circle")
	// ErrNotConfigured marks triggers for circles without automation setup.
	ErrNotConfigured = errors.New("automation: circle not configured")
	// ErrAlreadyConfigured marks a second setup for the same circle.
	ErrAlreadyConfigured = errors.New("automation: circle already configured")
)

type engineState interface {
	AutomationStatePut(*State) error
	AutomationStateGet() (*State, bool, error)
	CircleAutomationPut(*CircleAutomation) error
	CircleAutomationGet(circleID [32]byte) (*CircleAutomation, bool, error)
	AutomationLogAppend(*LogEntry) error
}

// circleOps is the slice of the circle engine the dispatcher drives.
type circleOps interface {
	CircleGet(id [32]byte) (*circle.Circle, bool, error)
	CollectRound(circleID [32]byte) (uint64, error)
	DistributeScheduled(circleID [32]byte) error
	AssessPenalties(circleID [32]byte) ([][20]byte, error)
}

// insuranceOps lets penalty enforcement slash members that defaulted.
type insuranceOps interface {
	Slash(circleID [32]byte, identity [20]byte) error
}

type automationEvent struct {
	evt *types.Event
}

func (a automationEvent) EventType() string {
	if a.evt == nil {
		return ""
	}
	return a.evt.Type
}

func (a automationEvent) Event() *types.Event { return a.evt }

// Engine owns trigger schedules and the rate-limited dispatch gate. It has no
// timers of its own: an external dispatcher polls the trigger entry points,
// and the engine only decides whether each call is due.
type Engine struct {
	state     engineState
	circles   circleOps
	insurance insuranceOps
	emitter   events.Emitter
	nowFn     func() int64
}

// NewEngine creates an automation engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCircles wires the circle engine driven by triggers.
func (e *Engine) SetCircles(circles circleOps) { e.circles = circles }

// SetInsurance wires the insurance engine used on default detection.
func (e *Engine) SetInsurance(ins insuranceOps) { e.insurance = ins }

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

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(automationEvent{evt: event})
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return uint64(e.nowFn())
}

// InitializeState creates the global automation record. One-time.
func (e *Engine) InitializeState(authority [20]byte, minInterval uint64) (*State, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok, err := e.state.AutomationStateGet(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	state := &State{Authority: authority, Enabled: true, MinInterval: minInterval}
	if err := e.state.AutomationStatePut(state); err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// UpdateSettings applies a partial update: nil fields leave the stored value
// unchanged. Authority-gated.
func (e *Engine) UpdateSettings(caller [20]byte, enabled *bool, minInterval *uint64) (*State, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	state, ok, err := e.state.AutomationStateGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	if caller != state.Authority {
		return nil, ErrNotAuthority
	}
	if enabled != nil {
		state.Enabled = *enabled
	}
	if minInterval != nil {
		state.MinInterval = *minInterval
	}
	if err := e.state.AutomationStatePut(state); err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// SetupCircle precomputes the circle's trigger schedules from its creation
// time, one entry per round, and registers the job globally.
func (e *Engine) SetupCircle(circleID [32]byte, autoCollect, autoDistribute, autoPenalty bool) (*CircleAutomation, error) {
	if e == nil || e.state == nil || e.circles == nil {
		return nil, errNilState
	}
	state, ok, err := e.state.AutomationStateGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	c, ok, err := e.circles.CircleGet(circleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, circle.ErrCircleNotFound
	}
	if _, ok, err := e.state.CircleAutomationGet(circleID); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyConfigured
	}
	contribution, distribution, penalty := BuildSchedules(c.CreatedAt, c.DurationRounds)
	cfg := &CircleAutomation{
		CircleID:             circleID,
		AutoCollect:          autoCollect,
		AutoDistribute:       autoDistribute,
		AutoPenalty:          autoPenalty,
		ContributionSchedule: contribution,
		DistributionSchedule: distribution,
		PenaltySchedule:      penalty,
	}
	if err := e.state.CircleAutomationPut(cfg); err != nil {
		return nil, err
	}
	state.ActiveJobs++
	if err := e.state.AutomationStatePut(state); err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// gate enforces the global enable flag and rate limit, stamping the trigger
// time on success.
func (e *Engine) gate(now uint64) (*State, error) {
	state, ok, err := e.state.AutomationStateGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	if !state.Enabled {
		return nil, ErrDisabled
	}
	if state.LastTrigger > 0 && now < state.LastTrigger+state.MinInterval {
		return nil, ErrTriggerTooSoon
	}
	state.LastTrigger = now
	if err := e.state.AutomationStatePut(state); err != nil {
		return nil, err
	}
	return state, nil
}

// due checks the next unfired entry of the given schedule against now.
func due(schedule []uint64, next, now uint64) error {
	if next >= uint64(len(schedule)) {
		return ErrScheduleExhausted
	}
	if now < schedule[next] {
		return ErrNotYetDue
	}
	return nil
}

func (e *Engine) log(cfg *CircleAutomation, trigger TriggerType, success bool, now uint64) error {
	entry := &LogEntry{
		CircleID: cfg.CircleID,
		Trigger:  trigger,
		Success:  success,
		FiredAt:  now,
		Sequence: cfg.EventCount,
	}
	cfg.EventCount++
	if err := e.state.AutomationLogAppend(entry); err != nil {
		return err
	}
	e.emit(newTriggeredEvent(entry))
	return nil
}

// CollectContributions fires the collection trigger for a circle: due check,
// auto-debit of outstanding contributions, and an appended log entry.
func (e *Engine) CollectContributions(circleID [32]byte) (uint64, error) {
	if e == nil || e.state == nil || e.circles == nil {
		return 0, errNilState
	}
	now := e.now()
	cfg, ok, err := e.state.CircleAutomationGet(circleID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotConfigured
	}
	if !cfg.AutoCollect {
		return 0, ErrTriggerDisabled
	}
	if err := due(cfg.ContributionSchedule, cfg.NextCollection, now); err != nil {
		return 0, err
	}
	if _, err := e.gate(now); err != nil {
		return 0, err
	}
	cfg.NextCollection++
	collected, opErr := e.circles.CollectRound(circleID)
	if err := e.log(cfg, TriggerCollection, opErr == nil, now); err != nil {
		return collected, err
	}
	if err := e.state.CircleAutomationPut(cfg); err != nil {
		return collected, err
	}
	return collected, opErr
}

// DistributePot fires the distribution trigger for a circle.
func (e *Engine) DistributePot(circleID [32]byte) error {
	if e == nil || e.state == nil || e.circles == nil {
		return errNilState
	}
	now := e.now()
	cfg, ok, err := e.state.CircleAutomationGet(circleID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConfigured
	}
	if !cfg.AutoDistribute {
		return ErrTriggerDisabled
	}
	if err := due(cfg.DistributionSchedule, cfg.NextDistribution, now); err != nil {
		return err
	}
	if _, err := e.gate(now); err != nil {
		return err
	}
	cfg.NextDistribution++
	opErr := e.circles.DistributeScheduled(circleID)
	if err := e.log(cfg, TriggerDistribution, opErr == nil, now); err != nil {
		return err
	}
	if err := e.state.CircleAutomationPut(cfg); err != nil {
		return err
	}
	return opErr
}

// EnforcePenalties fires the penalty trigger: missed contributions are
// penalised and any member crossing the default threshold is slashed.
func (e *Engine) EnforcePenalties(circleID [32]byte) error {
	if e == nil || e.state == nil || e.circles == nil {
		return errNilState
	}
	now := e.now()
	cfg, ok, err := e.state.CircleAutomationGet(circleID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConfigured
	}
	if !cfg.AutoPenalty {
		return ErrTriggerDisabled
	}
	if err := due(cfg.PenaltySchedule, cfg.NextPenalty, now); err != nil {
		return err
	}
	if _, err := e.gate(now); err != nil {
		return err
	}
	cfg.NextPenalty++
	defaulted, opErr := e.circles.AssessPenalties(circleID)
	if opErr == nil && e.insurance != nil {
		for _, identity := range defaulted {
			if err := e.insurance.Slash(circleID, identity); err != nil {
				opErr = err
				break
			}
		}
	}
	if err := e.log(cfg, TriggerPenalty, opErr == nil, now); err != nil {
		return err
	}
	if err := e.state.CircleAutomationPut(cfg); err != nil {
		return err
	}
	return opErr
}

// Config returns a copy of a circle's automation record.
func (e *Engine) Config(circleID [32]byte) (*CircleAutomation, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, ok, err := e.state.CircleAutomationGet(circleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotConfigured
	}
	return cfg.Clone(), nil
}
