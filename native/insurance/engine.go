package insurance

import (
	"errors"
	"math/big"

	"tandachain/core/events"
	"tandachain/core/types"
	"tandachain/native/circle"
)

var (
	errNilState = errors.New("insurance engine: state not configured")
	// ErrNotMember marks stakes from identities without a member record.
	ErrNotMember = errors.New("insurance: not a circle member")
	// ErrInvalidMemberStatus marks slashes against defaulted or departed
	// members and returns to defaulted members.
	ErrInvalidMemberStatus = errors.New("insurance: invalid member status")
	// ErrNoStake marks slash or return attempts without a staked position.
	ErrNoStake = errors.New("insurance: no stake held")
	// ErrAlreadyReturned marks a second return of the same stake.
	ErrAlreadyReturned = errors.New("insurance: stake already returned")
	// ErrCircleNotCompleted marks returns before the circle finishes.
	ErrCircleNotCompleted = errors.New("insurance: circle not completed")
	// ErrInvalidStakeAmount marks zero or negative stake amounts.
	ErrInvalidStakeAmount = errors.New("insurance: invalid stake amount")
)

type engineState interface {
	InsurancePut(*Pool) error
	InsuranceGet(circleID [32]byte) (*Pool, bool, error)
	InsuranceVaultAddress(circleID [32]byte) [20]byte
	Transfer(from, to [20]byte, amount *big.Int) error
}

// circleBridge is the slice of the circle engine's state the insurance engine
// touches: member standing and circle completion.
type circleBridge interface {
	CircleGet(id [32]byte) (*circle.Circle, bool, error)
	MemberGet(circleID [32]byte, identity [20]byte) (*circle.Member, bool, error)
	MemberPut(*circle.Member) error
}

type insuranceEvent struct {
	evt *types.Event
}

func (e insuranceEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e insuranceEvent) Event() *types.Event { return e.evt }

// Engine owns the per-circle capital-loss backstop: member stakes flow in,
// defaults forfeit them to the pool, and completion returns them with a
// pro-rata share of what defaulters left behind.
type Engine struct {
	state   engineState
	circles circleBridge
	emitter events.Emitter
}

// NewEngine creates an insurance engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCircles wires the circle state the engine validates against.
func (e *Engine) SetCircles(circles circleBridge) { e.circles = circles }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(insuranceEvent{evt: event})
}

func (e *Engine) loadPool(circleID [32]byte) (*Pool, error) {
	pool, ok, err := e.state.InsuranceGet(circleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		pool = &Pool{CircleID: circleID, TotalStaked: big.NewInt(0), ForfeitedTotal: big.NewInt(0)}
	}
	return pool, nil
}

func (e *Engine) loadMember(circleID [32]byte, identity [20]byte) (*circle.Member, error) {
	member, ok, err := e.circles.MemberGet(circleID, identity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	return member, nil
}

// Stake adds to the caller's insurance position and the pool total.
func (e *Engine) Stake(circleID [32]byte, caller [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil || e.circles == nil {
		return errNilState
	}
	staked := cloneBig(amount)
	if staked.Sign() <= 0 {
		return ErrInvalidStakeAmount
	}
	member, err := e.loadMember(circleID, caller)
	if err != nil {
		return err
	}
	if member.Status != circle.MemberActive {
		return ErrInvalidMemberStatus
	}
	vault := e.state.InsuranceVaultAddress(circleID)
	if err := e.state.Transfer(caller, vault, staked); err != nil {
		return err
	}
	pool, err := e.loadPool(circleID)
	if err != nil {
		return err
	}
	entry := pool.stakeOf(caller)
	if entry == nil {
		pool.Stakes = append(pool.Stakes, MemberStake{Identity: caller, Amount: staked})
	} else {
		entry.Amount = new(big.Int).Add(entry.Amount, staked)
	}
	pool.TotalStaked = new(big.Int).Add(pool.TotalStaked, staked)
	if err := e.state.InsurancePut(pool); err != nil {
		return err
	}
	e.emit(newStakedEvent(circleID, caller, staked))
	return nil
}

// Slash forfeits the member's insurance stake to the pool and marks the
// member defaulted. Slashing a member who is already defaulted or who left is
// a definitive rejection, not a silent success.
func (e *Engine) Slash(circleID [32]byte, identity [20]byte) error {
	if e == nil || e.state == nil || e.circles == nil {
		return errNilState
	}
	member, err := e.loadMember(circleID, identity)
	if err != nil {
		return err
	}
	if member.Status != circle.MemberActive {
		return ErrInvalidMemberStatus
	}
	pool, err := e.loadPool(circleID)
	if err != nil {
		return err
	}
	forfeited := big.NewInt(0)
	if entry := pool.stakeOf(identity); entry != nil && !entry.Forfeited && !entry.Returned {
		forfeited = cloneBig(entry.Amount)
		entry.Forfeited = true
		pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, forfeited)
		pool.ForfeitedTotal = new(big.Int).Add(pool.ForfeitedTotal, forfeited)
	}
	member.Status = circle.MemberDefaulted
	if err := e.circles.MemberPut(member); err != nil {
		return err
	}
	if err := e.state.InsurancePut(pool); err != nil {
		return err
	}
	e.emit(newSlashedEvent(circleID, identity, forfeited))
	return nil
}

// ReturnWithBonus pays back the caller's stake plus a pro-rata share of
// forfeited stakes once the circle has completed.
func (e *Engine) ReturnWithBonus(circleID [32]byte, caller [20]byte) error {
	if e == nil || e.state == nil || e.circles == nil {
		return errNilState
	}
	c, ok, err := e.circles.CircleGet(circleID)
	if err != nil {
		return err
	}
	if !ok {
		return circle.ErrCircleNotFound
	}
	if c.Status != circle.StatusCompleted {
		return ErrCircleNotCompleted
	}
	member, err := e.loadMember(circleID, caller)
	if err != nil {
		return err
	}
	if member.Status == circle.MemberDefaulted {
		return ErrInvalidMemberStatus
	}
	pool, err := e.loadPool(circleID)
	if err != nil {
		return err
	}
	entry := pool.stakeOf(caller)
	if entry == nil || entry.Amount.Sign() == 0 {
		return ErrNoStake
	}
	if entry.Forfeited {
		return ErrInvalidMemberStatus
	}
	if entry.Returned {
		return ErrAlreadyReturned
	}
	// Iterative pro-rata: each return takes its proportional slice of the
	// forfeited pot relative to the stakes still outstanding.
	bonus := big.NewInt(0)
	if pool.ForfeitedTotal.Sign() > 0 && pool.TotalStaked.Sign() > 0 {
		bonus = new(big.Int).Mul(pool.ForfeitedTotal, entry.Amount)
		bonus = bonus.Div(bonus, pool.TotalStaked)
	}
	payout := new(big.Int).Add(entry.Amount, bonus)
	vault := e.state.InsuranceVaultAddress(circleID)
	if payout.Sign() > 0 {
		if err := e.state.Transfer(vault, caller, payout); err != nil {
			return err
		}
	}
	pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, entry.Amount)
	pool.ForfeitedTotal = new(big.Int).Sub(pool.ForfeitedTotal, bonus)
	entry.Returned = true
	if err := e.state.InsurancePut(pool); err != nil {
		return err
	}
	e.emit(newReturnedEvent(circleID, caller, payout, bonus))
	return nil
}

// Pool returns a copy of the backstop record for a circle.
func (e *Engine) Pool(circleID [32]byte) (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.loadPool(circleID)
	if err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}
