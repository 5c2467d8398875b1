package circle

import (
	"errors"
	"math/big"
	"time"

	"tandachain/core/events"
	"tandachain/core/types"
)

var errNilState = errors.New("circle engine: state not configured")

type engineState interface {
	CirclePut(*Circle) error
	CircleGet(id [32]byte) (*Circle, bool, error)
	EscrowPut(*Escrow) error
	EscrowGet(id [32]byte) (*Escrow, bool, error)
	MemberPut(*Member) error
	MemberGet(circleID [32]byte, identity [20]byte) (*Member, bool, error)
	CircleVaultAddress(id [32]byte) [20]byte
	Transfer(from, to [20]byte, amount *big.Int) error
	Credit(addr [20]byte, amount *big.Int) error
}

// trustBridge is the slice of the trust score engine the circle engine
// consults. Stake sizing reads the tier-derived minimum; contribution and
// payout events feed the score back.
type trustBridge interface {
	MinimumStake(identity [20]byte, contribution *big.Int) (*big.Int, error)
	RecordContribution(identity [20]byte, onTime bool) error
	RecordPayout(identity [20]byte) error
	RecordCompletion(identity [20]byte) error
}

// feeBridge is the slice of the revenue engine invoked synchronously on every
// fee-bearing transfer. Fee routing happens inside the same operation as the
// triggering action, never as a separate step.
type feeBridge interface {
	DistributionFee(gross *big.Int) (*big.Int, error)
	YieldFee(gross *big.Int) (*big.Int, error)
	NoteDistributionFee(fee *big.Int) error
	NoteYieldFee(fee *big.Int) error
	TreasuryAddress() [20]byte
}

type circleEvent struct {
	evt *types.Event
}

func (e circleEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e circleEvent) Event() *types.Event { return e.evt }

// Engine owns the circle state machine: lifecycle, member lifecycle,
// contribution and escrow accounting, payout distribution, and the external
// yield position.
type Engine struct {
	state   engineState
	emitter events.Emitter
	trust   trustBridge
	fees    feeBridge
	nowFn   func() int64
}

// NewEngine creates a circle engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTrust wires the trust score engine. Without it, joins fall back to the
// Newcomer minimum of twice the contribution amount.
func (e *Engine) SetTrust(trust trustBridge) { e.trust = trust }

// SetFees wires the revenue engine. Without it, no fees are withheld.
func (e *Engine) SetFees(fees feeBridge) { e.fees = fees }

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
	e.emitter.Emit(circleEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// CircleGet returns a copy of the stored circle record, if present.
func (e *Engine) CircleGet(id [32]byte) (*Circle, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	c, ok, err := e.state.CircleGet(id)
	if err != nil || !ok {
		return nil, ok, err
	}
	return c.Clone(), true, nil
}

// EscrowGet returns a copy of the circle's escrow record, if present.
func (e *Engine) EscrowGet(id [32]byte) (*Escrow, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	esc, ok, err := e.state.EscrowGet(id)
	if err != nil || !ok {
		return nil, ok, err
	}
	return esc.Clone(), true, nil
}

// MemberGet returns a copy of the stored membership record, if present.
func (e *Engine) MemberGet(circleID [32]byte, identity [20]byte) (*Member, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	member, ok, err := e.state.MemberGet(circleID, identity)
	if err != nil || !ok {
		return nil, ok, err
	}
	return member.Clone(), true, nil
}

func (e *Engine) loadCircle(id [32]byte) (*Circle, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	c, ok, err := e.state.CircleGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCircleNotFound
	}
	return c, nil
}

func (e *Engine) loadEscrow(id [32]byte) (*Escrow, error) {
	esc, ok, err := e.state.EscrowGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCircleNotFound
	}
	return esc, nil
}

func (e *Engine) loadMember(circleID [32]byte, identity [20]byte) (*Member, error) {
	member, ok, err := e.state.MemberGet(circleID, identity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

func (e *Engine) minimumStake(identity [20]byte, contribution *big.Int) (*big.Int, error) {
	if e.trust != nil {
		return e.trust.MinimumStake(identity, contribution)
	}
	return new(big.Int).Mul(cloneBig(contribution), big.NewInt(2)), nil
}

func (e *Engine) distributionFee(gross *big.Int) (*big.Int, error) {
	if e.fees == nil {
		return big.NewInt(0), nil
	}
	return e.fees.DistributionFee(gross)
}

// Initialize creates a circle and its escrow. The circle is usable
// immediately: status starts Active, round zero, empty member list.
func (e *Engine) Initialize(creator [20]byte, nonce uint64, contributionAmount *big.Int, durationRounds, maxMembers uint64, penaltyRateBps uint32) (*Circle, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if durationRounds == 0 {
		return nil, ErrInvalidDuration
	}
	if penaltyRateBps > 10_000 {
		return nil, ErrInvalidPenaltyRate
	}
	if maxMembers == 0 {
		return nil, ErrInvalidMemberCount
	}
	amount := cloneBig(contributionAmount)
	if amount.Sign() <= 0 {
		return nil, ErrInvalidContributionAmount
	}
	id := DeriveID(creator, nonce)
	if _, ok, err := e.state.CircleGet(id); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrCircleExists
	}
	now := uint64(e.now())
	rounds := make([]Round, durationRounds)
	for i := range rounds {
		rounds[i].TotalCollected = big.NewInt(0)
	}
	c := &Circle{
		ID:                 id,
		Creator:            creator,
		ContributionAmount: amount,
		DurationRounds:     durationRounds,
		MaxMembers:         maxMembers,
		PenaltyRateBps:     penaltyRateBps,
		TotalPot:           big.NewInt(0),
		Rounds:             rounds,
		Status:             StatusActive,
		CreatedAt:          now,
		Nonce:              nonce,
	}
	if err := e.state.CirclePut(c); err != nil {
		return nil, err
	}
	esc := &Escrow{
		CircleID:     id,
		TotalAmount:  big.NewInt(0),
		YieldBalance: big.NewInt(0),
		YieldEarned:  big.NewInt(0),
	}
	if err := e.state.EscrowPut(esc); err != nil {
		return nil, err
	}
	e.emit(newCreatedEvent(c))
	return c.Clone(), nil
}

// Join admits a new member. The stake must satisfy the minimum implied by the
// caller's trust tier, and moves into escrow alongside contributions.
func (e *Engine) Join(circleID [32]byte, caller [20]byte, stake *big.Int) (*Member, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusActive {
		return nil, ErrCircleNotActive
	}
	if c.MemberCount >= c.MaxMembers {
		return nil, ErrCircleFull
	}
	if _, ok, err := e.state.MemberGet(circleID, caller); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrMemberExists
	}
	stakeAmount := cloneBig(stake)
	minimum, err := e.minimumStake(caller, c.ContributionAmount)
	if err != nil {
		return nil, err
	}
	if stakeAmount.Cmp(minimum) < 0 {
		return nil, ErrInsufficientStake
	}
	vault := e.state.CircleVaultAddress(circleID)
	if err := e.state.Transfer(caller, vault, stakeAmount); err != nil {
		return nil, err
	}
	esc, err := e.loadEscrow(circleID)
	if err != nil {
		return nil, err
	}
	esc.TotalAmount = new(big.Int).Add(esc.TotalAmount, stakeAmount)
	member := &Member{
		Authority:      caller,
		CircleID:       circleID,
		Stake:          stakeAmount,
		PayoutPosition: uint64(len(c.Members)),
		Status:         MemberActive,
		JoinedAt:       uint64(e.now()),
	}
	c.Members = append(c.Members, caller)
	c.MemberCount++
	if err := e.state.MemberPut(member); err != nil {
		return nil, err
	}
	if err := e.state.CirclePut(c); err != nil {
		return nil, err
	}
	if err := e.state.EscrowPut(esc); err != nil {
		return nil, err
	}
	e.emit(newJoinedEvent(c, caller, stakeAmount))
	return member.Clone(), nil
}

// Leave exits the circle before completion and returns the member's stake.
// A member whose current-round contribution is still locked in an
// undistributed pot cannot leave.
func (e *Engine) Leave(circleID [32]byte, caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return err
	}
	if c.Status != StatusActive {
		return ErrCircleNotActive
	}
	member, err := e.loadMember(circleID, caller)
	if err != nil {
		return err
	}
	if member.Status != MemberActive {
		return ErrInvalidMemberStatus
	}
	if c.CurrentRound < uint64(len(c.Rounds)) {
		round := c.Rounds[c.CurrentRound]
		if member.ContributedInRound(c.CurrentRound) && !round.Distributed {
			return ErrPendingObligation
		}
	}
	vault := e.state.CircleVaultAddress(circleID)
	refund := cloneBig(member.Stake)
	if refund.Sign() > 0 {
		if err := e.state.Transfer(vault, caller, refund); err != nil {
			return err
		}
	}
	esc, err := e.loadEscrow(circleID)
	if err != nil {
		return err
	}
	esc.TotalAmount = new(big.Int).Sub(esc.TotalAmount, refund)
	member.Status = MemberLeft
	member.Stake = big.NewInt(0)
	if c.MemberCount > 0 {
		c.MemberCount--
	}
	if err := e.state.MemberPut(member); err != nil {
		return err
	}
	if err := e.state.CirclePut(c); err != nil {
		return err
	}
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	e.emit(newLeftEvent(c, caller, refund))
	return nil
}

// Contribute records the caller's payment for the current round and moves the
// amount into escrow. The amount must equal the circle's fixed contribution.
func (e *Engine) Contribute(circleID [32]byte, caller [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return err
	}
	if c.Status != StatusActive {
		return ErrCircleNotActive
	}
	if c.CurrentRound >= uint64(len(c.Rounds)) {
		return ErrRoundOutOfRange
	}
	member, err := e.loadMember(circleID, caller)
	if err != nil {
		return err
	}
	if member.Status != MemberActive {
		return ErrInvalidMemberStatus
	}
	paid := cloneBig(amount)
	if paid.Cmp(c.ContributionAmount) != 0 {
		return ErrInvalidContributionAmount
	}
	if member.ContributedInRound(c.CurrentRound) {
		return ErrContributionAlreadyMade
	}
	vault := e.state.CircleVaultAddress(circleID)
	if err := e.state.Transfer(caller, vault, paid); err != nil {
		return err
	}
	return e.recordContribution(c, member, paid)
}

// recordContribution applies a payment that has already reached the vault.
func (e *Engine) recordContribution(c *Circle, member *Member, paid *big.Int) error {
	esc, err := e.loadEscrow(c.ID)
	if err != nil {
		return err
	}
	now := uint64(e.now())
	member.Contributions = append(member.Contributions, Contribution{Round: c.CurrentRound, Amount: paid, PaidAt: now})
	round := &c.Rounds[c.CurrentRound]
	round.TotalCollected = new(big.Int).Add(round.TotalCollected, paid)
	c.TotalPot = new(big.Int).Add(c.TotalPot, paid)
	esc.TotalAmount = new(big.Int).Add(esc.TotalAmount, paid)
	if err := e.state.MemberPut(member); err != nil {
		return err
	}
	if err := e.state.CirclePut(c); err != nil {
		return err
	}
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	if e.trust != nil {
		if err := e.trust.RecordContribution(member.Authority, true); err != nil {
			return err
		}
	}
	e.emit(newContributedEvent(c, member.Authority, paid))
	return nil
}

// DistributePot pays the current round's collected amount, minus the
// distribution fee, to the recipient. Only the circle authority may push the
// payout; ClaimPayout is the pull-based alternative and automation a third
// call site, all sharing the same invariant-checked core.
func (e *Engine) DistributePot(circleID [32]byte, caller, recipient [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return err
	}
	if caller != c.Creator {
		return ErrNotAuthority
	}
	return e.payout(c, recipient)
}

// ClaimPayout lets the round's designated recipient pull the pot themselves.
func (e *Engine) ClaimPayout(circleID [32]byte, caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return err
	}
	scheduled, err := e.scheduledRecipient(c)
	if err != nil {
		return err
	}
	if scheduled != caller {
		return ErrNotRecipient
	}
	return e.payout(c, caller)
}

// DistributeScheduled pays the round's designated recipient. It is the entry
// point used by the automation dispatcher.
func (e *Engine) DistributeScheduled(circleID [32]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return err
	}
	recipient, err := e.scheduledRecipient(c)
	if err != nil {
		return err
	}
	return e.payout(c, recipient)
}

// scheduledRecipient resolves the current round's recipient: the
// auction-assigned identity when one is set, otherwise the fixed rotation by
// payout position, skipping members no longer eligible.
func (e *Engine) scheduledRecipient(c *Circle) ([20]byte, error) {
	if c.CurrentRound >= uint64(len(c.Rounds)) {
		return [20]byte{}, ErrRoundOutOfRange
	}
	round := c.Rounds[c.CurrentRound]
	if round.Recipient != ([20]byte{}) {
		return round.Recipient, nil
	}
	for offset := uint64(0); offset < uint64(len(c.Members)); offset++ {
		idx := (c.CurrentRound + offset) % uint64(len(c.Members))
		identity := c.Members[idx]
		member, ok, err := e.state.MemberGet(c.ID, identity)
		if err != nil {
			return [20]byte{}, err
		}
		if !ok || member.Status != MemberActive || member.HasReceivedPot {
			continue
		}
		return identity, nil
	}
	return [20]byte{}, ErrMemberNotFound
}

func (e *Engine) payout(c *Circle, recipient [20]byte) error {
	if c.Status != StatusActive {
		return ErrCircleNotActive
	}
	if c.CurrentRound >= uint64(len(c.Rounds)) {
		return ErrRoundOutOfRange
	}
	round := &c.Rounds[c.CurrentRound]
	if round.Distributed {
		return ErrPotAlreadyDistributed
	}
	member, err := e.loadMember(c.ID, recipient)
	if err != nil {
		return err
	}
	if member.HasReceivedPot {
		return ErrMemberAlreadyReceivedPot
	}
	if member.Status != MemberActive {
		return ErrInvalidMemberStatus
	}
	esc, err := e.loadEscrow(c.ID)
	if err != nil {
		return err
	}
	gross := cloneBig(round.TotalCollected)
	fee, err := e.distributionFee(gross)
	if err != nil {
		return err
	}
	net := new(big.Int).Sub(gross, fee)
	vault := e.state.CircleVaultAddress(c.ID)
	// Noting the fee validates the treasury record; it must happen before
	// any value moves so a failure leaves balances untouched.
	if fee.Sign() > 0 {
		if err := e.fees.NoteDistributionFee(fee); err != nil {
			return err
		}
		if err := e.state.Transfer(vault, e.fees.TreasuryAddress(), fee); err != nil {
			return err
		}
	}
	if net.Sign() > 0 {
		if err := e.state.Transfer(vault, recipient, net); err != nil {
			return err
		}
	}
	round.Distributed = true
	round.Recipient = recipient
	member.HasReceivedPot = true
	esc.TotalAmount = new(big.Int).Sub(esc.TotalAmount, gross)
	c.CurrentRound++
	if err := e.state.MemberPut(member); err != nil {
		return err
	}
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	if e.trust != nil {
		if err := e.trust.RecordPayout(recipient); err != nil {
			return err
		}
	}
	completed := c.CurrentRound >= c.DurationRounds
	if completed {
		c.Status = StatusCompleted
	}
	if err := e.state.CirclePut(c); err != nil {
		return err
	}
	e.emit(newDistributedEvent(c, recipient, net, fee))
	if completed {
		if e.trust != nil {
			for _, identity := range c.Members {
				m, ok, err := e.state.MemberGet(c.ID, identity)
				if err != nil {
					return err
				}
				if !ok || m.Status != MemberActive {
					continue
				}
				if err := e.trust.RecordCompletion(identity); err != nil {
					return err
				}
			}
		}
		e.emit(newCompletedEvent(c))
	}
	return nil
}

// FundPot moves value from an arbitrary payer into the current round's pot.
// Auction settlement uses it to fold the winning bid into the round being
// reassigned.
func (e *Engine) FundPot(circleID [32]byte, from [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return err
	}
	if c.Status != StatusActive {
		return ErrCircleNotActive
	}
	if c.CurrentRound >= uint64(len(c.Rounds)) {
		return ErrRoundOutOfRange
	}
	round := &c.Rounds[c.CurrentRound]
	if round.Distributed {
		return ErrPotAlreadyDistributed
	}
	paid := cloneBig(amount)
	if paid.Sign() <= 0 {
		return ErrInvalidContributionAmount
	}
	vault := e.state.CircleVaultAddress(circleID)
	if err := e.state.Transfer(from, vault, paid); err != nil {
		return err
	}
	esc, err := e.loadEscrow(circleID)
	if err != nil {
		return err
	}
	round.TotalCollected = new(big.Int).Add(round.TotalCollected, paid)
	c.TotalPot = new(big.Int).Add(c.TotalPot, paid)
	esc.TotalAmount = new(big.Int).Add(esc.TotalAmount, paid)
	if err := e.state.CirclePut(c); err != nil {
		return err
	}
	return e.state.EscrowPut(esc)
}

// SetRoundRecipient reassigns the current round's payout recipient. Auction
// settlement is the only caller; the target must be an eligible member.
func (e *Engine) SetRoundRecipient(circleID [32]byte, recipient [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return err
	}
	if c.CurrentRound >= uint64(len(c.Rounds)) {
		return ErrRoundOutOfRange
	}
	round := &c.Rounds[c.CurrentRound]
	if round.Distributed {
		return ErrPotAlreadyDistributed
	}
	member, err := e.loadMember(circleID, recipient)
	if err != nil {
		return err
	}
	if member.Status != MemberActive {
		return ErrInvalidMemberStatus
	}
	if member.HasReceivedPot {
		return ErrMemberAlreadyReceivedPot
	}
	round.Recipient = recipient
	return e.state.CirclePut(c)
}

// CollectRound auto-debits the fixed contribution from every active member
// who has not yet paid the current round and has sufficient balance. Members
// who cannot pay are left for penalty assessment. Returns the number of
// contributions collected.
func (e *Engine) CollectRound(circleID [32]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return 0, err
	}
	if c.Status != StatusActive {
		return 0, ErrCircleNotActive
	}
	if c.CurrentRound >= uint64(len(c.Rounds)) {
		return 0, ErrRoundOutOfRange
	}
	vault := e.state.CircleVaultAddress(circleID)
	var collected uint64
	for _, identity := range c.Members {
		member, ok, err := e.state.MemberGet(circleID, identity)
		if err != nil {
			return collected, err
		}
		if !ok || member.Status != MemberActive || member.ContributedInRound(c.CurrentRound) {
			continue
		}
		paid := cloneBig(c.ContributionAmount)
		if err := e.state.Transfer(identity, vault, paid); err != nil {
			continue
		}
		if err := e.recordContribution(c, member, paid); err != nil {
			return collected, err
		}
		collected++
	}
	return collected, nil
}

// AssessPenalties charges the circle's penalty rate against the stake of every
// active member who missed the current round, records the miss in their trust
// history, and returns the identities that defaulted as a result. Insurance
// slashing for the defaulted members is the caller's responsibility.
func (e *Engine) AssessPenalties(circleID [32]byte) ([][20]byte, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusActive {
		return nil, ErrCircleNotActive
	}
	if c.CurrentRound >= uint64(len(c.Rounds)) {
		return nil, ErrRoundOutOfRange
	}
	penalty := new(big.Int).Mul(c.ContributionAmount, big.NewInt(int64(c.PenaltyRateBps)))
	penalty = penalty.Div(penalty, big.NewInt(10_000))
	round := &c.Rounds[c.CurrentRound]
	var defaulted [][20]byte
	for _, identity := range c.Members {
		member, ok, err := e.state.MemberGet(circleID, identity)
		if err != nil {
			return defaulted, err
		}
		if !ok || member.Status != MemberActive || member.ContributedInRound(c.CurrentRound) {
			continue
		}
		member.MissedContributions++
		member.PenaltyCount++
		if penalty.Sign() > 0 && member.Stake.Cmp(penalty) >= 0 {
			// Stake is already held in the vault: the penalty moves from the
			// member's collateral into the round's pot without a transfer.
			member.Stake = new(big.Int).Sub(member.Stake, penalty)
			round.TotalCollected = new(big.Int).Add(round.TotalCollected, penalty)
			c.TotalPot = new(big.Int).Add(c.TotalPot, penalty)
		}
		if member.MissedContributions >= defaultMissThreshold || member.Stake.Cmp(penalty) < 0 {
			// Default detection only: the insurance engine's slash is what
			// flips the member status, so a second slash can be rejected.
			defaulted = append(defaulted, identity)
		}
		if err := e.state.MemberPut(member); err != nil {
			return defaulted, err
		}
		if e.trust != nil {
			if err := e.trust.RecordContribution(identity, false); err != nil {
				return defaulted, err
			}
		}
		e.emit(newPenaltyEvent(c, identity, penalty))
	}
	if err := e.state.CirclePut(c); err != nil {
		return defaulted, err
	}
	return defaulted, nil
}

// Dissolve abnormally terminates the circle. Governance emergency proposals
// are the expected caller.
func (e *Engine) Dissolve(circleID [32]byte, caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return err
	}
	if caller != c.Creator {
		return ErrNotAuthority
	}
	if c.Status == StatusCompleted || c.Status == StatusDissolved {
		return ErrCircleNotActive
	}
	c.Status = StatusDissolved
	return e.state.CirclePut(c)
}

// defaultMissThreshold is the number of missed rounds after which a member is
// considered to have defaulted.
const defaultMissThreshold = 2
