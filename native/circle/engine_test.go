package circle

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
)

type mockState struct {
	circles  map[[32]byte]*Circle
	escrows  map[[32]byte]*Escrow
	members  map[[52]byte]*Member
	balances map[[20]byte]*big.Int
}

func newMockState() *mockState {
	return &mockState{
		circles:  make(map[[32]byte]*Circle),
		escrows:  make(map[[32]byte]*Escrow),
		members:  make(map[[52]byte]*Member),
		balances: make(map[[20]byte]*big.Int),
	}
}

func memberKey(circleID [32]byte, identity [20]byte) [52]byte {
	var key [52]byte
	copy(key[:32], circleID[:])
	copy(key[32:], identity[:])
	return key
}

func (m *mockState) CirclePut(c *Circle) error {
	m.circles[c.ID] = c.Clone()
	return nil
}

func (m *mockState) CircleGet(id [32]byte) (*Circle, bool, error) {
	c, ok := m.circles[id]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func (m *mockState) EscrowPut(e *Escrow) error {
	m.escrows[e.CircleID] = e.Clone()
	return nil
}

func (m *mockState) EscrowGet(id [32]byte) (*Escrow, bool, error) {
	e, ok := m.escrows[id]
	if !ok {
		return nil, false, nil
	}
	return e.Clone(), true, nil
}

func (m *mockState) MemberPut(member *Member) error {
	m.members[memberKey(member.CircleID, member.Authority)] = member.Clone()
	return nil
}

func (m *mockState) MemberGet(circleID [32]byte, identity [20]byte) (*Member, bool, error) {
	member, ok := m.members[memberKey(circleID, identity)]
	if !ok {
		return nil, false, nil
	}
	return member.Clone(), true, nil
}

func (m *mockState) CircleVaultAddress(id [32]byte) [20]byte {
	return DeriveVaultAddress(id)
}

func (m *mockState) Transfer(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	balance := m.balanceOf(from)
	if balance.Cmp(amount) < 0 {
		return errors.New("mock: insufficient balance")
	}
	m.balances[from] = new(big.Int).Sub(balance, amount)
	m.balances[to] = new(big.Int).Add(m.balanceOf(to), amount)
	return nil
}

func (m *mockState) Credit(addr [20]byte, amount *big.Int) error {
	m.balances[addr] = new(big.Int).Add(m.balanceOf(addr), amount)
	return nil
}

func (m *mockState) balanceOf(addr [20]byte) *big.Int {
	if balance, ok := m.balances[addr]; ok {
		return balance
	}
	return big.NewInt(0)
}

func (m *mockState) fund(addr [20]byte, amount int64) {
	m.balances[addr] = big.NewInt(amount)
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func newTestEngine(t *testing.T) (*Engine, *mockState) {
	t.Helper()
	state := newMockState()
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine, state
}

// mockTrust records score updates so tests can assert the bridge fires.
type mockTrust struct {
	minimum     *big.Int
	onTime      map[[20]byte]int
	missed      map[[20]byte]int
	payouts     map[[20]byte]int
	completions map[[20]byte]int
}

func newMockTrust(minimum int64) *mockTrust {
	return &mockTrust{
		minimum:     big.NewInt(minimum),
		onTime:      make(map[[20]byte]int),
		missed:      make(map[[20]byte]int),
		payouts:     make(map[[20]byte]int),
		completions: make(map[[20]byte]int),
	}
}

func (m *mockTrust) MinimumStake(identity [20]byte, contribution *big.Int) (*big.Int, error) {
	return new(big.Int).Set(m.minimum), nil
}

func (m *mockTrust) RecordContribution(identity [20]byte, onTime bool) error {
	if onTime {
		m.onTime[identity]++
	} else {
		m.missed[identity]++
	}
	return nil
}

func (m *mockTrust) RecordPayout(identity [20]byte) error {
	m.payouts[identity]++
	return nil
}

func (m *mockTrust) RecordCompletion(identity [20]byte) error {
	m.completions[identity]++
	return nil
}

// mockFees applies a flat basis-point rate and records noted fees. Setting
// noteErr makes both note calls fail, as they do before the treasury exists.
type mockFees struct {
	rateBps  int64
	treasury [20]byte
	noted    *big.Int
	yield    *big.Int
	noteErr  error
}

func newMockFees(rateBps int64) *mockFees {
	return &mockFees{rateBps: rateBps, treasury: newTestAddress(0xFE), noted: big.NewInt(0), yield: big.NewInt(0)}
}

func (m *mockFees) fee(gross *big.Int) *big.Int {
	fee := new(big.Int).Mul(gross, big.NewInt(m.rateBps))
	return fee.Div(fee, big.NewInt(10_000))
}

func (m *mockFees) DistributionFee(gross *big.Int) (*big.Int, error) { return m.fee(gross), nil }

func (m *mockFees) YieldFee(gross *big.Int) (*big.Int, error) { return m.fee(gross), nil }

func (m *mockFees) NoteDistributionFee(fee *big.Int) error {
	if m.noteErr != nil {
		return m.noteErr
	}
	m.noted.Add(m.noted, fee)
	return nil
}

func (m *mockFees) NoteYieldFee(fee *big.Int) error {
	if m.noteErr != nil {
		return m.noteErr
	}
	m.yield.Add(m.yield, fee)
	return nil
}

func (m *mockFees) TreasuryAddress() [20]byte { return m.treasury }

func mustInitialize(t *testing.T, engine *Engine, creator [20]byte, contribution int64, rounds, maxMembers uint64, penaltyBps uint32) *Circle {
	t.Helper()
	c, err := engine.Initialize(creator, 1, big.NewInt(contribution), rounds, maxMembers, penaltyBps)
	if err != nil {
		t.Fatalf("initialize circle: %v", err)
	}
	return c
}

func mustJoin(t *testing.T, engine *Engine, state *mockState, circleID [32]byte, identity [20]byte, stake int64) {
	t.Helper()
	state.fund(identity, stake+1_000)
	if _, err := engine.Join(circleID, identity, big.NewInt(stake)); err != nil {
		t.Fatalf("join circle: %v", err)
	}
}

func TestInitializeValidation(t *testing.T) {
	engine, _ := newTestEngine(t)
	creator := newTestAddress(0x01)
	if _, err := engine.Initialize(creator, 1, big.NewInt(10), 0, 3, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := engine.Initialize(creator, 1, big.NewInt(10), 3, 3, 10_001); !errors.Is(err, ErrInvalidPenaltyRate) {
		t.Fatalf("expected ErrInvalidPenaltyRate, got %v", err)
	}
	if _, err := engine.Initialize(creator, 1, big.NewInt(10), 3, 0, 0); !errors.Is(err, ErrInvalidMemberCount) {
		t.Fatalf("expected ErrInvalidMemberCount, got %v", err)
	}
	if _, err := engine.Initialize(creator, 1, big.NewInt(0), 3, 3, 0); !errors.Is(err, ErrInvalidContributionAmount) {
		t.Fatalf("expected ErrInvalidContributionAmount, got %v", err)
	}
	if _, err := engine.Initialize(creator, 1, big.NewInt(10), 3, 3, 0); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := engine.Initialize(creator, 1, big.NewInt(10), 3, 3, 0); !errors.Is(err, ErrCircleExists) {
		t.Fatalf("expected ErrCircleExists, got %v", err)
	}
}

func TestJoinCapacityAndStake(t *testing.T) {
	engine, state := newTestEngine(t)
	creator := newTestAddress(0x01)
	c := mustInitialize(t, engine, creator, 10, 3, 2, 0)

	alice := newTestAddress(0xA1)
	state.fund(alice, 100)
	// Without a trust bridge the minimum is twice the contribution.
	if _, err := engine.Join(c.ID, alice, big.NewInt(19)); !errors.Is(err, ErrInsufficientStake) {
		t.Fatalf("expected ErrInsufficientStake, got %v", err)
	}
	member, err := engine.Join(c.ID, alice, big.NewInt(20))
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if member.PayoutPosition != 0 {
		t.Fatalf("expected payout position 0, got %d", member.PayoutPosition)
	}
	if _, err := engine.Join(c.ID, alice, big.NewInt(20)); !errors.Is(err, ErrMemberExists) {
		t.Fatalf("expected ErrMemberExists, got %v", err)
	}

	bob := newTestAddress(0xB2)
	mustJoin(t, engine, state, c.ID, bob, 20)

	carol := newTestAddress(0xC3)
	state.fund(carol, 100)
	if _, err := engine.Join(c.ID, carol, big.NewInt(20)); !errors.Is(err, ErrCircleFull) {
		t.Fatalf("expected ErrCircleFull, got %v", err)
	}

	stored, _, err := state.CircleGet(c.ID)
	if err != nil {
		t.Fatalf("load circle: %v", err)
	}
	if stored.MemberCount != 2 || stored.MemberCount > stored.MaxMembers {
		t.Fatalf("member count %d violates capacity %d", stored.MemberCount, stored.MaxMembers)
	}
	escrow, _, _ := state.EscrowGet(c.ID)
	if escrow.TotalAmount.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("expected escrow 40 after two stakes, got %s", escrow.TotalAmount)
	}
}

func TestContributeExactAmountAndOnce(t *testing.T) {
	engine, state := newTestEngine(t)
	creator := newTestAddress(0x01)
	c := mustInitialize(t, engine, creator, 10, 3, 3, 0)
	alice := newTestAddress(0xA1)
	mustJoin(t, engine, state, c.ID, alice, 20)

	if err := engine.Contribute(c.ID, alice, big.NewInt(9)); !errors.Is(err, ErrInvalidContributionAmount) {
		t.Fatalf("expected ErrInvalidContributionAmount, got %v", err)
	}
	if err := engine.Contribute(c.ID, alice, big.NewInt(10)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if err := engine.Contribute(c.ID, alice, big.NewInt(10)); !errors.Is(err, ErrContributionAlreadyMade) {
		t.Fatalf("expected ErrContributionAlreadyMade, got %v", err)
	}
	stranger := newTestAddress(0xDD)
	if err := engine.Contribute(c.ID, stranger, big.NewInt(10)); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestDistributeHappyPath(t *testing.T) {
	engine, state := newTestEngine(t)
	trust := newMockTrust(20)
	engine.SetTrust(trust)
	creator := newTestAddress(0x01)
	c := mustInitialize(t, engine, creator, 10, 3, 3, 1_000)

	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	carol := newTestAddress(0xC3)
	for _, identity := range [][20]byte{alice, bob, carol} {
		mustJoin(t, engine, state, c.ID, identity, 20)
		if err := engine.Contribute(c.ID, identity, big.NewInt(10)); err != nil {
			t.Fatalf("contribute: %v", err)
		}
	}
	stored, _, _ := state.CircleGet(c.ID)
	if stored.Rounds[0].TotalCollected.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("expected pot 30, got %s", stored.Rounds[0].TotalCollected)
	}

	before := new(big.Int).Set(state.balanceOf(alice))
	if err := engine.DistributePot(c.ID, creator, alice); err != nil {
		t.Fatalf("distribute: %v", err)
	}
	gain := new(big.Int).Sub(state.balanceOf(alice), before)
	if gain.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("expected recipient gain 30, got %s", gain)
	}
	member, _, _ := state.MemberGet(c.ID, alice)
	if !member.HasReceivedPot {
		t.Fatal("expected has-received-pot flag set")
	}
	stored, _, _ = state.CircleGet(c.ID)
	if stored.CurrentRound != 1 {
		t.Fatalf("expected round 1, got %d", stored.CurrentRound)
	}
	if !stored.Rounds[0].Distributed || stored.Rounds[0].Recipient != alice {
		t.Fatal("round 0 not marked distributed to recipient")
	}
	if trust.payouts[alice] != 1 || trust.onTime[alice] != 1 {
		t.Fatalf("trust bridge not fed: %+v", trust)
	}
}

func TestDistributeAuthorizationAndReplay(t *testing.T) {
	engine, state := newTestEngine(t)
	creator := newTestAddress(0x01)
	c := mustInitialize(t, engine, creator, 10, 3, 3, 0)
	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	mustJoin(t, engine, state, c.ID, alice, 20)
	mustJoin(t, engine, state, c.ID, bob, 20)
	for _, identity := range [][20]byte{alice, bob} {
		if err := engine.Contribute(c.ID, identity, big.NewInt(10)); err != nil {
			t.Fatalf("contribute: %v", err)
		}
	}
	if err := engine.DistributePot(c.ID, bob, alice); !errors.Is(err, ErrNotAuthority) {
		t.Fatalf("expected ErrNotAuthority, got %v", err)
	}
	if err := engine.DistributePot(c.ID, creator, alice); err != nil {
		t.Fatalf("distribute: %v", err)
	}
	// Round 1: the pot can never reach the same member twice.
	if err := engine.DistributePot(c.ID, creator, alice); !errors.Is(err, ErrMemberAlreadyReceivedPot) {
		t.Fatalf("expected ErrMemberAlreadyReceivedPot, got %v", err)
	}

	// A round already flagged distributed rejects a second payout outright.
	stored, _, _ := state.CircleGet(c.ID)
	stored.Rounds[1].Distributed = true
	if err := state.CirclePut(stored); err != nil {
		t.Fatalf("put circle: %v", err)
	}
	if err := engine.DistributePot(c.ID, creator, bob); !errors.Is(err, ErrPotAlreadyDistributed) {
		t.Fatalf("expected ErrPotAlreadyDistributed, got %v", err)
	}
}

func TestClaimPayoutRecipientOnly(t *testing.T) {
	engine, state := newTestEngine(t)
	creator := newTestAddress(0x01)
	c := mustInitialize(t, engine, creator, 10, 2, 2, 0)
	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	mustJoin(t, engine, state, c.ID, alice, 20)
	mustJoin(t, engine, state, c.ID, bob, 20)
	for _, identity := range [][20]byte{alice, bob} {
		if err := engine.Contribute(c.ID, identity, big.NewInt(10)); err != nil {
			t.Fatalf("contribute: %v", err)
		}
	}
	// Round 0 rotates to the first joined member.
	if err := engine.ClaimPayout(c.ID, bob); !errors.Is(err, ErrNotRecipient) {
		t.Fatalf("expected ErrNotRecipient, got %v", err)
	}
	if err := engine.ClaimPayout(c.ID, alice); err != nil {
		t.Fatalf("claim: %v", err)
	}
	member, _, _ := state.MemberGet(c.ID, alice)
	if !member.HasReceivedPot {
		t.Fatal("expected pot received after claim")
	}
}

func TestLeaveRefundAndPendingObligation(t *testing.T) {
	engine, state := newTestEngine(t)
	creator := newTestAddress(0x01)
	c := mustInitialize(t, engine, creator, 10, 2, 3, 0)
	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	mustJoin(t, engine, state, c.ID, alice, 20)
	mustJoin(t, engine, state, c.ID, bob, 20)
	for _, identity := range [][20]byte{alice, bob} {
		if err := engine.Contribute(c.ID, identity, big.NewInt(10)); err != nil {
			t.Fatalf("contribute: %v", err)
		}
	}
	if err := engine.Leave(c.ID, bob); !errors.Is(err, ErrPendingObligation) {
		t.Fatalf("expected ErrPendingObligation, got %v", err)
	}
	if err := engine.DistributePot(c.ID, creator, alice); err != nil {
		t.Fatalf("distribute: %v", err)
	}
	before := new(big.Int).Set(state.balanceOf(bob))
	if err := engine.Leave(c.ID, bob); err != nil {
		t.Fatalf("leave: %v", err)
	}
	refund := new(big.Int).Sub(state.balanceOf(bob), before)
	if refund.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("expected stake refund 20, got %s", refund)
	}
	member, _, _ := state.MemberGet(c.ID, bob)
	if member.Status != MemberLeft {
		t.Fatalf("expected MemberLeft, got %v", member.Status)
	}
	stored, _, _ := state.CircleGet(c.ID)
	if stored.MemberCount != 1 {
		t.Fatalf("expected member count 1, got %d", stored.MemberCount)
	}
	if err := engine.Leave(c.ID, bob); !errors.Is(err, ErrInvalidMemberStatus) {
		t.Fatalf("expected ErrInvalidMemberStatus on second leave, got %v", err)
	}
}

func TestDistributionFeeRouting(t *testing.T) {
	engine, state := newTestEngine(t)
	fees := newMockFees(50)
	engine.SetFees(fees)
	creator := newTestAddress(0x01)
	c := mustInitialize(t, engine, creator, 1_000, 3, 3, 0)
	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	carol := newTestAddress(0xC3)
	for _, identity := range [][20]byte{alice, bob, carol} {
		state.fund(identity, 10_000)
		if _, err := engine.Join(c.ID, identity, big.NewInt(2_000)); err != nil {
			t.Fatalf("join: %v", err)
		}
		if err := engine.Contribute(c.ID, identity, big.NewInt(1_000)); err != nil {
			t.Fatalf("contribute: %v", err)
		}
	}
	before := new(big.Int).Set(state.balanceOf(alice))
	if err := engine.DistributePot(c.ID, creator, alice); err != nil {
		t.Fatalf("distribute: %v", err)
	}
	// fee = floor(3000 * 50 / 10000) = 15
	gain := new(big.Int).Sub(state.balanceOf(alice), before)
	if gain.Cmp(big.NewInt(2_985)) != 0 {
		t.Fatalf("expected net 2985, got %s", gain)
	}
	if state.balanceOf(fees.treasury).Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("expected treasury 15, got %s", state.balanceOf(fees.treasury))
	}
	if fees.noted.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("expected noted fee 15, got %s", fees.noted)
	}
}

func TestFeeNoteFailureMovesNoValue(t *testing.T) {
	engine, state := newTestEngine(t)
	fees := newMockFees(50)
	fees.noteErr = errors.New("mock: treasury unavailable")
	engine.SetFees(fees)
	creator := newTestAddress(0x01)
	c := mustInitialize(t, engine, creator, 1_000, 3, 3, 0)
	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	carol := newTestAddress(0xC3)
	for _, identity := range [][20]byte{alice, bob, carol} {
		state.fund(identity, 10_000)
		if _, err := engine.Join(c.ID, identity, big.NewInt(2_000)); err != nil {
			t.Fatalf("join: %v", err)
		}
		if err := engine.Contribute(c.ID, identity, big.NewInt(1_000)); err != nil {
			t.Fatalf("contribute: %v", err)
		}
	}
	vault := state.CircleVaultAddress(c.ID)
	vaultBefore := new(big.Int).Set(state.balanceOf(vault))
	aliceBefore := new(big.Int).Set(state.balanceOf(alice))

	// The fee must be recorded before any transfer: when recording fails,
	// neither the recipient nor the treasury may have moved and the round
	// must remain distributable.
	if err := engine.DistributePot(c.ID, creator, alice); !errors.Is(err, fees.noteErr) {
		t.Fatalf("expected note failure, got %v", err)
	}
	if state.balanceOf(vault).Cmp(vaultBefore) != 0 {
		t.Fatalf("vault moved on failed distribution: %s", state.balanceOf(vault))
	}
	if state.balanceOf(alice).Cmp(aliceBefore) != 0 {
		t.Fatalf("recipient paid on failed distribution: %s", state.balanceOf(alice))
	}
	if state.balanceOf(fees.treasury).Sign() != 0 {
		t.Fatalf("treasury paid on failed distribution: %s", state.balanceOf(fees.treasury))
	}
	stored, _, _ := state.CircleGet(c.ID)
	if stored.Rounds[0].Distributed || stored.CurrentRound != 0 {
		t.Fatalf("round advanced on failed distribution: %+v", stored.Rounds[0])
	}

	// The same holds on the yield path.
	if err := engine.AccrueYield(c.ID, big.NewInt(1_000)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if err := engine.DistributeYield(c.ID, creator); !errors.Is(err, fees.noteErr) {
		t.Fatalf("expected note failure, got %v", err)
	}
	if state.balanceOf(fees.treasury).Sign() != 0 || state.balanceOf(alice).Cmp(aliceBefore) != 0 {
		t.Fatal("yield value moved on failed fee note")
	}
	escrow, _, _ := state.EscrowGet(c.ID)
	if escrow.YieldEarned.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("accrued yield consumed on failed distribution: %s", escrow.YieldEarned)
	}

	// Clearing the failure lets the identical call succeed.
	fees.noteErr = nil
	if err := engine.DistributePot(c.ID, creator, alice); err != nil {
		t.Fatalf("distribute after recovery: %v", err)
	}
	gain := new(big.Int).Sub(state.balanceOf(alice), aliceBefore)
	if gain.Cmp(big.NewInt(2_985)) != 0 {
		t.Fatalf("expected net 2985 after recovery, got %s", gain)
	}
}

func TestCompletionAfterFinalRound(t *testing.T) {
	engine, state := newTestEngine(t)
	trust := newMockTrust(20)
	engine.SetTrust(trust)
	creator := newTestAddress(0x01)
	c := mustInitialize(t, engine, creator, 10, 2, 2, 0)
	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	mustJoin(t, engine, state, c.ID, alice, 20)
	mustJoin(t, engine, state, c.ID, bob, 20)

	recipients := [][20]byte{alice, bob}
	for round, recipient := range recipients {
		for _, identity := range [][20]byte{alice, bob} {
			if err := engine.Contribute(c.ID, identity, big.NewInt(10)); err != nil {
				t.Fatalf("round %d contribute: %v", round, err)
			}
		}
		if err := engine.DistributePot(c.ID, creator, recipient); err != nil {
			t.Fatalf("round %d distribute: %v", round, err)
		}
	}
	stored, _, _ := state.CircleGet(c.ID)
	if stored.Status != StatusCompleted {
		t.Fatalf("expected completed circle, got %v", stored.Status)
	}
	if trust.completions[alice] != 1 || trust.completions[bob] != 1 {
		t.Fatalf("expected completion credit for both members: %+v", trust.completions)
	}
	if err := engine.Contribute(c.ID, alice, big.NewInt(10)); !errors.Is(err, ErrCircleNotActive) {
		t.Fatalf("expected ErrCircleNotActive after completion, got %v", err)
	}
}

func TestCollectRoundAutoDebit(t *testing.T) {
	engine, state := newTestEngine(t)
	creator := newTestAddress(0x01)
	c := mustInitialize(t, engine, creator, 10, 3, 3, 0)
	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	carol := newTestAddress(0xC3)
	mustJoin(t, engine, state, c.ID, alice, 20)
	mustJoin(t, engine, state, c.ID, bob, 20)
	mustJoin(t, engine, state, c.ID, carol, 20)

	if err := engine.Contribute(c.ID, alice, big.NewInt(10)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	// Carol cannot cover the auto-debit.
	state.balances[carol] = big.NewInt(3)

	collected, err := engine.CollectRound(c.ID)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if collected != 1 {
		t.Fatalf("expected 1 collected contribution, got %d", collected)
	}
	stored, _, _ := state.CircleGet(c.ID)
	if stored.Rounds[0].TotalCollected.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("expected pot 20, got %s", stored.Rounds[0].TotalCollected)
	}
	member, _, _ := state.MemberGet(c.ID, carol)
	if member.ContributedInRound(0) {
		t.Fatal("unfunded member must not be marked as contributed")
	}
}

func TestAssessPenaltiesAndDefaultDetection(t *testing.T) {
	engine, state := newTestEngine(t)
	creator := newTestAddress(0x01)
	c := mustInitialize(t, engine, creator, 10, 3, 3, 1_000)
	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	mustJoin(t, engine, state, c.ID, alice, 20)
	mustJoin(t, engine, state, c.ID, bob, 20)
	if err := engine.Contribute(c.ID, alice, big.NewInt(10)); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	defaulted, err := engine.AssessPenalties(c.ID)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if len(defaulted) != 0 {
		t.Fatalf("expected no defaults after first miss, got %d", len(defaulted))
	}
	member, _, _ := state.MemberGet(c.ID, bob)
	// penalty = floor(10 * 1000 / 10000) = 1, taken from stake into the pot.
	if member.Stake.Cmp(big.NewInt(19)) != 0 {
		t.Fatalf("expected stake 19 after penalty, got %s", member.Stake)
	}
	if member.MissedContributions != 1 || member.PenaltyCount != 1 {
		t.Fatalf("miss counters wrong: %+v", member)
	}
	stored, _, _ := state.CircleGet(c.ID)
	if stored.Rounds[0].TotalCollected.Cmp(big.NewInt(11)) != 0 {
		t.Fatalf("expected pot 11, got %s", stored.Rounds[0].TotalCollected)
	}

	defaulted, err = engine.AssessPenalties(c.ID)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if len(defaulted) != 1 || defaulted[0] != bob {
		t.Fatalf("expected bob flagged as defaulted, got %v", defaulted)
	}
	member, _, _ = state.MemberGet(c.ID, bob)
	if member.Status != MemberActive {
		t.Fatal("penalty assessment must not flip member status itself")
	}
}

func TestDissolve(t *testing.T) {
	engine, state := newTestEngine(t)
	creator := newTestAddress(0x01)
	c := mustInitialize(t, engine, creator, 10, 3, 3, 0)
	if err := engine.Dissolve(c.ID, newTestAddress(0xB2)); !errors.Is(err, ErrNotAuthority) {
		t.Fatalf("expected ErrNotAuthority, got %v", err)
	}
	if err := engine.Dissolve(c.ID, creator); err != nil {
		t.Fatalf("dissolve: %v", err)
	}
	stored, _, _ := state.CircleGet(c.ID)
	if stored.Status != StatusDissolved {
		t.Fatalf("expected dissolved, got %v", stored.Status)
	}
	if err := engine.Dissolve(c.ID, creator); !errors.Is(err, ErrCircleNotActive) {
		t.Fatalf("expected ErrCircleNotActive, got %v", err)
	}
}
