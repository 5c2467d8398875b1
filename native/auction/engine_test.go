package auction

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"tandachain/native/circle"
)

type mockState struct {
	auctions map[[32]byte]*Auction
	bids     map[[32]byte]*Bid
	members  map[[20]byte]*circle.Member

	fundedFrom   [20]byte
	fundedAmount *big.Int
	recipient    [20]byte
	reassigned   bool
}

func newMockState() *mockState {
	return &mockState{
		auctions: make(map[[32]byte]*Auction),
		bids:     make(map[[32]byte]*Bid),
		members:  make(map[[20]byte]*circle.Member),
	}
}

func (m *mockState) AuctionPut(a *Auction) error {
	m.auctions[a.ID] = a.Clone()
	return nil
}

func (m *mockState) AuctionGet(id [32]byte) (*Auction, bool, error) {
	a, ok := m.auctions[id]
	if !ok {
		return nil, false, nil
	}
	return a.Clone(), true, nil
}

func (m *mockState) BidPut(b *Bid) error {
	m.bids[b.ID] = b.Clone()
	return nil
}

func (m *mockState) BidGet(id [32]byte) (*Bid, bool, error) {
	b, ok := m.bids[id]
	if !ok {
		return nil, false, nil
	}
	return b.Clone(), true, nil
}

func (m *mockState) MemberGet(circleID [32]byte, identity [20]byte) (*circle.Member, bool, error) {
	member, ok := m.members[identity]
	if !ok {
		return nil, false, nil
	}
	return member.Clone(), true, nil
}

func (m *mockState) FundPot(circleID [32]byte, from [20]byte, amount *big.Int) error {
	m.fundedFrom = from
	m.fundedAmount = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) SetRoundRecipient(circleID [32]byte, recipient [20]byte) error {
	m.recipient = recipient
	m.reassigned = true
	return nil
}

func (m *mockState) addMember(identity [20]byte) {
	m.members[identity] = &circle.Member{
		Authority: identity,
		Stake:     big.NewInt(0),
		Status:    circle.MemberActive,
	}
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

type testClock struct {
	now int64
}

func newTestEngine(t *testing.T) (*Engine, *mockState, *testClock) {
	t.Helper()
	state := newMockState()
	clock := &testClock{now: 1_700_000_000}
	engine := NewEngine()
	engine.SetState(state)
	engine.SetCircles(state)
	engine.SetNowFunc(func() int64 { return clock.now })
	return engine, state, clock
}

var testCircleID = [32]byte{0x33}

func TestCreateMemberGated(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	alice := newTestAddress(0xA1)
	if _, err := engine.Create(testCircleID, alice, big.NewInt(100), big.NewInt(10), 3600); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
	state.addMember(alice)
	if _, err := engine.Create(testCircleID, alice, big.NewInt(100), big.NewInt(10), 0); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	auction, err := engine.Create(testCircleID, alice, big.NewInt(100), big.NewInt(10), 3600)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if auction.HasBids() {
		t.Fatal("fresh auction must not report bids")
	}
	if auction.EndTime != auction.CreatedAt+3600 {
		t.Fatalf("end time not anchored to creation: %+v", auction)
	}
}

func TestCreateRejectsDerivedIDCollision(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	alice := newTestAddress(0xA1)
	state.addMember(alice)
	first, err := engine.Create(testCircleID, alice, big.NewInt(100), big.NewInt(10), 3600)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Same circle, same second: the derived ID repeats and must not
	// overwrite the stored auction.
	if _, err := engine.Create(testCircleID, alice, big.NewInt(500), big.NewInt(50), 7200); !errors.Is(err, ErrAuctionExists) {
		t.Fatalf("expected ErrAuctionExists, got %v", err)
	}
	stored, ok, _ := state.AuctionGet(first.ID)
	if !ok || stored.PotAmount.Cmp(big.NewInt(100)) != 0 || stored.EndTime != first.EndTime {
		t.Fatalf("original auction mutated: %+v", stored)
	}
	clock.now++
	if _, err := engine.Create(testCircleID, alice, big.NewInt(500), big.NewInt(50), 7200); err != nil {
		t.Fatalf("create at later time: %v", err)
	}
}

func TestBidRequiresPositiveAmount(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	alice := newTestAddress(0xA1)
	state.addMember(alice)
	auction, err := engine.Create(testCircleID, alice, big.NewInt(100), big.NewInt(0), 3600)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// A zero starting bid must not admit a zero offer: the winner funds
	// the pot with their bid, and a zero transfer cannot settle.
	if _, err := engine.PlaceBid(auction.ID, alice, big.NewInt(0)); !errors.Is(err, ErrInvalidBidAmount) {
		t.Fatalf("expected ErrInvalidBidAmount, got %v", err)
	}
	if _, err := engine.PlaceBid(auction.ID, alice, big.NewInt(-1)); !errors.Is(err, ErrInvalidBidAmount) {
		t.Fatalf("expected ErrInvalidBidAmount for negative offer, got %v", err)
	}
	if _, err := engine.PlaceBid(auction.ID, alice, big.NewInt(1)); err != nil {
		t.Fatalf("bid: %v", err)
	}
	clock.now += 3601
	settled, err := engine.Settle(auction.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !settled.Settled || state.fundedAmount.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("settlement did not fund the winning bid: %+v", state.fundedAmount)
	}
}

func TestBidMonotonicity(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	state.addMember(alice)
	state.addMember(bob)
	auction, err := engine.Create(testCircleID, alice, big.NewInt(100), big.NewInt(10), 3600)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The first bid must reach the starting bid.
	if _, err := engine.PlaceBid(auction.ID, alice, big.NewInt(9)); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("expected ErrBidTooLow, got %v", err)
	}
	first, err := engine.PlaceBid(auction.ID, alice, big.NewInt(10))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if !first.IsCurrentHighest {
		t.Fatal("accepted bid must be current highest")
	}

	// Later bids must strictly exceed the highest, equal is too low.
	clock.now++
	if _, err := engine.PlaceBid(auction.ID, bob, big.NewInt(10)); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("expected ErrBidTooLow for equal bid, got %v", err)
	}
	second, err := engine.PlaceBid(auction.ID, bob, big.NewInt(11))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}

	stored, _, _ := state.AuctionGet(auction.ID)
	if stored.HighestBid.Cmp(big.NewInt(11)) != 0 || stored.HighestBidder != bob {
		t.Fatalf("highest bid not updated: %+v", stored)
	}
	demoted, _, _ := state.BidGet(first.ID)
	if demoted.IsCurrentHighest {
		t.Fatal("outbid record must be demoted")
	}
	current, _, _ := state.BidGet(second.ID)
	if !current.IsCurrentHighest {
		t.Fatal("new highest record must be flagged")
	}

	clock.now += 3600
	if _, err := engine.PlaceBid(auction.ID, alice, big.NewInt(50)); !errors.Is(err, ErrAuctionExpired) {
		t.Fatalf("expected ErrAuctionExpired, got %v", err)
	}
}

func TestSettleAssignsWinner(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	state.addMember(alice)
	state.addMember(bob)
	auction, err := engine.Create(testCircleID, alice, big.NewInt(100), big.NewInt(10), 3600)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.PlaceBid(auction.ID, bob, big.NewInt(15)); err != nil {
		t.Fatalf("bid: %v", err)
	}

	if _, err := engine.Settle(auction.ID); !errors.Is(err, ErrAuctionStillOpen) {
		t.Fatalf("expected ErrAuctionStillOpen, got %v", err)
	}
	clock.now += 3601
	settled, err := engine.Settle(auction.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !settled.Settled {
		t.Fatal("auction not marked settled")
	}
	if state.fundedFrom != bob || state.fundedAmount.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("winning bid not folded into pot: from %x amount %v", state.fundedFrom, state.fundedAmount)
	}
	if !state.reassigned || state.recipient != bob {
		t.Fatal("round recipient not reassigned to winner")
	}
	if _, err := engine.Settle(auction.ID); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
}

func TestSettleWithoutBids(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	alice := newTestAddress(0xA1)
	state.addMember(alice)
	auction, err := engine.Create(testCircleID, alice, big.NewInt(100), big.NewInt(10), 3600)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	clock.now += 3601
	settled, err := engine.Settle(auction.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !settled.Settled {
		t.Fatal("auction not marked settled")
	}
	if state.reassigned || state.fundedAmount != nil {
		t.Fatal("no-bid settlement must not touch the circle")
	}
}
