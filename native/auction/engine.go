package auction

import (
	"errors"
	"math/big"
	"time"

	"tandachain/core/events"
	"tandachain/core/types"
	"tandachain/native/circle"
)

var (
	errNilState = errors.New("auction engine: state not configured")
	// ErrAuctionNotFound marks lookups of unknown auctions.
	ErrAuctionNotFound = errors.New("auction: auction not found")
	// ErrMemberNotFound marks creation or bids from non-members.
	ErrMemberNotFound = errors.New("auction: member not found")
	// ErrBidTooLow marks bids that do not strictly exceed the current highest.
	ErrBidTooLow = errors.New("auction: bid too low")
	// ErrAuctionExpired marks bids after the end time.
	ErrAuctionExpired = errors.New("auction: auction expired")
	// ErrAuctionStillOpen marks settlement before the end time.
	ErrAuctionStillOpen = errors.New("auction: auction still open")
	// ErrAlreadySettled marks a second settlement attempt.
	ErrAlreadySettled = errors.New("auction: already settled")
	// ErrInvalidDuration marks auctions with a zero bidding window.
	ErrInvalidDuration = errors.New("auction: invalid duration")
	// ErrAuctionExists marks a creation whose derived ID is already taken.
	ErrAuctionExists = errors.New("auction: auction already exists")
	// ErrInvalidBidAmount marks non-positive offers.
	ErrInvalidBidAmount = errors.New("auction: invalid bid amount")
)

type engineState interface {
	AuctionPut(*Auction) error
	AuctionGet(id [32]byte) (*Auction, bool, error)
	BidPut(*Bid) error
	BidGet(id [32]byte) (*Bid, bool, error)
}

// circleBridge lets settlement fold the winning bid into the round pot and
// reassign the payout recipient.
type circleBridge interface {
	MemberGet(circleID [32]byte, identity [20]byte) (*circle.Member, bool, error)
	FundPot(circleID [32]byte, from [20]byte, amount *big.Int) error
	SetRoundRecipient(circleID [32]byte, recipient [20]byte) error
}

type auctionEvent struct {
	evt *types.Event
}

func (a auctionEvent) EventType() string {
	if a.evt == nil {
		return ""
	}
	return a.evt.Type
}

func (a auctionEvent) Event() *types.Event { return a.evt }

// Engine owns the sealed-ascending auction that can reassign a round's payout
// recipient to the highest bidder.
type Engine struct {
	state   engineState
	circles circleBridge
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates an auction engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCircles wires the circle engine used for member checks and settlement.
func (e *Engine) SetCircles(circles circleBridge) { e.circles = circles }

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
	e.emitter.Emit(auctionEvent{evt: event})
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

// Create opens an auction over the upcoming round's pot. Only circle members
// may initiate one.
func (e *Engine) Create(circleID [32]byte, caller [20]byte, potAmount, startingBid *big.Int, durationSeconds uint64) (*Auction, error) {
	if e == nil || e.state == nil || e.circles == nil {
		return nil, errNilState
	}
	if err := e.requireMember(circleID, caller); err != nil {
		return nil, err
	}
	if durationSeconds == 0 {
		return nil, ErrInvalidDuration
	}
	now := uint64(e.now())
	id := DeriveAuctionID(circleID, now)
	if _, ok, err := e.state.AuctionGet(id); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAuctionExists
	}
	auction := &Auction{
		ID:          id,
		CircleID:    circleID,
		Initiator:   caller,
		PotAmount:   cloneBig(potAmount),
		StartingBid: cloneBig(startingBid),
		EndTime:     now + durationSeconds,
		HighestBid:  big.NewInt(0),
		CreatedAt:   now,
	}
	if err := e.state.AuctionPut(auction); err != nil {
		return nil, err
	}
	e.emit(newCreatedEvent(auction))
	return auction.Clone(), nil
}

// PlaceBid records a strictly increasing offer from a circle member. The
// previous highest bid record is demoted in the same operation, keeping
// exactly one authoritative highest record.
func (e *Engine) PlaceBid(auctionID [32]byte, caller [20]byte, amount *big.Int) (*Bid, error) {
	if e == nil || e.state == nil || e.circles == nil {
		return nil, errNilState
	}
	auction, ok, err := e.state.AuctionGet(auctionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuctionNotFound
	}
	if auction.Settled {
		return nil, ErrAlreadySettled
	}
	now := uint64(e.now())
	if now > auction.EndTime {
		return nil, ErrAuctionExpired
	}
	if err := e.requireMember(auction.CircleID, caller); err != nil {
		return nil, err
	}
	offer := cloneBig(amount)
	// Settlement funds the pot with the winning bid, so a bid that would
	// carry no value must never become the highest.
	if offer.Sign() <= 0 {
		return nil, ErrInvalidBidAmount
	}
	if auction.HasBids() {
		if offer.Cmp(auction.HighestBid) <= 0 {
			return nil, ErrBidTooLow
		}
	} else if offer.Cmp(auction.StartingBid) < 0 {
		return nil, ErrBidTooLow
	}
	bid := &Bid{
		ID:               DeriveBidID(auctionID, caller, now),
		AuctionID:        auctionID,
		Bidder:           caller,
		Amount:           offer,
		PlacedAt:         now,
		IsCurrentHighest: true,
	}
	if auction.HighestBidID != ([32]byte{}) {
		previous, ok, err := e.state.BidGet(auction.HighestBidID)
		if err != nil {
			return nil, err
		}
		if ok {
			previous.IsCurrentHighest = false
			if err := e.state.BidPut(previous); err != nil {
				return nil, err
			}
		}
	}
	if err := e.state.BidPut(bid); err != nil {
		return nil, err
	}
	auction.HighestBid = cloneBig(offer)
	auction.HighestBidder = caller
	auction.HighestBidID = bid.ID
	if err := e.state.AuctionPut(auction); err != nil {
		return nil, err
	}
	e.emit(newBidEvent(auction, bid))
	return bid.Clone(), nil
}

// Settle closes the auction after its end time. The highest bidder pays
// their bid into the round pot and becomes the round's payout recipient. An
// auction without bids settles without reassigning anything.
func (e *Engine) Settle(auctionID [32]byte) (*Auction, error) {
	if e == nil || e.state == nil || e.circles == nil {
		return nil, errNilState
	}
	auction, ok, err := e.state.AuctionGet(auctionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuctionNotFound
	}
	if auction.Settled {
		return nil, ErrAlreadySettled
	}
	if uint64(e.now()) <= auction.EndTime {
		return nil, ErrAuctionStillOpen
	}
	if auction.HasBids() {
		if err := e.circles.FundPot(auction.CircleID, auction.HighestBidder, auction.HighestBid); err != nil {
			return nil, err
		}
		if err := e.circles.SetRoundRecipient(auction.CircleID, auction.HighestBidder); err != nil {
			return nil, err
		}
	}
	auction.Settled = true
	if err := e.state.AuctionPut(auction); err != nil {
		return nil, err
	}
	e.emit(newSettledEvent(auction))
	return auction.Clone(), nil
}

// Get returns a copy of the stored auction.
func (e *Engine) Get(auctionID [32]byte) (*Auction, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	auction, ok, err := e.state.AuctionGet(auctionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuctionNotFound
	}
	return auction.Clone(), nil
}
