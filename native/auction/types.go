package auction

import (
	"encoding/binary"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Auction is one time-boxed sale of a round's payout position, scoped to a
// circle and keyed by its creation timestamp.
type Auction struct {
	ID            [32]byte
	CircleID      [32]byte
	Initiator     [20]byte
	PotAmount     *big.Int
	StartingBid   *big.Int
	EndTime       uint64
	HighestBid    *big.Int
	HighestBidder [20]byte
	HighestBidID  [32]byte
	Settled       bool
	CreatedAt     uint64
}

// Clone returns a deep copy of the auction record.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	clone.PotAmount = cloneBig(a.PotAmount)
	clone.StartingBid = cloneBig(a.StartingBid)
	clone.HighestBid = cloneBig(a.HighestBid)
	return &clone
}

// HasBids reports whether any bid has been accepted yet.
func (a *Auction) HasBids() bool {
	return a != nil && a.HighestBidder != ([20]byte{})
}

// Bid is one offer. Multiple bids per bidder exist as distinct records; the
// IsCurrentHighest flag is recomputed on every accepted bid so exactly one
// record is authoritative at any time.
type Bid struct {
	ID               [32]byte
	AuctionID        [32]byte
	Bidder           [20]byte
	Amount           *big.Int
	PlacedAt         uint64
	IsCurrentHighest bool
}

// Clone returns a deep copy of the bid record.
func (b *Bid) Clone() *Bid {
	if b == nil {
		return nil
	}
	clone := *b
	clone.Amount = cloneBig(b.Amount)
	return &clone
}

const (
	auctionNamespace = "tanda/auction"
	bidNamespace     = "tanda/auction/bid"
)

// DeriveAuctionID computes the auction identifier from its circle and
// creation timestamp.
func DeriveAuctionID(circleID [32]byte, createdAt uint64) [32]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], createdAt)
	var id [32]byte
	copy(id[:], ethcrypto.Keccak256([]byte(auctionNamespace), circleID[:], buf[:]))
	return id
}

// DeriveBidID computes a bid record identifier from the auction, the bidder,
// and the placement timestamp.
func DeriveBidID(auctionID [32]byte, bidder [20]byte, placedAt uint64) [32]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], placedAt)
	var id [32]byte
	copy(id[:], ethcrypto.Keccak256([]byte(bidNamespace), auctionID[:], bidder[:], buf[:]))
	return id
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
