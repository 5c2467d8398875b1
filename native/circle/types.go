package circle

import (
	"fmt"
	"math/big"
)

// Status represents the lifecycle states of a savings circle.
type Status uint8

const (
	StatusForming Status = iota
	StatusActive
	StatusCompleted
	StatusDissolved
)

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	switch s {
	case StatusForming, StatusActive, StatusCompleted, StatusDissolved:
		return true
	default:
		return false
	}
}

// MemberStatus tracks a participant's standing within one circle.
type MemberStatus uint8

const (
	MemberActive MemberStatus = iota
	MemberDefaulted
	MemberLeft
)

// Valid reports whether the member status value is within the supported range.
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberActive, MemberDefaulted, MemberLeft:
		return true
	default:
		return false
	}
}

// Round captures one contribution-and-payout cycle. TotalCollected grows
// monotonically until the round is distributed; a round distributes at most
// once.
type Round struct {
	TotalCollected *big.Int
	Recipient      [20]byte
	Distributed    bool
}

// Circle is one rotating-savings group. The identifier derives from the
// creator identity and a creation nonce, so external callers can recompute it
// without a directory.
type Circle struct {
	ID                 [32]byte
	Creator            [20]byte
	ContributionAmount *big.Int
	DurationRounds     uint64
	MaxMembers         uint64
	MemberCount        uint64
	PenaltyRateBps     uint32
	CurrentRound       uint64
	TotalPot           *big.Int
	Members            [][20]byte
	Rounds             []Round
	Status             Status
	CreatedAt          uint64
	Nonce              uint64
}

// Clone returns a deep copy so callers can mutate freely without aliasing the
// stored instance.
func (c *Circle) Clone() *Circle {
	if c == nil {
		return nil
	}
	clone := *c
	clone.ContributionAmount = cloneBig(c.ContributionAmount)
	clone.TotalPot = cloneBig(c.TotalPot)
	clone.Members = append([][20]byte(nil), c.Members...)
	clone.Rounds = make([]Round, len(c.Rounds))
	for i, round := range c.Rounds {
		clone.Rounds[i] = Round{
			TotalCollected: cloneBig(round.TotalCollected),
			Recipient:      round.Recipient,
			Distributed:    round.Distributed,
		}
	}
	return &clone
}

// Escrow is the pooled-funds ledger for one circle, created alongside it and
// never independently destroyed.
type Escrow struct {
	CircleID     [32]byte
	TotalAmount  *big.Int
	YieldBalance *big.Int
	YieldEarned  *big.Int
}

// Clone returns a deep copy of the escrow record.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	return &Escrow{
		CircleID:     e.CircleID,
		TotalAmount:  cloneBig(e.TotalAmount),
		YieldBalance: cloneBig(e.YieldBalance),
		YieldEarned:  cloneBig(e.YieldEarned),
	}
}

// Contribution is one on-time payment recorded in a member's history.
type Contribution struct {
	Round  uint64
	Amount *big.Int
	PaidAt uint64
}

// Member is one participant's state within one circle, keyed by the circle
// identifier and the member's authority identity.
type Member struct {
	Authority           [20]byte
	CircleID            [32]byte
	Stake               *big.Int
	Contributions       []Contribution
	HasReceivedPot      bool
	PayoutPosition      uint64
	Status              MemberStatus
	PenaltyCount        uint64
	MissedContributions uint64
	JoinedAt            uint64
}

// Clone returns a deep copy of the member record.
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}
	clone := *m
	clone.Stake = cloneBig(m.Stake)
	clone.Contributions = make([]Contribution, len(m.Contributions))
	for i, c := range m.Contributions {
		clone.Contributions[i] = Contribution{Round: c.Round, Amount: cloneBig(c.Amount), PaidAt: c.PaidAt}
	}
	return &clone
}

// ContributedInRound reports whether the member already has a recorded
// contribution for the given round.
func (m *Member) ContributedInRound(round uint64) bool {
	if m == nil {
		return false
	}
	for _, c := range m.Contributions {
		if c.Round == round {
			return true
		}
	}
	return false
}

// SanitizeCircle validates and normalises a circle definition, returning a
// cloned instance with non-nil amounts.
func SanitizeCircle(c *Circle) (*Circle, error) {
	if c == nil {
		return nil, fmt.Errorf("circle: nil circle")
	}
	clone := c.Clone()
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("circle: invalid status %d", clone.Status)
	}
	if clone.PenaltyRateBps > 10_000 {
		return nil, fmt.Errorf("circle: penalty rate out of range: %d", clone.PenaltyRateBps)
	}
	if clone.ContributionAmount.Sign() < 0 {
		return nil, fmt.Errorf("circle: contribution amount must be non-negative")
	}
	if clone.MemberCount > clone.MaxMembers {
		return nil, fmt.Errorf("circle: member count exceeds capacity")
	}
	return clone, nil
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
