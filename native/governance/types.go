package governance

import (
	"encoding/binary"
	"errors"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Kind enumerates the supported proposal payloads. Execution dispatches on
// the tag; each kind carries its own payload fields.
type Kind uint8

const (
	KindPenaltyRate Kind = iota
	KindDurationExtension
	KindEmergencyPause
	KindEmergencyResume
)

// Valid reports whether the kind is within the supported range.
func (k Kind) Valid() bool {
	switch k {
	case KindPenaltyRate, KindDurationExtension, KindEmergencyPause, KindEmergencyResume:
		return true
	default:
		return false
	}
}

// String returns the canonical kind name.
func (k Kind) String() string {
	switch k {
	case KindPenaltyRate:
		return "penalty-rate"
	case KindDurationExtension:
		return "duration-extension"
	case KindEmergencyPause:
		return "emergency-pause"
	case KindEmergencyResume:
		return "emergency-resume"
	default:
		return "unknown"
	}
}

// Payload carries the kind-specific effect values. Only the fields relevant
// to the proposal's kind are read at execution time.
type Payload struct {
	NewPenaltyRateBps uint32
	ExtensionRounds   uint64
}

// Proposal is one member-driven parameter change scoped to a circle.
// VotesFor/VotesAgainst accumulate raw linear power as an auditable record;
// the pass/fail decision at execution sums the per-vote quadratic weights.
type Proposal struct {
	ID           [32]byte
	CircleID     [32]byte
	Proposer     [20]byte
	Title        string
	Description  string
	Kind         Kind
	Payload      Payload
	Deadline     uint64
	Threshold    uint64
	VotesFor     *big.Int
	VotesAgainst *big.Int
	Executed     bool
	Passed       bool
	ExecutedAt   uint64
	CreatedAt    uint64
}

// Clone returns a deep copy of the proposal record.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	clone := *p
	clone.VotesFor = cloneBig(p.VotesFor)
	clone.VotesAgainst = cloneBig(p.VotesAgainst)
	return &clone
}

// Vote is one ballot, immutable once cast. The quadratic weight is the
// integer floor square root of the raw linear power.
type Vote struct {
	ProposalID      [32]byte
	Voter           [20]byte
	Support         bool
	Power           *big.Int
	QuadraticWeight uint64
	CastAt          uint64
}

// Clone returns a deep copy of the vote record.
func (v *Vote) Clone() *Vote {
	if v == nil {
		return nil
	}
	clone := *v
	clone.Power = cloneBig(v.Power)
	return &clone
}

// QuadraticWeightOf computes floor(sqrt(power)), the dampened influence a
// linear voting power carries in the pass/fail tally.
func QuadraticWeightOf(power *big.Int) (uint64, error) {
	if power == nil || power.Sign() <= 0 {
		return 0, errors.New("governance: voting power must be positive")
	}
	root := new(big.Int).Sqrt(power)
	if !root.IsUint64() {
		return 0, errors.New("governance: voting power out of range")
	}
	return root.Uint64(), nil
}

const (
	proposalNamespace = "tanda/gov/proposal"
	voteNamespace     = "tanda/gov/vote"
)

// DeriveProposalID computes the proposal identifier from its circle and
// creation timestamp.
func DeriveProposalID(circleID [32]byte, createdAt uint64) [32]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], createdAt)
	var id [32]byte
	copy(id[:], ethcrypto.Keccak256([]byte(proposalNamespace), circleID[:], buf[:]))
	return id
}

// DeriveVoteID computes the unique ballot identifier for a (proposal, voter)
// pair. Duplicate detection is an insert-if-absent on this key, not a scan.
func DeriveVoteID(proposalID [32]byte, voter [20]byte) [32]byte {
	var id [32]byte
	copy(id[:], ethcrypto.Keccak256([]byte(voteNamespace), proposalID[:], voter[:]))
	return id
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
