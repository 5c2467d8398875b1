package trust

import "math/big"

// Tier bands the overall score into the stake-sizing classes.
type Tier uint8

const (
	TierNewcomer Tier = iota
	TierSilver
	TierGold
	TierPlatinum
)

// String returns the canonical lowercase tier name.
func (t Tier) String() string {
	switch t {
	case TierNewcomer:
		return "newcomer"
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	case TierPlatinum:
		return "platinum"
	default:
		return "unknown"
	}
}

// Component weights in percent and the score bound. The overall score is
// always the weighted sum of the sub-scores, clamped to [0, maxScore].
const (
	maxScore         = 1000
	weightPayment    = 40
	weightCompletion = 30
	weightActivity   = 20
	weightSocial     = 10
)

// Score is the cross-circle reputation record for one identity. Sub-scores
// are bounded to [0, 1000] individually; the overall score derives from them.
type Score struct {
	Identity       [20]byte
	Overall        uint32
	PaymentHistory uint32
	CompletionRate uint32
	Activity       uint32
	SocialProof    uint32
	UpdatedAt      uint64
}

// Clone returns a copy of the score record.
func (s *Score) Clone() *Score {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// Tier computes the band for the current overall score. It is a pure function
// of the score: <250 newcomer, <500 silver, <750 gold, else platinum.
func (s *Score) Tier() Tier {
	return TierForScore(s.Overall)
}

// TierForScore bands an overall score value.
func TierForScore(score uint32) Tier {
	switch {
	case score < 250:
		return TierNewcomer
	case score < 500:
		return TierSilver
	case score < 750:
		return TierGold
	default:
		return TierPlatinum
	}
}

// recompute derives the overall score from the weighted sub-scores.
func (s *Score) recompute() {
	weighted := uint64(s.PaymentHistory)*weightPayment +
		uint64(s.CompletionRate)*weightCompletion +
		uint64(s.Activity)*weightActivity +
		uint64(s.SocialProof)*weightSocial
	overall := weighted / 100
	if overall > maxScore {
		overall = maxScore
	}
	s.Overall = uint32(overall)
}

// stakeMultiplierBps maps a tier to the minimum-stake multiplier applied to a
// circle's contribution amount, in basis points.
func stakeMultiplierBps(t Tier) uint64 {
	switch t {
	case TierNewcomer:
		return 20_000
	case TierSilver:
		return 15_000
	default:
		return 10_000
	}
}

// MinimumStakeFor sizes the join stake for a tier against the circle's fixed
// contribution amount.
func MinimumStakeFor(t Tier, contribution *big.Int) *big.Int {
	if contribution == nil {
		return big.NewInt(0)
	}
	minimum := new(big.Int).Mul(contribution, new(big.Int).SetUint64(stakeMultiplierBps(t)))
	return minimum.Div(minimum, big.NewInt(10_000))
}
