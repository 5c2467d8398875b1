package revenue

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// Default fee rates in basis points and the cap each configured rate must
// stay under. The management rate is annual and prorated over elapsed time.
const (
	MaxFeeRateBps = uint32(1000)

	DefaultDistributionFeeBps = uint32(50)
	DefaultYieldFeeBps        = uint32(25)
	DefaultManagementFeeBps   = uint32(200)

	secondsPerDay  = uint64(24 * 60 * 60)
	secondsPerYear = 365 * secondsPerDay

	DefaultManagementInterval = 30 * secondsPerDay
)

// Treasury is the global aggregate fee ledger. TotalCollected always equals
// the sum of the three category totals.
type Treasury struct {
	Authority        [20]byte
	DistributionFees *big.Int
	YieldFees        *big.Int
	ManagementFees   *big.Int
	TotalCollected   *big.Int
	CreatedAt        uint64
}

// Clone returns a deep copy of the treasury record.
func (t *Treasury) Clone() *Treasury {
	if t == nil {
		return nil
	}
	clone := *t
	clone.DistributionFees = cloneBig(t.DistributionFees)
	clone.YieldFees = cloneBig(t.YieldFees)
	clone.ManagementFees = cloneBig(t.ManagementFees)
	clone.TotalCollected = cloneBig(t.TotalCollected)
	return &clone
}

// Normalize replaces nil amounts with zero so callers can rely on non-nil
// totals.
func (t *Treasury) Normalize() {
	if t == nil {
		return
	}
	if t.DistributionFees == nil {
		t.DistributionFees = big.NewInt(0)
	}
	if t.YieldFees == nil {
		t.YieldFees = big.NewInt(0)
	}
	if t.ManagementFees == nil {
		t.ManagementFees = big.NewInt(0)
	}
	if t.TotalCollected == nil {
		t.TotalCollected = big.NewInt(0)
	}
}

// Params is the global fee-rate configuration.
type Params struct {
	Authority          [20]byte
	DistributionFeeBps uint32
	YieldFeeBps        uint32
	ManagementFeeBps   uint32
	ManagementInterval uint64
	UpdatedAt          uint64
}

// Clone returns a copy of the params record.
func (p *Params) Clone() *Params {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// DefaultParams seeds the configuration with the protocol defaults.
func DefaultParams(authority [20]byte, now uint64) *Params {
	return &Params{
		Authority:          authority,
		DistributionFeeBps: DefaultDistributionFeeBps,
		YieldFeeBps:        DefaultYieldFeeBps,
		ManagementFeeBps:   DefaultManagementFeeBps,
		ManagementInterval: DefaultManagementInterval,
		UpdatedAt:          now,
	}
}

// CollectionMarker records the last management-fee collection for one circle.
type CollectionMarker struct {
	CircleID    [32]byte
	CollectedAt uint64
}

// Clone returns a copy of the marker.
func (m *CollectionMarker) Clone() *CollectionMarker {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// Report is an immutable treasury snapshot for one reporting window.
type Report struct {
	ID               [32]byte
	PeriodStart      uint64
	PeriodEnd        uint64
	DistributionFees *big.Int
	YieldFees        *big.Int
	ManagementFees   *big.Int
	TotalCollected   *big.Int
	CreatedAt        uint64
}

// Clone returns a deep copy of the report.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	clone := *r
	clone.DistributionFees = cloneBig(r.DistributionFees)
	clone.YieldFees = cloneBig(r.YieldFees)
	clone.ManagementFees = cloneBig(r.ManagementFees)
	clone.TotalCollected = cloneBig(r.TotalCollected)
	return &clone
}

// DeriveReportID computes the deterministic identifier of the report for a
// period. External indexers recompute this from the window bounds alone.
func DeriveReportID(periodStart, periodEnd uint64) [32]byte {
	var id [32]byte
	copy(id[:], crypto.Keccak256([]byte("tanda/revenue/report"), u64be(periodStart), u64be(periodEnd)))
	return id
}

// feeOf computes floor(amount * bps / 10000).
func feeOf(amount *big.Int, bps uint32) *big.Int {
	if amount == nil || amount.Sign() <= 0 || bps == 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(bps)))
	return fee.Div(fee, big.NewInt(10_000))
}

// proratedManagementFee computes floor(balance * bps * elapsed / (10000 * year)).
func proratedManagementFee(balance *big.Int, bps uint32, elapsed uint64) *big.Int {
	if balance == nil || balance.Sign() <= 0 || bps == 0 || elapsed == 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(balance, new(big.Int).SetUint64(uint64(bps)))
	fee.Mul(fee, new(big.Int).SetUint64(elapsed))
	return fee.Div(fee, new(big.Int).Mul(big.NewInt(10_000), new(big.Int).SetUint64(secondsPerYear)))
}

func u64be(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
