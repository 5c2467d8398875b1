package revenue

import (
	"errors"
	"math/big"
	"time"

	"tandachain/core/events"
	"tandachain/core/types"
	"tandachain/native/circle"
)

var (
	errNilState = errors.New("revenue engine: state not configured")
	// ErrTreasuryExists marks a second treasury initialization.
	ErrTreasuryExists = errors.New("revenue: treasury already initialized")
	// ErrTreasuryNotFound marks fee operations before initialization.
	ErrTreasuryNotFound = errors.New("revenue: treasury not initialized")
	// ErrParamsExist marks a second params initialization.
	ErrParamsExist = errors.New("revenue: params already initialized")
	// ErrInvalidFeeRate marks a configured rate above its cap.
	ErrInvalidFeeRate = errors.New("revenue: fee rate exceeds cap")
	// ErrUnauthorized marks revenue operations from a non-authority caller.
	ErrUnauthorized = errors.New("revenue: caller is not the authority")
	// ErrCollectionTooFrequent marks a management collection inside the
	// configured interval.
	ErrCollectionTooFrequent = errors.New("revenue: management collection too frequent")
	// ErrInvalidReportPeriod marks a report window whose start is not
	// strictly before its end.
	ErrInvalidReportPeriod = errors.New("revenue: invalid report period")
	// ErrReportExists marks a second report for the same window.
	ErrReportExists = errors.New("revenue: report already exists")
	// ErrReportNotFound marks a lookup of an absent report.
	ErrReportNotFound = errors.New("revenue: report not found")
)

type engineState interface {
	TreasuryPut(*Treasury) error
	TreasuryGet() (*Treasury, bool, error)
	ParamsPut(*Params) error
	ParamsGet() (*Params, bool, error)
	CollectionMarkerPut(*CollectionMarker) error
	CollectionMarkerGet(circleID [32]byte) (*CollectionMarker, bool, error)
	ReportPut(*Report) error
	ReportGet(id [32]byte) (*Report, bool, error)
	TreasuryAccountAddress() [20]byte
	Transfer(from, to [20]byte, amount *big.Int) error
}

// circleBridge is the slice of circle state management-fee collection reads
// and writes: the fee is assessed on the escrow's current balance and paid
// out of the circle vault.
type circleBridge interface {
	EscrowGet(id [32]byte) (*circle.Escrow, bool, error)
	EscrowPut(*circle.Escrow) error
	CircleVaultAddress(id [32]byte) [20]byte
}

type revenueEvent struct {
	evt *types.Event
}

func (r revenueEvent) EventType() string {
	if r.evt == nil {
		return ""
	}
	return r.evt.Type
}

func (r revenueEvent) Event() *types.Event { return r.evt }

// Engine owns the treasury ledger, the fee-rate configuration and the
// per-period revenue reports. The circle engine calls it synchronously on
// every fee-bearing transfer.
type Engine struct {
	state   engineState
	circles circleBridge
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a revenue engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCircles wires the circle escrow accessor for management collection.
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
	e.emitter.Emit(revenueEvent{evt: event})
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return uint64(e.nowFn())
}

// InitializeTreasury creates the global treasury ledger. One-time.
func (e *Engine) InitializeTreasury(authority [20]byte) (*Treasury, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok, err := e.state.TreasuryGet(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrTreasuryExists
	}
	treasury := &Treasury{Authority: authority, CreatedAt: e.now()}
	treasury.Normalize()
	if err := e.state.TreasuryPut(treasury); err != nil {
		return nil, err
	}
	return treasury.Clone(), nil
}

// InitializeParams seeds the fee-rate configuration with defaults. One-time.
func (e *Engine) InitializeParams(authority [20]byte) (*Params, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok, err := e.state.ParamsGet(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrParamsExist
	}
	params := DefaultParams(authority, e.now())
	if err := e.state.ParamsPut(params); err != nil {
		return nil, err
	}
	return params.Clone(), nil
}

// UpdateParams applies a partial rate update: nil fields leave the stored
// value unchanged. Every provided rate is checked against the cap before any
// write.
func (e *Engine) UpdateParams(caller [20]byte, distributionBps, yieldBps, managementBps *uint32, managementInterval *uint64) (*Params, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	if caller != params.Authority {
		return nil, ErrUnauthorized
	}
	for _, rate := range []*uint32{distributionBps, yieldBps, managementBps} {
		if rate != nil && *rate > MaxFeeRateBps {
			return nil, ErrInvalidFeeRate
		}
	}
	if distributionBps != nil {
		params.DistributionFeeBps = *distributionBps
	}
	if yieldBps != nil {
		params.YieldFeeBps = *yieldBps
	}
	if managementBps != nil {
		params.ManagementFeeBps = *managementBps
	}
	if managementInterval != nil {
		params.ManagementInterval = *managementInterval
	}
	params.UpdatedAt = e.now()
	if err := e.state.ParamsPut(params); err != nil {
		return nil, err
	}
	e.emit(newParamsUpdatedEvent(params))
	return params.Clone(), nil
}

func (e *Engine) loadParams() (*Params, error) {
	params, ok, err := e.state.ParamsGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return DefaultParams([20]byte{}, 0), nil
	}
	return params, nil
}

func (e *Engine) loadTreasury() (*Treasury, error) {
	treasury, ok, err := e.state.TreasuryGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTreasuryNotFound
	}
	treasury.Normalize()
	return treasury, nil
}

// DistributionFee computes the fee withheld from a pot distribution.
func (e *Engine) DistributionFee(gross *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	return feeOf(gross, params.DistributionFeeBps), nil
}

// YieldFee computes the fee withheld from a yield distribution.
func (e *Engine) YieldFee(gross *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	return feeOf(gross, params.YieldFeeBps), nil
}

func (e *Engine) note(category string, add func(*Treasury) *big.Int, fee *big.Int) error {
	if fee == nil || fee.Sign() <= 0 {
		return nil
	}
	treasury, err := e.loadTreasury()
	if err != nil {
		return err
	}
	bucket := add(treasury)
	bucket.Add(bucket, fee)
	treasury.TotalCollected.Add(treasury.TotalCollected, fee)
	if err := e.state.TreasuryPut(treasury); err != nil {
		return err
	}
	e.emit(newCollectedEvent(category, fee, treasury.TotalCollected))
	return nil
}

// NoteDistributionFee records an already-transferred distribution fee.
func (e *Engine) NoteDistributionFee(fee *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.note("distribution", func(t *Treasury) *big.Int { return t.DistributionFees }, fee)
}

// NoteYieldFee records an already-transferred yield fee.
func (e *Engine) NoteYieldFee(fee *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.note("yield", func(t *Treasury) *big.Int { return t.YieldFees }, fee)
}

// TreasuryAddress returns the treasury's ledger account address.
func (e *Engine) TreasuryAddress() [20]byte {
	if e == nil || e.state == nil {
		return [20]byte{}
	}
	return e.state.TreasuryAccountAddress()
}

// CollectManagementFees assesses the time-prorated management fee on a
// circle's escrow balance and moves it into the treasury account. Rejected
// inside the configured interval since the previous collection.
func (e *Engine) CollectManagementFees(circleID [32]byte) (*big.Int, error) {
	if e == nil || e.state == nil || e.circles == nil {
		return nil, errNilState
	}
	now := e.now()
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	marker, ok, err := e.state.CollectionMarkerGet(circleID)
	if err != nil {
		return nil, err
	}
	var since uint64
	if ok {
		if now < marker.CollectedAt+params.ManagementInterval {
			return nil, ErrCollectionTooFrequent
		}
		since = marker.CollectedAt
	} else {
		marker = &CollectionMarker{CircleID: circleID}
	}
	escrow, found, err := e.circles.EscrowGet(circleID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, circle.ErrCircleNotFound
	}
	elapsed := params.ManagementInterval
	if since > 0 && now > since {
		elapsed = now - since
	}
	fee := proratedManagementFee(escrow.TotalAmount, params.ManagementFeeBps, elapsed)
	if fee.Sign() > 0 {
		vault := e.circles.CircleVaultAddress(circleID)
		if err := e.state.Transfer(vault, e.state.TreasuryAccountAddress(), fee); err != nil {
			return nil, err
		}
		escrow.TotalAmount = new(big.Int).Sub(escrow.TotalAmount, fee)
		if err := e.circles.EscrowPut(escrow); err != nil {
			return nil, err
		}
		if err := e.note("management", func(t *Treasury) *big.Int { return t.ManagementFees }, fee); err != nil {
			return nil, err
		}
	}
	marker.CollectedAt = now
	if err := e.state.CollectionMarkerPut(marker); err != nil {
		return nil, err
	}
	return fee, nil
}

// CreateReport snapshots the treasury totals for a period. Windows must be
// strictly ordered and a window can be reported at most once.
func (e *Engine) CreateReport(periodStart, periodEnd uint64) (*Report, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if periodStart >= periodEnd {
		return nil, ErrInvalidReportPeriod
	}
	id := DeriveReportID(periodStart, periodEnd)
	if _, ok, err := e.state.ReportGet(id); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrReportExists
	}
	treasury, err := e.loadTreasury()
	if err != nil {
		return nil, err
	}
	report := &Report{
		ID:               id,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		DistributionFees: new(big.Int).Set(treasury.DistributionFees),
		YieldFees:        new(big.Int).Set(treasury.YieldFees),
		ManagementFees:   new(big.Int).Set(treasury.ManagementFees),
		TotalCollected:   new(big.Int).Set(treasury.TotalCollected),
		CreatedAt:        e.now(),
	}
	if err := e.state.ReportPut(report); err != nil {
		return nil, err
	}
	e.emit(newReportEvent(report))
	return report.Clone(), nil
}

// Treasury returns a copy of the treasury ledger.
func (e *Engine) Treasury() (*Treasury, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	treasury, err := e.loadTreasury()
	if err != nil {
		return nil, err
	}
	return treasury.Clone(), nil
}

// Params returns a copy of the fee-rate configuration, or the defaults when
// it was never initialized.
func (e *Engine) Params() (*Params, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	return params.Clone(), nil
}

// Report returns a copy of the snapshot for a period.
func (e *Engine) Report(periodStart, periodEnd uint64) (*Report, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	report, ok, err := e.state.ReportGet(DeriveReportID(periodStart, periodEnd))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrReportNotFound
	}
	return report.Clone(), nil
}
