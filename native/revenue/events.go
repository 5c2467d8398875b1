package revenue

import (
	"fmt"
	"math/big"

	"tandachain/core/types"
)

const (
	// EventTypeCollected is emitted when a fee lands in the treasury.
	EventTypeCollected = "revenue.collected"
	// EventTypeParamsUpdated is emitted on fee-rate configuration changes.
	EventTypeParamsUpdated = "revenue.params.updated"
	// EventTypeReport is emitted when a period snapshot is created.
	EventTypeReport = "revenue.report"
)

func newCollectedEvent(category string, fee, total *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeCollected,
		Attributes: map[string]string{
			"category": category,
			"amount":   fee.String(),
			"total":    total.String(),
		},
	}
}

func newParamsUpdatedEvent(params *Params) *types.Event {
	if params == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeParamsUpdated,
		Attributes: map[string]string{
			"distributionBps":    fmt.Sprintf("%d", params.DistributionFeeBps),
			"yieldBps":           fmt.Sprintf("%d", params.YieldFeeBps),
			"managementBps":      fmt.Sprintf("%d", params.ManagementFeeBps),
			"managementInterval": fmt.Sprintf("%d", params.ManagementInterval),
		},
	}
}

func newReportEvent(report *Report) *types.Event {
	if report == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeReport,
		Attributes: map[string]string{
			"periodStart": fmt.Sprintf("%d", report.PeriodStart),
			"periodEnd":   fmt.Sprintf("%d", report.PeriodEnd),
			"total":       report.TotalCollected.String(),
		},
	}
}
