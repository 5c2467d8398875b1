package automation

import (
	"encoding/hex"
	"fmt"

	"tandachain/core/types"
)

const (
	// EventTypeTriggered is emitted for every fired trigger, failed or not.
	EventTypeTriggered = "automation.triggered"
)

func newTriggeredEvent(entry *LogEntry) *types.Event {
	if entry == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeTriggered,
		Attributes: map[string]string{
			"circleId": hex.EncodeToString(entry.CircleID[:]),
			"trigger":  entry.Trigger.String(),
			"success":  fmt.Sprintf("%t", entry.Success),
			"firedAt":  fmt.Sprintf("%d", entry.FiredAt),
			"sequence": fmt.Sprintf("%d", entry.Sequence),
		},
	}
}
