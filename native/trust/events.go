package trust

import (
	"encoding/hex"
	"strconv"

	"tandachain/core/types"
)

// EventTypeUpdated is emitted every time a score recomputes.
const EventTypeUpdated = "trust.updated"

func newUpdatedEvent(s *Score) *types.Event {
	attrs := make(map[string]string)
	if s == nil {
		return &types.Event{Type: EventTypeUpdated, Attributes: attrs}
	}
	attrs["identity"] = hex.EncodeToString(s.Identity[:])
	attrs["overall"] = strconv.FormatUint(uint64(s.Overall), 10)
	attrs["tier"] = s.Tier().String()
	return &types.Event{Type: EventTypeUpdated, Attributes: attrs}
}
