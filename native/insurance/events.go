package insurance

import (
	"encoding/hex"
	"math/big"

	"tandachain/core/types"
)

const (
	// EventTypeStaked is emitted when a member funds the backstop.
	EventTypeStaked = "insurance.staked"
	// EventTypeSlashed is emitted when a default forfeits a stake.
	EventTypeSlashed = "insurance.slashed"
	// EventTypeReturned is emitted when a stake pays back with bonus.
	EventTypeReturned = "insurance.returned"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newStakedEvent(circleID [32]byte, member [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeStaked,
		Attributes: map[string]string{
			"circle": hex.EncodeToString(circleID[:]),
			"member": hex.EncodeToString(member[:]),
			"amount": formatAmount(amount),
		},
	}
}

func newSlashedEvent(circleID [32]byte, member [20]byte, forfeited *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeSlashed,
		Attributes: map[string]string{
			"circle":    hex.EncodeToString(circleID[:]),
			"member":    hex.EncodeToString(member[:]),
			"forfeited": formatAmount(forfeited),
		},
	}
}

func newReturnedEvent(circleID [32]byte, member [20]byte, payout, bonus *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeReturned,
		Attributes: map[string]string{
			"circle": hex.EncodeToString(circleID[:]),
			"member": hex.EncodeToString(member[:]),
			"payout": formatAmount(payout),
			"bonus":  formatAmount(bonus),
		},
	}
}
