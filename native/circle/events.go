package circle

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"tandachain/core/types"
)

const (
	// EventTypeCreated is emitted when a circle and its escrow are created.
	EventTypeCreated = "circle.created"
	// EventTypeJoined is emitted when a member joins.
	EventTypeJoined = "circle.joined"
	// EventTypeLeft is emitted when a member exits before completion.
	EventTypeLeft = "circle.left"
	// EventTypeContributed is emitted for every recorded contribution.
	EventTypeContributed = "circle.contributed"
	// EventTypeDistributed is emitted when a round's pot pays out.
	EventTypeDistributed = "circle.distributed"
	// EventTypeCompleted is emitted when every round has paid out.
	EventTypeCompleted = "circle.completed"
	// EventTypePenalty is emitted when a missed contribution is penalised.
	EventTypePenalty = "circle.penalty"
	// EventTypeYieldDeposited is emitted on deposits into the yield position.
	EventTypeYieldDeposited = "circle.yield.deposited"
	// EventTypeYieldDistributed is emitted when realized yield pays out.
	EventTypeYieldDistributed = "circle.yield.distributed"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newCreatedEvent(c *Circle) *types.Event {
	attrs := make(map[string]string)
	if c == nil {
		return &types.Event{Type: EventTypeCreated, Attributes: attrs}
	}
	attrs["id"] = hex.EncodeToString(c.ID[:])
	attrs["creator"] = hex.EncodeToString(c.Creator[:])
	attrs["contribution"] = formatAmount(c.ContributionAmount)
	attrs["duration"] = strconv.FormatUint(c.DurationRounds, 10)
	attrs["maxMembers"] = strconv.FormatUint(c.MaxMembers, 10)
	attrs["penaltyBps"] = strconv.FormatUint(uint64(c.PenaltyRateBps), 10)
	return &types.Event{Type: EventTypeCreated, Attributes: attrs}
}

func newJoinedEvent(c *Circle, member [20]byte, stake *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeJoined,
		Attributes: map[string]string{
			"id":     hex.EncodeToString(c.ID[:]),
			"member": hex.EncodeToString(member[:]),
			"stake":  formatAmount(stake),
		},
	}
}

func newLeftEvent(c *Circle, member [20]byte, refund *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeLeft,
		Attributes: map[string]string{
			"id":     hex.EncodeToString(c.ID[:]),
			"member": hex.EncodeToString(member[:]),
			"refund": formatAmount(refund),
		},
	}
}

func newContributedEvent(c *Circle, member [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeContributed,
		Attributes: map[string]string{
			"id":     hex.EncodeToString(c.ID[:]),
			"member": hex.EncodeToString(member[:]),
			"round":  strconv.FormatUint(c.CurrentRound, 10),
			"amount": formatAmount(amount),
		},
	}
}

func newDistributedEvent(c *Circle, recipient [20]byte, net, fee *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeDistributed,
		Attributes: map[string]string{
			"id":        hex.EncodeToString(c.ID[:]),
			"recipient": hex.EncodeToString(recipient[:]),
			"round":     strconv.FormatUint(c.CurrentRound-1, 10),
			"net":       formatAmount(net),
			"fee":       formatAmount(fee),
		},
	}
}

func newCompletedEvent(c *Circle) *types.Event {
	return &types.Event{
		Type: EventTypeCompleted,
		Attributes: map[string]string{
			"id":     hex.EncodeToString(c.ID[:]),
			"rounds": strconv.FormatUint(c.DurationRounds, 10),
		},
	}
}

func newPenaltyEvent(c *Circle, member [20]byte, penalty *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypePenalty,
		Attributes: map[string]string{
			"id":      hex.EncodeToString(c.ID[:]),
			"member":  hex.EncodeToString(member[:]),
			"round":   strconv.FormatUint(c.CurrentRound, 10),
			"penalty": formatAmount(penalty),
		},
	}
}

func newYieldDepositedEvent(c *Circle, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeYieldDeposited,
		Attributes: map[string]string{
			"id":     hex.EncodeToString(c.ID[:]),
			"amount": formatAmount(amount),
		},
	}
}

func newYieldDistributedEvent(c *Circle, net, fee *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeYieldDistributed,
		Attributes: map[string]string{
			"id":  hex.EncodeToString(c.ID[:]),
			"net": formatAmount(net),
			"fee": formatAmount(fee),
		},
	}
}
