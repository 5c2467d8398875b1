package governance

import (
	"encoding/hex"
	"strconv"

	"tandachain/core/types"
)

const (
	// EventTypeProposed is emitted when a new proposal is accepted.
	EventTypeProposed = "gov.proposed"
	// EventTypeVoteCast is emitted when a ballot is recorded.
	EventTypeVoteCast = "gov.vote"
	// EventTypeExecuted is emitted when the proposal outcome is determined.
	EventTypeExecuted = "gov.executed"
)

func newProposedEvent(p *Proposal) *types.Event {
	attrs := make(map[string]string)
	if p == nil {
		return &types.Event{Type: EventTypeProposed, Attributes: attrs}
	}
	attrs["id"] = hex.EncodeToString(p.ID[:])
	attrs["circle"] = hex.EncodeToString(p.CircleID[:])
	attrs["proposer"] = hex.EncodeToString(p.Proposer[:])
	attrs["kind"] = p.Kind.String()
	attrs["deadline"] = strconv.FormatUint(p.Deadline, 10)
	return &types.Event{Type: EventTypeProposed, Attributes: attrs}
}

func newVoteEvent(v *Vote) *types.Event {
	attrs := make(map[string]string)
	if v == nil {
		return &types.Event{Type: EventTypeVoteCast, Attributes: attrs}
	}
	attrs["id"] = hex.EncodeToString(v.ProposalID[:])
	attrs["voter"] = hex.EncodeToString(v.Voter[:])
	attrs["support"] = strconv.FormatBool(v.Support)
	attrs["power"] = v.Power.String()
	attrs["quadraticWeight"] = strconv.FormatUint(v.QuadraticWeight, 10)
	return &types.Event{Type: EventTypeVoteCast, Attributes: attrs}
}

func newExecutedEvent(p *Proposal, quadFor, quadAgainst uint64) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["id"] = hex.EncodeToString(p.ID[:])
		attrs["passed"] = strconv.FormatBool(p.Passed)
	}
	attrs["quadFor"] = strconv.FormatUint(quadFor, 10)
	attrs["quadAgainst"] = strconv.FormatUint(quadAgainst, 10)
	return &types.Event{Type: EventTypeExecuted, Attributes: attrs}
}
