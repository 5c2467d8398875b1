package auction

import (
	"encoding/hex"
	"strconv"

	"tandachain/core/types"
)

const (
	// EventTypeCreated is emitted when an auction opens.
	EventTypeCreated = "auction.created"
	// EventTypeBid is emitted for every accepted bid.
	EventTypeBid = "auction.bid"
	// EventTypeSettled is emitted when the auction settles.
	EventTypeSettled = "auction.settled"
)

func newCreatedEvent(a *Auction) *types.Event {
	attrs := make(map[string]string)
	if a == nil {
		return &types.Event{Type: EventTypeCreated, Attributes: attrs}
	}
	attrs["id"] = hex.EncodeToString(a.ID[:])
	attrs["circle"] = hex.EncodeToString(a.CircleID[:])
	attrs["initiator"] = hex.EncodeToString(a.Initiator[:])
	attrs["startingBid"] = a.StartingBid.String()
	attrs["endTime"] = strconv.FormatUint(a.EndTime, 10)
	return &types.Event{Type: EventTypeCreated, Attributes: attrs}
}

func newBidEvent(a *Auction, b *Bid) *types.Event {
	attrs := make(map[string]string)
	if a != nil {
		attrs["id"] = hex.EncodeToString(a.ID[:])
	}
	if b != nil {
		attrs["bidder"] = hex.EncodeToString(b.Bidder[:])
		attrs["amount"] = b.Amount.String()
	}
	return &types.Event{Type: EventTypeBid, Attributes: attrs}
}

func newSettledEvent(a *Auction) *types.Event {
	attrs := make(map[string]string)
	if a == nil {
		return &types.Event{Type: EventTypeSettled, Attributes: attrs}
	}
	attrs["id"] = hex.EncodeToString(a.ID[:])
	attrs["winner"] = hex.EncodeToString(a.HighestBidder[:])
	attrs["winningBid"] = a.HighestBid.String()
	return &types.Event{Type: EventTypeSettled, Attributes: attrs}
}
