package rpc

import (
	"tandachain/native/auction"
	"tandachain/native/automation"
	"tandachain/native/circle"
	"tandachain/native/governance"
	"tandachain/native/insurance"
	"tandachain/native/revenue"
	"tandachain/native/trust"
)

// JSON views render fixed-size byte identifiers as hex and big.Int amounts as
// decimal strings.

type roundView struct {
	TotalCollected string `json:"totalCollected"`
	Recipient      string `json:"recipient"`
	Distributed    bool   `json:"distributed"`
}

type circleView struct {
	ID                 string      `json:"id"`
	Creator            string      `json:"creator"`
	ContributionAmount string      `json:"contributionAmount"`
	DurationRounds     uint64      `json:"durationRounds"`
	MaxMembers         uint64      `json:"maxMembers"`
	MemberCount        uint64      `json:"memberCount"`
	PenaltyRateBps     uint32      `json:"penaltyRateBps"`
	CurrentRound       uint64      `json:"currentRound"`
	TotalPot           string      `json:"totalPot"`
	Members            []string    `json:"members"`
	Rounds             []roundView `json:"rounds"`
	Status             uint8       `json:"status"`
	CreatedAt          uint64      `json:"createdAt"`
	Escrow             *escrowView `json:"escrow,omitempty"`
}

type escrowView struct {
	TotalAmount  string `json:"totalAmount"`
	YieldBalance string `json:"yieldBalance"`
	YieldEarned  string `json:"yieldEarned"`
}

func newCircleView(c *circle.Circle, esc *circle.Escrow) circleView {
	members := make([]string, len(c.Members))
	for i, m := range c.Members {
		members[i] = hexAddr(m)
	}
	rounds := make([]roundView, len(c.Rounds))
	for i, r := range c.Rounds {
		rounds[i] = roundView{
			TotalCollected: bigString(r.TotalCollected),
			Recipient:      hexAddr(r.Recipient),
			Distributed:    r.Distributed,
		}
	}
	view := circleView{
		ID:                 hexID(c.ID),
		Creator:            hexAddr(c.Creator),
		ContributionAmount: bigString(c.ContributionAmount),
		DurationRounds:     c.DurationRounds,
		MaxMembers:         c.MaxMembers,
		MemberCount:        c.MemberCount,
		PenaltyRateBps:     c.PenaltyRateBps,
		CurrentRound:       c.CurrentRound,
		TotalPot:           bigString(c.TotalPot),
		Members:            members,
		Rounds:             rounds,
		Status:             uint8(c.Status),
		CreatedAt:          c.CreatedAt,
	}
	if esc != nil {
		view.Escrow = &escrowView{
			TotalAmount:  bigString(esc.TotalAmount),
			YieldBalance: bigString(esc.YieldBalance),
			YieldEarned:  bigString(esc.YieldEarned),
		}
	}
	return view
}

type contributionView struct {
	Round  uint64 `json:"round"`
	Amount string `json:"amount"`
	PaidAt uint64 `json:"paidAt"`
}

type memberView struct {
	Authority           string             `json:"authority"`
	CircleID            string             `json:"circleId"`
	Stake               string             `json:"stake"`
	Contributions       []contributionView `json:"contributions"`
	HasReceivedPot      bool               `json:"hasReceivedPot"`
	PayoutPosition      uint64             `json:"payoutPosition"`
	Status              uint8              `json:"status"`
	PenaltyCount        uint64             `json:"penaltyCount"`
	MissedContributions uint64             `json:"missedContributions"`
	JoinedAt            uint64             `json:"joinedAt"`
}

func newMemberView(m *circle.Member) memberView {
	contributions := make([]contributionView, len(m.Contributions))
	for i, c := range m.Contributions {
		contributions[i] = contributionView{Round: c.Round, Amount: bigString(c.Amount), PaidAt: c.PaidAt}
	}
	return memberView{
		Authority:           hexAddr(m.Authority),
		CircleID:            hexID(m.CircleID),
		Stake:               bigString(m.Stake),
		Contributions:       contributions,
		HasReceivedPot:      m.HasReceivedPot,
		PayoutPosition:      m.PayoutPosition,
		Status:              uint8(m.Status),
		PenaltyCount:        m.PenaltyCount,
		MissedContributions: m.MissedContributions,
		JoinedAt:            m.JoinedAt,
	}
}

type scoreView struct {
	Identity       string `json:"identity"`
	Overall        uint32 `json:"overall"`
	PaymentHistory uint32 `json:"paymentHistory"`
	CompletionRate uint32 `json:"completionRate"`
	Activity       uint32 `json:"activity"`
	SocialProof    uint32 `json:"socialProof"`
	Tier           string `json:"tier"`
	UpdatedAt      uint64 `json:"updatedAt"`
}

func newScoreView(s *trust.Score) scoreView {
	return scoreView{
		Identity:       hexAddr(s.Identity),
		Overall:        s.Overall,
		PaymentHistory: s.PaymentHistory,
		CompletionRate: s.CompletionRate,
		Activity:       s.Activity,
		SocialProof:    s.SocialProof,
		Tier:           s.Tier().String(),
		UpdatedAt:      s.UpdatedAt,
	}
}

type memberStakeView struct {
	Identity  string `json:"identity"`
	Amount    string `json:"amount"`
	Forfeited bool   `json:"forfeited"`
	Returned  bool   `json:"returned"`
}

type poolView struct {
	CircleID       string            `json:"circleId"`
	TotalStaked    string            `json:"totalStaked"`
	ForfeitedTotal string            `json:"forfeitedTotal"`
	Stakes         []memberStakeView `json:"stakes"`
}

func newPoolView(p *insurance.Pool) poolView {
	stakes := make([]memberStakeView, len(p.Stakes))
	for i, s := range p.Stakes {
		stakes[i] = memberStakeView{
			Identity:  hexAddr(s.Identity),
			Amount:    bigString(s.Amount),
			Forfeited: s.Forfeited,
			Returned:  s.Returned,
		}
	}
	return poolView{
		CircleID:       hexID(p.CircleID),
		TotalStaked:    bigString(p.TotalStaked),
		ForfeitedTotal: bigString(p.ForfeitedTotal),
		Stakes:         stakes,
	}
}

type proposalView struct {
	ID           string `json:"id"`
	CircleID     string `json:"circleId"`
	Proposer     string `json:"proposer"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Kind         string `json:"kind"`
	PenaltyRate  uint32 `json:"newPenaltyRateBps,omitempty"`
	Extension    uint64 `json:"extensionRounds,omitempty"`
	Deadline     uint64 `json:"deadline"`
	Threshold    uint64 `json:"threshold"`
	VotesFor     string `json:"votesFor"`
	VotesAgainst string `json:"votesAgainst"`
	Executed     bool   `json:"executed"`
	Passed       bool   `json:"passed"`
	ExecutedAt   uint64 `json:"executedAt,omitempty"`
	CreatedAt    uint64 `json:"createdAt"`
}

func newProposalView(p *governance.Proposal) proposalView {
	return proposalView{
		ID:           hexID(p.ID),
		CircleID:     hexID(p.CircleID),
		Proposer:     hexAddr(p.Proposer),
		Title:        p.Title,
		Description:  p.Description,
		Kind:         p.Kind.String(),
		PenaltyRate:  p.Payload.NewPenaltyRateBps,
		Extension:    p.Payload.ExtensionRounds,
		Deadline:     p.Deadline,
		Threshold:    p.Threshold,
		VotesFor:     bigString(p.VotesFor),
		VotesAgainst: bigString(p.VotesAgainst),
		Executed:     p.Executed,
		Passed:       p.Passed,
		ExecutedAt:   p.ExecutedAt,
		CreatedAt:    p.CreatedAt,
	}
}

type voteView struct {
	ProposalID      string `json:"proposalId"`
	Voter           string `json:"voter"`
	Support         bool   `json:"support"`
	Power           string `json:"power"`
	QuadraticWeight uint64 `json:"quadraticWeight"`
	CastAt          uint64 `json:"castAt"`
}

func newVoteView(v *governance.Vote) voteView {
	return voteView{
		ProposalID:      hexID(v.ProposalID),
		Voter:           hexAddr(v.Voter),
		Support:         v.Support,
		Power:           bigString(v.Power),
		QuadraticWeight: v.QuadraticWeight,
		CastAt:          v.CastAt,
	}
}

type auctionView struct {
	ID            string `json:"id"`
	CircleID      string `json:"circleId"`
	Initiator     string `json:"initiator"`
	PotAmount     string `json:"potAmount"`
	StartingBid   string `json:"startingBid"`
	EndTime       uint64 `json:"endTime"`
	HighestBid    string `json:"highestBid"`
	HighestBidder string `json:"highestBidder,omitempty"`
	Settled       bool   `json:"settled"`
	CreatedAt     uint64 `json:"createdAt"`
}

func newAuctionView(a *auction.Auction) auctionView {
	view := auctionView{
		ID:          hexID(a.ID),
		CircleID:    hexID(a.CircleID),
		Initiator:   hexAddr(a.Initiator),
		PotAmount:   bigString(a.PotAmount),
		StartingBid: bigString(a.StartingBid),
		EndTime:     a.EndTime,
		HighestBid:  bigString(a.HighestBid),
		Settled:     a.Settled,
		CreatedAt:   a.CreatedAt,
	}
	if a.HasBids() {
		view.HighestBidder = hexAddr(a.HighestBidder)
	}
	return view
}

type bidView struct {
	ID               string `json:"id"`
	AuctionID        string `json:"auctionId"`
	Bidder           string `json:"bidder"`
	Amount           string `json:"amount"`
	PlacedAt         uint64 `json:"placedAt"`
	IsCurrentHighest bool   `json:"isCurrentHighest"`
}

func newBidView(b *auction.Bid) bidView {
	return bidView{
		ID:               hexID(b.ID),
		AuctionID:        hexID(b.AuctionID),
		Bidder:           hexAddr(b.Bidder),
		Amount:           bigString(b.Amount),
		PlacedAt:         b.PlacedAt,
		IsCurrentHighest: b.IsCurrentHighest,
	}
}

type automationStateView struct {
	Authority   string `json:"authority"`
	Enabled     bool   `json:"enabled"`
	MinInterval uint64 `json:"minInterval"`
	ActiveJobs  uint64 `json:"activeJobs"`
	LastTrigger uint64 `json:"lastTrigger"`
}

func newAutomationStateView(s *automation.State) automationStateView {
	return automationStateView{
		Authority:   hexAddr(s.Authority),
		Enabled:     s.Enabled,
		MinInterval: s.MinInterval,
		ActiveJobs:  s.ActiveJobs,
		LastTrigger: s.LastTrigger,
	}
}

type circleAutomationView struct {
	CircleID             string   `json:"circleId"`
	AutoCollect          bool     `json:"autoCollect"`
	AutoDistribute       bool     `json:"autoDistribute"`
	AutoPenalty          bool     `json:"autoPenalty"`
	ContributionSchedule []uint64 `json:"contributionSchedule"`
	DistributionSchedule []uint64 `json:"distributionSchedule"`
	PenaltySchedule      []uint64 `json:"penaltySchedule"`
	NextCollection       uint64   `json:"nextCollection"`
	NextDistribution     uint64   `json:"nextDistribution"`
	NextPenalty          uint64   `json:"nextPenalty"`
	EventCount           uint64   `json:"eventCount"`
}

func newCircleAutomationView(cfg *automation.CircleAutomation) circleAutomationView {
	return circleAutomationView{
		CircleID:             hexID(cfg.CircleID),
		AutoCollect:          cfg.AutoCollect,
		AutoDistribute:       cfg.AutoDistribute,
		AutoPenalty:          cfg.AutoPenalty,
		ContributionSchedule: cfg.ContributionSchedule,
		DistributionSchedule: cfg.DistributionSchedule,
		PenaltySchedule:      cfg.PenaltySchedule,
		NextCollection:       cfg.NextCollection,
		NextDistribution:     cfg.NextDistribution,
		NextPenalty:          cfg.NextPenalty,
		EventCount:           cfg.EventCount,
	}
}

type treasuryView struct {
	Authority        string `json:"authority"`
	DistributionFees string `json:"distributionFees"`
	YieldFees        string `json:"yieldFees"`
	ManagementFees   string `json:"managementFees"`
	TotalCollected   string `json:"totalCollected"`
	CreatedAt        uint64 `json:"createdAt"`
}

func newTreasuryView(t *revenue.Treasury) treasuryView {
	return treasuryView{
		Authority:        hexAddr(t.Authority),
		DistributionFees: bigString(t.DistributionFees),
		YieldFees:        bigString(t.YieldFees),
		ManagementFees:   bigString(t.ManagementFees),
		TotalCollected:   bigString(t.TotalCollected),
		CreatedAt:        t.CreatedAt,
	}
}

type revenueParamsView struct {
	Authority          string `json:"authority"`
	DistributionFeeBps uint32 `json:"distributionFeeBps"`
	YieldFeeBps        uint32 `json:"yieldFeeBps"`
	ManagementFeeBps   uint32 `json:"managementFeeBps"`
	ManagementInterval uint64 `json:"managementInterval"`
	UpdatedAt          uint64 `json:"updatedAt"`
}

func newRevenueParamsView(p *revenue.Params) revenueParamsView {
	return revenueParamsView{
		Authority:          hexAddr(p.Authority),
		DistributionFeeBps: p.DistributionFeeBps,
		YieldFeeBps:        p.YieldFeeBps,
		ManagementFeeBps:   p.ManagementFeeBps,
		ManagementInterval: p.ManagementInterval,
		UpdatedAt:          p.UpdatedAt,
	}
}

type reportView struct {
	ID               string `json:"id"`
	PeriodStart      uint64 `json:"periodStart"`
	PeriodEnd        uint64 `json:"periodEnd"`
	DistributionFees string `json:"distributionFees"`
	YieldFees        string `json:"yieldFees"`
	ManagementFees   string `json:"managementFees"`
	TotalCollected   string `json:"totalCollected"`
	CreatedAt        uint64 `json:"createdAt"`
}

func newReportView(r *revenue.Report) reportView {
	return reportView{
		ID:               hexID(r.ID),
		PeriodStart:      r.PeriodStart,
		PeriodEnd:        r.PeriodEnd,
		DistributionFees: bigString(r.DistributionFees),
		YieldFees:        bigString(r.YieldFees),
		ManagementFees:   bigString(r.ManagementFees),
		TotalCollected:   bigString(r.TotalCollected),
		CreatedAt:        r.CreatedAt,
	}
}
