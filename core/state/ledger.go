package state

import (
	"tandachain/native/auction"
	"tandachain/native/automation"
	"tandachain/native/circle"
	"tandachain/native/governance"
	"tandachain/native/insurance"
	"tandachain/native/revenue"
	"tandachain/native/trust"
)

// The typed accessors below give each native engine its narrow view of the
// store. Every record is RLP encoded under the deterministic key of its
// entity identifier.

const (
	nsVoteIndex       = "tanda/gov/votes"
	nsAutomationState = "tanda/automation/state"
	nsAutomationLog   = "tanda/automation/log"
	nsTreasuryRecord  = "tanda/treasury/record"
	nsRevenueParams   = "tanda/revenue/params"
	nsRevenueMarker   = "tanda/revenue/marker"
	nsRevenueReport   = "tanda/revenue/report"
)

// CircleVaultAddress satisfies the circle engine's state interface.
func (m *Manager) CircleVaultAddress(id [32]byte) [20]byte {
	return CircleVaultAddress(id)
}

// InsuranceVaultAddress satisfies the insurance engine's state interface.
func (m *Manager) InsuranceVaultAddress(circleID [32]byte) [20]byte {
	return InsuranceVaultAddress(circleID)
}

// CirclePut persists a circle record under its identifier.
func (m *Manager) CirclePut(c *circle.Circle) error {
	return m.KVPut(RecordKey(nsCircle, c.ID), c)
}

// CircleGet loads a circle record.
func (m *Manager) CircleGet(id [32]byte) (*circle.Circle, bool, error) {
	var c circle.Circle
	ok, err := m.KVGet(RecordKey(nsCircle, id), &c)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &c, true, nil
}

// EscrowPut persists an escrow record under its circle identifier.
func (m *Manager) EscrowPut(e *circle.Escrow) error {
	return m.KVPut(RecordKey(nsVault, e.CircleID), e)
}

// EscrowGet loads a circle's escrow record.
func (m *Manager) EscrowGet(id [32]byte) (*circle.Escrow, bool, error) {
	var e circle.Escrow
	ok, err := m.KVGet(RecordKey(nsVault, id), &e)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &e, true, nil
}

// MemberPut persists a member record under its (circle, identity) key.
func (m *Manager) MemberPut(member *circle.Member) error {
	return m.KVPut(RecordKey(nsMember, MemberID(member.CircleID, member.Authority)), member)
}

// MemberGet loads the member record for an identity in a circle.
func (m *Manager) MemberGet(circleID [32]byte, identity [20]byte) (*circle.Member, bool, error) {
	var member circle.Member
	ok, err := m.KVGet(RecordKey(nsMember, MemberID(circleID, identity)), &member)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &member, true, nil
}

// TrustPut persists a trust score under its identity-derived key.
func (m *Manager) TrustPut(score *trust.Score) error {
	return m.KVPut(RecordKey(nsTrust, TrustID(score.Identity)), score)
}

// TrustGet loads the trust score for an identity.
func (m *Manager) TrustGet(identity [20]byte) (*trust.Score, bool, error) {
	var score trust.Score
	ok, err := m.KVGet(RecordKey(nsTrust, TrustID(identity)), &score)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &score, true, nil
}

// InsurancePut persists an insurance pool under its circle identifier.
func (m *Manager) InsurancePut(pool *insurance.Pool) error {
	return m.KVPut(RecordKey(nsInsurance, InsuranceID(pool.CircleID)), pool)
}

// InsuranceGet loads a circle's insurance pool.
func (m *Manager) InsuranceGet(circleID [32]byte) (*insurance.Pool, bool, error) {
	var pool insurance.Pool
	ok, err := m.KVGet(RecordKey(nsInsurance, InsuranceID(circleID)), &pool)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &pool, true, nil
}

// ProposalPut persists a governance proposal under its identifier.
func (m *Manager) ProposalPut(p *governance.Proposal) error {
	return m.KVPut(RecordKey(nsProposal, p.ID), p)
}

// ProposalGet loads a governance proposal.
func (m *Manager) ProposalGet(id [32]byte) (*governance.Proposal, bool, error) {
	var p governance.Proposal
	ok, err := m.KVGet(RecordKey(nsProposal, id), &p)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &p, true, nil
}

// VotePut persists a vote record and appends its identifier to the
// proposal's vote index so tallies can be replayed at execution time.
func (m *Manager) VotePut(v *governance.Vote) error {
	if err := m.KVPut(RecordKey(nsVote, VoteID(v.ProposalID, v.Voter)), v); err != nil {
		return err
	}
	indexKey := RecordKey(nsVoteIndex, v.ProposalID)
	var index [][32]byte
	if _, err := m.KVGet(indexKey, &index); err != nil {
		return err
	}
	index = append(index, VoteID(v.ProposalID, v.Voter))
	return m.KVPut(indexKey, index)
}

// VoteHas reports whether an identity already voted on a proposal.
func (m *Manager) VoteHas(proposalID [32]byte, voter [20]byte) (bool, error) {
	return m.KVHas(RecordKey(nsVote, VoteID(proposalID, voter)))
}

// VotesList loads every vote cast on a proposal, in cast order.
func (m *Manager) VotesList(proposalID [32]byte) ([]*governance.Vote, error) {
	var index [][32]byte
	if _, err := m.KVGet(RecordKey(nsVoteIndex, proposalID), &index); err != nil {
		return nil, err
	}
	votes := make([]*governance.Vote, 0, len(index))
	for _, id := range index {
		var v governance.Vote
		ok, err := m.KVGet(RecordKey(nsVote, id), &v)
		if err != nil {
			return nil, err
		}
		if ok {
			votes = append(votes, &v)
		}
	}
	return votes, nil
}

// AuctionPut persists an auction record under its identifier.
func (m *Manager) AuctionPut(a *auction.Auction) error {
	return m.KVPut(RecordKey(nsAuction, a.ID), a)
}

// AuctionGet loads an auction record.
func (m *Manager) AuctionGet(id [32]byte) (*auction.Auction, bool, error) {
	var a auction.Auction
	ok, err := m.KVGet(RecordKey(nsAuction, id), &a)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &a, true, nil
}

// BidPut persists a bid record under its identifier.
func (m *Manager) BidPut(b *auction.Bid) error {
	return m.KVPut(RecordKey(nsBid, b.ID), b)
}

// BidGet loads a bid record.
func (m *Manager) BidGet(id [32]byte) (*auction.Bid, bool, error) {
	var b auction.Bid
	ok, err := m.KVGet(RecordKey(nsBid, id), &b)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &b, true, nil
}

// AutomationStatePut persists the global automation record.
func (m *Manager) AutomationStatePut(s *automation.State) error {
	return m.KVPut([]byte(nsAutomationState), s)
}

// AutomationStateGet loads the global automation record.
func (m *Manager) AutomationStateGet() (*automation.State, bool, error) {
	var s automation.State
	ok, err := m.KVGet([]byte(nsAutomationState), &s)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &s, true, nil
}

// CircleAutomationPut persists a circle's automation configuration.
func (m *Manager) CircleAutomationPut(c *automation.CircleAutomation) error {
	return m.KVPut(RecordKey(nsAutomation, AutomationID(c.CircleID)), c)
}

// CircleAutomationGet loads a circle's automation configuration.
func (m *Manager) CircleAutomationGet(circleID [32]byte) (*automation.CircleAutomation, bool, error) {
	var c automation.CircleAutomation
	ok, err := m.KVGet(RecordKey(nsAutomation, AutomationID(circleID)), &c)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &c, true, nil
}

// AutomationLogAppend persists one fired-trigger record. Entries are keyed by
// circle and sequence number and never overwritten.
func (m *Manager) AutomationLogAppend(entry *automation.LogEntry) error {
	return m.KVPut(RecordKey(nsAutomationLog, automationLogID(entry.CircleID, entry.Sequence)), entry)
}

// AutomationLogGet loads one fired-trigger record by circle and sequence.
func (m *Manager) AutomationLogGet(circleID [32]byte, sequence uint64) (*automation.LogEntry, bool, error) {
	var entry automation.LogEntry
	ok, err := m.KVGet(RecordKey(nsAutomationLog, automationLogID(circleID, sequence)), &entry)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &entry, true, nil
}

func automationLogID(circleID [32]byte, sequence uint64) [32]byte {
	return deriveID(nsAutomationLog, circleID[:], u64be(sequence))
}

// TreasuryPut persists the global treasury ledger.
func (m *Manager) TreasuryPut(t *revenue.Treasury) error {
	return m.KVPut([]byte(nsTreasuryRecord), t)
}

// TreasuryGet loads the global treasury ledger.
func (m *Manager) TreasuryGet() (*revenue.Treasury, bool, error) {
	var t revenue.Treasury
	ok, err := m.KVGet([]byte(nsTreasuryRecord), &t)
	if err != nil || !ok {
		return nil, ok, err
	}
	t.Normalize()
	return &t, true, nil
}

// ParamsPut persists the fee-rate configuration.
func (m *Manager) ParamsPut(p *revenue.Params) error {
	return m.KVPut([]byte(nsRevenueParams), p)
}

// ParamsGet loads the fee-rate configuration.
func (m *Manager) ParamsGet() (*revenue.Params, bool, error) {
	var p revenue.Params
	ok, err := m.KVGet([]byte(nsRevenueParams), &p)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &p, true, nil
}

// CollectionMarkerPut persists a circle's last management collection time.
func (m *Manager) CollectionMarkerPut(marker *revenue.CollectionMarker) error {
	return m.KVPut(RecordKey(nsRevenueMarker, marker.CircleID), marker)
}

// CollectionMarkerGet loads a circle's last management collection time.
func (m *Manager) CollectionMarkerGet(circleID [32]byte) (*revenue.CollectionMarker, bool, error) {
	var marker revenue.CollectionMarker
	ok, err := m.KVGet(RecordKey(nsRevenueMarker, circleID), &marker)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &marker, true, nil
}

// ReportPut persists a revenue report snapshot.
func (m *Manager) ReportPut(r *revenue.Report) error {
	return m.KVPut(RecordKey(nsRevenueReport, r.ID), r)
}

// ReportGet loads a revenue report snapshot.
func (m *Manager) ReportGet(id [32]byte) (*revenue.Report, bool, error) {
	var r revenue.Report
	ok, err := m.KVGet(RecordKey(nsRevenueReport, id), &r)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &r, true, nil
}

// TreasuryAccountAddress returns the treasury's ledger account.
func (m *Manager) TreasuryAccountAddress() [20]byte {
	return TreasuryAddress()
}
