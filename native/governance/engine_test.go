package governance

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"tandachain/native/circle"
)

type mockState struct {
	proposals map[[32]byte]*Proposal
	votes     map[[32]byte]*Vote
	voteIndex map[[32]byte][][32]byte
	circles   map[[32]byte]*circle.Circle
	members   map[[52]byte]*circle.Member
}

func newMockState() *mockState {
	return &mockState{
		proposals: make(map[[32]byte]*Proposal),
		votes:     make(map[[32]byte]*Vote),
		voteIndex: make(map[[32]byte][][32]byte),
		circles:   make(map[[32]byte]*circle.Circle),
		members:   make(map[[52]byte]*circle.Member),
	}
}

func memberKey(circleID [32]byte, identity [20]byte) [52]byte {
	var key [52]byte
	copy(key[:32], circleID[:])
	copy(key[32:], identity[:])
	return key
}

func (m *mockState) ProposalPut(p *Proposal) error {
	m.proposals[p.ID] = p.Clone()
	return nil
}

func (m *mockState) ProposalGet(id [32]byte) (*Proposal, bool, error) {
	p, ok := m.proposals[id]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (m *mockState) VotePut(v *Vote) error {
	id := DeriveVoteID(v.ProposalID, v.Voter)
	m.votes[id] = v.Clone()
	m.voteIndex[v.ProposalID] = append(m.voteIndex[v.ProposalID], id)
	return nil
}

func (m *mockState) VoteHas(proposalID [32]byte, voter [20]byte) (bool, error) {
	_, ok := m.votes[DeriveVoteID(proposalID, voter)]
	return ok, nil
}

func (m *mockState) VotesList(proposalID [32]byte) ([]*Vote, error) {
	ids := m.voteIndex[proposalID]
	votes := make([]*Vote, 0, len(ids))
	for _, id := range ids {
		if v, ok := m.votes[id]; ok {
			votes = append(votes, v.Clone())
		}
	}
	return votes, nil
}

func (m *mockState) CircleGet(id [32]byte) (*circle.Circle, bool, error) {
	c, ok := m.circles[id]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func (m *mockState) CirclePut(c *circle.Circle) error {
	m.circles[c.ID] = c.Clone()
	return nil
}

func (m *mockState) MemberGet(circleID [32]byte, identity [20]byte) (*circle.Member, bool, error) {
	member, ok := m.members[memberKey(circleID, identity)]
	if !ok {
		return nil, false, nil
	}
	return member.Clone(), true, nil
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

type testClock struct {
	now int64
}

func newTestEngine(t *testing.T) (*Engine, *mockState, *testClock) {
	t.Helper()
	state := newMockState()
	clock := &testClock{now: 1_700_000_000}
	engine := NewEngine()
	engine.SetState(state)
	engine.SetCircles(state)
	engine.SetNowFunc(func() int64 { return clock.now })
	return engine, state, clock
}

func seedCircle(state *mockState, members ...[20]byte) [32]byte {
	id := [32]byte{0x22}
	c := &circle.Circle{
		ID:             id,
		Status:         circle.StatusActive,
		TotalPot:       big.NewInt(0),
		DurationRounds: 3,
		PenaltyRateBps: 500,
	}
	for i := 0; i < 3; i++ {
		c.Rounds = append(c.Rounds, circle.Round{TotalCollected: big.NewInt(0)})
	}
	for _, identity := range members {
		c.Members = append(c.Members, identity)
		c.MemberCount++
		state.members[memberKey(id, identity)] = &circle.Member{
			Authority: identity,
			CircleID:  id,
			Stake:     big.NewInt(0),
			Status:    circle.MemberActive,
		}
	}
	state.circles[id] = c
	return id
}

func TestCreateProposalValidation(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	alice := newTestAddress(0xA1)
	circleID := seedCircle(state, alice)

	if _, err := engine.CreateProposal(circleID, newTestAddress(0xDD), "t", "d", KindEmergencyPause, Payload{}, 3600, 1); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
	if _, err := engine.CreateProposal(circleID, alice, "t", "d", KindPenaltyRate, Payload{NewPenaltyRateBps: 20_000}, 3600, 1); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	if _, err := engine.CreateProposal(circleID, alice, "t", "d", KindDurationExtension, Payload{}, 3600, 1); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for zero extension, got %v", err)
	}
	if _, err := engine.CreateProposal(circleID, alice, "t", "d", KindEmergencyPause, Payload{}, 0, 1); !errors.Is(err, ErrInvalidVotingPeriod) {
		t.Fatalf("expected ErrInvalidVotingPeriod, got %v", err)
	}
	proposal, err := engine.CreateProposal(circleID, alice, " lower penalty ", "halve it", KindPenaltyRate, Payload{NewPenaltyRateBps: 250}, 3600, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if proposal.Title != "lower penalty" {
		t.Fatalf("expected trimmed title, got %q", proposal.Title)
	}
	if proposal.Deadline != proposal.CreatedAt+3600 {
		t.Fatalf("deadline not anchored to creation: %+v", proposal)
	}
}

func TestCreateProposalRejectsDerivedIDCollision(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	alice := newTestAddress(0xA1)
	circleID := seedCircle(state, alice)
	first, err := engine.CreateProposal(circleID, alice, "first", "d", KindEmergencyPause, Payload{}, 3600, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Same circle, same second: the derived ID repeats and must not
	// overwrite the stored proposal.
	if _, err := engine.CreateProposal(circleID, alice, "second", "d", KindEmergencyResume, Payload{}, 7200, 2); !errors.Is(err, ErrProposalExists) {
		t.Fatalf("expected ErrProposalExists, got %v", err)
	}
	stored, ok, _ := state.ProposalGet(first.ID)
	if !ok || stored.Title != "first" || stored.Kind != KindEmergencyPause {
		t.Fatalf("original proposal mutated: %+v", stored)
	}
	clock.now++
	if _, err := engine.CreateProposal(circleID, alice, "second", "d", KindEmergencyResume, Payload{}, 7200, 2); err != nil {
		t.Fatalf("create at later time: %v", err)
	}
}

func TestVoteUniquenessAndDeadline(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	circleID := seedCircle(state, alice, bob)
	proposal, err := engine.CreateProposal(circleID, alice, "t", "d", KindEmergencyPause, Payload{}, 3600, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	vote, err := engine.CastVote(proposal.ID, alice, true, big.NewInt(9))
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if vote.QuadraticWeight != 3 {
		t.Fatalf("expected quadratic weight 3 for power 9, got %d", vote.QuadraticWeight)
	}
	// A flipped ballot from the same voter is still a duplicate.
	if _, err := engine.CastVote(proposal.ID, alice, false, big.NewInt(1)); !errors.Is(err, ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}
	if _, err := engine.CastVote(proposal.ID, newTestAddress(0xDD), true, big.NewInt(1)); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}

	clock.now += 3601
	if _, err := engine.CastVote(proposal.ID, bob, true, big.NewInt(4)); !errors.Is(err, ErrProposalExpired) {
		t.Fatalf("expected ErrProposalExpired, got %v", err)
	}
}

func TestExecuteQuadraticDecision(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	carol := newTestAddress(0xC3)
	circleID := seedCircle(state, alice, bob, carol)
	proposal, err := engine.CreateProposal(circleID, alice, "t", "d", KindPenaltyRate, Payload{NewPenaltyRateBps: 250}, 3600, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Power 64 for vs 25 against: quadratic weights 8 vs 5.
	if _, err := engine.CastVote(proposal.ID, alice, true, big.NewInt(64)); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := engine.CastVote(proposal.ID, bob, false, big.NewInt(25)); err != nil {
		t.Fatalf("vote: %v", err)
	}

	if _, err := engine.Execute(proposal.ID); !errors.Is(err, ErrVotingNotEnded) {
		t.Fatalf("expected ErrVotingNotEnded, got %v", err)
	}
	clock.now += 3601
	executed, err := engine.Execute(proposal.ID)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	// quadFor 8 > quadAgainst 5, total 13 >= threshold 1.
	if !executed.Passed || !executed.Executed {
		t.Fatalf("expected passed proposal, got %+v", executed)
	}
	c, _, _ := state.CircleGet(circleID)
	if c.PenaltyRateBps != 250 {
		t.Fatalf("expected applied penalty rate 250, got %d", c.PenaltyRateBps)
	}
	if _, err := engine.Execute(proposal.ID); !errors.Is(err, ErrAlreadyExecuted) {
		t.Fatalf("expected ErrAlreadyExecuted, got %v", err)
	}
}

func TestExecuteTieFails(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	alice := newTestAddress(0xA1)
	bob := newTestAddress(0xB2)
	circleID := seedCircle(state, alice, bob)
	proposal, err := engine.CreateProposal(circleID, alice, "t", "d", KindPenaltyRate, Payload{NewPenaltyRateBps: 100}, 3600, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.CastVote(proposal.ID, alice, true, big.NewInt(16)); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := engine.CastVote(proposal.ID, bob, false, big.NewInt(16)); err != nil {
		t.Fatalf("vote: %v", err)
	}
	clock.now += 3601
	executed, err := engine.Execute(proposal.ID)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if executed.Passed {
		t.Fatal("a tie must fail")
	}
	c, _, _ := state.CircleGet(circleID)
	if c.PenaltyRateBps != 500 {
		t.Fatalf("failed proposal must not mutate the circle, got %d", c.PenaltyRateBps)
	}
}

func TestExecuteThreshold(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	alice := newTestAddress(0xA1)
	circleID := seedCircle(state, alice)
	proposal, err := engine.CreateProposal(circleID, alice, "t", "d", KindEmergencyPause, Payload{}, 3600, 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.CastVote(proposal.ID, alice, true, big.NewInt(9)); err != nil {
		t.Fatalf("vote: %v", err)
	}
	clock.now += 3601
	executed, err := engine.Execute(proposal.ID)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	// quadFor 3 wins the split but misses the participation threshold of 10.
	if executed.Passed {
		t.Fatal("below-threshold proposal must fail")
	}
}

func TestEmergencyPauseAndExtension(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	alice := newTestAddress(0xA1)
	circleID := seedCircle(state, alice)

	pause, err := engine.CreateProposal(circleID, alice, "pause", "", KindEmergencyPause, Payload{}, 3600, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.CastVote(pause.ID, alice, true, big.NewInt(4)); err != nil {
		t.Fatalf("vote: %v", err)
	}
	clock.now += 3601
	if _, err := engine.Execute(pause.ID); err != nil {
		t.Fatalf("execute: %v", err)
	}
	c, _, _ := state.CircleGet(circleID)
	if c.Status != circle.StatusForming {
		t.Fatalf("expected paused circle, got %v", c.Status)
	}

	// Extension adds rounds and records the new duration.
	c.Status = circle.StatusActive
	if err := state.CirclePut(c); err != nil {
		t.Fatalf("put: %v", err)
	}
	extension, err := engine.CreateProposal(circleID, alice, "extend", "", KindDurationExtension, Payload{ExtensionRounds: 2}, 3600, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.CastVote(extension.ID, alice, true, big.NewInt(4)); err != nil {
		t.Fatalf("vote: %v", err)
	}
	clock.now += 3601
	if _, err := engine.Execute(extension.ID); err != nil {
		t.Fatalf("execute: %v", err)
	}
	c, _, _ = state.CircleGet(circleID)
	if c.DurationRounds != 5 || len(c.Rounds) != 5 {
		t.Fatalf("expected 5 rounds after extension, got %d/%d", c.DurationRounds, len(c.Rounds))
	}
}
