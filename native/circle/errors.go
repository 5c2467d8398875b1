package circle

import "errors"

var (
	// ErrInvalidDuration marks circle creation with a zero round count.
	ErrInvalidDuration = errors.New("circle: invalid duration")
	// ErrInvalidPenaltyRate marks a penalty rate above 10000 bps.
	ErrInvalidPenaltyRate = errors.New("circle: invalid penalty rate")
	// ErrInvalidMemberCount marks circle creation with zero capacity.
	ErrInvalidMemberCount = errors.New("circle: invalid member count")
	// ErrCircleNotFound marks lookups of unknown circles.
	ErrCircleNotFound = errors.New("circle: circle not found")
	// ErrCircleNotActive marks mutations against completed or dissolved circles.
	ErrCircleNotActive = errors.New("circle: circle not active")
	// ErrCircleFull marks joins against a circle at capacity.
	ErrCircleFull = errors.New("circle: circle full")
	// ErrCircleExists marks re-creation with an already used nonce.
	ErrCircleExists = errors.New("circle: circle already exists")
	// ErrMemberNotFound marks operations by identities without a member record.
	ErrMemberNotFound = errors.New("circle: member not found")
	// ErrMemberExists marks duplicate joins by the same identity.
	ErrMemberExists = errors.New("circle: member already joined")
	// ErrInvalidMemberStatus marks operations against defaulted or departed members.
	ErrInvalidMemberStatus = errors.New("circle: invalid member status")
	// ErrInsufficientStake marks a join stake below the trust-tier minimum.
	ErrInsufficientStake = errors.New("circle: insufficient stake")
	// ErrInvalidContributionAmount marks contributions that do not match the
	// circle's fixed per-round amount.
	ErrInvalidContributionAmount = errors.New("circle: invalid contribution amount")
	// ErrContributionAlreadyMade marks a second contribution in one round.
	ErrContributionAlreadyMade = errors.New("circle: contribution already made")
	// ErrPotAlreadyDistributed marks a second distribution of one round.
	ErrPotAlreadyDistributed = errors.New("circle: pot already distributed")
	// ErrMemberAlreadyReceivedPot marks payouts to an already-paid member.
	ErrMemberAlreadyReceivedPot = errors.New("circle: member already received pot")
	// ErrNotAuthority marks authority-gated calls from other identities.
	ErrNotAuthority = errors.New("circle: caller is not the circle authority")
	// ErrNotRecipient marks pull-based claims by a member who is not the
	// round's designated recipient.
	ErrNotRecipient = errors.New("circle: caller is not the round recipient")
	// ErrPendingObligation marks leave attempts while the member has an
	// undistributed contribution locked in the current round.
	ErrPendingObligation = errors.New("circle: pending contribution obligation")
	// ErrRoundOutOfRange marks operations past the circle's final round.
	ErrRoundOutOfRange = errors.New("circle: round out of range")
	// ErrInsufficientYield marks yield withdrawals beyond the tracked position.
	ErrInsufficientYield = errors.New("circle: insufficient yield balance")
)
