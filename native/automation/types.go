package automation

// Schedule offsets, in seconds. Contributions fall due every 30 days from the
// circle's creation; distribution and penalty assessment trail each due time
// by fixed offsets. The offsets are identical across rounds and across
// circles; only the absolute timestamps differ.
const (
	day                = uint64(24 * 60 * 60)
	ContributionPeriod = 30 * day
	DistributionOffset = 25 * day
	PenaltyOffset      = 27 * day
)

// State is the process-wide automation configuration: one record, one
// authority, explicit initialization.
type State struct {
	Authority   [20]byte
	Enabled     bool
	MinInterval uint64
	ActiveJobs  uint64
	LastTrigger uint64
}

// Clone returns a copy of the state record.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// TriggerType tags the automated operation an event records.
type TriggerType uint8

const (
	TriggerCollection TriggerType = iota
	TriggerDistribution
	TriggerPenalty
)

// String returns the canonical trigger name.
func (t TriggerType) String() string {
	switch t {
	case TriggerCollection:
		return "collection"
	case TriggerDistribution:
		return "distribution"
	case TriggerPenalty:
		return "penalty"
	default:
		return "unknown"
	}
}

// CircleAutomation holds one circle's opt-in flags and the three precomputed
// schedules, one entry per round. Schedules are stored rather than recomputed
// so they are auditable and provably deterministic.
type CircleAutomation struct {
	CircleID             [32]byte
	AutoCollect          bool
	AutoDistribute       bool
	AutoPenalty          bool
	ContributionSchedule []uint64
	DistributionSchedule []uint64
	PenaltySchedule      []uint64
	NextCollection       uint64
	NextDistribution     uint64
	NextPenalty          uint64
	EventCount           uint64
}

// Clone returns a deep copy of the automation record.
func (c *CircleAutomation) Clone() *CircleAutomation {
	if c == nil {
		return nil
	}
	clone := *c
	clone.ContributionSchedule = append([]uint64(nil), c.ContributionSchedule...)
	clone.DistributionSchedule = append([]uint64(nil), c.DistributionSchedule...)
	clone.PenaltySchedule = append([]uint64(nil), c.PenaltySchedule...)
	return &clone
}

// LogEntry is one append-only record of a fired trigger. Entries are never
// mutated after creation.
type LogEntry struct {
	CircleID [32]byte
	Trigger  TriggerType
	Success  bool
	FiredAt  uint64
	Sequence uint64
}

// BuildSchedules derives the three per-round schedules from a circle's
// creation time.
func BuildSchedules(createdAt, rounds uint64) (contribution, distribution, penalty []uint64) {
	contribution = make([]uint64, rounds)
	distribution = make([]uint64, rounds)
	penalty = make([]uint64, rounds)
	for i := uint64(0); i < rounds; i++ {
		due := createdAt + i*ContributionPeriod
		contribution[i] = due
		distribution[i] = due + DistributionOffset
		penalty[i] = due + PenaltyOffset
	}
	return contribution, distribution, penalty
}
