package domain

// PriorityRank orders queued mutations by clinical urgency.
// Lower value means more urgent. Ranks are recomputed on every sync
// run from the current payload and timestamps, never persisted.
type PriorityRank int

const (
	PriorityCritical   PriorityRank = 1
	PriorityHigh       PriorityRank = 2
	PriorityMedium     PriorityRank = 3
	PriorityLow        PriorityRank = 4
	PriorityBackground PriorityRank = 5
)

func (p PriorityRank) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	case PriorityBackground:
		return "background"
	default:
		return "unknown"
	}
}
