package service

import (
	"time"

	"atlas-sync-engine/internal/domain"
)

// Classification pairs the urgency rank computed for a mutation with
// the conflict strategy configured for its category.
type Classification struct {
	Rank     domain.PriorityRank
	Strategy domain.ConflictStrategy
}

// categoryStrategies maps each known category to its conflict strategy.
// Unlisted categories fall back to server-wins.
var categoryStrategies = map[string]domain.ConflictStrategy{
	domain.CategoryConsultations: domain.StrategyLWWClinical,
	domain.CategoryPatients:      domain.StrategyMergeAudit,
	domain.CategoryVitals:        domain.StrategyKeepBoth,
}

// Classify computes the clinical urgency and conflict strategy for a
// queued mutation. It is pure and total: malformed or missing payload
// timestamps are treated as "not recent" and never fail the run.
func Classify(m domain.Mutation, now time.Time) Classification {
	strategy, ok := categoryStrategies[m.Category]
	if !ok {
		strategy = domain.StrategyServerWins
	}

	return Classification{
		Rank:     rankFor(m, now),
		Strategy: strategy,
	}
}

func rankFor(m domain.Mutation, now time.Time) domain.PriorityRank {
	switch m.Category {
	case domain.CategoryConsultations:
		recordedAt, ok := payloadTime(m.Payload, "recorded_at")
		if !ok {
			return domain.PriorityMedium
		}
		age := now.Sub(recordedAt)
		switch {
		case age < time.Hour:
			return domain.PriorityCritical
		case age < 24*time.Hour:
			return domain.PriorityHigh
		default:
			return domain.PriorityMedium
		}

	case domain.CategoryPatients:
		lastVisit, ok := payloadTime(m.Payload, "last_visit")
		if ok && now.Sub(lastVisit) < 24*time.Hour {
			return domain.PriorityHigh
		}
		return domain.PriorityMedium

	case domain.CategoryVitals:
		return domain.PriorityCritical

	default:
		return domain.PriorityMedium
	}
}

func payloadTime(payload map[string]any, field string) (time.Time, bool) {
	if payload == nil {
		return time.Time{}, false
	}
	raw, ok := payload[field].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
