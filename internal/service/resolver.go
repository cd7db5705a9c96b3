package service

import (
	"time"

	"atlas-sync-engine/internal/domain"
)

// Resolver settles a dispatch that came back 409. Every outcome is
// terminal: the orchestrator removes the mutation afterwards and never
// re-dispatches it within the same run.
type Resolver struct {
	now func() time.Time
}

func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

func (r *Resolver) Resolve(m domain.Mutation, strategy domain.ConflictStrategy, serverRecord map[string]any) domain.Resolution {
	switch strategy {
	case domain.StrategyLWWClinical:
		// Unconditional client precedence. The freshest clinical
		// observation lives on the device that captured it; server
		// timestamps are deliberately not consulted.
		return domain.Resolution{
			Outcome:  domain.ResolutionClientWins,
			Strategy: strategy,
		}

	case domain.StrategyMergeAudit:
		return domain.Resolution{
			Outcome:    domain.ResolutionMerged,
			Strategy:   strategy,
			MergedData: r.mergeWithAudit(m, serverRecord),
		}

	case domain.StrategyKeepBoth:
		// Both versions are valid timestamp-distinguished observations;
		// neither side discards anything.
		return domain.Resolution{
			Outcome:  domain.ResolutionBothKept,
			Strategy: strategy,
		}

	default:
		return domain.Resolution{
			Outcome:  domain.ResolutionServerWins,
			Strategy: domain.StrategyServerWins,
		}
	}
}

// mergeWithAudit overlays client fields on the server record and
// attaches an audit block recording the merge time and both sides'
// last-modified markers.
func (r *Resolver) mergeWithAudit(m domain.Mutation, serverRecord map[string]any) map[string]any {
	merged := make(map[string]any, len(serverRecord)+len(m.Payload)+1)
	for k, v := range serverRecord {
		merged[k] = v
	}
	for k, v := range m.Payload {
		merged[k] = v
	}

	merged["audit"] = map[string]any{
		"merged_at":       r.now().Format(time.RFC3339),
		"client_modified": m.EnqueuedAt.Format(time.RFC3339),
		"server_modified": serverRecord["updated_at"],
	}

	return merged
}
