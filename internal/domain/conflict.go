package domain

type ConflictStrategy string

const (
	// StrategyLWWClinical always keeps the client version. The most
	// recently captured clinical observation is trusted over a stale
	// server copy; this is a domain policy, not a timestamp comparison.
	StrategyLWWClinical ConflictStrategy = "lww-clinical"
	StrategyMergeAudit  ConflictStrategy = "merge-audit"
	StrategyKeepBoth    ConflictStrategy = "keep-both"
	StrategyServerWins  ConflictStrategy = "server-wins"
)

type ResolutionOutcome string

const (
	ResolutionClientWins ResolutionOutcome = "client_wins"
	ResolutionMerged     ResolutionOutcome = "merged"
	ResolutionBothKept   ResolutionOutcome = "both_kept"
	ResolutionServerWins ResolutionOutcome = "server_wins"
)

type Resolution struct {
	Outcome    ResolutionOutcome `json:"outcome"`
	Strategy   ConflictStrategy  `json:"strategy"`
	MergedData map[string]any    `json:"merged_data,omitempty"`
}
