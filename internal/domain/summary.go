package domain

import "time"

type ItemStatus string

const (
	ItemSynced   ItemStatus = "synced"
	ItemResolved ItemStatus = "resolved"
	ItemFailed   ItemStatus = "failed"
)

type ItemResult struct {
	MutationID int64             `json:"mutation_id"`
	Category   string            `json:"category"`
	Priority   PriorityRank      `json:"priority"`
	Status     ItemStatus        `json:"status"`
	Resolution ResolutionOutcome `json:"resolution,omitempty"`
	Retried    bool              `json:"retried,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type PullResult struct {
	Category string `json:"category"`
	Applied  int    `json:"applied"`
	Error    string `json:"error,omitempty"`
}

type RunSummary struct {
	RunID      string       `json:"run_id"`
	Success    bool         `json:"success"`
	Message    string       `json:"message,omitempty"`
	Synced     int          `json:"synced"`
	Failed     int          `json:"failed"`
	Items      []ItemResult `json:"items"`
	Downloads  []PullResult `json:"downloads,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}
