package domain

import "time"

type MutationOp string

const (
	OpCreate MutationOp = "create"
	OpUpdate MutationOp = "update"
	OpDelete MutationOp = "delete"
)

// Well-known local data categories. The category set is open: anything
// the classifier does not recognize syncs with default priority.
const (
	CategoryConsultations = "consultations"
	CategoryPatients      = "patients"
	CategoryVitals        = "vitals"
)

type Mutation struct {
	ID         int64          `json:"id"`
	Category   string         `json:"category"`
	RecordID   string         `json:"record_id,omitempty"`
	Op         MutationOp     `json:"op"`
	Payload    map[string]any `json:"payload,omitempty"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

type EnqueueMutationRequest struct {
	Category string         `json:"category" validate:"required"`
	RecordID string         `json:"record_id" validate:"required_unless=Op create"`
	Op       MutationOp     `json:"op" validate:"required,oneof=create update delete"`
	Payload  map[string]any `json:"payload"`
}
