package domain

type DispatchStatus string

const (
	DispatchSuccess            DispatchStatus = "success"
	DispatchConflict           DispatchStatus = "conflict"
	DispatchTransportFailure   DispatchStatus = "transport_failure"
	DispatchApplicationFailure DispatchStatus = "application_failure"
)

type DispatchOutcome struct {
	Status       DispatchStatus `json:"status"`
	Body         map[string]any `json:"body,omitempty"`
	ServerRecord map[string]any `json:"server_record,omitempty"`
	StatusCode   int            `json:"status_code,omitempty"`
	Reason       string         `json:"reason,omitempty"`
}

// Retryable reports whether the outcome may be attempted again within
// the same run. Conflicts are never retried; they resolve terminally.
func (o DispatchOutcome) Retryable() bool {
	return o.Status == DispatchTransportFailure || o.Status == DispatchApplicationFailure
}
