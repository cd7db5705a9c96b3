package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"atlas-sync-engine/internal/domain"
)

// Dispatcher turns one queued mutation into one remote request. It
// never retries and never touches the queue; both are the
// orchestrator's concern.
type Dispatcher interface {
	Dispatch(ctx context.Context, m domain.Mutation, rank domain.PriorityRank) domain.DispatchOutcome
}

type HTTPDispatcher struct {
	endpoint    string
	deviceID    string
	accessToken string
	client      *http.Client
}

func NewHTTPDispatcher(endpoint, deviceID, accessToken string, timeout time.Duration) *HTTPDispatcher {
	return &HTTPDispatcher{
		endpoint:    endpoint,
		deviceID:    deviceID,
		accessToken: accessToken,
		client:      &http.Client{Timeout: timeout},
	}
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, m domain.Mutation, rank domain.PriorityRank) domain.DispatchOutcome {
	var method, url string
	switch m.Op {
	case domain.OpCreate:
		method = http.MethodPost
		url = fmt.Sprintf("%s/%s", d.endpoint, m.Category)
	case domain.OpUpdate:
		method = http.MethodPut
		url = fmt.Sprintf("%s/%s/%s", d.endpoint, m.Category, m.RecordID)
	case domain.OpDelete:
		method = http.MethodDelete
		url = fmt.Sprintf("%s/%s/%s", d.endpoint, m.Category, m.RecordID)
	default:
		return domain.DispatchOutcome{
			Status: domain.DispatchApplicationFailure,
			Reason: fmt.Sprintf("unknown operation: %s", m.Op),
		}
	}

	var body *bytes.Buffer
	if m.Op != domain.OpDelete {
		data, err := json.Marshal(d.augmentPayload(m, rank))
		if err != nil {
			return domain.DispatchOutcome{
				Status: domain.DispatchApplicationFailure,
				Reason: fmt.Sprintf("failed to encode payload: %v", err),
			}
		}
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return domain.DispatchOutcome{
			Status: domain.DispatchTransportFailure,
			Reason: err.Error(),
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Sync-Priority", strconv.Itoa(int(rank)))
	req.Header.Set("X-Device-ID", d.deviceID)
	req.Header.Set("X-Request-Timestamp", time.Now().Format(time.RFC3339))
	if d.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.accessToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return domain.DispatchOutcome{
			Status: domain.DispatchTransportFailure,
			Reason: err.Error(),
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var decoded map[string]any
		json.NewDecoder(resp.Body).Decode(&decoded)
		return domain.DispatchOutcome{
			Status:     domain.DispatchSuccess,
			Body:       decoded,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode == http.StatusConflict:
		return domain.DispatchOutcome{
			Status:       domain.DispatchConflict,
			ServerRecord: decodeServerRecord(resp),
			StatusCode:   resp.StatusCode,
		}

	default:
		return domain.DispatchOutcome{
			Status:     domain.DispatchApplicationFailure,
			StatusCode: resp.StatusCode,
			Reason:     resp.Status,
		}
	}
}

// augmentPayload attaches the enqueue timestamp and computed priority
// so the remote side can make its own ordering decisions.
func (d *HTTPDispatcher) augmentPayload(m domain.Mutation, rank domain.PriorityRank) map[string]any {
	augmented := make(map[string]any, len(m.Payload)+2)
	for k, v := range m.Payload {
		augmented[k] = v
	}
	augmented["queued_at"] = m.EnqueuedAt.Format(time.RFC3339)
	augmented["sync_priority"] = int(rank)
	return augmented
}

func decodeServerRecord(resp *http.Response) map[string]any {
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}
	if server, ok := body["server_data"].(map[string]any); ok {
		return server
	}
	return body
}
