package service

import (
	"context"
	"net/http"
	"time"
)

// ConnectivityChecker reports whether the remote service is currently
// reachable. The orchestrator checks it before any network activity.
type ConnectivityChecker interface {
	IsOnline(ctx context.Context) bool
}

type HTTPConnectivityChecker struct {
	healthURL string
	client    *http.Client
}

func NewHTTPConnectivityChecker(healthURL string, timeout time.Duration) *HTTPConnectivityChecker {
	return &HTTPConnectivityChecker{
		healthURL: healthURL,
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPConnectivityChecker) IsOnline(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
