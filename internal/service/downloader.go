package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"atlas-sync-engine/internal/domain"
	"atlas-sync-engine/internal/repository"
)

// Downloader pulls server-side updates for a fixed, ordered list of
// categories after every upload pass. A failure on one category never
// blocks the remaining ones.
type Downloader struct {
	endpoint    string
	deviceID    string
	accessToken string
	client      *http.Client
	cursors     repository.CursorRepository
	records     repository.RecordRepository
	now         func() time.Time
}

func NewDownloader(endpoint, deviceID, accessToken string, timeout time.Duration, cursors repository.CursorRepository, records repository.RecordRepository) *Downloader {
	return &Downloader{
		endpoint:    endpoint,
		deviceID:    deviceID,
		accessToken: accessToken,
		client:      &http.Client{Timeout: timeout},
		cursors:     cursors,
		records:     records,
		now:         time.Now,
	}
}

func (d *Downloader) PullUpdates(ctx context.Context) []domain.PullResult {
	results := make([]domain.PullResult, 0, len(domain.DownloadCategories))

	for _, category := range domain.DownloadCategories {
		result := d.pullCategory(ctx, category.Name)
		if result.Error != "" {
			log.Printf("Pull failed for category %s: %s", category.Name, result.Error)
		}
		results = append(results, result)
	}

	return results
}

func (d *Downloader) pullCategory(ctx context.Context, category string) domain.PullResult {
	result := domain.PullResult{Category: category}

	since, err := d.cursors.Get(category)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if since.IsZero() {
		since = time.Unix(0, 0).UTC()
	}

	pullURL := fmt.Sprintf("%s/%s?since=%s", d.endpoint, category, url.QueryEscape(since.Format(time.RFC3339)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pullURL, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	req.Header.Set("X-Device-ID", d.deviceID)
	if d.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.accessToken)
	}

	pulledAt := d.now()

	resp, err := d.client.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return result
	}

	var records []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		result.Error = fmt.Sprintf("failed to decode response: %v", err)
		return result
	}

	applied, err := d.records.ApplyRemote(category, records)
	result.Applied = applied
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if err := d.cursors.Advance(category, pulledAt); err != nil {
		result.Error = err.Error()
	}

	return result
}
