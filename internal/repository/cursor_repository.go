package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-kivik/kivik/v4"
)

// CursorRepository tracks the last successful pull timestamp per
// downloadable category. A category never pulled reports the zero time,
// which the downloader sends as the epoch default.
type CursorRepository interface {
	Get(category string) (time.Time, error)
	Advance(category string, t time.Time) error
}

type cursorRepository struct {
	client *kivik.Client
	dbName string
}

func NewCursorRepository(client *kivik.Client, dbName string) CursorRepository {
	return &cursorRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *cursorRepository) Get(category string) (time.Time, error) {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("cursor:%s", category)

	var rawDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&rawDoc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to load cursor for %s: %w", category, err)
	}

	raw, _ := rawDoc["last_pulled_at"].(string)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, nil
	}

	return t, nil
}

func (r *cursorRepository) Advance(category string, t time.Time) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("cursor:%s", category)

	doc := map[string]interface{}{
		"doc_type":       "cursor",
		"category":       category,
		"last_pulled_at": t.Format(time.RFC3339),
		"updated_at":     time.Now(),
	}

	var rawDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&rawDoc); err == nil {
		if rev, ok := rawDoc["_rev"].(string); ok {
			doc["_rev"] = rev
		}
	}

	if _, err := db.Put(context.Background(), docID, doc); err != nil {
		return fmt.Errorf("failed to advance cursor for %s: %w", category, err)
	}

	return nil
}
