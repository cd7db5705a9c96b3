package repository

import (
	"context"
	"fmt"

	"github.com/go-kivik/kivik/v4"
)

// RecordRepository applies server-side records pulled by the downloader
// to the local store. Records without an id are skipped rather than
// failing the whole batch.
type RecordRepository interface {
	ApplyRemote(category string, records []map[string]any) (int, error)
}

type recordRepository struct {
	client *kivik.Client
	dbName string
}

func NewRecordRepository(client *kivik.Client, dbName string) RecordRepository {
	return &recordRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *recordRepository) ApplyRemote(category string, records []map[string]any) (int, error) {
	db := r.client.DB(r.dbName)

	applied := 0
	for _, record := range records {
		id, ok := record["id"].(string)
		if !ok || id == "" {
			continue
		}

		docID := fmt.Sprintf("%s:%s", category, id)

		doc := make(map[string]interface{}, len(record)+2)
		for k, v := range record {
			doc[k] = v
		}
		doc["doc_type"] = category

		var rawDoc map[string]interface{}
		row := db.Get(context.Background(), docID)
		if err := row.ScanDoc(&rawDoc); err == nil {
			if rev, ok := rawDoc["_rev"].(string); ok {
				doc["_rev"] = rev
			}
		}

		if _, err := db.Put(context.Background(), docID, doc); err != nil {
			return applied, fmt.Errorf("failed to apply %s record %s: %w", category, id, err)
		}
		applied++
	}

	return applied, nil
}
