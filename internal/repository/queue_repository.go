package repository

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"atlas-sync-engine/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type QueueRepository interface {
	Add(category, recordID string, op domain.MutationOp, payload map[string]any) (*domain.Mutation, error)
	ListAll() ([]*domain.Mutation, error)
	Remove(id int64) error
}

type queueRepository struct {
	client *kivik.Client
	dbName string
}

func NewQueueRepository(client *kivik.Client, dbName string) QueueRepository {
	return &queueRepository{
		client: client,
		dbName: dbName,
	}
}

type mutationDoc struct {
	Rev        string         `json:"_rev,omitempty"`
	DocType    string         `json:"doc_type"`
	MutationID int64          `json:"mutation_id"`
	Category   string         `json:"category"`
	RecordID   string         `json:"record_id,omitempty"`
	Op         string         `json:"op"`
	Payload    map[string]any `json:"payload,omitempty"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

func (r *queueRepository) Add(category, recordID string, op domain.MutationOp, payload map[string]any) (*domain.Mutation, error) {
	db := r.client.DB(r.dbName)

	seq, err := r.nextSequence(db)
	if err != nil {
		return nil, fmt.Errorf("failed to assign mutation id: %w", err)
	}

	mutation := &domain.Mutation{
		ID:         seq,
		Category:   category,
		RecordID:   recordID,
		Op:         op,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}

	doc := mutationDoc{
		DocType:    "mutation",
		MutationID: mutation.ID,
		Category:   mutation.Category,
		RecordID:   mutation.RecordID,
		Op:         string(mutation.Op),
		Payload:    mutation.Payload,
		EnqueuedAt: mutation.EnqueuedAt,
	}

	docID := fmt.Sprintf("mutation:%012d", mutation.ID)
	if _, err := db.Put(context.Background(), docID, doc); err != nil {
		return nil, fmt.Errorf("failed to enqueue mutation: %w", err)
	}

	return mutation, nil
}

func (r *queueRepository) ListAll() ([]*domain.Mutation, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"doc_type": "mutation",
		},
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list queued mutations: %w", err)
	}
	defer rows.Close()

	var mutations []*domain.Mutation
	for rows.Next() {
		var doc mutationDoc
		if err := rows.ScanDoc(&doc); err != nil {
			continue // Skip malformed docs
		}
		mutations = append(mutations, &domain.Mutation{
			ID:         doc.MutationID,
			Category:   doc.Category,
			RecordID:   doc.RecordID,
			Op:         domain.MutationOp(doc.Op),
			Payload:    doc.Payload,
			EnqueuedAt: doc.EnqueuedAt,
		})
	}

	sort.Slice(mutations, func(i, j int) bool {
		return mutations[i].ID < mutations[j].ID
	})

	return mutations, nil
}

func (r *queueRepository) Remove(id int64) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("mutation:%012d", id)

	var rawDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&rawDoc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return fmt.Errorf("mutation %d not found", id)
		}
		return fmt.Errorf("failed to load mutation %d: %w", id, err)
	}

	rev, _ := rawDoc["_rev"].(string)
	if _, err := db.Delete(context.Background(), docID, rev); err != nil {
		return fmt.Errorf("failed to remove mutation %d: %w", id, err)
	}

	return nil
}

// nextSequence advances the local monotonic mutation counter. The queue
// has a single writer, so a read-increment-put cycle is sufficient.
func (r *queueRepository) nextSequence(db *kivik.DB) (int64, error) {
	const seqDocID = "mutation:seq"

	var rawDoc map[string]interface{}
	row := db.Get(context.Background(), seqDocID)
	err := row.ScanDoc(&rawDoc)
	if err != nil && kivik.HTTPStatus(err) != http.StatusNotFound {
		return 0, err
	}

	var next int64 = 1
	if err == nil {
		if value, ok := rawDoc["value"].(float64); ok {
			next = int64(value) + 1
		}
		rawDoc["value"] = next
	} else {
		rawDoc = map[string]interface{}{"value": next}
	}

	if _, err := db.Put(context.Background(), seqDocID, rawDoc); err != nil {
		return 0, err
	}

	return next, nil
}
