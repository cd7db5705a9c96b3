package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"atlas-sync-engine/internal/domain"

	"github.com/go-kivik/kivik/v4"
	"github.com/google/uuid"
)

const deviceDocID = "device:identity"

// DeviceRepository owns the stable per-installation device identity.
// The identifier is generated once on first use and never changes.
type DeviceRepository interface {
	GetOrCreate(name string) (*domain.DeviceIdentity, error)
	SavePairingHash(hash string) error
}

type deviceRepository struct {
	client *kivik.Client
	dbName string
}

func NewDeviceRepository(client *kivik.Client, dbName string) DeviceRepository {
	return &deviceRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *deviceRepository) GetOrCreate(name string) (*domain.DeviceIdentity, error) {
	db := r.client.DB(r.dbName)

	var device domain.DeviceIdentity
	row := db.Get(context.Background(), deviceDocID)
	err := row.ScanDoc(&device)
	if err == nil {
		return &device, nil
	}
	if kivik.HTTPStatus(err) != http.StatusNotFound {
		return nil, fmt.Errorf("failed to load device identity: %w", err)
	}

	device = domain.DeviceIdentity{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	if _, err := db.Put(context.Background(), deviceDocID, device); err != nil {
		return nil, fmt.Errorf("failed to create device identity: %w", err)
	}

	return &device, nil
}

func (r *deviceRepository) SavePairingHash(hash string) error {
	db := r.client.DB(r.dbName)

	var rawDoc map[string]interface{}
	row := db.Get(context.Background(), deviceDocID)
	if err := row.ScanDoc(&rawDoc); err != nil {
		return fmt.Errorf("failed to load device identity: %w", err)
	}

	rawDoc["pairing_hash"] = hash

	if _, err := db.Put(context.Background(), deviceDocID, rawDoc); err != nil {
		return fmt.Errorf("failed to save pairing hash: %w", err)
	}

	return nil
}
