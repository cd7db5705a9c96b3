package domain

import "time"

type DeviceIdentity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PairingHash string    `json:"pairing_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type PairDeviceRequest struct {
	Name        string `json:"name" validate:"required"`
	PairingCode string `json:"pairing_code" validate:"required,min=6"`
}

type VerifyPairingRequest struct {
	Name        string `json:"name"`
	PairingCode string `json:"pairing_code" validate:"required,min=6"`
}

type DeviceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Paired    bool      `json:"paired"`
	CreatedAt time.Time `json:"created_at"`
}
