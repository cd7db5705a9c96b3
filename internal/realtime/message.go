package realtime

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeCategoryUpdated MessageType = "category_updated"
	TypePing            MessageType = "ping"
	TypePong            MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type CategoryUpdatedPayload struct {
	Category string `json:"category"`
	DeviceID string `json:"device_id,omitempty"`
}
