// Package realtime listens to the remote change feed so the engine can
// start a sync run as soon as the server announces new data, instead of
// waiting for the next periodic tick.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type Listener struct {
	url            string
	deviceID       string
	accessToken    string
	onUpdate       func(category string)
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	reconnectDelay time.Duration
}

func NewListener(url, deviceID, accessToken string, onUpdate func(category string)) *Listener {
	return &Listener{
		url:            url,
		deviceID:       deviceID,
		accessToken:    accessToken,
		onUpdate:       onUpdate,
		writeWait:      10 * time.Second,
		pongWait:       60 * time.Second,
		pingPeriod:     54 * time.Second,
		reconnectDelay: 15 * time.Second,
	}
}

// Run connects, reads until the connection drops, then reconnects after
// a flat delay, until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	for {
		if err := l.listen(ctx); err != nil {
			log.Printf("Change feed disconnected: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.reconnectDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	header := http.Header{}
	header.Set("X-Device-ID", l.deviceID)
	if l.accessToken != "" {
		header.Set("Authorization", "Bearer "+l.accessToken)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	go l.pingLoop(ctx, conn, done)
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(l.pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(l.pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return err
			}
			return nil
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		if msg.Type != TypeCategoryUpdated {
			continue
		}

		var payload CategoryUpdatedPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			continue
		}
		if payload.DeviceID == l.deviceID {
			continue // our own write echoed back
		}

		l.onUpdate(payload.Category)
	}
}

func (l *Listener) pingLoop(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(l.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(l.writeWait))
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(l.writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
