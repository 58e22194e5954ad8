// Package events delivers live events to the websocket connections of a user,
// locally through Hub and across API instances through RedisBroker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/event"
)

type Writer interface {
	Write(message []byte) error
	Close() error
}

// Connection is one live socket of one device.
type Connection struct {
	UserID   uuid.UUID
	DeviceID uuid.UUID
	Writer   Writer
}

type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]map[*Connection]struct{}
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]map[*Connection]struct{}),
		logger:      logger,
	}
}

func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[conn.UserID] == nil {
		h.connections[conn.UserID] = make(map[*Connection]struct{})
	}
	h.connections[conn.UserID][conn] = struct{}{}
}

func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.connections[conn.UserID]
	if set == nil {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.connections, conn.UserID)
	}
}

// Count returns the number of live connections of a user.
func (h *Hub) Count(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

func (h *Hub) Broadcast(userID uuid.UUID, message []byte) {
	var failed []*Connection
	for _, c := range h.snapshot(userID) {
		if err := c.Writer.Write(message); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		_ = c.Writer.Close()
		h.Unregister(c)
	}
}

// Publish delivers evt to this instance's connections. A revoked device gets
// the event and is then disconnected.
func (h *Hub) Publish(_ context.Context, evt event.Event) error {
	message, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	h.Broadcast(evt.UserID, message)

	if evt.Type == event.TypeDeviceRevoked && evt.DeviceID != nil {
		h.disconnect(evt.UserID, *evt.DeviceID)
	}
	return nil
}

func (h *Hub) disconnect(userID, deviceID uuid.UUID) {
	for _, c := range h.snapshot(userID) {
		if c.DeviceID != deviceID {
			continue
		}
		_ = c.Writer.Close()
		h.Unregister(c)
		h.logger.Info("closed connection of revoked device",
			zap.String("user_id", userID.String()),
			zap.String("device_id", deviceID.String()),
		)
	}
}

func (h *Hub) snapshot(userID uuid.UUID) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.connections[userID]
	conns := make([]*Connection, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}
