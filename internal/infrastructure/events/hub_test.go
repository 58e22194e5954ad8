package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/event"
)

type testWriter struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	fail     bool
}

func (w *testWriter) Write(message []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("broken pipe")
	}
	w.messages = append(w.messages, message)
	return nil
}

func (w *testWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *testWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

func (w *testWriter) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	h := NewHub(zap.NewNop())
	userID := uuid.New()
	w := &testWriter{}
	conn := &Connection{UserID: userID, DeviceID: uuid.New(), Writer: w}

	h.Register(conn)
	h.Broadcast(userID, []byte("x"))
	h.Broadcast(uuid.New(), []byte("other user"))
	assert.Equal(t, 1, w.count())

	h.Unregister(conn)
	h.Broadcast(userID, []byte("x"))
	assert.Equal(t, 1, w.count())
	assert.Equal(t, 0, h.Count(userID))
}

func TestHub_RemovesFailedConnections(t *testing.T) {
	h := NewHub(zap.NewNop())
	userID := uuid.New()
	w := &testWriter{fail: true}
	h.Register(&Connection{UserID: userID, Writer: w})

	h.Broadcast(userID, []byte("x"))

	assert.True(t, w.isClosed())
	assert.Equal(t, 0, h.Count(userID))
}

func TestHub_PublishRevocationClosesOnlyThatDevice(t *testing.T) {
	h := NewHub(zap.NewNop())
	userID := uuid.New()
	revoked := &entity.Device{ID: uuid.New(), UserID: userID}
	now := time.Now().UTC()
	revoked.RevokedAt = &now

	gone := &testWriter{}
	stays := &testWriter{}
	h.Register(&Connection{UserID: userID, DeviceID: revoked.ID, Writer: gone})
	h.Register(&Connection{UserID: userID, DeviceID: uuid.New(), Writer: stays})

	require.NoError(t, h.Publish(context.Background(), event.DeviceRevoked(revoked)))

	assert.Equal(t, 1, gone.count())
	assert.True(t, gone.isClosed())
	assert.False(t, stays.isClosed())
	assert.Equal(t, 1, h.Count(userID))

	var got event.Event
	require.NoError(t, json.Unmarshal(stays.messages[0], &got))
	assert.Equal(t, event.TypeDeviceRevoked, got.Type)
}
