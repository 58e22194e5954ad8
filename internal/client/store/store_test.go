package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcos-nsantos/focusdeck-sync/internal/client/store"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Session(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.Session(ctx)
	assert.ErrorIs(t, err, store.ErrNoSession)
	assert.ErrorIs(t, s.UpdateTokens(ctx, "a", "r", time.Now()), store.ErrNoSession)

	expires := time.Now().Add(time.Hour).Truncate(time.Millisecond).UTC()
	sess := store.Session{
		Server:         "http://localhost:8080",
		Username:       "alice",
		UserID:         uuid.New(),
		DeviceRecordID: uuid.New(),
		DeviceID:       "laptop-1",
		AccessToken:    "access-1",
		RefreshToken:   "refresh-1",
		ExpiresAt:      expires,
	}
	require.NoError(t, s.SaveSession(ctx, sess))

	got, err := s.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess, *got)

	require.NoError(t, s.UpdateTokens(ctx, "access-2", "refresh-2", expires.Add(time.Hour)))
	got, err = s.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", got.AccessToken)
	assert.Equal(t, "refresh-2", got.RefreshToken)
	assert.Equal(t, sess.UserID, got.UserID)

	require.NoError(t, s.ClearSession(ctx))
	_, err = s.Session(ctx)
	assert.ErrorIs(t, err, store.ErrNoSession)
}

func TestStore_CursorNeverMovesBack(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	seq, err := s.Cursor(ctx)
	require.NoError(t, err)
	assert.Zero(t, seq)

	require.NoError(t, s.SetCursor(ctx, 12))
	require.NoError(t, s.SetCursor(ctx, 7))

	seq, err = s.Cursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), seq)
}

func TestStore_RecordLocal(t *testing.T) {
	ctx := context.Background()

	t.Run("edits fold into one pending change", func(t *testing.T) {
		s := openStore(t)
		first, err := s.RecordLocal(ctx, entity.EntityTask, "t1", entity.OperationCreate, json.RawMessage(`{"title":"a"}`))
		require.NoError(t, err)

		second, err := s.RecordLocal(ctx, entity.EntityTask, "t1", entity.OperationUpdate, json.RawMessage(`{"title":"b"}`))
		require.NoError(t, err)
		assert.Equal(t, entity.OperationCreate, second.Operation)
		assert.Zero(t, second.BaseVersion)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)

		pending, err := s.Pending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, second.ID, pending[0].ID)
		assert.Equal(t, first.CreatedAt, pending[0].CreatedAt)
		assert.JSONEq(t, `{"title":"b"}`, string(pending[0].Payload))

		e, err := s.Entity(ctx, entity.EntityTask, "t1")
		require.NoError(t, err)
		assert.Zero(t, e.Version)
		assert.JSONEq(t, `{"title":"b"}`, string(e.Payload))
	})

	t.Run("create then delete cancels out", func(t *testing.T) {
		s := openStore(t)
		_, err := s.RecordLocal(ctx, entity.EntityNote, "n1", entity.OperationCreate, json.RawMessage(`{}`))
		require.NoError(t, err)

		change, err := s.RecordLocal(ctx, entity.EntityNote, "n1", entity.OperationDelete, nil)
		require.NoError(t, err)
		assert.Nil(t, change)

		pending, err := s.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
		_, err = s.Entity(ctx, entity.EntityNote, "n1")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update bases on the known server version", func(t *testing.T) {
		s := openStore(t)
		require.NoError(t, s.ApplyRemote(ctx, store.RemoteChange{
			EntityType: entity.EntityDeck,
			EntityID:   "d1",
			Operation:  entity.OperationCreate,
			Version:    3,
			Payload:    json.RawMessage(`{"name":"x"}`),
		}))

		change, err := s.RecordLocal(ctx, entity.EntityDeck, "d1", entity.OperationDelete, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), change.BaseVersion)
		assert.Equal(t, entity.OperationDelete, change.Operation)

		decks, err := s.Entities(ctx, entity.EntityDeck)
		require.NoError(t, err)
		assert.Empty(t, decks)
	})

	t.Run("invalid change", func(t *testing.T) {
		s := openStore(t)
		_, err := s.RecordLocal(ctx, entity.EntityType("Widget"), "w1", entity.OperationCreate, nil)
		assert.Error(t, err)
	})
}

func TestStore_ApplyRemoteIgnoresOlderVersions(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	apply := func(version int64, payload string) {
		require.NoError(t, s.ApplyRemote(ctx, store.RemoteChange{
			EntityType: entity.EntityTask,
			EntityID:   "t1",
			Operation:  entity.OperationUpdate,
			Version:    version,
			Payload:    json.RawMessage(payload),
		}))
	}
	apply(2, `{"v":2}`)
	apply(1, `{"v":1}`)

	e, err := s.Entity(ctx, entity.EntityTask, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), e.Version)
	assert.JSONEq(t, `{"v":2}`, string(e.Payload))
}

func TestStore_AcceptAndRebase(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	change, err := s.RecordLocal(ctx, entity.EntityTask, "t1", entity.OperationCreate, json.RawMessage(`{}`))
	require.NoError(t, err)

	rebased, err := s.RebasePending(ctx, change.ID, 4)
	require.NoError(t, err)
	assert.NotEqual(t, change.ID, rebased.ID)
	assert.Equal(t, int64(4), rebased.BaseVersion)
	assert.Equal(t, entity.OperationUpdate, rebased.Operation)

	assert.ErrorIs(t, s.AcceptPending(ctx, change.ID, 5), store.ErrNotFound)
	require.NoError(t, s.AcceptPending(ctx, rebased.ID, 5))

	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	e, err := s.Entity(ctx, entity.EntityTask, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), e.Version)
}

func TestStore_Conflicts(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	change, err := s.RecordLocal(ctx, entity.EntityNote, "n1", entity.OperationUpdate, json.RawMessage(`{"body":"mine"}`))
	require.NoError(t, err)

	serverID := uuid.New()
	c := &store.Conflict{
		ServerConflictID: &serverID,
		EntityType:       entity.EntityNote,
		EntityID:         "n1",
		Local:            *change,
		ServerOperation:  entity.OperationUpdate,
		ServerVersion:    2,
		ServerPayload:    json.RawMessage(`{"body":"theirs"}`),
	}
	require.NoError(t, s.SaveConflict(ctx, c))

	// A second conflict on the same entity replaces the first under its id.
	firstID := c.ID
	c2 := *c
	c2.ID = uuid.Nil
	c2.ServerVersion = 3
	require.NoError(t, s.SaveConflict(ctx, &c2))

	conflicts, err := s.Conflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	got := conflicts[0]
	assert.Equal(t, firstID, got.ID)
	assert.Equal(t, int64(3), got.ServerVersion)
	assert.Equal(t, change.ID, got.Local.ID)
	require.NotNil(t, got.ServerConflictID)
	assert.Equal(t, serverID, *got.ServerConflictID)
	assert.JSONEq(t, `{"body":"mine"}`, string(got.Local.Payload))

	assert.ErrorIs(t, s.DeleteConflict(ctx, uuid.New()), store.ErrNotFound)
	require.NoError(t, s.DeleteConflictByServerID(ctx, serverID))

	conflicts, err = s.Conflicts(ctx)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}
