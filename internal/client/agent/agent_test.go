package agent_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/request"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/response"
	"github.com/marcos-nsantos/focusdeck-sync/internal/client/agent"
	"github.com/marcos-nsantos/focusdeck-sync/internal/client/api"
	"github.com/marcos-nsantos/focusdeck-sync/internal/client/store"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/mocks"
	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/pagination"
)

type fixture struct {
	api   *mocks.MockSyncAPI
	store *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	st, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return &fixture{api: mocks.NewMockSyncAPI(ctrl), store: st}
}

func (f *fixture) agent(policy entity.Resolution) *agent.Agent {
	return agent.New(f.api, f.store, agent.Config{Policy: policy, PageSize: 2}, zap.NewNop())
}

func change(entityType entity.EntityType, id string, op entity.Operation, base, version, seq int64, payload string) response.ChangeResponse {
	c := response.ChangeResponse{
		ID:          uuid.New(),
		EntityType:  string(entityType),
		EntityID:    id,
		Operation:   string(op),
		BaseVersion: base,
		Version:     version,
		Seq:         seq,
		CreatedAt:   time.Now().UTC(),
	}
	if payload != "" {
		c.Payload = json.RawMessage(payload)
	}
	return c
}

func page(cursor int64, hasMore bool, changes ...response.ChangeResponse) *response.PullResponse {
	return &response.PullResponse{
		Changes:       changes,
		OpenConflicts: []response.ConflictResponse{},
		Info:          pagination.Info{Cursor: cursor, HasMore: hasMore},
	}
}

func emptyPush() *response.PushResponse {
	return &response.PushResponse{
		Accepted:  []response.ChangeResponse{},
		Conflicts: []response.ConflictResponse{},
		Rejected:  []response.RejectedResponse{},
	}
}

func TestAgent_SyncPagesThroughFeedAndPushes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	local, err := f.store.RecordLocal(ctx, entity.EntityNote, "n1", entity.OperationCreate, json.RawMessage(`{"body":"hi"}`))
	require.NoError(t, err)

	gomock.InOrder(
		f.api.EXPECT().Pull(gomock.Any(), int64(0), 2).Return(page(2, true,
			change(entity.EntityTask, "t1", entity.OperationCreate, 0, 1, 1, `{"title":"a"}`),
			change(entity.EntityTask, "t2", entity.OperationCreate, 0, 1, 2, `{"title":"b"}`),
		), nil),
		f.api.EXPECT().Pull(gomock.Any(), int64(2), 2).Return(page(3, false,
			change(entity.EntityTask, "t1", entity.OperationUpdate, 1, 2, 3, `{"title":"a2"}`),
		), nil),
		f.api.EXPECT().Push(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, changes []request.PushChange) (*response.PushResponse, error) {
				require.Len(t, changes, 1)
				assert.Equal(t, local.ID, changes[0].ID)
				assert.Equal(t, "create", changes[0].Operation)
				assert.Zero(t, changes[0].BaseVersion)

				resp := emptyPush()
				accepted := change(entity.EntityNote, "n1", entity.OperationCreate, 0, 1, 4, `{"body":"hi"}`)
				accepted.ID = local.ID
				resp.Accepted = append(resp.Accepted, accepted)
				return resp, nil
			}),
	)

	report, err := f.agent(entity.ResolutionManual).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Pulled)
	assert.Equal(t, 1, report.Pushed)
	assert.Equal(t, int64(3), report.Cursor)

	cursor, err := f.store.Cursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cursor)

	t1, err := f.store.Entity(ctx, entity.EntityTask, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), t1.Version)
	assert.JSONEq(t, `{"title":"a2"}`, string(t1.Payload))

	n1, err := f.store.Entity(ctx, entity.EntityNote, "n1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n1.Version)

	pending, err := f.store.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAgent_PulledChangeHitsPendingEdit(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *store.PendingChange) {
		f := newFixture(t)
		require.NoError(t, f.store.ApplyRemote(ctx, store.RemoteChange{
			EntityType: entity.EntityTask,
			EntityID:   "t1",
			Operation:  entity.OperationCreate,
			Version:    1,
			Payload:    json.RawMessage(`{"title":"base"}`),
		}))
		p, err := f.store.RecordLocal(ctx, entity.EntityTask, "t1", entity.OperationUpdate, json.RawMessage(`{"title":"mine"}`))
		require.NoError(t, err)

		f.api.EXPECT().Pull(gomock.Any(), int64(0), 2).Return(page(5, false,
			change(entity.EntityTask, "t1", entity.OperationUpdate, 1, 2, 5, `{"title":"theirs"}`),
		), nil)
		return f, p
	}

	t.Run("UseServer drops the local edit", func(t *testing.T) {
		f, _ := setup(t)

		report, err := f.agent(entity.ResolutionUseServer).Sync(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Resolved)

		e, err := f.store.Entity(ctx, entity.EntityTask, "t1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"theirs"}`, string(e.Payload))
		pending, err := f.store.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("UseLocal rebases and pushes the local edit", func(t *testing.T) {
		f, p := setup(t)
		f.api.EXPECT().Push(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, changes []request.PushChange) (*response.PushResponse, error) {
				require.Len(t, changes, 1)
				assert.NotEqual(t, p.ID, changes[0].ID)
				assert.Equal(t, int64(2), changes[0].BaseVersion)
				assert.JSONEq(t, `{"title":"mine"}`, string(changes[0].Payload))

				resp := emptyPush()
				accepted := change(entity.EntityTask, "t1", entity.OperationUpdate, 2, 3, 6, `{"title":"mine"}`)
				accepted.ID = changes[0].ID
				resp.Accepted = append(resp.Accepted, accepted)
				return resp, nil
			})

		report, err := f.agent(entity.ResolutionUseLocal).Sync(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Resolved)
		assert.Equal(t, 1, report.Pushed)

		e, err := f.store.Entity(ctx, entity.EntityTask, "t1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), e.Version)
		assert.JSONEq(t, `{"title":"mine"}`, string(e.Payload))
	})

	t.Run("Manual keeps a local conflict", func(t *testing.T) {
		f, p := setup(t)

		report, err := f.agent(entity.ResolutionManual).Sync(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Conflicts)

		conflicts, err := f.store.Conflicts(ctx)
		require.NoError(t, err)
		require.Len(t, conflicts, 1)
		assert.Nil(t, conflicts[0].ServerConflictID)
		assert.Equal(t, p.ID, conflicts[0].Local.ID)
		assert.Equal(t, int64(2), conflicts[0].ServerVersion)

		// Keeping the local side records the edit again on top of version 2.
		require.NoError(t, f.agent(entity.ResolutionManual).Resolve(ctx, conflicts[0].ID, entity.ResolutionUseLocal))
		pending, err := f.store.Pending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, int64(2), pending[0].BaseVersion)
		assert.JSONEq(t, `{"title":"mine"}`, string(pending[0].Payload))

		conflicts, err = f.store.Conflicts(ctx)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})
}

func serverConflict(local response.ChangeResponse, server response.ChangeResponse) response.ConflictResponse {
	return response.ConflictResponse{
		ID:           uuid.New(),
		EntityType:   local.EntityType,
		EntityID:     local.EntityID,
		Status:       "open",
		LocalChange:  local,
		ServerChange: server,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestAgent_PushConflict(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, response.ConflictResponse) {
		f := newFixture(t)
		p, err := f.store.RecordLocal(ctx, entity.EntityDeck, "d1", entity.OperationUpdate, json.RawMessage(`{"name":"mine"}`))
		require.NoError(t, err)

		local := change(entity.EntityDeck, "d1", entity.OperationUpdate, 0, 0, 0, `{"name":"mine"}`)
		local.ID = p.ID
		conflict := serverConflict(local, change(entity.EntityDeck, "d1", entity.OperationCreate, 0, 1, 1, `{"name":"theirs"}`))

		f.api.EXPECT().Pull(gomock.Any(), int64(0), 2).Return(page(0, false), nil)
		f.api.EXPECT().Push(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, []request.PushChange) (*response.PushResponse, error) {
				resp := emptyPush()
				resp.Conflicts = append(resp.Conflicts, conflict)
				return resp, nil
			})
		return f, conflict
	}

	t.Run("UseLocal resolves through the server", func(t *testing.T) {
		f, conflict := setup(t)
		head := change(entity.EntityDeck, "d1", entity.OperationUpdate, 1, 2, 2, `{"name":"mine"}`)
		f.api.EXPECT().Resolve(gomock.Any(), conflict.ID, entity.ResolutionUseLocal).Return(&head, nil)

		report, err := f.agent(entity.ResolutionUseLocal).Sync(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Resolved)

		e, err := f.store.Entity(ctx, entity.EntityDeck, "d1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), e.Version)
		pending, err := f.store.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("Manual leaves it open until resolved", func(t *testing.T) {
		f, conflict := setup(t)

		report, err := f.agent(entity.ResolutionManual).Sync(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Conflicts)

		conflicts, err := f.store.Conflicts(ctx)
		require.NoError(t, err)
		require.Len(t, conflicts, 1)
		require.NotNil(t, conflicts[0].ServerConflictID)
		assert.Equal(t, conflict.ID, *conflicts[0].ServerConflictID)

		e, err := f.store.Entity(ctx, entity.EntityDeck, "d1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"theirs"}`, string(e.Payload))

		head := conflict.ServerChange
		f.api.EXPECT().Resolve(gomock.Any(), conflict.ID, entity.ResolutionUseServer).Return(&head, nil)
		require.NoError(t, f.agent(entity.ResolutionManual).Resolve(ctx, conflicts[0].ID, entity.ResolutionUseServer))

		conflicts, err = f.store.Conflicts(ctx)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})

	t.Run("already resolved elsewhere", func(t *testing.T) {
		f, conflict := setup(t)
		f.api.EXPECT().Resolve(gomock.Any(), conflict.ID, entity.ResolutionUseServer).
			Return(nil, &api.Error{Status: http.StatusConflict, Code: "CONFLICT"})

		report, err := f.agent(entity.ResolutionUseServer).Sync(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Resolved)
	})
}

func TestAgent_RejectedChangeIsDropped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.store.RecordLocal(ctx, entity.EntityAutomation, "a1", entity.OperationCreate, json.RawMessage(`{}`))
	require.NoError(t, err)

	f.api.EXPECT().Pull(gomock.Any(), int64(0), 2).Return(page(0, false), nil)
	f.api.EXPECT().Push(gomock.Any(), gomock.Any()).Return(&response.PushResponse{
		Rejected: []response.RejectedResponse{{ID: p.ID, Reason: "invalid operation"}},
	}, nil)

	report, err := f.agent(entity.ResolutionManual).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rejected)

	pending, err := f.store.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAgent_PullErrorStopsSync(t *testing.T) {
	f := newFixture(t)
	f.api.EXPECT().Pull(gomock.Any(), int64(0), 2).
		Return(nil, &api.Error{Status: http.StatusUnauthorized, Code: "SESSION_INVALID"})

	_, err := f.agent(entity.ResolutionManual).Sync(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsSessionInvalid(err))
}

func TestAgent_ResolveRejectsManual(t *testing.T) {
	f := newFixture(t)
	err := f.agent(entity.ResolutionManual).Resolve(context.Background(), uuid.New(), entity.ResolutionManual)
	assert.Error(t, err)

	err = f.agent(entity.ResolutionManual).Resolve(context.Background(), uuid.New(), entity.ResolutionUseServer)
	assert.ErrorIs(t, err, agent.ErrConflictNotFound)
}
