package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/mocks"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/sync"
)

type syncMocks struct {
	sync      *mocks.MockSyncService
	conflicts *mocks.MockConflictService
	h         *handler.SyncHandler
}

func newSyncMocks(t *testing.T) syncMocks {
	ctrl := gomock.NewController(t)
	m := syncMocks{
		sync:      mocks.NewMockSyncService(ctrl),
		conflicts: mocks.NewMockConflictService(ctrl),
	}
	m.h = handler.NewSyncHandler(m.sync, m.conflicts)
	return m
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSyncHandler_Push(t *testing.T) {
	userID, deviceID := uuid.New(), uuid.New()
	changeID := uuid.New()
	body := `{"changes":[{"id":"` + changeID.String() + `","entity_type":"Task","entity_id":"t1","operation":"update","base_version":2,"payload":{"title":"read"}}]}`

	t.Run("maps accepted and conflicts", func(t *testing.T) {
		m := newSyncMocks(t)
		router := setupRouter()
		router.POST("/sync/push", authenticated(userID, deviceID, m.h.Push))

		m.sync.EXPECT().Push(gomock.Any(), userID, deviceID, gomock.Any()).DoAndReturn(
			func(_ context.Context, _, _ uuid.UUID, changes []sync.ClientChange) (*sync.PushResult, error) {
				require.Len(t, changes, 1)
				assert.Equal(t, changeID, changes[0].ID)
				assert.Equal(t, entity.EntityTask, changes[0].EntityType)
				assert.Equal(t, int64(2), changes[0].BaseVersion)
				assert.JSONEq(t, `{"title":"read"}`, string(changes[0].Payload))
				return &sync.PushResult{
					Conflicts: []entity.Conflict{{ID: uuid.New(), EntityType: entity.EntityTask, EntityID: "t1", Status: entity.ConflictOpen}},
				}, nil
			})

		w := postJSON(router, "/sync/push", body)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Empty(t, resp["accepted"])
		assert.Len(t, resp["conflicts"], 1)
		assert.NotNil(t, resp["rejected"])
	})

	t.Run("batch too large", func(t *testing.T) {
		m := newSyncMocks(t)
		router := setupRouter()
		router.POST("/sync/push", authenticated(userID, deviceID, m.h.Push))

		m.sync.EXPECT().Push(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, domain.ErrBatchTooLarge)

		w := postJSON(router, "/sync/push", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad operation is a validation error", func(t *testing.T) {
		m := newSyncMocks(t)
		router := setupRouter()
		router.POST("/sync/push", authenticated(userID, deviceID, m.h.Push))

		w := postJSON(router, "/sync/push", `{"changes":[{"id":"`+changeID.String()+`","entity_type":"Task","entity_id":"t1","operation":"merge"}]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSyncHandler_Pull(t *testing.T) {
	userID, deviceID := uuid.New(), uuid.New()

	t.Run("passes cursor and limit", func(t *testing.T) {
		m := newSyncMocks(t)
		router := setupRouter()
		router.GET("/sync/pull", authenticated(userID, deviceID, m.h.Pull))

		m.sync.EXPECT().Pull(gomock.Any(), userID, deviceID, int64(40), 25).Return(&sync.PullResult{
			Changes: []entity.ChangeRecord{{ID: uuid.New(), Seq: 41, Version: 3}},
			Cursor:  41,
			HasMore: true,
		}, nil)

		w := get(router, "/sync/pull?since=40&limit=25")

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Equal(t, float64(41), resp["cursor"])
		assert.Equal(t, true, resp["has_more"])
		assert.Len(t, resp["changes"], 1)
		assert.NotNil(t, resp["open_conflicts"])
	})

	t.Run("negative since", func(t *testing.T) {
		m := newSyncMocks(t)
		router := setupRouter()
		router.GET("/sync/pull", authenticated(userID, deviceID, m.h.Pull))

		w := get(router, "/sync/pull?since=-1")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSyncHandler_Conflicts(t *testing.T) {
	userID, deviceID := uuid.New(), uuid.New()
	conflictID := uuid.New()

	t.Run("list", func(t *testing.T) {
		m := newSyncMocks(t)
		router := setupRouter()
		router.GET("/sync/conflicts", authenticated(userID, deviceID, m.h.ListConflicts))

		m.conflicts.EXPECT().ListOpen(gomock.Any(), userID).Return([]entity.Conflict{{ID: conflictID}}, nil)

		w := get(router, "/sync/conflicts")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["conflicts"], 1)
	})

	t.Run("get other user's conflict", func(t *testing.T) {
		m := newSyncMocks(t)
		router := setupRouter()
		router.GET("/sync/conflicts/:id", authenticated(userID, deviceID, m.h.GetConflict))

		m.conflicts.EXPECT().Get(gomock.Any(), userID, conflictID).Return(nil, domain.ErrConflictNotFound)

		w := get(router, "/sync/conflicts/"+conflictID.String())

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	resolveTests := []struct {
		name       string
		body       string
		resolution entity.Resolution
		err        error
		wantStatus int
	}{
		{name: "use local", body: `{"resolution":"UseLocal"}`, resolution: entity.ResolutionUseLocal, wantStatus: http.StatusOK},
		{name: "snake case", body: `{"resolution":"use_server"}`, resolution: entity.ResolutionUseServer, wantStatus: http.StatusOK},
		{name: "manual stays open", body: `{"resolution":"Manual"}`, resolution: entity.ResolutionManual, err: domain.ErrResolutionNotTerminal, wantStatus: http.StatusUnprocessableEntity},
		{name: "already resolved", body: `{"resolution":"UseLocal"}`, resolution: entity.ResolutionUseLocal, err: domain.ErrConflictAlreadyResolved, wantStatus: http.StatusConflict},
	}
	for _, tt := range resolveTests {
		t.Run("resolve "+tt.name, func(t *testing.T) {
			m := newSyncMocks(t)
			router := setupRouter()
			router.POST("/sync/conflicts/:id/resolve", authenticated(userID, deviceID, m.h.ResolveConflict))

			call := m.conflicts.EXPECT().Resolve(gomock.Any(), userID, conflictID, tt.resolution)
			if tt.err != nil {
				call.Return(nil, tt.err)
			} else {
				call.Return(&entity.ChangeRecord{ID: uuid.New(), Version: 5}, nil)
			}

			w := postJSON(router, "/sync/conflicts/"+conflictID.String()+"/resolve", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.err == nil {
				assert.Equal(t, float64(5), decode(t, w)["change"].(map[string]any)["version"])
			}
		})
	}

	t.Run("resolve unknown resolution", func(t *testing.T) {
		m := newSyncMocks(t)
		router := setupRouter()
		router.POST("/sync/conflicts/:id/resolve", authenticated(userID, deviceID, m.h.ResolveConflict))

		w := postJSON(router, "/sync/conflicts/"+conflictID.String()+"/resolve", `{"resolution":"coin flip"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
