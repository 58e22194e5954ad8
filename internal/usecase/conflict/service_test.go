package conflict_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/mocks"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/conflict"
)

func newService(t *testing.T) (*conflict.Service, *mocks.MockConflictRepository, *mocks.MockConflictArchive) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockConflictRepository(ctrl)
	archive := mocks.NewMockConflictArchive(ctrl)
	return conflict.NewService(repo, archive, zap.NewNop()), repo, archive
}

func TestService_ListOpen(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	repo.EXPECT().ListOpen(ctx, userID, nil).Return(nil, nil)

	conflicts, err := svc.ListOpen(ctx, userID)

	require.NoError(t, err)
	assert.NotNil(t, conflicts)
	assert.Empty(t, conflicts)
}

func TestService_Get_NotFound(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	repo.EXPECT().GetByID(ctx, gomock.Any(), gomock.Any()).Return(nil, domain.ErrConflictNotFound)

	_, err := svc.Get(ctx, uuid.New(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrConflictNotFound)
}

func TestService_Resolve(t *testing.T) {
	ctx := context.Background()
	userID, id := uuid.New(), uuid.New()

	for _, resolution := range []entity.Resolution{entity.ResolutionUseServer, entity.ResolutionUseLocal} {
		t.Run(string(resolution), func(t *testing.T) {
			svc, repo, archive := newService(t)
			resolved := &entity.Conflict{ID: id, UserID: userID, Status: entity.ConflictResolved}
			head := &entity.ChangeRecord{ID: uuid.New(), Version: 4}

			repo.EXPECT().Resolve(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, p repository.ResolveParams) (*entity.Conflict, *entity.ChangeRecord, error) {
				assert.Equal(t, userID, p.UserID)
				assert.Equal(t, id, p.ConflictID)
				assert.Equal(t, resolution, p.Resolution)
				return resolved, head, nil
			})
			archive.EXPECT().Archive(ctx, resolved).Return(nil)

			change, err := svc.Resolve(ctx, userID, id, resolution)

			require.NoError(t, err)
			assert.Equal(t, head, change)
		})
	}
}

func TestService_Resolve_ManualTouchesNothing(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Resolve(context.Background(), uuid.New(), uuid.New(), entity.ResolutionManual)

	assert.ErrorIs(t, err, domain.ErrResolutionNotTerminal)
	assert.ErrorIs(t, err, domain.ErrConflictRejected)
}

func TestService_Resolve_AlreadyResolvedSkipsArchive(t *testing.T) {
	svc, repo, _ := newService(t)
	repo.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil, nil, domain.ErrConflictAlreadyResolved)

	_, err := svc.Resolve(context.Background(), uuid.New(), uuid.New(), entity.ResolutionUseLocal)

	assert.ErrorIs(t, err, domain.ErrConflictAlreadyResolved)
}

func TestService_Resolve_ArchiveFailureIsLogged(t *testing.T) {
	svc, repo, archive := newService(t)
	head := &entity.ChangeRecord{Version: 2}
	repo.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(&entity.Conflict{}, head, nil)
	archive.EXPECT().Archive(gomock.Any(), gomock.Any()).Return(errors.New("s3 unavailable"))

	change, err := svc.Resolve(context.Background(), uuid.New(), uuid.New(), entity.ResolutionUseServer)

	require.NoError(t, err)
	assert.Equal(t, int64(2), change.Version)
}
