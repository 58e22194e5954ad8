package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/storage"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

type Service struct {
	conflictRepo repository.ConflictRepository
	archive      storage.ConflictArchive
	logger       *zap.Logger
}

func NewService(conflictRepo repository.ConflictRepository, archive storage.ConflictArchive, logger *zap.Logger) *Service {
	return &Service{
		conflictRepo: conflictRepo,
		archive:      archive,
		logger:       logger,
	}
}

func (s *Service) ListOpen(ctx context.Context, userID uuid.UUID) ([]entity.Conflict, error) {
	conflicts, err := s.conflictRepo.ListOpen(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("listing conflicts: %w", err)
	}
	if conflicts == nil {
		conflicts = []entity.Conflict{}
	}
	return conflicts, nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*entity.Conflict, error) {
	return s.conflictRepo.GetByID(ctx, userID, id)
}

// Resolve closes the conflict and returns the entity's resulting head. Manual
// leaves the conflict open and fails with domain.ErrResolutionNotTerminal.
func (s *Service) Resolve(ctx context.Context, userID, id uuid.UUID, resolution entity.Resolution) (*entity.ChangeRecord, error) {
	if !resolution.Terminal() {
		return nil, domain.ErrResolutionNotTerminal
	}

	conflict, change, err := s.conflictRepo.Resolve(ctx, repository.ResolveParams{
		UserID:     userID,
		ConflictID: id,
		Resolution: resolution,
		At:         time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("conflict resolved",
		zap.String("conflict_id", id.String()),
		zap.String("user_id", userID.String()),
		zap.String("resolution", string(resolution)),
		zap.Int64("version", change.Version),
	)

	if err := s.archive.Archive(ctx, conflict); err != nil {
		s.logger.Warn("archiving conflict", zap.String("conflict_id", id.String()), zap.Error(err))
	}
	return change, nil
}
