package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/publisher"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/event"
	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/pagination"
)

type Config struct {
	PullDefaultLimit int
	PullMaxLimit     int
	MaxPushBatch     int
}

type Service struct {
	changeRepo   repository.ChangeRepository
	conflictRepo repository.ConflictRepository
	publisher    publisher.EventPublisher
	cfg          Config
	logger       *zap.Logger
}

func NewService(
	changeRepo repository.ChangeRepository,
	conflictRepo repository.ConflictRepository,
	pub publisher.EventPublisher,
	cfg Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		changeRepo:   changeRepo,
		conflictRepo: conflictRepo,
		publisher:    pub,
		cfg:          cfg,
		logger:       logger,
	}
}

// ClientChange is one change as pushed by a device.
type ClientChange struct {
	ID          uuid.UUID
	EntityType  entity.EntityType
	EntityID    string
	Operation   entity.Operation
	BaseVersion int64
	Payload     []byte
}

type Rejection struct {
	ChangeID uuid.UUID
	Reason   string
}

type PushResult struct {
	Accepted  []entity.ChangeRecord
	Conflicts []entity.Conflict
	Rejected  []Rejection
}

type PullResult struct {
	Changes       []entity.ChangeRecord
	Cursor        int64
	HasMore       bool
	OpenConflicts []entity.Conflict
}

// Push applies each change on its own. A cancelled context stops the batch;
// changes committed before that stay committed and are returned with the
// error.
func (s *Service) Push(ctx context.Context, userID, deviceID uuid.UUID, changes []ClientChange) (*PushResult, error) {
	if len(changes) > s.cfg.MaxPushBatch {
		return nil, domain.ErrBatchTooLarge
	}

	result := &PushResult{
		Accepted:  []entity.ChangeRecord{},
		Conflicts: []entity.Conflict{},
		Rejected:  []Rejection{},
	}
	for _, c := range changes {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		record := &entity.ChangeRecord{
			ID:             c.ID,
			UserID:         userID,
			EntityType:     c.EntityType,
			EntityID:       c.EntityID,
			Operation:      c.Operation,
			OriginDeviceID: deviceID,
			BaseVersion:    c.BaseVersion,
			Payload:        c.Payload,
			CreatedAt:      time.Now().UTC(),
		}
		if err := record.Validate(); err != nil {
			result.Rejected = append(result.Rejected, Rejection{ChangeID: c.ID, Reason: err.Error()})
			continue
		}

		applied, err := s.changeRepo.Apply(ctx, record)
		if err != nil {
			return result, fmt.Errorf("applying change %s: %w", c.ID, err)
		}

		switch {
		case applied.Conflict != nil:
			result.Conflicts = append(result.Conflicts, *applied.Conflict)
			if applied.ConflictOpened {
				s.conflictOpened(ctx, applied.Conflict)
			}
		case applied.Change != nil:
			result.Accepted = append(result.Accepted, *applied.Change)
		}
	}

	s.logger.Debug("push applied",
		zap.String("user_id", userID.String()),
		zap.String("device_id", deviceID.String()),
		zap.Int("accepted", len(result.Accepted)),
		zap.Int("conflicts", len(result.Conflicts)),
		zap.Int("rejected", len(result.Rejected)),
	)
	return result, nil
}

// Pull pages through the account feed after since. The caller's own changes
// are skipped but still move the cursor.
func (s *Service) Pull(ctx context.Context, userID, deviceID uuid.UUID, since int64, limit int) (*PullResult, error) {
	params := pagination.NewCursorParams(since, limit, s.cfg.PullDefaultLimit, s.cfg.PullMaxLimit)

	page, err := s.changeRepo.ListSince(ctx, userID, params.Since, params.Fetch())
	if err != nil {
		return nil, fmt.Errorf("listing changes: %w", err)
	}

	hasMore := len(page) > params.Limit
	if hasMore {
		page = page[:params.Limit]
	}

	cursor := params.Since
	changes := make([]entity.ChangeRecord, 0, len(page))
	for _, c := range page {
		cursor = c.Seq
		if c.OriginDeviceID == deviceID {
			continue
		}
		changes = append(changes, c)
	}

	open, err := s.conflictRepo.ListOpen(ctx, userID, &deviceID)
	if err != nil {
		return nil, fmt.Errorf("listing open conflicts: %w", err)
	}
	if open == nil {
		open = []entity.Conflict{}
	}

	return &PullResult{
		Changes:       changes,
		Cursor:        cursor,
		HasMore:       hasMore,
		OpenConflicts: open,
	}, nil
}

func (s *Service) conflictOpened(ctx context.Context, c *entity.Conflict) {
	s.logger.Info("conflict opened",
		zap.String("conflict_id", c.ID.String()),
		zap.String("user_id", c.UserID.String()),
		zap.String("entity_type", string(c.EntityType)),
		zap.String("entity_id", c.EntityID),
	)
	if err := s.publisher.Publish(ctx, event.ConflictOpened(c)); err != nil {
		s.logger.Warn("publishing conflict opened", zap.String("conflict_id", c.ID.String()), zap.Error(err))
	}
}
