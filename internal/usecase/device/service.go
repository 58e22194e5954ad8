package device

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
)

// touchInterval bounds how often a busy device writes its last-seen time.
const touchInterval = time.Minute

type Service struct {
	deviceRepo       repository.DeviceRepository
	refreshTokenRepo repository.RefreshTokenRepository
	publisher        publisher.EventPublisher
	ttl              time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

func NewService(
	deviceRepo repository.DeviceRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	pub publisher.EventPublisher,
	ttl time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		deviceRepo:       deviceRepo,
		refreshTokenRepo: refreshTokenRepo,
		publisher:        pub,
		ttl:              ttl,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	UserID      uuid.UUID
	DeviceID    string
	Name        string
	Platform    string
	Fingerprint string
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*entity.Device, error) {
	device := entity.NewDevice(input.UserID, input.DeviceID, input.Name, input.Platform, input.Fingerprint, s.ttl)
	superseded, err := s.deviceRepo.Register(ctx, device)
	if err != nil {
		return nil, fmt.Errorf("registering device: %w", err)
	}
	s.Superseded(ctx, superseded)

	s.logger.Info("device registered",
		zap.String("user_id", device.UserID.String()),
		zap.String("device_id", device.ID.String()),
		zap.String("platform", device.Platform),
	)
	return device, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]entity.Device, error) {
	devices, err := s.deviceRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return devices, nil
}

// Revoke is idempotent. Only the call that performs the transition revokes the
// refresh tokens and publishes the event.
func (s *Service) Revoke(ctx context.Context, userID, id uuid.UUID) (*entity.Device, error) {
	device, changed, err := s.deviceRepo.Revoke(ctx, userID, id, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return device, nil
	}

	s.afterRevoke(ctx, device)
	return device, nil
}

func (s *Service) RevokeAll(ctx context.Context, userID uuid.UUID, except *uuid.UUID) ([]entity.Device, error) {
	devices, err := s.deviceRepo.RevokeAll(ctx, userID, except, s.now())
	if err != nil {
		return nil, fmt.Errorf("revoking devices: %w", err)
	}

	for i := range devices {
		s.afterRevoke(ctx, &devices[i])
	}
	return devices, nil
}

// Superseded finishes the revocation of records that a newer registration of
// the same device replaced.
func (s *Service) Superseded(ctx context.Context, devices []entity.Device) {
	for i := range devices {
		s.afterRevoke(ctx, &devices[i])
	}
}

// Authorize loads the device behind an access token. Tokens of revoked or
// expired devices fail here even while their signature is still valid.
func (s *Service) Authorize(ctx context.Context, deviceID, userID uuid.UUID) (*entity.Device, error) {
	device, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device.UserID != userID {
		return nil, domain.ErrDeviceNotFound
	}

	now := s.now()
	if !device.IsActive(now) {
		return nil, domain.ErrDeviceRevoked
	}

	if now.Sub(device.LastSeenAt) > touchInterval {
		if err := s.deviceRepo.TouchLastSeen(ctx, device.ID, now); err != nil {
			s.logger.Warn("touching device", zap.Error(err), zap.String("device_id", device.ID.String()))
		} else {
			device.LastSeenAt = now
		}
	}
	return device, nil
}

func (s *Service) afterRevoke(ctx context.Context, device *entity.Device) {
	at := s.now()
	if device.RevokedAt != nil {
		at = *device.RevokedAt
	}
	if err := s.refreshTokenRepo.RevokeByDevice(ctx, device.ID, at); err != nil {
		s.logger.Error("revoking refresh tokens", zap.Error(err), zap.String("device_id", device.ID.String()))
	}

	if err := s.publisher.Publish(ctx, event.DeviceRevoked(device)); err != nil {
		s.logger.Warn("publishing device revoked", zap.Error(err), zap.String("device_id", device.ID.String()))
	}

	s.logger.Info("device revoked",
		zap.String("user_id", device.UserID.String()),
		zap.String("device_id", device.ID.String()),
	)
}
