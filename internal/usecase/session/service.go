package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/auth"
)

//go:generate mockgen -source=service.go -destination=../../mocks/session_mocks.go -package=mocks

// DeviceRevoker revokes a device record and everything bound to it.
type DeviceRevoker interface {
	Revoke(ctx context.Context, userID, id uuid.UUID) (*entity.Device, error)
}

type Service struct {
	deviceRepo       repository.DeviceRepository
	refreshTokenRepo repository.RefreshTokenRepository
	revoker          DeviceRevoker
	jwtSvc           *auth.JWTService
	refreshTokenTTL  time.Duration
	logger           *zap.Logger
}

func NewService(
	deviceRepo repository.DeviceRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	revoker DeviceRevoker,
	jwtSvc *auth.JWTService,
	refreshTokenTTL time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		deviceRepo:       deviceRepo,
		refreshTokenRepo: refreshTokenRepo,
		revoker:          revoker,
		jwtSvc:           jwtSvc,
		refreshTokenTTL:  refreshTokenTTL,
		logger:           logger,
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	DeviceID     uuid.UUID
}

// Issue mints a token pair for a freshly registered device. seed is the key
// agreed during the password exchange, or nil for paired devices.
func (s *Service) Issue(ctx context.Context, device *entity.Device, seed []byte) (*TokenPair, error) {
	now := time.Now().UTC()
	if !device.IsActive(now) {
		return nil, domain.ErrDeviceRevoked
	}

	refresh, rt, err := s.newRefreshToken(device, seed, now)
	if err != nil {
		return nil, err
	}
	if err := s.refreshTokenRepo.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return s.pair(device, refresh)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if err := s.jwtSvc.VerifyRefreshToken(refreshToken); err != nil {
		return nil, err
	}

	rt, err := s.refreshTokenRepo.GetByHash(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if rt.IsRevoked() {
		if rt.ReplacedByID != nil {
			return nil, s.reused(ctx, rt)
		}
		return nil, domain.ErrTokenRevoked
	}
	if rt.IsExpired(now) {
		return nil, domain.ErrTokenExpired
	}

	device, err := s.deviceRepo.GetByID(ctx, rt.DeviceID)
	if err != nil {
		if errors.Is(err, domain.ErrDeviceNotFound) {
			return nil, domain.ErrDeviceRevoked
		}
		return nil, fmt.Errorf("getting device: %w", err)
	}
	if !device.IsActive(now) {
		return nil, domain.ErrDeviceRevoked
	}

	refresh, next, err := s.newRefreshToken(device, nil, now)
	if err != nil {
		return nil, err
	}
	if err := s.refreshTokenRepo.Rotate(ctx, rt.ID, next, now); err != nil {
		if errors.Is(err, domain.ErrTokenRevoked) {
			// Lost the rotation race: the token was presented twice.
			return nil, s.reused(ctx, rt)
		}
		return nil, fmt.Errorf("rotating refresh token: %w", err)
	}

	return s.pair(device, refresh)
}

// Logout revokes the calling device.
func (s *Service) Logout(ctx context.Context, userID, deviceID uuid.UUID) error {
	if _, err := s.revoker.Revoke(ctx, userID, deviceID); err != nil {
		return fmt.Errorf("revoking device: %w", err)
	}
	return nil
}

func (s *Service) reused(ctx context.Context, rt *entity.RefreshToken) error {
	s.logger.Warn("refresh token reuse detected",
		zap.String("user_id", rt.UserID.String()),
		zap.String("device_id", rt.DeviceID.String()),
	)
	if _, err := s.revoker.Revoke(ctx, rt.UserID, rt.DeviceID); err != nil {
		s.logger.Error("revoking device after token reuse", zap.Error(err))
	}
	return domain.ErrTokenReused
}

func (s *Service) newRefreshToken(device *entity.Device, seed []byte, now time.Time) (string, *entity.RefreshToken, error) {
	token, err := s.jwtSvc.GenerateRefreshToken(seed)
	if err != nil {
		return "", nil, fmt.Errorf("generating refresh token: %w", err)
	}

	expiresAt := now.Add(s.refreshTokenTTL)
	if expiresAt.After(device.ExpiresAt) {
		expiresAt = device.ExpiresAt
	}
	return token, entity.NewRefreshToken(device.UserID, device.ID, auth.HashRefreshToken(token), expiresAt), nil
}

func (s *Service) pair(device *entity.Device, refresh string) (*TokenPair, error) {
	access, expiresAt, err := s.jwtSvc.GenerateAccessToken(device.UserID, device.ID)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		DeviceID:     device.ID,
	}, nil
}
