package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

//go:generate mockgen -source=interfaces.go -destination=../../mocks/repository_mocks.go -package=mocks

type CredentialRepository interface {
	Create(ctx context.Context, cred *entity.Credential) error
	GetByUsername(ctx context.Context, username string) (*entity.Credential, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Credential, error)
}

type DeviceRepository interface {
	// Register inserts the record and revokes any other active record of the
	// same user with the same client device id. The revoked records are
	// returned.
	Register(ctx context.Context, device *entity.Device) ([]entity.Device, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Device, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Device, error)
	// Revoke reports whether this call performed the transition.
	Revoke(ctx context.Context, userID, id uuid.UUID, at time.Time) (*entity.Device, bool, error)
	RevokeAll(ctx context.Context, userID uuid.UUID, except *uuid.UUID, at time.Time) ([]entity.Device, error)
	TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *entity.RefreshToken) error
	GetByHash(ctx context.Context, hash []byte) (*entity.RefreshToken, error)
	// Rotate revokes old and stores next in one step. It fails with
	// domain.ErrTokenRevoked when old was already revoked.
	Rotate(ctx context.Context, oldID uuid.UUID, next *entity.RefreshToken, at time.Time) error
	RevokeByDevice(ctx context.Context, deviceID uuid.UUID, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type ConsumeParams struct {
	PairingID   string
	CodeHash    []byte
	MaxAttempts int
	Device      *entity.Device
	At          time.Time
}

type ConsumeResult struct {
	Challenge *entity.PairingChallenge
	// Superseded holds earlier records of the same device revoked by the
	// registration.
	Superseded []entity.Device
}

type PairingRepository interface {
	Create(ctx context.Context, challenge *entity.PairingChallenge) error
	// Consume atomically marks the challenge used and registers the device.
	Consume(ctx context.Context, params ConsumeParams) (*ConsumeResult, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type ApplyResult struct {
	Change         *entity.ChangeRecord
	Conflict       *entity.Conflict
	ConflictOpened bool
	Replayed       bool
}

type ChangeRepository interface {
	// Apply commits one pushed change in its own transaction.
	Apply(ctx context.Context, change *entity.ChangeRecord) (*ApplyResult, error)
	ListSince(ctx context.Context, userID uuid.UUID, since int64, limit int) ([]entity.ChangeRecord, error)
	Current(ctx context.Context, userID uuid.UUID, key entity.EntityKey) (*entity.ChangeRecord, error)
}

type ResolveParams struct {
	UserID     uuid.UUID
	ConflictID uuid.UUID
	Resolution entity.Resolution
	At         time.Time
}

type ConflictRepository interface {
	// ListOpen returns open conflicts of the user, optionally only those raised
	// by one device.
	ListOpen(ctx context.Context, userID uuid.UUID, deviceID *uuid.UUID) ([]entity.Conflict, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*entity.Conflict, error)
	Resolve(ctx context.Context, params ResolveParams) (*entity.Conflict, *entity.ChangeRecord, error)
}

type AttemptLimiter interface {
	Allow(ctx context.Context, subject string, ipHash []byte) (bool, time.Duration, error)
	Failure(ctx context.Context, subject string, ipHash []byte) (bool, time.Duration, error)
	Success(ctx context.Context, subject string, ipHash []byte) error
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}
