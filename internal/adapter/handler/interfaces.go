package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/events"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/device"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/pairing"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/pake"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/session"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/sync"
)

//go:generate mockgen -source=interfaces.go -destination=../../mocks/handler_mocks.go -package=mocks

type PakeService interface {
	BeginRegistration(ctx context.Context, username string) (*pake.RegistrationChallenge, error)
	CompleteRegistration(ctx context.Context, username string, proof pake.RegistrationProof) (*entity.Credential, error)
	BeginLogin(ctx context.Context, input pake.LoginStart) (*pake.LoginChallenge, error)
	CompleteLogin(ctx context.Context, input pake.LoginFinish) (*pake.LoginResult, error)
}

type DeviceService interface {
	Register(ctx context.Context, input device.RegisterInput) (*entity.Device, error)
	List(ctx context.Context, userID uuid.UUID) ([]entity.Device, error)
	Revoke(ctx context.Context, userID, id uuid.UUID) (*entity.Device, error)
	RevokeAll(ctx context.Context, userID uuid.UUID, except *uuid.UUID) ([]entity.Device, error)
}

type SessionService interface {
	Issue(ctx context.Context, device *entity.Device, seed []byte) (*session.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*session.TokenPair, error)
	Logout(ctx context.Context, userID, deviceID uuid.UUID) error
}

type PairingService interface {
	StartPairing(ctx context.Context, userID, issuerDeviceID uuid.UUID) (*pairing.Challenge, error)
	CompletePairing(ctx context.Context, input pairing.CompleteInput) (*pairing.Result, error)
}

type SyncService interface {
	Push(ctx context.Context, userID, deviceID uuid.UUID, changes []sync.ClientChange) (*sync.PushResult, error)
	Pull(ctx context.Context, userID, deviceID uuid.UUID, since int64, limit int) (*sync.PullResult, error)
}

type ConflictService interface {
	ListOpen(ctx context.Context, userID uuid.UUID) ([]entity.Conflict, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*entity.Conflict, error)
	Resolve(ctx context.Context, userID, id uuid.UUID, resolution entity.Resolution) (*entity.ChangeRecord, error)
}

// ConnectionRegistry tracks live sockets so events can reach them.
type ConnectionRegistry interface {
	Register(conn *events.Connection)
	Unregister(conn *events.Connection)
}
