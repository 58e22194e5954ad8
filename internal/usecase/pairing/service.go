package pairing

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/session"
)

//go:generate mockgen -source=service.go -destination=../../mocks/pairing_mocks.go -package=mocks

// SessionIssuer mints tokens for a device that finished pairing.
type SessionIssuer interface {
	Issue(ctx context.Context, device *entity.Device, seed []byte) (*session.TokenPair, error)
}

// DeviceRevoker retires device records that pairing replaced or left behind.
type DeviceRevoker interface {
	Revoke(ctx context.Context, userID, id uuid.UUID) (*entity.Device, error)
	Superseded(ctx context.Context, devices []entity.Device)
}

type Config struct {
	CodeTTL        time.Duration
	CodeLength     int
	MaxAttempts    int
	DeepLinkScheme string
	DeviceTTL      time.Duration
}

type Service struct {
	pairingRepo repository.PairingRepository
	issuer      SessionIssuer
	devices     DeviceRevoker
	cfg         Config
	logger      *zap.Logger
}

func NewService(
	pairingRepo repository.PairingRepository,
	issuer SessionIssuer,
	devices DeviceRevoker,
	cfg Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		pairingRepo: pairingRepo,
		issuer:      issuer,
		devices:     devices,
		cfg:         cfg,
		logger:      logger,
	}
}

type Challenge struct {
	PairingID string
	Code      string
	DeepLink  string
	ExpiresAt time.Time
}

// CompleteInput names the challenge either by PairingID and Code or by the
// DeepLink that carries both.
type CompleteInput struct {
	PairingID   string
	Code        string
	DeepLink    string
	DeviceID    string
	Name        string
	Platform    string
	Fingerprint string
}

type Result struct {
	Device *entity.Device
	Tokens *session.TokenPair
}

func (s *Service) StartPairing(ctx context.Context, userID, issuerDeviceID uuid.UUID) (*Challenge, error) {
	id, err := newPairingID()
	if err != nil {
		return nil, err
	}
	code, err := newCode(s.cfg.CodeLength)
	if err != nil {
		return nil, err
	}

	challenge := entity.NewPairingChallenge(id, userID, issuerDeviceID, code, s.cfg.CodeTTL)
	if err := s.pairingRepo.Create(ctx, challenge); err != nil {
		return nil, fmt.Errorf("creating pairing challenge: %w", err)
	}

	s.logger.Info("pairing started",
		zap.String("user_id", userID.String()),
		zap.String("issuer_device_id", issuerDeviceID.String()),
		zap.String("pairing_id", id),
		zap.Time("expires_at", challenge.ExpiresAt),
	)

	return &Challenge{
		PairingID: id,
		Code:      code,
		DeepLink:  BuildDeepLink(s.cfg.DeepLinkScheme, id, code),
		ExpiresAt: challenge.ExpiresAt,
	}, nil
}

// CompletePairing registers the new device and signs it in. Callers only ever
// see domain.ErrPairingFailed; the precise cause is logged.
func (s *Service) CompletePairing(ctx context.Context, input CompleteInput) (*Result, error) {
	pairingID, code := input.PairingID, input.Code
	if input.DeepLink != "" {
		var err error
		pairingID, code, err = ParseDeepLink(input.DeepLink)
		if err != nil {
			s.logFailure(pairingID, err)
			return nil, domain.ErrPairingFailed
		}
	}
	if pairingID == "" || code == "" || strings.TrimSpace(input.DeviceID) == "" {
		s.logFailure(pairingID, domain.ErrPairingNotFound)
		return nil, domain.ErrPairingFailed
	}

	device := entity.NewDevice(uuid.Nil, input.DeviceID, input.Name, input.Platform, input.Fingerprint, s.cfg.DeviceTTL)
	consumed, err := s.pairingRepo.Consume(ctx, repository.ConsumeParams{
		PairingID:   pairingID,
		CodeHash:    entity.HashPairingCode(pairingID, code),
		MaxAttempts: s.cfg.MaxAttempts,
		Device:      device,
		At:          time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrPairingFailed) {
			s.logFailure(pairingID, err)
			return nil, domain.ErrPairingFailed
		}
		return nil, fmt.Errorf("consuming pairing challenge: %w", err)
	}
	challenge := consumed.Challenge
	s.devices.Superseded(ctx, consumed.Superseded)

	tokens, err := s.issuer.Issue(ctx, device, nil)
	if err != nil {
		// The challenge stays burned; the device it registered must not outlive
		// the failed sign-in.
		if _, rerr := s.devices.Revoke(context.WithoutCancel(ctx), device.UserID, device.ID); rerr != nil {
			s.logger.Error("revoking unissued device", zap.Error(rerr), zap.String("device_id", device.ID.String()))
		}
		return nil, fmt.Errorf("issuing session: %w", err)
	}

	s.logger.Info("pairing completed",
		zap.String("user_id", challenge.UserID.String()),
		zap.String("issuer_device_id", challenge.IssuerDeviceID.String()),
		zap.String("device_id", device.ID.String()),
		zap.String("pairing_id", pairingID),
	)

	return &Result{Device: device, Tokens: tokens}, nil
}

func (s *Service) logFailure(pairingID string, cause error) {
	s.logger.Warn("pairing failed",
		zap.String("pairing_id", pairingID),
		zap.String("reason", cause.Error()),
	)
}

func newPairingID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating pairing id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// newCode draws a uniformly distributed decimal code of n digits.
func newCode(n int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generating pairing code: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
