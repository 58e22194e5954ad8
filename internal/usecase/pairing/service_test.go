package pairing_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/mocks"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/pairing"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/session"
)

var testConfig = pairing.Config{
	CodeTTL:        10 * time.Minute,
	CodeLength:     6,
	MaxAttempts:    5,
	DeepLinkScheme: "app",
	DeviceTTL:      24 * time.Hour,
}

type deps struct {
	repo    *mocks.MockPairingRepository
	issuer  *mocks.MockSessionIssuer
	devices *mocks.MockDeviceRevoker
	svc     *pairing.Service
}

func newDeps(t *testing.T) deps {
	ctrl := gomock.NewController(t)
	d := deps{
		repo:    mocks.NewMockPairingRepository(ctrl),
		issuer:  mocks.NewMockSessionIssuer(ctrl),
		devices: mocks.NewMockDeviceRevoker(ctrl),
	}
	d.svc = pairing.NewService(d.repo, d.issuer, d.devices, testConfig, zap.NewNop())
	return d
}

func TestService_StartPairing(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()
	userID, issuerID := uuid.New(), uuid.New()

	var stored *entity.PairingChallenge
	d.repo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, c *entity.PairingChallenge) error {
		stored = c
		return nil
	})

	challenge, err := d.svc.StartPairing(ctx, userID, issuerID)

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), challenge.Code)
	assert.Len(t, challenge.PairingID, 22)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), challenge.ExpiresAt, 5*time.Second)
	assert.Equal(t, userID, stored.UserID)
	assert.Equal(t, issuerID, stored.IssuerDeviceID)
	assert.Equal(t, entity.HashPairingCode(challenge.PairingID, challenge.Code), stored.CodeHash)

	pid, code, err := pairing.ParseDeepLink(challenge.DeepLink)
	require.NoError(t, err)
	assert.Equal(t, challenge.PairingID, pid)
	assert.Equal(t, challenge.Code, code)
}

func TestService_StartPairing_RepoError(t *testing.T) {
	d := newDeps(t)
	d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	_, err := d.svc.StartPairing(context.Background(), uuid.New(), uuid.New())

	assert.Error(t, err)
}

func TestService_CompletePairing(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name  string
		input pairing.CompleteInput
	}{
		{
			name:  "pairing id and code",
			input: pairing.CompleteInput{PairingID: "pid-1", Code: "123456", DeviceID: "tablet", Name: "Tablet", Platform: "android"},
		},
		{
			name:  "deep link",
			input: pairing.CompleteInput{DeepLink: "app://pair?pid=pid-1&code=123456", DeviceID: "tablet", Name: "Tablet", Platform: "android"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps(t)
			ctx := context.Background()

			d.repo.EXPECT().Consume(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, p repository.ConsumeParams) (*repository.ConsumeResult, error) {
				assert.Equal(t, "pid-1", p.PairingID)
				assert.Equal(t, entity.HashPairingCode("pid-1", "123456"), p.CodeHash)
				assert.Equal(t, 5, p.MaxAttempts)
				assert.Equal(t, "tablet", p.Device.DeviceID)
				p.Device.UserID = userID
				return &repository.ConsumeResult{Challenge: &entity.PairingChallenge{ID: p.PairingID, UserID: userID}}, nil
			})
			d.devices.EXPECT().Superseded(ctx, gomock.Nil())
			d.issuer.EXPECT().Issue(ctx, gomock.Any(), nil).DoAndReturn(func(_ context.Context, d *entity.Device, _ []byte) (*session.TokenPair, error) {
				return &session.TokenPair{AccessToken: "access", RefreshToken: "refresh", DeviceID: d.ID}, nil
			})

			res, err := d.svc.CompletePairing(ctx, tt.input)

			require.NoError(t, err)
			assert.Equal(t, userID, res.Device.UserID)
			assert.Equal(t, res.Device.ID, res.Tokens.DeviceID)
			assert.Equal(t, "android", res.Device.Platform)
		})
	}
}

func TestService_CompletePairing_CollapsesCauses(t *testing.T) {
	for _, cause := range []error{
		domain.ErrPairingNotFound,
		domain.ErrPairingExpired,
		domain.ErrPairingConsumed,
		domain.ErrPairingCodeMismatch,
		domain.ErrPairingLocked,
	} {
		t.Run(cause.Error(), func(t *testing.T) {
			d := newDeps(t)
			d.repo.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil, cause)

			_, err := d.svc.CompletePairing(context.Background(), pairing.CompleteInput{
				PairingID: "pid-1", Code: "000000", DeviceID: "tablet",
			})

			assert.Equal(t, domain.ErrPairingFailed, err)
		})
	}
}

func TestService_CompletePairing_RejectsBeforeStore(t *testing.T) {
	tests := []struct {
		name  string
		input pairing.CompleteInput
	}{
		{name: "bad deep link", input: pairing.CompleteInput{DeepLink: "app://login", DeviceID: "tablet"}},
		{name: "missing code", input: pairing.CompleteInput{PairingID: "pid-1", DeviceID: "tablet"}},
		{name: "missing device id", input: pairing.CompleteInput{PairingID: "pid-1", Code: "123456"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps(t)

			_, err := d.svc.CompletePairing(context.Background(), tt.input)

			assert.Equal(t, domain.ErrPairingFailed, err)
		})
	}
}

func TestService_CompletePairing_StoreErrorIsNotMasked(t *testing.T) {
	d := newDeps(t)
	d.repo.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err := d.svc.CompletePairing(context.Background(), pairing.CompleteInput{
		PairingID: "pid-1", Code: "123456", DeviceID: "tablet",
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrPairingFailed)
}

func TestService_CompletePairing_RetiresSupersededRecords(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()
	userID := uuid.New()
	old := entity.NewDevice(userID, "tablet", "Old tablet", "android", "", time.Hour)

	d.repo.EXPECT().Consume(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, p repository.ConsumeParams) (*repository.ConsumeResult, error) {
		p.Device.UserID = userID
		return &repository.ConsumeResult{
			Challenge:  &entity.PairingChallenge{ID: p.PairingID, UserID: userID},
			Superseded: []entity.Device{*old},
		}, nil
	})
	d.devices.EXPECT().Superseded(ctx, []entity.Device{*old})
	d.issuer.EXPECT().Issue(ctx, gomock.Any(), nil).Return(&session.TokenPair{AccessToken: "access"}, nil)

	_, err := d.svc.CompletePairing(ctx, pairing.CompleteInput{PairingID: "pid-1", Code: "123456", DeviceID: "tablet"})

	require.NoError(t, err)
}

func TestService_CompletePairing_IssueFailureRevokesDevice(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()
	userID := uuid.New()

	var registered *entity.Device
	d.repo.EXPECT().Consume(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, p repository.ConsumeParams) (*repository.ConsumeResult, error) {
		p.Device.UserID = userID
		registered = p.Device
		return &repository.ConsumeResult{Challenge: &entity.PairingChallenge{ID: p.PairingID, UserID: userID}}, nil
	})
	d.devices.EXPECT().Superseded(ctx, gomock.Nil())
	d.issuer.EXPECT().Issue(ctx, gomock.Any(), nil).Return(nil, errors.New("db down"))
	d.devices.EXPECT().Revoke(gomock.Any(), userID, gomock.Any()).DoAndReturn(func(_ context.Context, _, id uuid.UUID) (*entity.Device, error) {
		assert.Equal(t, registered.ID, id)
		return registered, nil
	})

	res, err := d.svc.CompletePairing(ctx, pairing.CompleteInput{PairingID: "pid-1", Code: "123456", DeviceID: "tablet"})

	assert.Nil(t, res)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrPairingFailed)
}
