package pake_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/cache"
	"github.com/marcos-nsantos/focusdeck-sync/internal/mocks"
	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/srp"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/pake"
)

const password = "correct horse battery staple"

type deps struct {
	creds   *mocks.MockCredentialRepository
	limiter *mocks.MockAttemptLimiter
	svc     *pake.Service
}

func newDeps(t *testing.T) deps {
	ctrl := gomock.NewController(t)
	d := deps{
		creds:   mocks.NewMockCredentialRepository(ctrl),
		limiter: mocks.NewMockAttemptLimiter(ctrl),
	}
	d.svc = pake.NewService(d.creds, cache.NewMemoryHandshakeStore(), d.limiter, pake.Config{
		ServerSecret:   []byte("server-secret"),
		SessionTTL:     time.Minute,
		KDFTime:        1,
		KDFMemoryKiB:   1024,
		KDFParallelism: 1,
	}, zap.NewNop())
	return d
}

// register runs the client side of registration and returns the stored
// credential.
func register(t *testing.T, d deps, username string) *entity.Credential {
	t.Helper()
	ctx := context.Background()

	challenge, err := d.svc.BeginRegistration(ctx, username)
	require.NoError(t, err)
	assert.Equal(t, srp.Algorithm, challenge.Algorithm)
	assert.Equal(t, 2, challenge.Generator)

	x, err := srp.PrivateKey(challenge.KDF, entity.NormalizeUsername(username), password)
	require.NoError(t, err)

	var stored *entity.Credential
	d.creds.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, c *entity.Credential) error {
		stored = c
		return nil
	})

	cred, err := d.svc.CompleteRegistration(ctx, username, pake.RegistrationProof{
		RegistrationID: challenge.RegistrationID,
		Verifier:       srp.Verifier(x).Bytes(),
	})
	require.NoError(t, err)
	require.Same(t, stored, cred)
	return cred
}

func startLogin(t *testing.T, d deps, cred *entity.Credential, username string) (*srp.Client, *pake.LoginChallenge) {
	t.Helper()
	ctx := context.Background()

	client, err := srp.NewClient()
	require.NoError(t, err)

	d.limiter.EXPECT().Allow(ctx, entity.NormalizeUsername(username), gomock.Any()).Return(true, time.Duration(0), nil)
	if cred != nil {
		d.creds.EXPECT().GetByUsername(ctx, cred.Username).Return(cred, nil)
	} else {
		d.creds.EXPECT().GetByUsername(ctx, entity.NormalizeUsername(username)).Return(nil, domain.ErrUserNotFound)
	}

	challenge, err := d.svc.BeginLogin(ctx, pake.LoginStart{
		Username:     username,
		ClientPublic: client.Public().Bytes(),
		Device:       pake.DeviceInfo{DeviceID: "phone-1", Name: "Phone", Platform: "ios"},
		ClientIP:     "203.0.113.7",
	})
	require.NoError(t, err)
	return client, challenge
}

func TestService_LoginRoundTrip(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()
	cred := register(t, d, "  Alice ")
	assert.Equal(t, "alice", cred.Username)

	client, challenge := startLogin(t, d, cred, "alice")
	assert.Equal(t, cred.KDF.Salt, challenge.KDF.Salt)

	x, err := srp.PrivateKey(challenge.KDF, "alice", password)
	require.NoError(t, err)
	m1, err := client.Proof(x, srp.Decode(challenge.ServerPublic))
	require.NoError(t, err)

	d.creds.EXPECT().GetByID(ctx, cred.ID).Return(cred, nil)
	d.limiter.EXPECT().Success(ctx, "alice", gomock.Any()).Return(nil)

	result, err := d.svc.CompleteLogin(ctx, pake.LoginFinish{
		Username:    "alice",
		SessionID:   challenge.SessionID,
		ClientProof: m1,
	})

	require.NoError(t, err)
	assert.True(t, client.VerifyServer(result.ServerProof))
	assert.Equal(t, client.SessionKey(), result.SessionSeed)
	assert.Equal(t, "phone-1", result.Device.DeviceID)

	t.Run("handshake is single use", func(t *testing.T) {
		_, err := d.svc.CompleteLogin(ctx, pake.LoginFinish{
			Username:    "alice",
			SessionID:   challenge.SessionID,
			ClientProof: m1,
		})
		assert.ErrorIs(t, err, domain.ErrHandshakeExpired)
	})
}

func TestService_CompleteLogin_WrongPassword(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()
	cred := register(t, d, "bob")
	client, challenge := startLogin(t, d, cred, "bob")

	x, err := srp.PrivateKey(challenge.KDF, "bob", "wrong password")
	require.NoError(t, err)
	m1, err := client.Proof(x, srp.Decode(challenge.ServerPublic))
	require.NoError(t, err)

	d.limiter.EXPECT().Failure(ctx, "bob", gomock.Any()).Return(false, time.Duration(0), nil)

	_, err = d.svc.CompleteLogin(ctx, pake.LoginFinish{Username: "bob", SessionID: challenge.SessionID, ClientProof: m1})

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestService_CompleteLogin_UsernameMismatch(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()
	cred := register(t, d, "carol")
	client, challenge := startLogin(t, d, cred, "carol")

	x, err := srp.PrivateKey(challenge.KDF, "carol", password)
	require.NoError(t, err)
	m1, err := client.Proof(x, srp.Decode(challenge.ServerPublic))
	require.NoError(t, err)

	d.limiter.EXPECT().Failure(ctx, "carol", gomock.Any()).Return(false, time.Duration(0), nil)

	_, err = d.svc.CompleteLogin(ctx, pake.LoginFinish{Username: "mallory", SessionID: challenge.SessionID, ClientProof: m1})

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestService_BeginLogin_UnknownUserGetsStableDecoy(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()

	client, first := startLogin(t, d, nil, "ghost")
	_, second := startLogin(t, d, nil, "ghost")

	assert.Equal(t, first.KDF.Salt, second.KDF.Salt)
	assert.Len(t, first.KDF.Salt, 16)
	assert.NotEqual(t, first.ServerPublic, second.ServerPublic)
	assert.Len(t, first.ServerPublic, len(srp.Pad(big.NewInt(1))))

	x, err := srp.PrivateKey(first.KDF, "ghost", password)
	require.NoError(t, err)
	m1, err := client.Proof(x, srp.Decode(first.ServerPublic))
	require.NoError(t, err)

	d.limiter.EXPECT().Failure(ctx, "ghost", gomock.Any()).Return(false, time.Duration(0), nil)

	_, err = d.svc.CompleteLogin(ctx, pake.LoginFinish{Username: "ghost", SessionID: first.SessionID, ClientProof: m1})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestService_BeginLogin_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("blocked before any lookup", func(t *testing.T) {
		d := newDeps(t)
		d.limiter.EXPECT().Allow(ctx, "dave", gomock.Any()).Return(false, time.Minute, nil)

		_, err := d.svc.BeginLogin(ctx, pake.LoginStart{Username: "dave", ClientPublic: []byte{2}})

		assert.ErrorIs(t, err, domain.ErrTooManyAttempts)
	})

	for name, public := range map[string][]byte{
		"zero":    {0},
		"modulus": srp.Modulus().Bytes(),
		"empty":   nil,
	} {
		t.Run("public value "+name, func(t *testing.T) {
			d := newDeps(t)
			d.limiter.EXPECT().Allow(ctx, "erin", gomock.Any()).Return(true, time.Duration(0), nil)

			_, err := d.svc.BeginLogin(ctx, pake.LoginStart{Username: "erin", ClientPublic: public})

			assert.ErrorIs(t, err, domain.ErrMalformedMessage)
		})
	}

	t.Run("empty username", func(t *testing.T) {
		d := newDeps(t)

		_, err := d.svc.BeginLogin(ctx, pake.LoginStart{Username: "   "})

		assert.ErrorIs(t, err, domain.ErrMalformedMessage)
	})
}

func TestService_CompleteRegistration_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("username must match", func(t *testing.T) {
		d := newDeps(t)
		challenge, err := d.svc.BeginRegistration(ctx, "frank")
		require.NoError(t, err)

		_, err = d.svc.CompleteRegistration(ctx, "grace", pake.RegistrationProof{
			RegistrationID: challenge.RegistrationID,
			Verifier:       []byte{5},
		})

		assert.ErrorIs(t, err, domain.ErrMalformedMessage)
	})

	t.Run("verifier out of range", func(t *testing.T) {
		d := newDeps(t)
		challenge, err := d.svc.BeginRegistration(ctx, "frank")
		require.NoError(t, err)

		_, err = d.svc.CompleteRegistration(ctx, "frank", pake.RegistrationProof{
			RegistrationID: challenge.RegistrationID,
			Verifier:       srp.Modulus().Bytes(),
		})

		assert.ErrorIs(t, err, domain.ErrMalformedMessage)
	})

	t.Run("unknown registration", func(t *testing.T) {
		d := newDeps(t)

		_, err := d.svc.CompleteRegistration(ctx, "frank", pake.RegistrationProof{RegistrationID: "nope", Verifier: []byte{5}})

		assert.ErrorIs(t, err, domain.ErrHandshakeExpired)
	})

	t.Run("duplicate username", func(t *testing.T) {
		d := newDeps(t)
		challenge, err := d.svc.BeginRegistration(ctx, "frank")
		require.NoError(t, err)
		d.creds.EXPECT().Create(ctx, gomock.Any()).Return(domain.ErrUserAlreadyExists)

		_, err = d.svc.CompleteRegistration(ctx, "frank", pake.RegistrationProof{
			RegistrationID: challenge.RegistrationID,
			Verifier:       []byte{5},
		})

		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	})
}
