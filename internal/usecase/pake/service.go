// Package pake runs the SRP-6a registration and login exchanges. The server
// only ever sees the verifier and the ephemeral values, never the password.
package pake

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/cache"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/observability"
	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/srp"
)

const (
	registrationPrefix = "reg:"
	loginPrefix        = "login:"
	maxUsernameLen     = 64
)

type Config struct {
	ServerSecret   []byte
	SessionTTL     time.Duration
	KDFTime        uint32
	KDFMemoryKiB   uint32
	KDFParallelism uint8
}

type Service struct {
	credentialRepo repository.CredentialRepository
	store          cache.HandshakeStore
	limiter        repository.AttemptLimiter
	cfg            Config
	logger         *zap.Logger
}

func NewService(
	credentialRepo repository.CredentialRepository,
	store cache.HandshakeStore,
	limiter repository.AttemptLimiter,
	cfg Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		credentialRepo: credentialRepo,
		store:          store,
		limiter:        limiter,
		cfg:            cfg,
		logger:         logger,
	}
}

type RegistrationChallenge struct {
	RegistrationID string
	Algorithm      string
	KDF            srp.KDFParams
	Modulus        string
	Generator      int
}

type RegistrationProof struct {
	RegistrationID string
	Verifier       []byte
}

type LoginStart struct {
	Username     string
	ClientPublic []byte
	Device       DeviceInfo
	ClientIP     string
}

// DeviceInfo is carried through the handshake and registered once the login
// succeeds.
type DeviceInfo struct {
	DeviceID    string `json:"device_id"`
	Name        string `json:"name"`
	Platform    string `json:"platform"`
	Fingerprint string `json:"fingerprint"`
}

type LoginChallenge struct {
	SessionID    string
	KDF          srp.KDFParams
	ServerPublic []byte
}

type LoginFinish struct {
	Username    string
	SessionID   string
	ClientProof []byte
}

type LoginResult struct {
	Credential  *entity.Credential
	SessionSeed []byte
	ServerProof []byte
	Device      DeviceInfo
}

type pendingRegistration struct {
	Username string        `json:"username"`
	KDF      srp.KDFParams `json:"kdf"`
}

type pendingLogin struct {
	Username     string     `json:"username"`
	CredentialID uuid.UUID  `json:"credential_id"`
	Decoy        bool       `json:"decoy"`
	ClientPublic []byte     `json:"a"`
	ServerPublic []byte     `json:"b_pub"`
	ServerSecret []byte     `json:"b"`
	Verifier     []byte     `json:"v"`
	IPHash       []byte     `json:"ip"`
	Device       DeviceInfo `json:"device"`
}

func (s *Service) BeginRegistration(ctx context.Context, username string) (*RegistrationChallenge, error) {
	username, err := normalize(username)
	if err != nil {
		return nil, err
	}

	kdf, err := srp.NewKDFParams(s.cfg.KDFTime, s.cfg.KDFMemoryKiB, s.cfg.KDFParallelism)
	if err != nil {
		return nil, fmt.Errorf("creating kdf params: %w", err)
	}

	id, err := randomID()
	if err != nil {
		return nil, err
	}
	if err := s.put(ctx, registrationPrefix+id, pendingRegistration{Username: username, KDF: kdf}); err != nil {
		return nil, err
	}

	return &RegistrationChallenge{
		RegistrationID: id,
		Algorithm:      srp.Algorithm,
		KDF:            kdf,
		Modulus:        srp.ModulusHex(),
		Generator:      srp.Generator(),
	}, nil
}

func (s *Service) CompleteRegistration(ctx context.Context, username string, proof RegistrationProof) (*entity.Credential, error) {
	username, err := normalize(username)
	if err != nil {
		return nil, err
	}

	var pending pendingRegistration
	if err := s.take(ctx, registrationPrefix+proof.RegistrationID, &pending); err != nil {
		return nil, err
	}
	if pending.Username != username {
		return nil, domain.ErrMalformedMessage
	}
	if !srp.ValidVerifier(srp.Decode(proof.Verifier)) {
		return nil, domain.ErrMalformedMessage
	}

	cred := entity.NewCredential(username, pending.KDF, proof.Verifier)
	if err := s.credentialRepo.Create(ctx, cred); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("creating credential: %w", err)
	}

	s.logger.Info("credential registered", observability.Masked("username", username))
	return cred, nil
}

// BeginLogin answers unknown usernames with a decoy of the same shape so the
// response does not reveal whether an account exists.
func (s *Service) BeginLogin(ctx context.Context, input LoginStart) (*LoginChallenge, error) {
	username, err := normalize(input.Username)
	if err != nil {
		return nil, err
	}

	ipHash := hashIP(input.ClientIP)
	allowed, wait, err := s.limiter.Allow(ctx, username, ipHash)
	if err != nil {
		return nil, fmt.Errorf("checking limiter: %w", err)
	}
	if !allowed {
		s.logger.Warn("login blocked",
			observability.Masked("username", username),
			zap.Duration("retry_after", wait),
		)
		return nil, domain.ErrTooManyAttempts
	}

	clientPublic := srp.Decode(input.ClientPublic)
	if !srp.ValidPublic(clientPublic) {
		return nil, domain.ErrMalformedMessage
	}

	pending := pendingLogin{
		Username:     username,
		ClientPublic: input.ClientPublic,
		IPHash:       ipHash,
		Device:       input.Device,
	}

	var (
		kdf      srp.KDFParams
		verifier *big.Int
	)
	cred, err := s.credentialRepo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		kdf, verifier = s.decoy(username)
		pending.Decoy = true
	case err != nil:
		return nil, fmt.Errorf("getting credential: %w", err)
	default:
		kdf, verifier = cred.KDF, srp.Decode(cred.Verifier)
		pending.CredentialID = cred.ID
	}

	server, err := srp.NewServer(verifier)
	if err != nil {
		return nil, fmt.Errorf("starting exchange: %w", err)
	}
	pending.ServerPublic = server.Public().Bytes()
	pending.ServerSecret = server.Secret().Bytes()
	pending.Verifier = verifier.Bytes()

	sessionID, err := randomID()
	if err != nil {
		return nil, err
	}
	if err := s.put(ctx, loginPrefix+sessionID, pending); err != nil {
		return nil, err
	}

	return &LoginChallenge{
		SessionID:    sessionID,
		KDF:          kdf,
		ServerPublic: srp.Pad(server.Public()),
	}, nil
}

// CompleteLogin consumes the handshake. Every failure looks the same to the
// caller.
func (s *Service) CompleteLogin(ctx context.Context, input LoginFinish) (*LoginResult, error) {
	username, err := normalize(input.Username)
	if err != nil {
		return nil, err
	}

	var pending pendingLogin
	if err := s.take(ctx, loginPrefix+input.SessionID, &pending); err != nil {
		return nil, err
	}

	server := srp.RestoreServer(
		srp.Decode(pending.Verifier),
		srp.Decode(pending.ServerSecret),
		srp.Decode(pending.ServerPublic),
	)
	key, m2, verifyErr := server.VerifyClient(srp.Decode(pending.ClientPublic), input.ClientProof)

	var reason string
	switch {
	case pending.Username != username:
		reason = "username mismatch"
	case pending.Decoy:
		reason = "unknown username"
	case verifyErr != nil:
		reason = "proof mismatch"
	}
	if reason != "" {
		s.recordFailure(ctx, pending, reason)
		return nil, domain.ErrInvalidCredentials
	}

	cred, err := s.credentialRepo.GetByID(ctx, pending.CredentialID)
	if err != nil {
		s.recordFailure(ctx, pending, "credential gone")
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.limiter.Success(ctx, pending.Username, pending.IPHash); err != nil {
		s.logger.Warn("resetting limiter", zap.Error(err))
	}
	s.logger.Info("login succeeded", observability.Masked("username", username))

	return &LoginResult{
		Credential:  cred,
		SessionSeed: key,
		ServerProof: m2,
		Device:      pending.Device,
	}, nil
}

func (s *Service) recordFailure(ctx context.Context, pending pendingLogin, reason string) {
	blocked, _, err := s.limiter.Failure(ctx, pending.Username, pending.IPHash)
	if err != nil {
		s.logger.Warn("recording login failure", zap.Error(err))
	}
	s.logger.Warn("login failed",
		observability.Masked("username", pending.Username),
		zap.String("reason", reason),
		zap.Bool("blocked", blocked),
	)
}

// decoy derives stable fake parameters for a username from the server secret,
// so repeated probes see the same salt.
func (s *Service) decoy(username string) (srp.KDFParams, *big.Int) {
	kdf := srp.KDFParams{
		Algorithm:   srp.KDFArgon2id,
		Salt:        s.mac("salt", username)[:16],
		Time:        s.cfg.KDFTime,
		MemoryKiB:   s.cfg.KDFMemoryKiB,
		Parallelism: s.cfg.KDFParallelism,
		KeyLen:      32,
	}
	verifier := srp.Verifier(srp.Decode(s.mac("verifier", username)))
	return kdf, verifier
}

func (s *Service) mac(label, username string) []byte {
	h := hmac.New(sha256.New, s.cfg.ServerSecret)
	h.Write([]byte(label))
	h.Write([]byte{0})
	h.Write([]byte(username))
	return h.Sum(nil)
}

func (s *Service) put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding handshake: %w", err)
	}
	if err := s.store.Put(ctx, key, raw, s.cfg.SessionTTL); err != nil {
		return fmt.Errorf("storing handshake: %w", err)
	}
	return nil
}

func (s *Service) take(ctx context.Context, key string, v any) error {
	raw, err := s.store.Take(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return domain.ErrHandshakeExpired
		}
		return fmt.Errorf("loading handshake: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.ErrMalformedMessage
	}
	return nil
}

func normalize(username string) (string, error) {
	username = entity.NormalizeUsername(username)
	if username == "" || len(username) > maxUsernameLen {
		return "", domain.ErrMalformedMessage
	}
	return username, nil
}

// hashIP keeps raw client addresses out of the limiter table.
func hashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}

func randomID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
