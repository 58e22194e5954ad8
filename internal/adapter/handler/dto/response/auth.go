package response

import (
	"time"

	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/srp"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/pake"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/session"
)

type RegisterChallengeResponse struct {
	RegistrationID string        `json:"registration_id"`
	Algorithm      string        `json:"algorithm"`
	KDF            srp.KDFParams `json:"kdf"`
	Modulus        string        `json:"n"`
	Generator      int           `json:"g"`
}

type CredentialResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginChallengeResponse struct {
	SessionID    string        `json:"session_id"`
	KDF          srp.KDFParams `json:"kdf"`
	ServerPublic []byte        `json:"b"`
}

type LoginResponse struct {
	UserID       uuid.UUID      `json:"user_id"`
	Username     string         `json:"username"`
	Device       DeviceResponse `json:"device"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresAt    time.Time      `json:"expires_at"`
	ServerProof  []byte         `json:"m2"`
}

type RefreshResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type DeviceResponse struct {
	ID          uuid.UUID  `json:"id"`
	DeviceID    string     `json:"device_id"`
	Name        string     `json:"name"`
	Platform    string     `json:"platform"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	IsActive    bool       `json:"is_active"`
	Current     bool       `json:"current"`
	IssuedUTC   time.Time  `json:"issued_utc"`
	ExpiresUTC  time.Time  `json:"expires_utc"`
	RevokedUTC  *time.Time `json:"revoked_utc,omitempty"`
	LastSeenUTC time.Time  `json:"last_seen_utc"`
}

type DeviceListResponse struct {
	Devices []DeviceResponse `json:"devices"`
}

type RevokeAllResponse struct {
	Revoked []DeviceResponse `json:"revoked"`
}

func RegisterChallengeFrom(c *pake.RegistrationChallenge) RegisterChallengeResponse {
	return RegisterChallengeResponse{
		RegistrationID: c.RegistrationID,
		Algorithm:      c.Algorithm,
		KDF:            c.KDF,
		Modulus:        c.Modulus,
		Generator:      c.Generator,
	}
}

func CredentialFromEntity(c *entity.Credential) CredentialResponse {
	return CredentialResponse{
		UserID:    c.ID,
		Username:  c.Username,
		CreatedAt: c.CreatedAt,
	}
}

func LoginFrom(result *pake.LoginResult, device *entity.Device, tokens *session.TokenPair) LoginResponse {
	return LoginResponse{
		UserID:       result.Credential.ID,
		Username:     result.Credential.Username,
		Device:       DeviceFromEntity(device, device.ID),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		ServerProof:  result.ServerProof,
	}
}

func RefreshFrom(tokens *session.TokenPair) RefreshResponse {
	return RefreshResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}
}

// DeviceFromEntity marks the record the caller is signed in with.
func DeviceFromEntity(d *entity.Device, current uuid.UUID) DeviceResponse {
	return DeviceResponse{
		ID:          d.ID,
		DeviceID:    d.DeviceID,
		Name:        d.Name,
		Platform:    d.Platform,
		Fingerprint: d.Fingerprint,
		IsActive:    d.IsActive(time.Now()),
		Current:     d.ID == current,
		IssuedUTC:   d.IssuedAt.UTC(),
		ExpiresUTC:  d.ExpiresAt.UTC(),
		RevokedUTC:  d.RevokedAt,
		LastSeenUTC: d.LastSeenAt.UTC(),
	}
}

func DevicesFromEntities(devices []entity.Device, current uuid.UUID) []DeviceResponse {
	result := make([]DeviceResponse, 0, len(devices))
	for i := range devices {
		result = append(result, DeviceFromEntity(&devices[i], current))
	}
	return result
}
