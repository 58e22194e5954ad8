package response

import (
	"time"

	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/pairing"
)

type PairingStartResponse struct {
	PairingID string    `json:"pairing_id"`
	Code      string    `json:"code"`
	DeepLink  string    `json:"deep_link"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PairingCompleteResponse struct {
	UserID       uuid.UUID      `json:"user_id"`
	Device       DeviceResponse `json:"device"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

func PairingStartFrom(c *pairing.Challenge) PairingStartResponse {
	return PairingStartResponse{
		PairingID: c.PairingID,
		Code:      c.Code,
		DeepLink:  c.DeepLink,
		ExpiresAt: c.ExpiresAt,
	}
}

func PairingCompleteFrom(r *pairing.Result) PairingCompleteResponse {
	return PairingCompleteResponse{
		UserID:       r.Device.UserID,
		Device:       DeviceFromEntity(r.Device, r.Device.ID),
		AccessToken:  r.Tokens.AccessToken,
		RefreshToken: r.Tokens.RefreshToken,
		ExpiresAt:    r.Tokens.ExpiresAt,
	}
}
