package entity

import (
	"crypto/sha256"
	"time"

	"github.com/google/uuid"
)

// PairingChallenge lets a signed-in device vouch for a new one. Only a hash of
// the code is kept.
type PairingChallenge struct {
	ID                 string
	UserID             uuid.UUID
	IssuerDeviceID     uuid.UUID
	CodeHash           []byte
	FailedAttempts     int
	CreatedAt          time.Time
	ExpiresAt          time.Time
	ConsumedAt         *time.Time
	ConsumedByDeviceID *uuid.UUID
}

func NewPairingChallenge(id string, userID, issuerDeviceID uuid.UUID, code string, ttl time.Duration) *PairingChallenge {
	now := time.Now().UTC()
	return &PairingChallenge{
		ID:             id,
		UserID:         userID,
		IssuerDeviceID: issuerDeviceID,
		CodeHash:       HashPairingCode(id, code),
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}
}

// HashPairingCode binds the code to its challenge so equal codes on different
// challenges hash differently.
func HashPairingCode(pairingID, code string) []byte {
	h := sha256.New()
	h.Write([]byte(pairingID))
	h.Write([]byte{0})
	h.Write([]byte(code))
	return h.Sum(nil)
}

func (p *PairingChallenge) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

func (p *PairingChallenge) IsConsumed() bool {
	return p.ConsumedAt != nil
}
