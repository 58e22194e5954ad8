package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Device is one authorized session of a physical device. A device that signs in
// again gets a new record; the old one is revoked.
type Device struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	DeviceID    string
	Name        string
	Platform    string
	Fingerprint string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	LastSeenAt  time.Time
}

func NewDevice(userID uuid.UUID, deviceID, name, platform, fingerprint string, ttl time.Duration) *Device {
	now := time.Now().UTC()
	return &Device{
		ID:          uuid.New(),
		UserID:      userID,
		DeviceID:    deviceID,
		Name:        name,
		Platform:    platform,
		Fingerprint: fingerprint,
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
		LastSeenAt:  now,
	}
}

func (d *Device) IsActive(now time.Time) bool {
	return d.RevokedAt == nil && now.Before(d.ExpiresAt)
}

// Revoke marks the record revoked and reports whether it changed.
func (d *Device) Revoke(at time.Time) bool {
	if d.RevokedAt != nil {
		return false
	}
	d.RevokedAt = &at
	return true
}

// Fingerprint hashes client characteristics into a stable display value.
// It is shown in device lists and is never used for authorization.
func Fingerprint(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}
