// Package event defines the live signals pushed to connected devices.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

type Type string

const (
	TypeDeviceRevoked  Type = "device.revoked"
	TypeConflictOpened Type = "conflict.opened"
)

type Event struct {
	Type       Type       `json:"type"`
	UserID     uuid.UUID  `json:"user_id"`
	DeviceID   *uuid.UUID `json:"device_id,omitempty"`
	Payload    any        `json:"payload,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

type DeviceRevokedPayload struct {
	DeviceID  uuid.UUID `json:"device_id"`
	RevokedAt time.Time `json:"revoked_at"`
}

type ConflictOpenedPayload struct {
	ConflictID    uuid.UUID         `json:"conflict_id"`
	EntityType    entity.EntityType `json:"entity_type"`
	EntityID      string            `json:"entity_id"`
	LocalDeviceID uuid.UUID         `json:"local_device_id"`
	ServerVersion int64             `json:"server_version"`
}

func DeviceRevoked(d *entity.Device) Event {
	id := d.ID
	revokedAt := time.Now().UTC()
	if d.RevokedAt != nil {
		revokedAt = *d.RevokedAt
	}
	return Event{
		Type:       TypeDeviceRevoked,
		UserID:     d.UserID,
		DeviceID:   &id,
		Payload:    DeviceRevokedPayload{DeviceID: d.ID, RevokedAt: revokedAt},
		OccurredAt: revokedAt,
	}
}

func ConflictOpened(c *entity.Conflict) Event {
	local := c.LocalDeviceID()
	return Event{
		Type:     TypeConflictOpened,
		UserID:   c.UserID,
		DeviceID: &local,
		Payload: ConflictOpenedPayload{
			ConflictID:    c.ID,
			EntityType:    c.EntityType,
			EntityID:      c.EntityID,
			LocalDeviceID: local,
			ServerVersion: c.ServerChange.Version,
		},
		OccurredAt: c.CreatedAt,
	}
}
