package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Resolution string

const (
	ResolutionUseServer Resolution = "UseServer"
	ResolutionUseLocal  Resolution = "UseLocal"
	ResolutionManual    Resolution = "Manual"
)

// ParseResolution accepts the canonical names case-insensitively.
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "useserver", "use_server", "server":
		return ResolutionUseServer, nil
	case "uselocal", "use_local", "local":
		return ResolutionUseLocal, nil
	case "manual":
		return ResolutionManual, nil
	}
	return "", fmt.Errorf("unknown resolution %q", s)
}

// Terminal reports whether the resolution closes a conflict.
func (r Resolution) Terminal() bool {
	return r == ResolutionUseServer || r == ResolutionUseLocal
}

type ConflictStatus string

const (
	ConflictOpen     ConflictStatus = "open"
	ConflictResolved ConflictStatus = "resolved"
)

// Conflict pairs a rejected local change with the server change it lost to.
type Conflict struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	EntityType    EntityType
	EntityID      string
	LocalChange   ChangeRecord
	ServerChange  ChangeRecord
	Status        ConflictStatus
	Resolution    *Resolution
	ResolvedAt    *time.Time
	ResultVersion *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c *Conflict) IsOpen() bool {
	return c.Status == ConflictOpen
}

func (c *Conflict) LocalDeviceID() uuid.UUID {
	return c.LocalChange.OriginDeviceID
}
