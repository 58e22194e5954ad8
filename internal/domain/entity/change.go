package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
)

type EntityType string

const (
	EntityStudySession         EntityType = "StudySession"
	EntityTask                 EntityType = "Task"
	EntityNote                 EntityType = "Note"
	EntityDeck                 EntityType = "Deck"
	EntityAutomation           EntityType = "Automation"
	EntityServiceConfiguration EntityType = "ServiceConfiguration"
	EntityUserSettings         EntityType = "UserSettings"
)

var entityTypes = map[EntityType]struct{}{
	EntityStudySession:         {},
	EntityTask:                 {},
	EntityNote:                 {},
	EntityDeck:                 {},
	EntityAutomation:           {},
	EntityServiceConfiguration: {},
	EntityUserSettings:         {},
}

func (t EntityType) Valid() bool {
	_, ok := entityTypes[t]
	return ok
}

type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

func (o Operation) Valid() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// ChangeRecord is one mutation of one entity. ID is chosen by the client and
// makes pushes idempotent. Version orders changes of a single entity, Seq
// orders the whole account feed.
type ChangeRecord struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	EntityType     EntityType
	EntityID       string
	Operation      Operation
	OriginDeviceID uuid.UUID
	BaseVersion    int64
	Version        int64
	Seq            int64
	Payload        json.RawMessage
	CreatedAt      time.Time
}

func (c *ChangeRecord) Validate() error {
	if !c.EntityType.Valid() {
		return domain.ErrInvalidEntityType
	}
	if !c.Operation.Valid() {
		return domain.ErrInvalidOperation
	}
	if c.ID == uuid.Nil || c.EntityID == "" {
		return domain.ErrInvalidOperation
	}
	return nil
}

// EntityKey identifies an entity within an account.
type EntityKey struct {
	Type EntityType
	ID   string
}

func (c *ChangeRecord) Key() EntityKey {
	return EntityKey{Type: c.EntityType, ID: c.EntityID}
}
