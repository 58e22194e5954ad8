package response

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/pagination"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/sync"
)

type ChangeResponse struct {
	ID             uuid.UUID       `json:"id"`
	EntityType     string          `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	Operation      string          `json:"operation"`
	OriginDeviceID uuid.UUID       `json:"origin_device_id"`
	BaseVersion    int64           `json:"base_version"`
	Version        int64           `json:"version"`
	Seq            int64           `json:"seq"`
	Payload        json.RawMessage `json:"payload,omitempty" swaggertype:"object"`
	CreatedAt      time.Time       `json:"created_at"`
}

type ConflictResponse struct {
	ID            uuid.UUID      `json:"id"`
	EntityType    string         `json:"entity_type"`
	EntityID      string         `json:"entity_id"`
	Status        string         `json:"status"`
	LocalChange   ChangeResponse `json:"local_change"`
	ServerChange  ChangeResponse `json:"server_change"`
	Resolution    *string        `json:"resolution,omitempty"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
	ResultVersion *int64         `json:"result_version,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

type RejectedResponse struct {
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

type PushResponse struct {
	Accepted  []ChangeResponse   `json:"accepted"`
	Conflicts []ConflictResponse `json:"conflicts"`
	Rejected  []RejectedResponse `json:"rejected"`
}

type PullResponse struct {
	Changes       []ChangeResponse   `json:"changes"`
	OpenConflicts []ConflictResponse `json:"open_conflicts"`
	pagination.Info
}

type ConflictListResponse struct {
	Conflicts []ConflictResponse `json:"conflicts"`
}

type ResolveResponse struct {
	Change ChangeResponse `json:"change"`
}

func ChangeFromEntity(c *entity.ChangeRecord) ChangeResponse {
	return ChangeResponse{
		ID:             c.ID,
		EntityType:     string(c.EntityType),
		EntityID:       c.EntityID,
		Operation:      string(c.Operation),
		OriginDeviceID: c.OriginDeviceID,
		BaseVersion:    c.BaseVersion,
		Version:        c.Version,
		Seq:            c.Seq,
		Payload:        c.Payload,
		CreatedAt:      c.CreatedAt,
	}
}

func ConflictFromEntity(c *entity.Conflict) ConflictResponse {
	resp := ConflictResponse{
		ID:            c.ID,
		EntityType:    string(c.EntityType),
		EntityID:      c.EntityID,
		Status:        string(c.Status),
		LocalChange:   ChangeFromEntity(&c.LocalChange),
		ServerChange:  ChangeFromEntity(&c.ServerChange),
		ResolvedAt:    c.ResolvedAt,
		ResultVersion: c.ResultVersion,
		CreatedAt:     c.CreatedAt,
	}
	if c.Resolution != nil {
		r := string(*c.Resolution)
		resp.Resolution = &r
	}
	return resp
}

func ChangesFromEntities(changes []entity.ChangeRecord) []ChangeResponse {
	result := make([]ChangeResponse, 0, len(changes))
	for i := range changes {
		result = append(result, ChangeFromEntity(&changes[i]))
	}
	return result
}

func ConflictsFromEntities(conflicts []entity.Conflict) []ConflictResponse {
	result := make([]ConflictResponse, 0, len(conflicts))
	for i := range conflicts {
		result = append(result, ConflictFromEntity(&conflicts[i]))
	}
	return result
}

func PushFrom(r *sync.PushResult) PushResponse {
	rejected := make([]RejectedResponse, 0, len(r.Rejected))
	for _, rj := range r.Rejected {
		rejected = append(rejected, RejectedResponse{ID: rj.ChangeID, Reason: rj.Reason})
	}
	return PushResponse{
		Accepted:  ChangesFromEntities(r.Accepted),
		Conflicts: ConflictsFromEntities(r.Conflicts),
		Rejected:  rejected,
	}
}

func PullFrom(r *sync.PullResult) PullResponse {
	return PullResponse{
		Changes:       ChangesFromEntities(r.Changes),
		OpenConflicts: ConflictsFromEntities(r.OpenConflicts),
		Info:          pagination.Info{Cursor: r.Cursor, HasMore: r.HasMore},
	}
}
