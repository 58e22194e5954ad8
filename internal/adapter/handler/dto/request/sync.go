package request

import (
	"encoding/json"

	"github.com/google/uuid"
)

type PushRequest struct {
	Changes []PushChange `json:"changes" binding:"required,dive"`
}

type PushChange struct {
	ID          uuid.UUID       `json:"id" binding:"required"`
	EntityType  string          `json:"entity_type" binding:"required"`
	EntityID    string          `json:"entity_id" binding:"required,max=255"`
	Operation   string          `json:"operation" binding:"required,oneof=create update delete"`
	BaseVersion int64           `json:"base_version" binding:"min=0"`
	Payload     json.RawMessage `json:"payload" swaggertype:"object"`
}

type PullQuery struct {
	Since int64 `form:"since" binding:"min=0"`
	Limit int   `form:"limit" binding:"min=0"`
}

type ResolveRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}
