package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/request"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/response"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/httputil"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/sync"
)

type SyncHandler struct {
	syncSvc     SyncService
	conflictSvc ConflictService
}

func NewSyncHandler(syncSvc SyncService, conflictSvc ConflictService) *SyncHandler {
	return &SyncHandler{
		syncSvc:     syncSvc,
		conflictSvc: conflictSvc,
	}
}

// Push godoc
//
//	@Summary		Push changes
//	@Description	Applies each change against its entity version. Stale changes open conflicts instead of overwriting.
//	@Tags			sync
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		request.PushRequest	true	"Changes"
//	@Success		200		{object}	response.PushResponse
//	@Failure		400		{object}	httputil.ErrorResponse
//	@Failure		401		{object}	httputil.ErrorResponse
//	@Router			/sync/push [post]
func (h *SyncHandler) Push(c *gin.Context) {
	var req request.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.ValidationError(c, err)
		return
	}

	changes := make([]sync.ClientChange, 0, len(req.Changes))
	for _, ch := range req.Changes {
		changes = append(changes, sync.ClientChange{
			ID:          ch.ID,
			EntityType:  entity.EntityType(ch.EntityType),
			EntityID:    ch.EntityID,
			Operation:   entity.Operation(ch.Operation),
			BaseVersion: ch.BaseVersion,
			Payload:     ch.Payload,
		})
	}

	result, err := h.syncSvc.Push(c.Request.Context(), httputil.GetUserID(c), httputil.GetDeviceID(c), changes)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.OK(c, response.PushFrom(result))
}

// Pull godoc
//
//	@Summary		Pull changes
//	@Description	Changes after the cursor made by other devices, plus this device's open conflicts
//	@Tags			sync
//	@Security		BearerAuth
//	@Produce		json
//	@Param			since	query		int	false	"Last applied seq"
//	@Param			limit	query		int	false	"Page size (max 500)"
//	@Success		200		{object}	response.PullResponse
//	@Failure		400		{object}	httputil.ErrorResponse
//	@Failure		401		{object}	httputil.ErrorResponse
//	@Router			/sync/pull [get]
func (h *SyncHandler) Pull(c *gin.Context) {
	var q request.PullQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.ValidationError(c, err)
		return
	}

	result, err := h.syncSvc.Pull(c.Request.Context(), httputil.GetUserID(c), httputil.GetDeviceID(c), q.Since, q.Limit)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.OK(c, response.PullFrom(result))
}

// ListConflicts godoc
//
//	@Summary		List open conflicts
//	@Tags			sync
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	response.ConflictListResponse
//	@Failure		401	{object}	httputil.ErrorResponse
//	@Router			/sync/conflicts [get]
func (h *SyncHandler) ListConflicts(c *gin.Context) {
	conflicts, err := h.conflictSvc.ListOpen(c.Request.Context(), httputil.GetUserID(c))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.OK(c, response.ConflictListResponse{Conflicts: response.ConflictsFromEntities(conflicts)})
}

// GetConflict godoc
//
//	@Summary		Get a conflict
//	@Tags			sync
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Conflict ID"
//	@Success		200	{object}	response.ConflictResponse
//	@Failure		400	{object}	httputil.ErrorResponse
//	@Failure		404	{object}	httputil.ErrorResponse
//	@Router			/sync/conflicts/{id} [get]
func (h *SyncHandler) GetConflict(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.ErrorWithCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid conflict id")
		return
	}

	conflict, err := h.conflictSvc.Get(c.Request.Context(), httputil.GetUserID(c), id)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.OK(c, response.ConflictFromEntity(conflict))
}

// ResolveConflict godoc
//
//	@Summary		Resolve a conflict
//	@Description	UseServer keeps the server head, UseLocal writes the local change on top. Manual is rejected and the conflict stays open.
//	@Tags			sync
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Conflict ID"
//	@Param			request	body		request.ResolveRequest	true	"Resolution"
//	@Success		200		{object}	response.ResolveResponse
//	@Failure		400		{object}	httputil.ErrorResponse
//	@Failure		404		{object}	httputil.ErrorResponse
//	@Failure		409		{object}	httputil.ErrorResponse	"Already resolved"
//	@Failure		422		{object}	httputil.ErrorResponse	"Manual is not terminal"
//	@Router			/sync/conflicts/{id}/resolve [post]
func (h *SyncHandler) ResolveConflict(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.ErrorWithCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid conflict id")
		return
	}

	var req request.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.ValidationError(c, err)
		return
	}
	resolution, err := entity.ParseResolution(req.Resolution)
	if err != nil {
		httputil.ValidationError(c, err)
		return
	}

	change, err := h.conflictSvc.Resolve(c.Request.Context(), httputil.GetUserID(c), id, resolution)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.OK(c, response.ResolveResponse{Change: response.ChangeFromEntity(change)})
}
