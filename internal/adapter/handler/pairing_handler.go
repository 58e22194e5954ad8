package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/request"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/response"
	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/httputil"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/pairing"
)

type PairingHandler struct {
	pairingSvc PairingService
}

func NewPairingHandler(pairingSvc PairingService) *PairingHandler {
	return &PairingHandler{pairingSvc: pairingSvc}
}

// Start godoc
//
//	@Summary		Start pairing
//	@Description	Issues a short-lived code and deep link that a new device can redeem
//	@Tags			pairing
//	@Security		BearerAuth
//	@Produce		json
//	@Success		201	{object}	response.PairingStartResponse
//	@Failure		401	{object}	httputil.ErrorResponse
//	@Router			/pairing/start [post]
func (h *PairingHandler) Start(c *gin.Context) {
	challenge, err := h.pairingSvc.StartPairing(c.Request.Context(), httputil.GetUserID(c), httputil.GetDeviceID(c))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.Created(c, response.PairingStartFrom(challenge))
}

// Complete godoc
//
//	@Summary		Complete pairing
//	@Description	Redeems a pairing code or deep link and signs the new device in
//	@Tags			pairing
//	@Accept			json
//	@Produce		json
//	@Param			request	body		request.PairingCompleteRequest	true	"Code or deep link"
//	@Success		200		{object}	response.PairingCompleteResponse
//	@Failure		400		{object}	httputil.ErrorResponse	"Pairing failed"
//	@Router			/pairing/complete [post]
func (h *PairingHandler) Complete(c *gin.Context) {
	var req request.PairingCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.ValidationError(c, err)
		return
	}

	result, err := h.pairingSvc.CompletePairing(c.Request.Context(), pairing.CompleteInput{
		PairingID:   req.PairingID,
		Code:        req.Code,
		DeepLink:    req.DeepLink,
		DeviceID:    req.DeviceID,
		Name:        req.DeviceName,
		Platform:    req.Platform,
		Fingerprint: req.Fingerprint,
	})
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.OK(c, response.PairingCompleteFrom(result))
}
