package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/request"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/response"
	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/httputil"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/device"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/pake"
)

type AuthHandler struct {
	pakeSvc    PakeService
	deviceSvc  DeviceService
	sessionSvc SessionService
}

func NewAuthHandler(pakeSvc PakeService, deviceSvc DeviceService, sessionSvc SessionService) *AuthHandler {
	return &AuthHandler{
		pakeSvc:    pakeSvc,
		deviceSvc:  deviceSvc,
		sessionSvc: sessionSvc,
	}
}

// RegisterStart godoc
//
//	@Summary		Begin SRP registration
//	@Description	Returns the group parameters and a fresh Argon2id salt for the verifier
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		request.RegisterStartRequest	true	"Username"
//	@Success		200		{object}	response.RegisterChallengeResponse
//	@Failure		400		{object}	httputil.ErrorResponse
//	@Router			/auth/pake/register/start [post]
func (h *AuthHandler) RegisterStart(c *gin.Context) {
	var req request.RegisterStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.ValidationError(c, err)
		return
	}

	challenge, err := h.pakeSvc.BeginRegistration(c.Request.Context(), req.Username)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.OK(c, response.RegisterChallengeFrom(challenge))
}

// RegisterFinish godoc
//
//	@Summary		Complete SRP registration
//	@Description	Stores the verifier computed by the client
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		request.RegisterFinishRequest	true	"Verifier"
//	@Success		201		{object}	response.CredentialResponse
//	@Failure		400		{object}	httputil.ErrorResponse
//	@Failure		401		{object}	httputil.ErrorResponse	"Handshake expired or malformed"
//	@Failure		409		{object}	httputil.ErrorResponse	"Username taken"
//	@Router			/auth/pake/register/finish [post]
func (h *AuthHandler) RegisterFinish(c *gin.Context) {
	var req request.RegisterFinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.ValidationError(c, err)
		return
	}

	cred, err := h.pakeSvc.CompleteRegistration(c.Request.Context(), req.Username, pake.RegistrationProof{
		RegistrationID: req.RegistrationID,
		Verifier:       req.Verifier,
	})
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.Created(c, response.CredentialFromEntity(cred))
}

// LoginStart godoc
//
//	@Summary		Begin SRP login
//	@Description	Exchanges the client public value A for the salt and server public value B
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		request.LoginStartRequest	true	"A and device"
//	@Success		200		{object}	response.LoginChallengeResponse
//	@Failure		400		{object}	httputil.ErrorResponse
//	@Failure		401		{object}	httputil.ErrorResponse
//	@Failure		429		{object}	httputil.ErrorResponse	"Too many failed attempts"
//	@Router			/auth/pake/login/start [post]
func (h *AuthHandler) LoginStart(c *gin.Context) {
	var req request.LoginStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.ValidationError(c, err)
		return
	}

	challenge, err := h.pakeSvc.BeginLogin(c.Request.Context(), pake.LoginStart{
		Username:     req.Username,
		ClientPublic: req.ClientPublic,
		Device: pake.DeviceInfo{
			DeviceID:    req.DeviceID,
			Name:        req.DeviceName,
			Platform:    req.Platform,
			Fingerprint: req.Fingerprint,
		},
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.OK(c, response.LoginChallengeResponse{
		SessionID:    challenge.SessionID,
		KDF:          challenge.KDF,
		ServerPublic: challenge.ServerPublic,
	})
}

// LoginFinish godoc
//
//	@Summary		Complete SRP login
//	@Description	Verifies the client proof M1, registers the device and returns tokens with the server proof M2
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		request.LoginFinishRequest	true	"M1"
//	@Success		200		{object}	response.LoginResponse
//	@Failure		400		{object}	httputil.ErrorResponse
//	@Failure		401		{object}	httputil.ErrorResponse	"Authentication failed"
//	@Router			/auth/pake/login/finish [post]
func (h *AuthHandler) LoginFinish(c *gin.Context) {
	var req request.LoginFinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.ValidationError(c, err)
		return
	}

	ctx := c.Request.Context()
	result, err := h.pakeSvc.CompleteLogin(ctx, pake.LoginFinish{
		Username:    req.Username,
		SessionID:   req.SessionID,
		ClientProof: req.ClientProof,
	})
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	dev, err := h.deviceSvc.Register(ctx, device.RegisterInput{
		UserID:      result.Credential.ID,
		DeviceID:    result.Device.DeviceID,
		Name:        result.Device.Name,
		Platform:    result.Device.Platform,
		Fingerprint: result.Device.Fingerprint,
	})
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	tokens, err := h.sessionSvc.Issue(ctx, dev, result.SessionSeed)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.OK(c, response.LoginFrom(result, dev, tokens))
}

// Refresh godoc
//
//	@Summary		Rotate tokens
//	@Description	Exchanges a refresh token for a new pair. Presenting a rotated token revokes the device.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		request.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	response.RefreshResponse
//	@Failure		400		{object}	httputil.ErrorResponse
//	@Failure		401		{object}	httputil.ErrorResponse	"Session invalid"
//	@Router			/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req request.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.ValidationError(c, err)
		return
	}

	tokens, err := h.sessionSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.OK(c, response.RefreshFrom(tokens))
}

// Logout godoc
//
//	@Summary		Sign out this device
//	@Description	Revokes the device record the access token belongs to
//	@Tags			auth
//	@Security		BearerAuth
//	@Success		204	"No content"
//	@Failure		401	{object}	httputil.ErrorResponse
//	@Router			/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessionSvc.Logout(c.Request.Context(), httputil.GetUserID(c), httputil.GetDeviceID(c)); err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.NoContent(c)
}

// ListDevices godoc
//
//	@Summary		List devices
//	@Description	Every device record of the account, active or not
//	@Tags			devices
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	response.DeviceListResponse
//	@Failure		401	{object}	httputil.ErrorResponse
//	@Router			/auth/devices [get]
func (h *AuthHandler) ListDevices(c *gin.Context) {
	devices, err := h.deviceSvc.List(c.Request.Context(), httputil.GetUserID(c))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.OK(c, response.DeviceListResponse{
		Devices: response.DevicesFromEntities(devices, httputil.GetDeviceID(c)),
	})
}

// RevokeDevice godoc
//
//	@Summary		Revoke a device
//	@Description	Idempotent. Open sockets of the device are closed.
//	@Tags			devices
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Device record ID"
//	@Success		200	{object}	response.DeviceResponse
//	@Failure		400	{object}	httputil.ErrorResponse
//	@Failure		401	{object}	httputil.ErrorResponse
//	@Failure		404	{object}	httputil.ErrorResponse
//	@Router			/auth/devices/{id}/revoke [post]
func (h *AuthHandler) RevokeDevice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.ErrorWithCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid device id")
		return
	}

	dev, err := h.deviceSvc.Revoke(c.Request.Context(), httputil.GetUserID(c), id)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.OK(c, response.DeviceFromEntity(dev, httputil.GetDeviceID(c)))
}

// RevokeAllDevices godoc
//
//	@Summary		Revoke all devices
//	@Description	Revokes every active device, including this one unless keep_current is set
//	@Tags			devices
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		request.RevokeAllRequest	false	"Options"
//	@Success		200		{object}	response.RevokeAllResponse
//	@Failure		401		{object}	httputil.ErrorResponse
//	@Router			/auth/devices/revoke-all [post]
func (h *AuthHandler) RevokeAllDevices(c *gin.Context) {
	var req request.RevokeAllRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.ValidationError(c, err)
			return
		}
	}

	current := httputil.GetDeviceID(c)
	var except *uuid.UUID
	if req.KeepCurrent {
		except = &current
	}

	revoked, err := h.deviceSvc.RevokeAll(c.Request.Context(), httputil.GetUserID(c), except)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.OK(c, response.RevokeAllResponse{Revoked: response.DevicesFromEntities(revoked, current)})
}
