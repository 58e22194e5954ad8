package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/httputil"
)

const (
	UserIDKey    = "user_id"
	DeviceIDKey  = "device_id"
	BearerPrefix = "Bearer "
)

const sessionInvalidCode = "SESSION_INVALID"

type TokenValidator interface {
	ValidateAccessToken(token string) (userID, deviceID uuid.UUID, err error)
}

// DeviceAuthorizer reloads the device record on every request so a revoked
// device loses access on its next call.
type DeviceAuthorizer interface {
	Authorize(ctx context.Context, deviceID, userID uuid.UUID) (*entity.Device, error)
}

type AuthMiddleware struct {
	tokens  TokenValidator
	devices DeviceAuthorizer
}

func NewAuthMiddleware(tokens TokenValidator, devices DeviceAuthorizer) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, devices: devices}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return m.handle(false)
}

// RequireAuthQuery also accepts the token as the token query parameter, for
// clients that cannot set headers on a websocket upgrade.
func (m *AuthMiddleware) RequireAuthQuery() gin.HandlerFunc {
	return m.handle(true)
}

func (m *AuthMiddleware) handle(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c, allowQuery)
		if !ok {
			httputil.ErrorWithCode(c, http.StatusUnauthorized, sessionInvalidCode, "authorization header required")
			c.Abort()
			return
		}

		userID, deviceID, err := m.tokens.ValidateAccessToken(token)
		if err != nil {
			httputil.ErrorWithCode(c, http.StatusUnauthorized, sessionInvalidCode, domain.ErrSessionInvalid.Error())
			c.Abort()
			return
		}

		if _, err := m.devices.Authorize(c.Request.Context(), deviceID, userID); err != nil {
			if errors.Is(err, domain.ErrSessionInvalid) || errors.Is(err, domain.ErrDeviceNotFound) {
				httputil.ErrorWithCode(c, http.StatusUnauthorized, sessionInvalidCode, domain.ErrSessionInvalid.Error())
			} else {
				httputil.InternalError(c)
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(DeviceIDKey, deviceID)
		c.Next()
	}
}

func bearerToken(c *gin.Context, allowQuery bool) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if allowQuery {
			if token := c.Query("token"); token != "" {
				return token, true
			}
		}
		return "", false
	}
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(authHeader, BearerPrefix), true
}
