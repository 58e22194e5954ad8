package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/httputil"
)

// Recovery turns a handler panic into a 500 with the usual error body.
// Aborted handlers keep their sentinel semantics, and a hijacked websocket
// connection gets no body because the response is no longer HTTP.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			logger.Error("panic recovered",
				zap.Any("error", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.String("user_id", httputil.GetUserID(c).String()),
				zap.String("request_id", httputil.GetRequestID(c)),
				zap.ByteString("stack", debug.Stack()),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			httputil.InternalError(c)
			c.Abort()
		}()
		c.Next()
	}
}
