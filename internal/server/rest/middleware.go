package rest

import (
	"context"
	"io"
	"time"

	"github.com/dmitrijs2005/gopherblog/internal/common"
	"github.com/dmitrijs2005/gopherblog/internal/logging"
	"github.com/dmitrijs2005/gopherblog/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const identityKey = "auth.identity"

// RequireAuth runs the auth gate. Unauthenticated requests get 401, rejected
// credentials get 403; otherwise the identity is stored on the context.
func RequireAuth(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := gate.Check(c.GetHeader(common.AuthorizationHeaderName))
		if d.Outcome != auth.Authenticated {
			abortWithError(c, d.Err)
			return
		}
		c.Set(identityKey, d.Identity)
		c.Next()
	}
}

// identityFrom returns the identity stored by RequireAuth, or nil.
func identityFrom(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}

// Timeout bounds every request's context.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AccessLog writes one line per request through logger.
func AccessLog(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if id := identityFrom(c); id != nil {
			args = append(args, "user_id", id.UserID)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.Last().Error())
		}

		ctx := c.Request.Context()
		switch {
		case c.Writer.Status() >= 500:
			logger.Error(ctx, "http request", args...)
		case c.Writer.Status() >= 400:
			logger.Warn(ctx, "http request", args...)
		default:
			logger.Info(ctx, "http request", args...)
		}
	}
}

// Recovery turns a panic into a 500 response.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error(c.Request.Context(), "panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		abortWithError(c, common.ErrorInternal)
	})
}
