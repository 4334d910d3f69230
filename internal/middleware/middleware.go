package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"todo-realtime/internal/auth"
	"todo-realtime/pkg/logger"
)

// UserKey is the gin context key holding the authenticated subject.
const UserKey = "user"

const requestIDHeader = "X-Request-ID"

// Auth verifies an HS256 bearer token and stores its subject under UserKey.
// Browsers cannot set headers on a WebSocket handshake, so a token query
// parameter is accepted as well.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			logger.Debug(ctx, "Missing or invalid Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		sub, err := auth.Subject(secret, tokenStr)
		if err != nil {
			logger.Debug(ctx, "JWT parse failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(UserKey, sub)
		c.Request = c.Request.WithContext(logger.With(ctx, "user", sub))
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return strings.TrimSpace(c.Query("token"))
}

// User returns the subject set by Auth, or "" when the request is anonymous.
func User(c *gin.Context) string {
	return c.GetString(UserKey)
}

// RequestLogger attaches a request-scoped logger carrying the request id and
// logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		ctx := logger.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		logger.Info(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
