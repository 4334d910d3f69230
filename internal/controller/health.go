package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"todo-realtime/internal/service"
	"todo-realtime/pkg/logger"
)

// Health returns 200 if the process is alive. Used by load balancers.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns 200 if the store and the cache are reachable. Used by K8s
// readiness probes.
func Ready(svc *service.Todos) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := svc.Ready(ctx); err != nil {
			logger.Warn(ctx, "Readiness check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": err.Error()})
			return
		}
		c.String(http.StatusOK, "OK")
	}
}
