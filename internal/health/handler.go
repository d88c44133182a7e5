// Package health exposes the liveness endpoint used by the deployment probes.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gitbounty/gitbounty/internal/database/database"
)

// checkTimeout bounds the database ping so a stuck pool does not hang the probe.
const checkTimeout = 5 * time.Second

// Handler answers GET /health.
type Handler struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func New(db *gorm.DB, logger *zap.SugaredLogger) *Handler {
	return &Handler{db: db, logger: logger}
}

// Response is the health check body.
type Response struct {
	Status string `json:"status"`
}

// Check reports ok while the database is reachable. Webhook deliveries are
// useless without it, so an unreachable database marks the whole process
// unhealthy.
func (h *Handler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	if err := database.HealthCheck(ctx, h.db); err != nil {
		h.logger.Warnw("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, Response{Status: "unhealthy"})
		return
	}

	if stats, err := database.GetStats(h.db); err == nil {
		h.logger.Debugw("connection pool",
			"open", stats.OpenConnections,
			"in_use", stats.InUse,
			"wait_count", stats.WaitCount)
	}

	c.JSON(http.StatusOK, Response{Status: "ok"})
}
