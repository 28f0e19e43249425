package health

import (
	"context"
	"net/http"
	"time"

	"matchwise/backend/internal/logger"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthChecker serves the health endpoint.
type HealthChecker struct {
	db      Pinger
	timeout time.Duration
}

func NewHealthChecker(db Pinger, timeout time.Duration) *HealthChecker {
	return &HealthChecker{db: db, timeout: timeout}
}

// Handler answers 200 when the database responds within the timeout and 503
// otherwise.
func (h *HealthChecker) Handler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		logger.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "unreachable"})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}
