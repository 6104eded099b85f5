package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/venuehub/venue-booking/internal/database"
	"github.com/venuehub/venue-booking/internal/redis"
	"github.com/venuehub/venue-booking/internal/response"
	"github.com/venuehub/venue-booking/internal/sweeper"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	db      *database.PostgresDB
	redis   *redis.Client
	sweeper *sweeper.Sweeper
}

// NewHealthHandler creates a new health handler. redis may be nil when the
// Postgres inventory backend is configured.
func NewHealthHandler(db *database.PostgresDB, rdb *redis.Client, sw *sweeper.Sweeper) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb, sweeper: sw}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.Request.Context()); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"healthy": healthy, "checks": checks})
}

// SweeperStats handles GET /api/v1/admin/sweeper/stats
func (h *HealthHandler) SweeperStats(c *gin.Context) {
	response.Success(c, h.sweeper.GetStats())
}
