package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	redisinfra "github.com/dhanush432-code/tradescope-auth/internal/infra/redis"
)

// HealthHandler exposes liveness and readiness information.
type HealthHandler struct {
	startedAt time.Time
	pool      *pgxpool.Pool
	redis     *redisinfra.Client
}

// NewHealthHandler builds a new health handler instance.
func NewHealthHandler(pool *pgxpool.Pool, redis *redisinfra.Client) *HealthHandler {
	return &HealthHandler{
		startedAt: time.Now().UTC(),
		pool:      pool,
		redis:     redis,
	}
}

// Status reports process liveness.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}

// Ready pings the backing stores and reports per-dependency status.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	components := map[string]string{}
	ready := true

	if h.pool != nil {
		if err := h.pool.Ping(ctx); err != nil {
			components["postgres"] = "unavailable"
			ready = false
		} else {
			components["postgres"] = "ok"
		}
	}

	if h.redis != nil {
		if err := h.redis.HealthCheck(ctx); err != nil {
			components["redis"] = "unavailable"
			ready = false
		} else {
			components["redis"] = "ok"
		}
	}

	status := http.StatusOK
	summary := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		summary = "degraded"
	}

	c.JSON(status, ReadinessResponse{
		Status:     summary,
		Components: components,
	})
}
