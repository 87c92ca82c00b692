package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/movr/backend/internal/application/lifecycle"
	"github.com/movr/backend/internal/infrastructure/logger"
	"github.com/movr/backend/internal/infrastructure/persistence"
	"github.com/movr/backend/internal/interfaces/http/dto"
)

// DatabaseChecker is the part of persistence.Database the readiness
// check needs
type DatabaseChecker interface {
	Ping() error
	Stats() (persistence.ConnectionStats, error)
}

// HealthHandler serves the liveness and readiness checks
type HealthHandler struct {
	BaseHandler
	db        DatabaseChecker
	version   string
	features  lifecycle.Features
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler
func NewHealthHandler(db DatabaseChecker, version string, features lifecycle.Features) *HealthHandler {
	return &HealthHandler{
		db:        db,
		version:   version,
		features:  features,
		startTime: time.Now(),
	}
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	GoVersion       string `json:"go_version"`
	Uptime          string `json:"uptime"`
	LocationHistory bool   `json:"location_history"`
	UserRides       bool   `json:"user_rides"`
}

// ReadyResponse is returned by GET /ready
type ReadyResponse struct {
	Status          string `json:"status"`
	Database        string `json:"database"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	h.Success(c, HealthResponse{
		Status:          "healthy",
		Version:         h.version,
		GoVersion:       runtime.Version(),
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		LocationHistory: h.features.LocationHistory,
		UserRides:       h.features.UserRides,
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		logger.L(c.Request.Context()).Warn("Readiness check failed", zap.Error(err))
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Database is unreachable")
		return
	}

	resp := ReadyResponse{Status: "ready", Database: "ok"}
	if stats, err := h.db.Stats(); err == nil {
		resp.OpenConnections = stats.OpenConnections
		resp.InUse = stats.InUse
		resp.Idle = stats.Idle
	}
	h.Success(c, resp)
}
