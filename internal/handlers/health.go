package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fossils/internal/repositories"
)

const healthTimeout = 3 * time.Second

// HealthHandler reports whether the lyrics backend is usable
type HealthHandler struct {
	repo repositories.LyricsRepository
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(repo repositories.LyricsRepository) *HealthHandler {
	return &HealthHandler{repo: repo}
}

// Health handles GET /api/health. A hybrid backend also reports whether its
// primary store is reachable; falling back still counts as ok.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	response := gin.H{"backend": h.repo.Backend()}

	err := h.repo.Health(ctx)
	response["ok"] = err == nil

	if checker, ok := repositories.AsPrimaryChecker(h.repo); ok {
		primaryErr := checker.PrimaryHealth(ctx)
		response["primary"] = primaryErr == nil
		if primaryErr != nil {
			slog.Warn("Primary lyrics store unreachable", "error", primaryErr)
		}
	}

	if err != nil {
		slog.Error("Health check failed", "backend", h.repo.Backend(), "error", err)
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}
