package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fossils/internal/lyrics"
	"fossils/internal/models"
	"fossils/internal/repositories"
)

// CreateLyricsRequest is the body of POST /api/lyrics. ID and CreatedAt are
// optional and let a client keep the identity it assigned offline.
type CreateLyricsRequest struct {
	ID            string `json:"id,omitempty"`
	AlbumName     string `json:"albumName"`
	SongName      string `json:"songName"`
	BengaliLyrics string `json:"bengaliLyrics"`
	CreatedAt     int64  `json:"createdAt,omitempty"`
}

// LyricsHandler handles the lyrics CRUD endpoints
type LyricsHandler struct {
	repo repositories.LyricsRepository
}

// NewLyricsHandler creates a new lyrics handler
func NewLyricsHandler(repo repositories.LyricsRepository) *LyricsHandler {
	return &LyricsHandler{repo: repo}
}

// ListLyrics handles GET /api/lyrics
func (h *LyricsHandler) ListLyrics(c *gin.Context) {
	entries, err := h.repo.List(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list lyrics", "backend", h.repo.Backend(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read lyrics"})
		return
	}
	if entries == nil {
		entries = []models.LyricsEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// GetLyrics handles GET /api/lyrics/:id
func (h *LyricsHandler) GetLyrics(c *gin.Context) {
	entry, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// CreateLyrics handles POST /api/lyrics
func (h *LyricsHandler) CreateLyrics(c *gin.Context) {
	var req CreateLyricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := lyrics.Validate(req.AlbumName, req.SongName, req.BengaliLyrics); err != nil {
		h.writeError(c, "create", err)
		return
	}

	entry := models.NewLyricsEntry(req.AlbumName, req.SongName, req.BengaliLyrics)
	if req.ID != "" {
		if !strings.HasPrefix(req.ID, "lyrics_") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id must start with lyrics_", "field": "id"})
			return
		}
		if _, err := h.repo.Get(c.Request.Context(), req.ID); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Lyrics already exist", "field": "id"})
			return
		} else if !errors.Is(err, repositories.ErrNotFound) {
			h.writeError(c, "create", err)
			return
		}
		entry.ID = req.ID
	}
	if req.CreatedAt > 0 && req.CreatedAt <= time.Now().UnixMilli() {
		entry.CreatedAt = req.CreatedAt
	}

	if err := h.repo.Create(c.Request.Context(), entry); err != nil {
		h.writeError(c, "create", err)
		return
	}

	slog.Info("Lyrics created", "id", entry.ID, "album", entry.AlbumName, "song", entry.SongName)
	c.JSON(http.StatusCreated, entry)
}

// UpdateLyrics handles PUT /api/lyrics/:id with a partial body
func (h *LyricsHandler) UpdateLyrics(c *gin.Context) {
	var patch models.LyricsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := lyrics.ValidatePatch(patch); err != nil {
		h.writeError(c, "update", err)
		return
	}

	entry, err := h.repo.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.writeError(c, "update", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// DeleteLyrics handles DELETE /api/lyrics/:id
func (h *LyricsHandler) DeleteLyrics(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, "delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// writeError maps repository and validation errors onto responses
func (h *LyricsHandler) writeError(c *gin.Context, operation string, err error) {
	var validationErr *lyrics.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Field + " " + validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Lyrics not found"})
	default:
		slog.Error("Lyrics operation failed", "operation", operation, "backend", h.repo.Backend(), "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + operation + " lyrics"})
	}
}
