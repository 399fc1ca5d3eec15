package handlers

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"

	"fossils/internal/models"
	"fossils/internal/repositories"
)

const (
	adminTimeout  = 30 * time.Second
	recentEntries = 5
)

// AdminHandler handles administrative requests
type AdminHandler struct {
	repo repositories.LyricsRepository
	db   *models.Database
}

// NewAdminHandler creates a new admin handler. db may be nil when lyrics are
// not kept in Mongo.
func NewAdminHandler(repo repositories.LyricsRepository, db *models.Database) *AdminHandler {
	return &AdminHandler{
		repo: repo,
		db:   db,
	}
}

// LibraryStats summarizes the lyrics library
type LibraryStats struct {
	Backend        string         `json:"backend"`
	TotalEntries   int            `json:"totalEntries"`
	Albums         []AlbumStats   `json:"albums"`
	RecentActivity []RecentEntry  `json:"recentActivity"`
	Database       *DatabaseStats `json:"database,omitempty"`
	LastUpdated    time.Time      `json:"lastUpdated"`
}

// AlbumStats counts entries for one album name
type AlbumStats struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}

// RecentEntry is a recently added entry, without its body
type RecentEntry struct {
	ID        string `json:"id"`
	AlbumName string `json:"albumName"`
	SongName  string `json:"songName"`
	CreatedAt int64  `json:"createdAt"`
}

// DatabaseStats represents storage statistics of the lyrics collection
type DatabaseStats struct {
	DatabaseName string  `json:"databaseName"`
	Collection   string  `json:"collection"`
	Documents    int64   `json:"documents"`
	DataSize     float64 `json:"dataSizeMb"`
	StorageSize  float64 `json:"storageSizeMb"`
	IndexSize    float64 `json:"indexSizeMb"`
	AvgDocSize   float64 `json:"avgDocSizeBytes"`
}

// GetStats handles GET /api/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), adminTimeout)
	defer cancel()

	entries, err := h.repo.List(ctx)
	if err != nil {
		slog.Error("Failed to list lyrics for stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to collect library statistics",
		})
		return
	}

	stats := collectLibraryStats(entries)
	stats.Backend = h.repo.Backend()

	if h.db != nil {
		dbStats, err := h.collectDatabaseStats(ctx)
		if err != nil {
			slog.Warn("Failed to collect database stats", "error", err)
		} else {
			stats.Database = dbStats
		}
	}

	c.JSON(http.StatusOK, stats)
}

// InvalidateCache handles POST /api/admin/cache/invalidate
func (h *AdminHandler) InvalidateCache(c *gin.Context) {
	cached, ok := h.repo.(repositories.CachedLyricsRepository)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ok": true, "cached": false})
		return
	}

	cached.Invalidate(c.Request.Context())
	slog.Info("Lyrics cache invalidated by admin request")
	c.JSON(http.StatusOK, gin.H{"ok": true, "cached": true})
}

func collectLibraryStats(entries []models.LyricsEntry) *LibraryStats {
	stats := &LibraryStats{
		TotalEntries: len(entries),
		LastUpdated:  time.Now(),
	}

	counts := lo.CountValuesBy(entries, func(e models.LyricsEntry) string {
		return e.AlbumName
	})
	stats.Albums = make([]AlbumStats, 0, len(counts))
	for name, n := range counts {
		stats.Albums = append(stats.Albums, AlbumStats{Name: name, Entries: n})
	}
	slices.SortFunc(stats.Albums, func(a, b AlbumStats) int {
		if a.Entries != b.Entries {
			return b.Entries - a.Entries
		}
		return cmp.Compare(a.Name, b.Name)
	})

	recent := slices.Clone(entries)
	slices.SortStableFunc(recent, func(a, b models.LyricsEntry) int {
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		default:
			return 0
		}
	})
	if len(recent) > recentEntries {
		recent = recent[:recentEntries]
	}
	stats.RecentActivity = lo.Map(recent, func(e models.LyricsEntry, _ int) RecentEntry {
		return RecentEntry{ID: e.ID, AlbumName: e.AlbumName, SongName: e.SongName, CreatedAt: e.CreatedAt}
	})

	return stats
}

// collectDatabaseStats reads collStats for the lyrics collection
func (h *AdminHandler) collectDatabaseStats(ctx context.Context) (*DatabaseStats, error) {
	var collStats bson.M
	err := h.db.DB.RunCommand(ctx, bson.D{{Key: "collStats", Value: models.LyricsCollection}}).Decode(&collStats)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection stats: %w", err)
	}

	stats := &DatabaseStats{
		DatabaseName: h.db.DB.Name(),
		Collection:   models.LyricsCollection,
		Documents:    int64(number(collStats["count"])),
		DataSize:     number(collStats["size"]) / 1024 / 1024,
		StorageSize:  number(collStats["storageSize"]) / 1024 / 1024,
		IndexSize:    number(collStats["totalIndexSize"]) / 1024 / 1024,
	}
	if stats.Documents > 0 {
		stats.AvgDocSize = number(collStats["size"]) / float64(stats.Documents)
	}
	return stats, nil
}

// number converts the numeric types the server may answer with
func number(v any) float64 {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
