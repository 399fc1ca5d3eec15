package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fossils/internal/catalog"
	"fossils/internal/models"
	"fossils/internal/repositories"
)

// RouterConfig holds what the HTTP surface is built from
type RouterConfig struct {
	Lyrics  repositories.LyricsRepository
	Catalog catalog.Provider

	// Database adds collection statistics to the admin stats when set
	Database *models.Database

	// TokenSecret protects the mutating lyrics routes when set
	TokenSecret string

	// LogRequests enables per-request logging
	LogRequests bool
}

// NewRouter registers every route on a new gin engine
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.LogRequests {
		router.Use(RequestLogger())
	}
	router.Use(CORS(cfg.TokenSecret != ""))

	provider := cfg.Catalog
	if provider == nil {
		provider = catalog.Empty
	}

	lyricsHandler := NewLyricsHandler(cfg.Lyrics)
	catalogHandler := NewCatalogHandler(provider)
	healthHandler := NewHealthHandler(cfg.Lyrics)
	adminHandler := NewAdminHandler(cfg.Lyrics, cfg.Database)

	api := router.Group("/api")
	{
		api.GET("/health", healthHandler.Health)

		api.GET("/albums", catalogHandler.ListAlbums)
		api.GET("/albums/:id", catalogHandler.GetAlbum)
		api.GET("/albums/:id/songs", catalogHandler.ListAlbumSongs)
		api.GET("/songs/:id", catalogHandler.GetSong)
		api.GET("/playlists", catalogHandler.ListPlaylists)
		api.GET("/playlists/:id", catalogHandler.GetPlaylist)
		api.GET("/search", catalogHandler.Search)
		api.GET("/lyrics/timed/:songId", catalogHandler.TimedLyrics)

		api.GET("/lyrics", lyricsHandler.ListLyrics)
		api.GET("/lyrics/:id", lyricsHandler.GetLyrics)

		mutations := api.Group("/lyrics")
		admin := api.Group("/admin")
		if cfg.TokenSecret != "" {
			mutations.Use(RequireToken(cfg.TokenSecret))
			admin.Use(RequireToken(cfg.TokenSecret))
		}
		mutations.POST("", lyricsHandler.CreateLyrics)
		mutations.PUT("/:id", lyricsHandler.UpdateLyrics)
		mutations.DELETE("/:id", lyricsHandler.DeleteLyrics)

		admin.GET("/stats", adminHandler.GetStats)
		admin.POST("/cache/invalidate", adminHandler.InvalidateCache)
	}

	// global middleware also runs for unmatched routes, so preflight
	// requests are answered before reaching this handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router
}
