// Package server assembles the remote lyrics and catalog service from
// configuration and runs it with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fossils/internal/cache"
	"fossils/internal/catalog"
	"fossils/internal/config"
	"fossils/internal/handlers"
	"fossils/internal/lyrics"
	"fossils/internal/models"
	"fossils/internal/repositories"
)

const (
	readTimeout     = 5 * time.Second
	writeTimeout    = 10 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 5 * time.Second
	connectTimeout  = 10 * time.Second
)

// Server is a fully wired HTTP service
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	repo   repositories.CachedLyricsRepository
	store  *lyrics.Store
	cache  cache.Cache
	db     *models.Database
}

// New connects every backend the configuration names and builds the router
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	c, err := cache.New(cfg.ValkeyURL, cfg.CacheL1Items)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	s := &Server{cfg: cfg, cache: c}

	provider, err := catalog.Open(cfg.CatalogFile, cfg.CatalogDir)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	cachedCatalog := catalog.NewCachedProvider(provider, c)

	repo, err := s.openRepository(ctx, cachedCatalog)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.repo = repositories.NewCachedLyricsRepository(repo, c)

	s.router = handlers.NewRouter(handlers.RouterConfig{
		Lyrics:      s.repo,
		Catalog:     cachedCatalog,
		Database:    s.db,
		TokenSecret: cfg.TokenSecret,
		LogRequests: cfg.GinMode == gin.DebugMode,
	})

	slog.Info("Server configured",
		"backend", s.repo.Backend(),
		"catalog_albums", len(provider.ListAlbums()),
		"auth", cfg.TokenSecret != "")
	return s, nil
}

func (s *Server) openRepository(ctx context.Context, albums catalog.Provider) (repositories.LyricsRepository, error) {
	var file, mongo repositories.LyricsRepository

	if s.cfg.LyricsBackend == config.BackendFile || s.cfg.LyricsBackend == config.BackendHybrid {
		store, _, err := lyrics.OpenFile(s.cfg.LyricsFile, albums)
		if err != nil {
			return nil, fmt.Errorf("failed to open lyrics file: %w", err)
		}
		s.store = store
		file = repositories.NewFileLyricsRepository(store)
	}

	if s.cfg.LyricsBackend == config.BackendMongo || s.cfg.LyricsBackend == config.BackendHybrid {
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		db, err := models.NewDatabase(connectCtx, s.cfg.MongodbURL, s.cfg.MongodbDatabase)
		switch {
		case err == nil:
			s.db = db
			if err := db.CreateIndexes(connectCtx); err != nil {
				slog.Warn("Failed to create indexes", "error", err)
			}
			mongo = repositories.NewMongoLyricsRepository(db)
		case s.cfg.LyricsBackend == config.BackendHybrid:
			// the hybrid backend still serves the file while Mongo is down
			slog.Warn("Mongo unreachable at startup, serving lyrics from file", "error", err)
		default:
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	switch {
	case mongo != nil && file != nil:
		return repositories.NewHybridLyricsRepository(mongo, file), nil
	case mongo != nil:
		return mongo, nil
	default:
		return file, nil
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	if s.store != nil && s.cfg.WatchLyricsFile {
		if err := repositories.WatchFile(ctx, s.cfg.LyricsFile, s.reloadLyrics); err != nil {
			slog.Warn("Lyrics file watching disabled", "error", err)
		}
	}

	server := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", server.Addr, "base_url", s.cfg.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-serverErr:
		return err
	}
}

// reloadLyrics picks up edits made to the lyrics file by other processes
func (s *Server) reloadLyrics() {
	if err := s.store.Reload(); err != nil {
		slog.Error("Failed to reload lyrics file", "path", s.cfg.LyricsFile, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.repo.Invalidate(ctx)
	slog.Info("Lyrics file reloaded", "path", s.cfg.LyricsFile)
}

// Close releases the database connection and the cache
func (s *Server) Close(ctx context.Context) {
	if s.db != nil {
		if err := s.db.Close(ctx); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			slog.Warn("Failed to close cache", "error", err)
		}
	}
}
