package repositories

import (
	"context"
	"log/slog"

	"fossils/internal/models"
)

// hybridLyricsRepository reads and writes the primary and falls back to the
// secondary on any primary error. Successful primary writes are mirrored to
// the fallback so it stays usable when the primary goes away.
type hybridLyricsRepository struct {
	primary  LyricsRepository
	fallback LyricsRepository
}

// NewHybridLyricsRepository creates a repository with primary-then-fallback semantics
func NewHybridLyricsRepository(primary, fallback LyricsRepository) LyricsRepository {
	return &hybridLyricsRepository{
		primary:  primary,
		fallback: fallback,
	}
}

func (r *hybridLyricsRepository) List(ctx context.Context) ([]models.LyricsEntry, error) {
	entries, err := r.primary.List(ctx)
	if err == nil {
		return entries, nil
	}

	slog.Warn("Primary lyrics backend unavailable, using fallback", "operation", "list", "error", err)
	return r.fallback.List(ctx)
}

func (r *hybridLyricsRepository) Get(ctx context.Context, id string) (*models.LyricsEntry, error) {
	entry, err := r.primary.Get(ctx, id)
	if err == nil {
		return entry, nil
	}

	slog.Warn("Primary lyrics backend failed, using fallback", "operation", "get", "id", id, "error", err)
	return r.fallback.Get(ctx, id)
}

func (r *hybridLyricsRepository) Create(ctx context.Context, entry *models.LyricsEntry) error {
	if err := r.primary.Create(ctx, entry); err != nil {
		slog.Warn("Primary lyrics backend failed, using fallback", "operation", "create", "error", err)
		return r.fallback.Create(ctx, entry)
	}

	mirror := *entry
	if err := r.fallback.Create(ctx, &mirror); err != nil {
		slog.Warn("Failed to mirror lyrics to fallback", "operation", "create", "id", entry.ID, "error", err)
	}
	return nil
}

func (r *hybridLyricsRepository) Update(ctx context.Context, id string, patch models.LyricsPatch) (*models.LyricsEntry, error) {
	entry, err := r.primary.Update(ctx, id, patch)
	if err != nil {
		slog.Warn("Primary lyrics backend failed, using fallback", "operation", "update", "id", id, "error", err)
		return r.fallback.Update(ctx, id, patch)
	}

	if _, err := r.fallback.Update(ctx, id, patch); err != nil {
		slog.Warn("Failed to mirror lyrics to fallback", "operation", "update", "id", id, "error", err)
	}
	return entry, nil
}

func (r *hybridLyricsRepository) Delete(ctx context.Context, id string) error {
	if err := r.primary.Delete(ctx, id); err != nil {
		slog.Warn("Primary lyrics backend failed, using fallback", "operation", "delete", "id", id, "error", err)
		return r.fallback.Delete(ctx, id)
	}

	if err := r.fallback.Delete(ctx, id); err != nil {
		slog.Warn("Failed to mirror lyrics to fallback", "operation", "delete", "id", id, "error", err)
	}
	return nil
}

// Health succeeds while either backend can serve requests
func (r *hybridLyricsRepository) Health(ctx context.Context) error {
	if err := r.primary.Health(ctx); err == nil {
		return nil
	}
	return r.fallback.Health(ctx)
}

// PrimaryHealth reports the primary backend alone
func (r *hybridLyricsRepository) PrimaryHealth(ctx context.Context) error {
	return r.primary.Health(ctx)
}

func (r *hybridLyricsRepository) Backend() string {
	return "hybrid"
}
