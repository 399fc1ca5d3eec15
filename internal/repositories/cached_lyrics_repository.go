package repositories

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"fossils/internal/cache"
	"fossils/internal/models"
)

// cachedLyricsRepository wraps a LyricsRepository with caching
type cachedLyricsRepository struct {
	repository LyricsRepository
	cache      cache.Cache
}

// CachedLyricsRepository is a LyricsRepository whose cache can be dropped
// when the underlying data changes out of band
type CachedLyricsRepository interface {
	LyricsRepository
	Invalidate(ctx context.Context)
}

// NewCachedLyricsRepository creates a new cached lyrics repository
func NewCachedLyricsRepository(repository LyricsRepository, cache cache.Cache) CachedLyricsRepository {
	return &cachedLyricsRepository{
		repository: repository,
		cache:      cache,
	}
}

// Cache key generators
const lyricsListKey = "lyrics:list"

const lyricsListTTL = 5 * time.Minute

// List checks cache first, then repository
func (r *cachedLyricsRepository) List(ctx context.Context) ([]models.LyricsEntry, error) {
	if data, err := r.cache.Get(ctx, lyricsListKey); err == nil && data != nil {
		var entries []models.LyricsEntry
		if err := json.Unmarshal(data, &entries); err == nil {
			return entries, nil
		}
		slog.Error("Failed to unmarshal lyrics list from cache", "key", lyricsListKey)
		r.cache.Delete(ctx, lyricsListKey)
	}

	entries, err := r.repository.List(ctx)
	if err != nil {
		return nil, err
	}

	r.cacheValue(ctx, lyricsListKey, entries, lyricsListTTL)
	return entries, nil
}

// Get serves from the cached list so a single invalidation covers every read
func (r *cachedLyricsRepository) Get(ctx context.Context, id string) (*models.LyricsEntry, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, ErrNotFound
}

// Create saves to the repository and invalidates cache
func (r *cachedLyricsRepository) Create(ctx context.Context, entry *models.LyricsEntry) error {
	if err := r.repository.Create(ctx, entry); err != nil {
		return err
	}
	r.Invalidate(ctx)
	return nil
}

// Update invalidates cache and updates in repository
func (r *cachedLyricsRepository) Update(ctx context.Context, id string, patch models.LyricsPatch) (*models.LyricsEntry, error) {
	entry, err := r.repository.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	r.Invalidate(ctx)
	return entry, nil
}

// Delete invalidates cache and deletes from repository
func (r *cachedLyricsRepository) Delete(ctx context.Context, id string) error {
	if err := r.repository.Delete(ctx, id); err != nil {
		return err
	}
	r.Invalidate(ctx)
	return nil
}

func (r *cachedLyricsRepository) Health(ctx context.Context) error {
	return r.repository.Health(ctx)
}

func (r *cachedLyricsRepository) Backend() string {
	return r.repository.Backend()
}

// Unwrap returns the wrapped repository
func (r *cachedLyricsRepository) Unwrap() LyricsRepository {
	return r.repository
}

// Invalidate drops the cached list
func (r *cachedLyricsRepository) Invalidate(ctx context.Context) {
	if err := r.cache.Delete(ctx, lyricsListKey); err != nil {
		slog.Error("Failed to invalidate lyrics cache", "key", lyricsListKey, "error", err)
	}
}

func (r *cachedLyricsRepository) cacheValue(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Error("Failed to marshal lyrics for cache", "key", key, "error", err)
		return
	}

	if err := r.cache.Set(ctx, key, data, ttl); err != nil {
		slog.Error("Failed to cache lyrics", "key", key, "error", err)
	}
}
