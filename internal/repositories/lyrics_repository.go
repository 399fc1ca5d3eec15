package repositories

import (
	"context"

	"fossils/internal/lyrics"
	"fossils/internal/models"
)

// ErrNotFound is returned for operations on an unknown lyrics id
var ErrNotFound = lyrics.ErrNotFound

// LyricsRepository defines the interface for server-side lyrics persistence
type LyricsRepository interface {
	List(ctx context.Context) ([]models.LyricsEntry, error)
	Get(ctx context.Context, id string) (*models.LyricsEntry, error)

	// Create stores entry as is; the caller assigns ID and CreatedAt
	Create(ctx context.Context, entry *models.LyricsEntry) error
	Update(ctx context.Context, id string, patch models.LyricsPatch) (*models.LyricsEntry, error)
	Delete(ctx context.Context, id string) error

	Health(ctx context.Context) error

	// Backend names the storage engine for health reporting
	Backend() string
}

// PrimaryChecker is implemented by repositories that degrade to a fallback
type PrimaryChecker interface {
	PrimaryHealth(ctx context.Context) error
}

// AsPrimaryChecker finds a PrimaryChecker in repo or the repositories it
// wraps
func AsPrimaryChecker(repo LyricsRepository) (PrimaryChecker, bool) {
	for repo != nil {
		if pc, ok := repo.(PrimaryChecker); ok {
			return pc, true
		}
		w, ok := repo.(interface{ Unwrap() LyricsRepository })
		if !ok {
			return nil, false
		}
		repo = w.Unwrap()
	}
	return nil, false
}
