package repositories

import (
	"context"

	"fossils/internal/lyrics"
	"fossils/internal/models"
)

// fileLyricsRepository serves lyrics from a lyrics.Store persisted to a JSON file
type fileLyricsRepository struct {
	store *lyrics.Store
}

// NewFileLyricsRepository creates a repository backed by store
func NewFileLyricsRepository(store *lyrics.Store) LyricsRepository {
	return &fileLyricsRepository{store: store}
}

func (r *fileLyricsRepository) List(ctx context.Context) ([]models.LyricsEntry, error) {
	return r.store.GetAll(), nil
}

func (r *fileLyricsRepository) Get(ctx context.Context, id string) (*models.LyricsEntry, error) {
	return r.store.Get(id)
}

func (r *fileLyricsRepository) Create(ctx context.Context, entry *models.LyricsEntry) error {
	return r.store.Insert(*entry)
}

func (r *fileLyricsRepository) Update(ctx context.Context, id string, patch models.LyricsPatch) (*models.LyricsEntry, error) {
	return r.store.Patch(id, patch)
}

func (r *fileLyricsRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(id)
}

func (r *fileLyricsRepository) Health(ctx context.Context) error {
	return nil
}

func (r *fileLyricsRepository) Backend() string {
	return "file"
}
