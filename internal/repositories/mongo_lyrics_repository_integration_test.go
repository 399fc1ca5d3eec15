//go:build integration

package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fossils/internal/cache"
	"fossils/internal/models"
)

func integrationDatabase(t *testing.T) *models.Database {
	t.Helper()

	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := models.NewDatabase(ctx, url, "fossils-music-test-"+time.Now().Format("20060102150405"))
	require.NoError(t, err)
	require.NoError(t, db.CreateIndexes(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.DB.Drop(ctx)
		_ = db.Close(ctx)
	})
	return db
}

func TestMongoLyricsRepository_CRUD(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := NewMongoLyricsRepository(integrationDatabase(t))
	require.NoError(t, repo.Health(ctx))

	first := models.NewLyricsEntry("Album", "One", "body one")
	second := models.NewLyricsEntry("Album", "Two", "body two")
	second.CreatedAt = first.CreatedAt + 1
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)

	song := "One (live)"
	updated, err := repo.Update(ctx, first.ID, models.LyricsPatch{SongName: &song})
	require.NoError(t, err)
	assert.Equal(t, "One (live)", updated.SongName)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)

	_, err = repo.Update(ctx, "lyrics_missing", models.LyricsPatch{SongName: &song})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), ErrNotFound)
}

func TestCachedLyricsRepository_WithValkey(t *testing.T) {
	url := os.Getenv("VALKEY_URL")
	if url == "" {
		t.Skip("VALKEY_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := cache.NewValkeyMultiLevelCache(url, 100)
	require.NoError(t, err)
	defer c.Close()

	repo := NewCachedLyricsRepository(NewMongoLyricsRepository(integrationDatabase(t)), c)
	repo.Invalidate(ctx)

	entry := models.NewLyricsEntry("Album", "Cached", "body")
	require.NoError(t, repo.Create(ctx, entry))

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got, err := repo.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cached", got.SongName)
}
