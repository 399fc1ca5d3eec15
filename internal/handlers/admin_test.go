package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"fossils/internal/cache"
	"fossils/internal/lyrics"
	"fossils/internal/models"
	"fossils/internal/repositories"
	"fossils/internal/services"
	"fossils/internal/storage"
	"fossils/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *lyrics.Store {
	t.Helper()

	store, err := lyrics.NewStore(storage.NewMemoryKV(), testutil.CreateTestProvider())
	require.NoError(t, err)

	entries := testutil.CreateTestEntries(6)
	entries[4].AlbumName = "Album 2"
	entries[5].AlbumName = "Album 2"
	require.NoError(t, store.Replace(entries))
	return store
}

func TestAdminHandler_Stats(t *testing.T) {
	helper := testutil.NewHTTPTestHelper(t)
	helper.SetRouter(NewRouter(RouterConfig{
		Lyrics: repositories.NewFileLyricsRepository(seededStore(t)),
	}))

	var stats LibraryStats
	helper.AssertJSONResponse(helper.GetJSON("/api/admin/stats"), http.StatusOK, &stats)

	assert.Equal(t, "file", stats.Backend)
	assert.Equal(t, 6, stats.TotalEntries)
	assert.Equal(t, []AlbumStats{
		{Name: testutil.TestAlbumName, Entries: 4},
		{Name: "Album 2", Entries: 2},
	}, stats.Albums)
	assert.Nil(t, stats.Database)

	require.Len(t, stats.RecentActivity, recentEntries)
	assert.Equal(t, "lyrics_6", stats.RecentActivity[0].ID)
	assert.Equal(t, "lyrics_2", stats.RecentActivity[recentEntries-1].ID)
}

func TestCollectLibraryStats_TiesSortByName(t *testing.T) {
	entries := []models.LyricsEntry{
		testutil.NewLyricsEntryBuilder().WithID("lyrics_b").WithAlbum("Beta").Build(),
		testutil.NewLyricsEntryBuilder().WithID("lyrics_a").WithAlbum("Alpha").Build(),
	}

	stats := collectLibraryStats(entries)
	require.Len(t, stats.Albums, 2)
	assert.Equal(t, "Alpha", stats.Albums[0].Name)
	assert.Equal(t, "Beta", stats.Albums[1].Name)

	empty := collectLibraryStats(nil)
	assert.Zero(t, empty.TotalEntries)
	assert.Empty(t, empty.Albums)
	assert.Empty(t, empty.RecentActivity)
}

func TestAdminHandler_StatsRepositoryFailure(t *testing.T) {
	repo := &testutil.MockLyricsRepository{BackendName: "mongo"}
	repo.On("List", mock.Anything).Return(nil, errors.New("connection reset"))

	helper := testutil.NewHTTPTestHelper(t)
	helper.SetRouter(NewRouter(RouterConfig{Lyrics: repo}))

	helper.AssertErrorResponse(helper.GetJSON("/api/admin/stats"), http.StatusInternalServerError, "Failed to collect library statistics")
	repo.AssertExpectations(t)
}

func TestAdminHandler_InvalidateCache(t *testing.T) {
	store := seededStore(t)
	file := repositories.NewFileLyricsRepository(store)

	tests := []struct {
		name   string
		repo   repositories.LyricsRepository
		cached bool
	}{
		{name: "uncached", repo: file, cached: false},
		{name: "cached", repo: repositories.NewCachedLyricsRepository(file, cache.NewMemoryCache(10)), cached: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			helper := testutil.NewHTTPTestHelper(t)
			helper.SetRouter(NewRouter(RouterConfig{Lyrics: tt.repo}))

			var body map[string]bool
			helper.AssertJSONResponse(helper.PostJSON("/api/admin/cache/invalidate", nil), http.StatusOK, &body)
			assert.True(t, body["ok"])
			assert.Equal(t, tt.cached, body["cached"])
		})
	}
}

func TestAdminHandler_InvalidateDropsStaleList(t *testing.T) {
	store := seededStore(t)
	repo := repositories.NewCachedLyricsRepository(repositories.NewFileLyricsRepository(store), cache.NewMemoryCache(10))

	helper := testutil.NewHTTPTestHelper(t)
	helper.SetRouter(NewRouter(RouterConfig{Lyrics: repo}))

	var listed []models.LyricsEntry
	helper.AssertJSONResponse(helper.GetJSON("/api/lyrics"), http.StatusOK, &listed)
	require.Len(t, listed, 6)

	// an edit that bypasses the repository, as the file watcher sees it
	require.NoError(t, store.Replace(testutil.CreateTestEntries(2)))
	helper.AssertJSONResponse(helper.GetJSON("/api/lyrics"), http.StatusOK, &listed)
	assert.Len(t, listed, 6)

	assert.Equal(t, http.StatusOK, helper.PostJSON("/api/admin/cache/invalidate", nil).Code)
	helper.AssertJSONResponse(helper.GetJSON("/api/lyrics"), http.StatusOK, &listed)
	assert.Len(t, listed, 2)
}

func TestAdminHandler_TokenProtected(t *testing.T) {
	const secret = "admin-secret"

	helper := testutil.NewHTTPTestHelper(t)
	helper.SetRouter(NewRouter(RouterConfig{
		Lyrics:      repositories.NewFileLyricsRepository(seededStore(t)),
		TokenSecret: secret,
	}))

	helper.AssertErrorResponse(helper.GetJSON("/api/admin/stats"), http.StatusUnauthorized, "Missing bearer token")
	helper.AssertErrorResponse(helper.PostJSON("/api/admin/cache/invalidate", nil), http.StatusUnauthorized, "Missing bearer token")

	token, err := services.SignToken(secret, "admin", time.Minute)
	require.NoError(t, err)
	recorder := helper.Do(http.MethodGet, "/api/admin/stats", nil, map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	})
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestNumber(t *testing.T) {
	assert.Equal(t, 3.0, number(int32(3)))
	assert.Equal(t, 4.0, number(int64(4)))
	assert.Equal(t, 2.5, number(2.5))
	assert.Zero(t, number("7"))
	assert.Zero(t, number(nil))
}
