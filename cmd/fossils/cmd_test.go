package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fossils/internal/cache"
	"fossils/internal/config"
	"fossils/internal/lyrics"
	"fossils/internal/models"
	"fossils/internal/player"
	"fossils/internal/storage"
	"fossils/internal/testutil"
)

func newTestEnv(t *testing.T) (*env, *bytes.Buffer) {
	t.Helper()

	kv := storage.NewMemoryKV()
	provider := testutil.CreateTestProvider()
	store, err := lyrics.NewStore(kv, provider)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &env{
		cfg: &config.ClientConfig{
			StateDir:      t.TempDir(),
			SyncTimeout:   time.Second,
			PushMutations: true,
		},
		kv:      kv,
		catalog: provider,
		store:   store,
		in:      strings.NewReader(""),
		out:     out,
	}, out
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestOpenEnv(t *testing.T) {
	cfg := &config.ClientConfig{
		StateDir:    filepath.Join(t.TempDir(), "state"),
		SyncTimeout: time.Second,
		CatalogFile: filepath.Join(t.TempDir(), "absent.toml"),
	}

	e, err := openEnv(cfg, os.Stdin, os.Stdout)
	require.NoError(t, err)
	assert.Nil(t, e.remote)
	assert.Empty(t, e.catalog.ListAlbums())

	_, err = e.store.Add("Album", "Song", "body")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.StateDir, "fossils%3Alyrics.json"))

	cfg.RemoteURL = "http://localhost:1"
	e, err = openEnv(cfg, os.Stdin, os.Stdout)
	require.NoError(t, err)
	assert.NotNil(t, e.remote)
	require.Len(t, e.store.GetAll(), 1)
}

func TestOpenEnv_BadSessionURL(t *testing.T) {
	cfg := &config.ClientConfig{
		StateDir:         t.TempDir(),
		SyncTimeout:      time.Second,
		SessionValkeyURL: "redis://",
	}

	_, err := openEnv(cfg, os.Stdin, os.Stdout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open session store")
}

func TestLyricsCommands(t *testing.T) {
	ctx := testContext(t)
	e, out := newTestEnv(t)

	require.NoError(t, runLyricsList(e, &LyricsListParams{}))
	assert.Contains(t, out.String(), "No lyrics yet.")

	out.Reset()
	require.NoError(t, runLyricsAdd(ctx, e, &LyricsAddParams{Album: "Aupodartho", Song: "Hashnuhana", Body: "prothom line\nditiyo line"}))
	assert.Contains(t, out.String(), "Added lyrics_")

	entries := e.store.GetAll()
	require.Len(t, entries, 1)
	id := entries[0].ID

	out.Reset()
	require.NoError(t, runLyricsList(e, &LyricsListParams{}))
	assert.Contains(t, out.String(), "Aupodartho (1)")
	assert.Contains(t, out.String(), id)

	out.Reset()
	require.NoError(t, runLyricsEdit(ctx, e, &LyricsEditParams{ID: id, Song: "Hashnuhana (live)"}))
	got, err := e.store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Hashnuhana (live)", got.SongName)
	assert.Equal(t, "Aupodartho", got.AlbumName)
	assert.Equal(t, "prothom line\nditiyo line", got.BengaliLyrics)

	out.Reset()
	require.NoError(t, runLyricsSearch(e, &LyricsSearchParams{Query: "ditiyo"}))
	assert.Contains(t, out.String(), id)
	assert.Contains(t, out.String(), "prothom line")

	out.Reset()
	require.NoError(t, runLyricsAlbums(e, &LyricsAlbumsParams{Filter: "aupo"}))
	assert.Equal(t, "Aupodartho (1)\n", out.String())

	out.Reset()
	require.NoError(t, runLyricsRm(ctx, e, &LyricsRmParams{ID: id}))
	assert.Empty(t, e.store.GetAll())

	err = runLyricsRm(ctx, e, &LyricsRmParams{ID: id})
	assert.ErrorIs(t, err, lyrics.ErrNotFound)
}

func TestLyricsAdd_Validation(t *testing.T) {
	e, _ := newTestEnv(t)

	err := runLyricsAdd(testContext(t), e, &LyricsAddParams{Album: "Aupodartho", Song: "Hashnuhana", Body: "   "})
	assert.ErrorIs(t, err, lyrics.ErrValidation)
	assert.Empty(t, e.store.GetAll())
}

func TestLyricsAdd_BodyFromStdin(t *testing.T) {
	e, _ := newTestEnv(t)
	e.in = strings.NewReader("from stdin\n")

	require.NoError(t, runLyricsAdd(testContext(t), e, &LyricsAddParams{Album: "Album 2", Song: "Shohor", File: "-"}))
	entries := e.store.GetAll()
	require.Len(t, entries, 1)
	assert.Equal(t, "from stdin\n", entries[0].BengaliLyrics)
}

func TestReadBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o644))

	body, err := readBody(nil, "", path)
	require.NoError(t, err)
	assert.Equal(t, "from file", body)

	_, err = readBody(nil, "inline", path)
	assert.Error(t, err)

	_, err = readBody(nil, "", filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestLyricsAdd_PushesToRemote(t *testing.T) {
	e, _ := newTestEnv(t)
	remote := &testutil.MockLyricsRemote{}
	remote.On("Create", mock.Anything, mock.AnythingOfType("models.LyricsEntry")).
		Return(&models.LyricsEntry{}, nil).Once()
	e.remote = remote

	require.NoError(t, runLyricsAdd(testContext(t), e, &LyricsAddParams{Album: "Aupodartho", Song: "Hashnuhana", Body: "body"}))
	remote.AssertExpectations(t)
}

func TestSync(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		e, out := newTestEnv(t)
		require.NoError(t, runSync(testContext(t), e))
		assert.Contains(t, out.String(), "No remote configured")
	})

	t.Run("applied", func(t *testing.T) {
		e, out := newTestEnv(t)
		remote := &testutil.MockLyricsRemote{}
		testutil.ExpectRemoteList(remote, testutil.CreateTestEntries(2), nil)
		e.remote = remote

		require.NoError(t, runSync(testContext(t), e))
		assert.Contains(t, out.String(), "Sync applied, 2 entries.")
		assert.Len(t, e.store.GetAll(), 2)
	})

	t.Run("failed keeps local", func(t *testing.T) {
		e, out := newTestEnv(t)
		_, err := e.store.Add("Aupodartho", "Hashnuhana", "body")
		require.NoError(t, err)

		remote := &testutil.MockLyricsRemote{}
		testutil.ExpectRemoteList(remote, nil, errors.New("connection refused"))
		e.remote = remote

		assert.Error(t, runSync(testContext(t), e))
		assert.Contains(t, out.String(), "keeping 1 local entries")
		assert.Len(t, e.store.GetAll(), 1)
	})
}

func TestCatalogCommands(t *testing.T) {
	e, out := newTestEnv(t)

	require.NoError(t, runCatalogAlbums(e))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Aupodartho (3 songs)")

	out.Reset()
	require.NoError(t, runCatalogSongs(e, &CatalogSongsParams{Album: "album-2"}))
	assert.Contains(t, out.String(), "1. Shohor")
	assert.Contains(t, out.String(), "2. Nirbashon")

	assert.Error(t, runCatalogSongs(e, &CatalogSongsParams{Album: "nope"}))

	out.Reset()
	require.NoError(t, runCatalogSearch(e, &CatalogSearchParams{Query: "album 2"}))
	assert.Contains(t, out.String(), "album  album-2")
	assert.Contains(t, out.String(), "song   b1")

	out.Reset()
	require.NoError(t, runCatalogSearch(e, &CatalogSearchParams{Query: "zzzz"}))
	assert.Contains(t, out.String(), "Nothing matches")
}

func simulatedPlayback(sim *player.SimulatedTransport) playback {
	return playback{
		transport: sim,
		clock:     func(ctx context.Context) { sim.RunClock(ctx, 20*time.Millisecond) },
		interval:  5 * time.Millisecond,
	}
}

func TestPlay_StopsAfterTracks(t *testing.T) {
	e, out := newTestEnv(t)
	sim := player.NewSimulatedTransport(0.1)

	err := runPlay(testContext(t), e, &PlayParams{Album: "aupodartho", Track: 1, Volume: 50, Stop: 2}, simulatedPlayback(sim))
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Playing Hashnuhana - Aupodartho")
	assert.Contains(t, out.String(), "Playing Dusshopno - Aupodartho")
	assert.NotContains(t, out.String(), "Playing Bishadgatha")
	assert.Contains(t, out.String(), "vol 50%")

	raw, ok, err := e.kv.Get(storage.KeyVolume)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0.5", string(raw))
}

func TestPlay_SessionInCache(t *testing.T) {
	e, _ := newTestEnv(t)
	shared := cache.NewMemoryCache(0)
	e.kv = storage.NewCacheKV(shared, sessionKeyPrefix)
	sim := player.NewSimulatedTransport(0.1)

	err := runPlay(testContext(t), e, &PlayParams{Album: "aupodartho", Track: 1, Volume: 30, Stop: 1}, simulatedPlayback(sim))
	require.NoError(t, err)

	raw, err := shared.Get(context.Background(), sessionKeyPrefix+storage.KeyVolume)
	require.NoError(t, err)
	assert.Equal(t, "0.3", string(raw))

	raw, err = shared.Get(context.Background(), sessionKeyPrefix+storage.KeyLastSong)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"albumId":"aupodartho"`)
}

func TestPlay_StartsAtTrack(t *testing.T) {
	e, out := newTestEnv(t)
	sim := player.NewSimulatedTransport(0.1)

	err := runPlay(testContext(t), e, &PlayParams{Playlist: "favorites", Track: 2, Volume: -1, Stop: 1}, simulatedPlayback(sim))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Playing Hashnuhana")
	assert.NotContains(t, out.String(), "Playing Nirbashon")
}

func TestPlay_SourceError(t *testing.T) {
	e, _ := newTestEnv(t)
	sim := player.NewSimulatedTransport(0.1)
	sim.FailLoad("/audio/b1.mp3", errors.New("404"))

	err := runPlay(testContext(t), e, &PlayParams{Song: "b1", Track: 1, Volume: -1}, simulatedPlayback(sim))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Audio source error")
}

func TestPlay_Resume(t *testing.T) {
	e, out := newTestEnv(t)

	err := runPlay(testContext(t), e, &PlayParams{Resume: true, Track: 1, Volume: -1}, simulatedPlayback(player.NewSimulatedTransport(0.1)))
	assert.EqualError(t, err, "no saved session to resume")

	song, ok := e.catalog.GetSong("m1")
	require.True(t, ok)
	data, err := json.Marshal(song)
	require.NoError(t, err)
	require.NoError(t, e.kv.Set(storage.KeyLastSong, data))

	err = runPlay(testContext(t), e, &PlayParams{Resume: true, Track: 1, Volume: -1, Stop: 1}, simulatedPlayback(player.NewSimulatedTransport(0.1)))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Playing Tape One - Mixtape")
}

func TestPlay_SelectionIgnoresSavedSong(t *testing.T) {
	e, out := newTestEnv(t)

	song, ok := e.catalog.GetSong("a1")
	require.True(t, ok)
	data, err := json.Marshal(song)
	require.NoError(t, err)
	require.NoError(t, e.kv.Set(storage.KeyLastSong, data))
	require.NoError(t, e.kv.Set(storage.KeyVolume, []byte("0.4")))

	err = runPlay(testContext(t), e, &PlayParams{Album: "aupodartho", Track: 1, Volume: -1, Stop: 2}, simulatedPlayback(player.NewSimulatedTransport(0.1)))
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Playing Hashnuhana - Aupodartho")
	assert.Contains(t, out.String(), "Playing Dusshopno - Aupodartho")
	assert.NotContains(t, out.String(), "Stopped.")
	assert.Contains(t, out.String(), "vol 40%")
}

func TestPickSongs(t *testing.T) {
	e, _ := newTestEnv(t)

	tests := []struct {
		name    string
		params  PlayParams
		wantID  string
		wantLen int
		wantErr string
	}{
		{name: "album first track", params: PlayParams{Album: "album-2", Track: 1}, wantID: "b1", wantLen: 2},
		{name: "album last track", params: PlayParams{Album: "aupodartho", Track: 3}, wantID: "a3", wantLen: 3},
		{name: "song keeps album context", params: PlayParams{Song: "a2", Track: 1}, wantID: "a2", wantLen: 3},
		{name: "playlist order", params: PlayParams{Playlist: "favorites", Track: 3}, wantID: "m1", wantLen: 3},
		{name: "track out of range", params: PlayParams{Album: "album-2", Track: 3}, wantErr: "out of range"},
		{name: "unplayable album", params: PlayParams{Album: "empty-album", Track: 1}, wantErr: "nothing playable"},
		{name: "unplayable song", params: PlayParams{Song: "e1", Track: 1}, wantErr: "not playable"},
		{name: "unknown album", params: PlayParams{Album: "nope", Track: 1}, wantErr: "not found"},
		{name: "no selection", params: PlayParams{Track: 1}, wantErr: "choose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			song, list, err := pickSongs(e, &tt.params)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, song.ID)
			assert.Len(t, list, tt.wantLen)
		})
	}
}
