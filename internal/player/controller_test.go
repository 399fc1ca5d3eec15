package player

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fossils/internal/catalog"
	"fossils/internal/models"
	"fossils/internal/storage"
	"fossils/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type controllerFixture struct {
	ctrl      *Controller
	transport *SimulatedTransport
	kv        *storage.MemoryKV
	albums    *catalog.Static
}

func newFixture(t *testing.T) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		transport: NewSimulatedTransport(180),
		kv:        storage.NewMemoryKV(),
		albums:    testutil.CreateTestProvider(),
	}
	f.ctrl = NewController(f.transport, f.albums, f.kv)
	return f
}

func (f *controllerFixture) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.ctrl.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = f.ctrl.Close()
	})
}

func (f *controllerFixture) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.ctrl.WaitIdle(ctx))
}

func (f *controllerFixture) song(t *testing.T, id string) models.Song {
	t.Helper()
	s, ok := f.albums.GetSong(id)
	require.True(t, ok, "song %s", id)
	return *s
}

func (f *controllerFixture) current(t *testing.T) string {
	t.Helper()
	s := f.ctrl.Session()
	require.NotNil(t, s.Song)
	return s.Song.ID
}

func TestController_Idle(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.ctrl.TogglePlay()
	f.ctrl.PlayNext()
	f.ctrl.PlayPrev()
	f.ctrl.Seek(10)
	f.settle(t)

	s := f.ctrl.Session()
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Song)
	assert.False(t, s.Playing)
	assert.Equal(t, 0.0, s.Progress)
	assert.Equal(t, DefaultVolume, s.Volume)
	assert.Empty(t, f.transport.Calls())
}

func TestController_PlaySong(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	album := f.albums.ListSongsByAlbum("aupodartho")
	f.ctrl.PlaySong(album[0], album)

	s := f.ctrl.Session()
	assert.Equal(t, StateLoadedPlaying, s.State)
	assert.True(t, s.Playing)
	assert.Equal(t, "a1", s.Song.ID)
	assert.Len(t, s.Context, 3)

	f.settle(t)
	assert.Equal(t, "/audio/a1.mp3", f.transport.Locator())
	assert.True(t, f.transport.Playing())

	raw, ok, err := f.kv.Get(storage.KeyLastSong)
	require.NoError(t, err)
	require.True(t, ok)
	var saved models.Song
	require.NoError(t, json.Unmarshal(raw, &saved))
	assert.Equal(t, "a1", saved.ID)

	_, ok, err = f.kv.Get(storage.KeyLastPosition)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestController_PlaySameSongToggles(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	album := f.albums.ListSongsByAlbum("aupodartho")
	f.ctrl.PlaySong(album[0], album)
	f.settle(t)

	f.ctrl.PlaySong(album[0], nil)
	s := f.ctrl.Session()
	assert.Equal(t, StateLoadedPaused, s.State)
	assert.Len(t, s.Context, 3, "context queue must be preserved")

	f.settle(t)
	assert.False(t, f.transport.Playing())

	f.ctrl.PlaySong(album[0], nil)
	assert.True(t, f.ctrl.Session().Playing)
	f.settle(t)
	assert.True(t, f.transport.Playing())

	loads := 0
	for _, call := range f.transport.Calls() {
		if call == "load /audio/a1.mp3" {
			loads++
		}
	}
	assert.Equal(t, 1, loads, "toggling must not reload the resource")
}

func TestController_CircularWrapInMixedContext(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	playlist, ok := f.albums.GetPlaylist("favorites")
	require.True(t, ok)
	list := f.albums.ListSongsByIDs(playlist.Songs)
	require.Len(t, list, 3)

	f.ctrl.PlaySong(list[0], list)
	visited := []string{f.current(t)}
	for range list {
		f.ctrl.PlayNext()
		assert.True(t, f.ctrl.Session().Playing)
		visited = append(visited, f.current(t))
	}

	assert.Equal(t, []string{"b2", "a1", "m1", "b2"}, visited)

	f.settle(t)
	assert.Equal(t, "/audio/b2.mp3", f.transport.Locator())
	assert.True(t, f.transport.Playing())
}

func TestController_AlbumRollover(t *testing.T) {
	tests := []struct {
		name        string
		album       string
		expectSong  string
		expectQueue []string
	}{
		{"advances to next album", "aupodartho", "b1", []string{"b1", "b2"}},
		{"skips rollover onto album without playable songs", "album-2", "b1", []string{"b1", "b2"}},
		{"wraps past the last album", "mixtape", "a1", []string{"a1", "a2", "a3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.start(t)

			songs := f.albums.ListSongsByAlbum(tt.album)
			f.ctrl.PlaySong(songs[len(songs)-1], songs)
			f.ctrl.PlayNext()

			s := f.ctrl.Session()
			assert.Equal(t, tt.expectSong, s.Song.ID)
			assert.True(t, s.Playing)

			ids := make([]string, 0, len(s.Context))
			for _, song := range s.Context {
				ids = append(ids, song.ID)
			}
			assert.Equal(t, tt.expectQueue, ids)
		})
	}
}

func TestController_PlayPrevWraps(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	album := f.albums.ListSongsByAlbum("aupodartho")
	f.ctrl.PlaySong(album[0], album)

	f.ctrl.PlayPrev()
	assert.Equal(t, "a3", f.current(t))
	f.ctrl.PlayPrev()
	assert.Equal(t, "a2", f.current(t))
}

func TestController_QueueDrivesNext(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	x, y := f.song(t, "a1"), f.song(t, "b1")
	f.ctrl.AddToQueue(x)
	f.ctrl.AddToQueue(y)
	assert.Len(t, f.ctrl.Queue(), 2)

	f.ctrl.PlaySong(x, nil)
	f.ctrl.PlayNext()

	assert.Equal(t, "b1", f.current(t))
}

func TestController_NextOntoCurrentSongRestarts(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	loose := models.Song{ID: "loose", Name: "Loose", AudioURL: "/audio/loose.mp3"}
	f.ctrl.PlaySong(loose, []models.Song{loose})
	f.settle(t)
	f.transport.Advance(30)
	f.settle(t)

	f.ctrl.PlayNext()
	s := f.ctrl.Session()
	assert.Equal(t, "loose", s.Song.ID)
	assert.True(t, s.Playing)
	assert.Equal(t, 0.0, s.CurrentTime)

	f.settle(t)
	assert.Equal(t, 0.0, f.transport.Position())
	assert.True(t, f.transport.Playing())
}

func TestController_ProgressTracksPosition(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.ctrl.PlaySong(f.song(t, "a1"), nil)
	f.settle(t)

	f.transport.Advance(45)
	f.settle(t)

	s := f.ctrl.Session()
	assert.Equal(t, 45.0, s.CurrentTime)
	assert.Equal(t, 180.0, s.Duration)
	assert.InDelta(t, 25.0, s.Progress, 1e-9)

	f.transport.SetDuration("/audio/a2.mp3", 0)
	f.ctrl.PlaySong(f.song(t, "a2"), nil)
	f.settle(t)
	f.transport.Advance(10)
	f.settle(t)

	s = f.ctrl.Session()
	assert.Equal(t, 10.0, s.CurrentTime)
	assert.Equal(t, 0.0, s.Progress)
}

func TestController_EndedPlaysNext(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	album := f.albums.ListSongsByAlbum("aupodartho")
	f.ctrl.PlaySong(album[0], album)
	f.settle(t)

	f.transport.Advance(180)
	f.settle(t)

	assert.Equal(t, "a2", f.current(t))
	assert.Equal(t, "/audio/a2.mp3", f.transport.Locator())
	assert.True(t, f.transport.Playing())
}

func TestController_EndedWithNothingNextStops(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.ctrl.PlaySong(f.song(t, "a1"), nil)
	f.settle(t)

	f.transport.Advance(200)
	f.settle(t)

	s := f.ctrl.Session()
	assert.Equal(t, "a1", s.Song.ID)
	assert.False(t, s.Playing)
	assert.Equal(t, StateLoadedPaused, s.State)
}

func TestController_LoadFailure(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.transport.FailLoad("/audio/a1.mp3", errors.New("status 404"))
	f.ctrl.PlaySong(f.song(t, "a1"), nil)
	f.settle(t)

	s := f.ctrl.Session()
	assert.Equal(t, StateError, s.State)
	assert.Equal(t, "Audio source error", s.Error)
	assert.False(t, s.Playing)
	assert.Equal(t, "a1", s.Song.ID, "failed song stays current")

	f.ctrl.ClearPlaybackError()
	assert.Equal(t, StateLoadedPaused, f.ctrl.Session().State)

	f.ctrl.PlaySong(f.song(t, "a2"), nil)
	f.settle(t)
	s = f.ctrl.Session()
	assert.Equal(t, StateLoadedPlaying, s.State)
	assert.Empty(t, s.Error)
	assert.True(t, f.transport.Playing())
}

func TestController_PlayRejection(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.transport.FailNextPlay(errors.New("device busy"))
	f.ctrl.PlaySong(f.song(t, "a1"), nil)
	f.settle(t)

	s := f.ctrl.Session()
	assert.Equal(t, StateError, s.State)
	assert.Equal(t, "device busy", s.Error)
	assert.False(t, s.Playing)

	// retry
	f.ctrl.TogglePlay()
	s = f.ctrl.Session()
	assert.Equal(t, StateLoadedPlaying, s.State)
	assert.Empty(t, s.Error)

	f.settle(t)
	assert.True(t, f.transport.Playing())
}

func TestController_SupersededPlayIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.transport.HoldNextPlay()
	f.ctrl.PlaySong(f.song(t, "a1"), nil)
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"load /audio/a1.mp3", "play"}, f.transport.Calls())
	}, time.Second, 5*time.Millisecond)

	f.ctrl.PlaySong(f.song(t, "a2"), nil)
	f.settle(t)

	s := f.ctrl.Session()
	assert.Empty(t, s.Error)
	assert.Equal(t, StateLoadedPlaying, s.State)
	assert.Equal(t, "/audio/a2.mp3", f.transport.Locator())
	assert.True(t, f.transport.Playing())
}

func TestController_PauseDuringPendingPlay(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.transport.HoldNextPlay()
	f.ctrl.PlaySong(f.song(t, "a1"), nil)
	require.Eventually(t, func() bool {
		return len(f.transport.Calls()) == 2
	}, time.Second, 5*time.Millisecond)

	f.ctrl.TogglePlay()
	f.settle(t)

	s := f.ctrl.Session()
	assert.Empty(t, s.Error)
	assert.Equal(t, StateLoadedPaused, s.State)
	assert.False(t, f.transport.Playing())
}

func TestController_AsyncSourceError(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.ctrl.PlaySong(f.song(t, "a1"), nil)
	f.settle(t)

	f.transport.Fail(errors.New("corrupt frame"))
	f.settle(t)

	s := f.ctrl.Session()
	assert.Equal(t, StateError, s.State)
	assert.Equal(t, "Audio source error", s.Error)
	assert.False(t, s.Playing)
}

func TestController_PositionOfPreviousSongIsNotSaved(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.ctrl.PlaySong(f.song(t, "a1"), nil)
	f.settle(t)

	f.transport.Advance(30)
	f.ctrl.PlaySong(f.song(t, "a2"), nil)
	f.settle(t)

	assert.Equal(t, 0.0, f.ctrl.Session().CurrentTime)
	_, ok, err := f.kv.Get(storage.KeyLastPosition)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestController_SeekAndVolume(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.ctrl.PlaySong(f.song(t, "a1"), nil)
	f.settle(t)

	f.ctrl.Seek(60)
	s := f.ctrl.Session()
	assert.Equal(t, 60.0, s.CurrentTime)
	assert.True(t, s.Playing)

	f.settle(t)
	assert.Equal(t, 60.0, f.transport.Position())
	assert.True(t, f.transport.Playing())

	f.ctrl.SetVolume(1.5)
	assert.Equal(t, 1.0, f.ctrl.Session().Volume)
	f.settle(t)
	assert.Equal(t, 1.0, f.transport.Volume())

	raw, ok, err := f.kv.Get(storage.KeyVolume)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", string(raw))

	f.ctrl.SetVolume(-2)
	assert.Equal(t, 0.0, f.ctrl.Session().Volume)
}

func TestController_SavesPositionOncePerSecond(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.ctrl.PlaySong(f.song(t, "a1"), nil)
	f.settle(t)

	f.transport.Advance(12.5)
	f.settle(t)
	f.transport.Advance(0.25)
	f.settle(t)

	raw, ok, err := f.kv.Get(storage.KeyLastPosition)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"a1","time":12.5}`, string(raw))
}

func TestController_Restore(t *testing.T) {
	f := newFixture(t)

	stale := f.song(t, "a2")
	stale.AudioURL = "/old/a2.mp3"
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, f.kv.Set(storage.KeyLastSong, data))
	require.NoError(t, f.kv.Set(storage.KeyLastPosition, []byte(`{"id":"a2","time":42}`)))
	require.NoError(t, f.kv.Set(storage.KeyVolume, []byte("0.4")))

	require.True(t, f.ctrl.Restore())

	s := f.ctrl.Session()
	assert.Equal(t, StateLoadedPaused, s.State)
	assert.Equal(t, "a2", s.Song.ID)
	assert.Equal(t, 42.0, s.CurrentTime)
	assert.Equal(t, 0.4, s.Volume)
	assert.Empty(t, s.Context)

	f.start(t)
	f.settle(t)

	assert.Equal(t, "/audio/a2.mp3", f.transport.Locator(), "catalog copy wins over the saved one")
	assert.Equal(t, 42.0, f.transport.Position())
	assert.False(t, f.transport.Playing())
	assert.Equal(t, 0.4, f.transport.Volume())
}

func TestController_RestoreIgnoresPositionOfOtherSong(t *testing.T) {
	f := newFixture(t)

	data, err := json.Marshal(f.song(t, "b1"))
	require.NoError(t, err)
	require.NoError(t, f.kv.Set(storage.KeyLastSong, data))
	require.NoError(t, f.kv.Set(storage.KeyLastPosition, []byte(`{"id":"a2","time":42}`)))

	require.True(t, f.ctrl.Restore())
	assert.Equal(t, 0.0, f.ctrl.Session().CurrentTime)
	assert.Equal(t, DefaultVolume, f.ctrl.Session().Volume)
}

func TestController_RestoreWithoutSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.kv.Set(storage.KeyLastSong, []byte("{not json")))

	assert.False(t, f.ctrl.Restore())
	assert.Equal(t, StateIdle, f.ctrl.Session().State)

	assert.False(t, NewController(f.transport, nil, nil).Restore())
}

func TestController_RestoreVolumeKeepsSongUnset(t *testing.T) {
	f := newFixture(t)

	data, err := json.Marshal(f.song(t, "a1"))
	require.NoError(t, err)
	require.NoError(t, f.kv.Set(storage.KeyLastSong, data))
	require.NoError(t, f.kv.Set(storage.KeyVolume, []byte("0.25")))

	f.ctrl.RestoreVolume()

	s := f.ctrl.Session()
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Song)
	assert.Equal(t, 0.25, s.Volume)

	// a fresh selection of the saved song plays it with its album
	album := f.albums.ListSongsByAlbum("aupodartho")
	f.ctrl.PlaySong(album[0], album)
	s = f.ctrl.Session()
	assert.True(t, s.Playing)
	assert.Len(t, s.Context, len(album))
}

func TestController_ShowLyrics(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	album := f.albums.ListSongsByAlbum("aupodartho")
	f.ctrl.PlaySong(album[0], album)
	f.settle(t)

	f.ctrl.ShowLyrics(f.song(t, "b1"))
	s := f.ctrl.Session()
	assert.Equal(t, "b1", s.Song.ID)
	assert.False(t, s.Playing)
	assert.Len(t, s.Context, 3, "context queue is untouched")

	f.settle(t)
	assert.Equal(t, "/audio/b1.mp3", f.transport.Locator())
	assert.False(t, f.transport.Playing())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "paused", StateLoadedPaused.String())
	assert.Equal(t, "playing", StateLoadedPlaying.String())
	assert.Equal(t, "error", StateError.String())
	assert.Equal(t, "ended", EventEnded.String())
}
