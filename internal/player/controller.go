package player

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"fossils/internal/catalog"
	"fossils/internal/models"
	"fossils/internal/storage"

	"github.com/samber/lo"
)

// DefaultVolume is used until a volume is set or restored
const DefaultVolume = 0.7

const (
	audioSourceError = "Audio source error"
	playbackFailed   = "Playback failed"
)

// State is the playback state derived from a session
type State int

const (
	StateIdle State = iota
	StateLoadedPaused
	StateLoadedPlaying
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadedPaused:
		return "paused"
	case StateLoadedPlaying:
		return "playing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Session is a snapshot of the controller state
type Session struct {
	State       State
	Song        *models.Song
	Playing     bool
	CurrentTime float64
	Duration    float64
	Progress    float64
	Volume      float64
	Queue       []models.Song
	Context     []models.Song
	Error       string
}

type savedPosition struct {
	ID   string  `json:"id"`
	Time float64 `json:"time"`
}

// Controller owns the playback session and the transport behind it.
//
// Every operation updates the session immediately and wakes the loop in Run,
// which brings the transport in line with the session. Each request that can
// start playback gets its own context; a newer request cancels the previous
// one and the resulting ErrAborted is not reported.
type Controller struct {
	transport Transport
	albums    catalog.Provider
	kv        storage.KV

	wake  chan struct{}
	flush chan chan struct{}

	mu           sync.Mutex
	song         *models.Song
	playing      bool
	currentTime  float64
	duration     float64
	volume       float64
	queue        []models.Song
	contextQueue []models.Song
	errMsg       string

	gen     uint64
	base    context.Context
	stop    context.CancelFunc
	playCtx context.Context
	cancel  context.CancelFunc

	loadReq     uint64
	pendingSeek *float64
	saveSong    *models.Song
	clearPos    bool
	saveVolume  bool

	// owned by Run
	loadedReq        uint64
	loadID           uint64
	transportPlaying bool
	appliedVolume    float64
	lastSaved        int
}

// NewController creates a controller driving t. albums is used for album
// rollover and restore, and kv for session persistence; both may be nil.
func NewController(t Transport, albums catalog.Provider, kv storage.KV) *Controller {
	if albums == nil {
		albums = catalog.Empty
	}

	base, stop := context.WithCancel(context.Background())
	playCtx, cancel := context.WithCancel(base)

	return &Controller{
		transport:     t,
		albums:        albums,
		kv:            kv,
		wake:          make(chan struct{}, 1),
		flush:         make(chan chan struct{}),
		volume:        DefaultVolume,
		base:          base,
		stop:          stop,
		playCtx:       playCtx,
		cancel:        cancel,
		appliedVolume: -1,
		lastSaved:     -1,
	}
}

// Session returns a snapshot of the current state
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Session{
		State:       c.stateLocked(),
		Playing:     c.playing,
		CurrentTime: c.currentTime,
		Duration:    c.duration,
		Volume:      c.volume,
		Queue:       cloneSongs(c.queue),
		Context:     cloneSongs(c.contextQueue),
		Error:       c.errMsg,
	}
	if c.song != nil {
		song := *c.song
		s.Song = &song
		s.Progress = progress(c.currentTime, c.duration)
	}
	return s
}

func (c *Controller) stateLocked() State {
	switch {
	case c.song == nil:
		return StateIdle
	case c.errMsg != "":
		return StateError
	case c.playing:
		return StateLoadedPlaying
	default:
		return StateLoadedPaused
	}
}

func progress(position, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return position / duration * 100
}

// PlaySong starts song with contextQueue as the active list. Playing the
// current song again toggles play and pause instead of restarting.
func (c *Controller) PlaySong(song models.Song, contextQueue []models.Song) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.playSongLocked(song, contextQueue)
	c.signal()
}

func (c *Controller) playSongLocked(song models.Song, contextQueue []models.Song) {
	if c.song != nil && c.song.ID == song.ID {
		c.toggleLocked()
		return
	}

	c.supersedeLocked()
	c.song = &song
	c.contextQueue = cloneSongs(contextQueue)
	c.playing = true
	c.errMsg = ""
	c.currentTime = 0
	c.duration = 0
	c.loadReq++
	c.pendingSeek = nil

	saved := song
	c.saveSong = &saved
	c.clearPos = true
}

// TogglePlay flips between paused and playing. It does nothing when idle.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.toggleLocked()
	c.signal()
}

func (c *Controller) toggleLocked() {
	if c.song == nil {
		return
	}
	c.supersedeLocked()
	c.playing = !c.playing
	if c.playing {
		c.errMsg = ""
	}
}

// PlayNext advances through the active list. Past the last song of a
// single-album list it rolls over to the next album in the catalog.
func (c *Controller) PlayNext() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.playNextLocked()
	c.signal()
}

func (c *Controller) playNextLocked() bool {
	list := c.activeLocked()
	if len(list) == 0 || c.song == nil {
		return false
	}

	idx := indexOf(list, c.song.ID)
	if idx < 0 {
		return false
	}
	if idx < len(list)-1 {
		c.advanceLocked(list[idx+1], list)
		return true
	}
	if next, songs, ok := c.rolloverLocked(list); ok {
		c.advanceLocked(next, songs)
		return true
	}
	c.advanceLocked(list[0], list)
	return true
}

// PlayPrev steps back through the active list, wrapping to its last song
func (c *Controller) PlayPrev() {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.activeLocked()
	if len(list) == 0 || c.song == nil {
		return
	}

	idx := indexOf(list, c.song.ID)
	switch {
	case idx < 0:
		return
	case idx > 0:
		c.advanceLocked(list[idx-1], list)
	default:
		c.advanceLocked(list[len(list)-1], list)
	}
	c.signal()
}

func (c *Controller) activeLocked() []models.Song {
	if len(c.contextQueue) > 0 {
		return c.contextQueue
	}
	return c.queue
}

// advanceLocked plays song with list as context. Advancing onto the
// current song restarts it.
func (c *Controller) advanceLocked(song models.Song, list []models.Song) {
	if c.song == nil || c.song.ID != song.ID {
		c.playSongLocked(song, list)
		return
	}

	c.supersedeLocked()
	c.contextQueue = cloneSongs(list)
	c.playing = true
	c.errMsg = ""
	c.currentTime = 0
	zero := 0.0
	c.pendingSeek = &zero
}

// rolloverLocked picks the first playable song of the album after the
// current one when list holds only songs of the current album.
func (c *Controller) rolloverLocked(list []models.Song) (models.Song, []models.Song, bool) {
	albumID := c.song.AlbumID
	if albumID == "" {
		return models.Song{}, nil, false
	}
	for _, s := range list {
		if s.AlbumID != albumID {
			return models.Song{}, nil, false
		}
	}

	albums := c.albums.ListAlbums()
	_, idx, ok := lo.FindIndexOf(albums, func(a models.Album) bool {
		return a.ID == albumID
	})
	if !ok {
		return models.Song{}, nil, false
	}

	next := albums[(idx+1)%len(albums)]
	songs := lo.Filter(c.albums.ListSongsByAlbum(next.ID), func(s models.Song, _ int) bool {
		return s.Playable()
	})
	if len(songs) == 0 {
		return models.Song{}, nil, false
	}
	return songs[0], songs, true
}

// ShowLyrics makes song current without starting playback. The context
// queue is left alone.
func (c *Controller) ShowLyrics(song models.Song) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.supersedeLocked()
	if c.song == nil || c.song.ID != song.ID {
		c.song = &song
		c.currentTime = 0
		c.duration = 0
		c.loadReq++
		c.pendingSeek = nil
	}
	c.playing = false
	c.errMsg = ""
	c.signal()
}

// Seek moves the playback position without changing play or pause
func (c *Controller) Seek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.song == nil {
		return
	}
	if seconds < 0 || seconds != seconds {
		seconds = 0
	}
	if c.duration > 0 && seconds > c.duration {
		seconds = c.duration
	}
	c.currentTime = seconds
	c.pendingSeek = &seconds
	c.signal()
}

// SetVolume sets the output volume, clamped to [0, 1], and persists it
func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = clampVolume(v)
	c.saveVolume = true
	c.signal()
}

// AddToQueue appends song to the user queue
func (c *Controller) AddToQueue(song models.Song) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, song)
}

// Queue returns the user queue
func (c *Controller) Queue() []models.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneSongs(c.queue)
}

// ClearPlaybackError clears the error without changing playback
func (c *Controller) ClearPlaybackError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = ""
}

// Restore loads the volume and the last played song from storage. The song
// comes back paused, seeked to its saved position once loaded. It reports
// whether a song was restored.
func (c *Controller) Restore() bool {
	if c.kv == nil {
		return false
	}
	c.RestoreVolume()

	var song models.Song
	if !c.load(storage.KeyLastSong, &song) || song.ID == "" {
		return false
	}
	if fresh, ok := c.albums.GetSong(song.ID); ok {
		song = *fresh
	}

	var seek float64
	var pos savedPosition
	if c.load(storage.KeyLastPosition, &pos) && pos.ID == song.ID && pos.Time > 0 {
		seek = pos.Time
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.supersedeLocked()
	c.song = &song
	c.contextQueue = nil
	c.playing = false
	c.errMsg = ""
	c.currentTime = seek
	c.duration = 0
	c.loadReq++
	c.pendingSeek = nil
	if seek > 0 {
		c.pendingSeek = &seek
	}
	c.signal()

	slog.Info("Restored last session", "song_id", song.ID, "position", seek)
	return true
}

// RestoreVolume loads only the saved volume, leaving the current song alone
func (c *Controller) RestoreVolume() {
	if c.kv == nil {
		return
	}

	raw, ok, err := c.kv.Get(storage.KeyVolume)
	if err != nil {
		slog.Warn("Failed to read saved volume", "error", err)
		return
	}
	if !ok {
		return
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		slog.Warn("Ignoring invalid saved volume", "value", string(raw))
		return
	}

	c.mu.Lock()
	c.volume = clampVolume(v)
	c.mu.Unlock()
	c.signal()
}

// Run drives the transport until ctx is done
func (c *Controller) Run(ctx context.Context) error {
	events := c.transport.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.handleEvent(ev)
		case <-c.wake:
			events = c.drainEvents(events)
			c.reconcile()
		case done := <-c.flush:
			events = c.drainEvents(events)
			select {
			case <-c.wake:
				c.reconcile()
			default:
			}
			close(done)
		}
	}
}

// WaitIdle blocks until Run has handled every operation and transport event
// issued before the call.
func (c *Controller) WaitIdle(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case c.flush <- done:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels in-flight requests and closes the transport
func (c *Controller) Close() error {
	c.mu.Lock()
	c.stop()
	c.mu.Unlock()
	return c.transport.Close()
}

func (c *Controller) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) supersedeLocked() {
	c.gen++
	c.cancel()
	c.playCtx, c.cancel = context.WithCancel(c.base)
}

func (c *Controller) drainEvents(events <-chan Event) <-chan Event {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.handleEvent(ev)
		default:
			return events
		}
	}
}

func (c *Controller) handleEvent(ev Event) {
	c.mu.Lock()
	if ev.Load == 0 || ev.Load != c.loadID || c.loadedReq != c.loadReq || c.song == nil {
		c.mu.Unlock()
		return
	}

	switch ev.Kind {
	case EventMetadata:
		c.duration = ev.Seconds
		c.mu.Unlock()
	case EventPosition:
		c.currentTime = ev.Seconds
		id := c.song.ID
		c.mu.Unlock()
		c.savePosition(id, ev.Seconds)
	case EventEnded:
		c.transportPlaying = false
		if !c.playNextLocked() {
			c.playing = false
		}
		c.signal()
		c.mu.Unlock()
	case EventError:
		c.transportPlaying = false
		c.playing = false
		c.errMsg = audioSourceError
		id := c.song.ID
		c.mu.Unlock()
		slog.Warn("Audio source error", "song_id", id, "error", ev.Err)
	default:
		c.mu.Unlock()
	}
}

// reconcile brings the transport in line with the session
func (c *Controller) reconcile() {
	c.persist()

	c.mu.Lock()
	volume := c.volume
	if c.song == nil {
		c.mu.Unlock()
		c.applyVolume(volume)
		return
	}
	song := *c.song
	req, gen, ctx := c.loadReq, c.gen, c.playCtx
	c.mu.Unlock()

	c.applyVolume(volume)

	if req != c.loadedReq {
		c.transportPlaying = false
		id, err := c.transport.Load(ctx, song.AudioURL)
		if err != nil {
			c.fail(gen, song.ID, err, audioSourceError)
			return
		}
		duration := c.transport.Duration()

		c.mu.Lock()
		c.loadedReq = req
		c.loadID = id
		if duration > 0 {
			c.duration = duration
		}
		c.lastSaved = -1
		c.mu.Unlock()
	}

	c.mu.Lock()
	if c.loadReq != c.loadedReq {
		// superseded while loading; the newer request woke Run again
		c.mu.Unlock()
		return
	}
	seek := c.pendingSeek
	c.pendingSeek = nil
	want := c.playing
	gen, ctx = c.gen, c.playCtx
	c.mu.Unlock()

	if seek != nil {
		c.transport.Seek(*seek)
	}

	switch {
	case want && !c.transportPlaying:
		if err := c.transport.Play(ctx); err != nil {
			c.fail(gen, song.ID, err, "")
			return
		}
		c.transportPlaying = true
	case !want && c.transportPlaying:
		c.transport.Pause()
		c.transportPlaying = false
	}
}

func (c *Controller) applyVolume(v float64) {
	if v == c.appliedVolume {
		return
	}
	c.transport.SetVolume(v)
	c.appliedVolume = v
}

// fail records a transport failure unless the request was superseded
func (c *Controller) fail(gen uint64, songID string, err error, message string) {
	if errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) {
		slog.Debug("Playback request superseded", "song_id", songID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		slog.Debug("Ignoring failure of superseded request", "song_id", songID, "error", err)
		return
	}
	if message == "" {
		message = err.Error()
	}
	if message == "" {
		message = playbackFailed
	}
	c.playing = false
	c.errMsg = message
	slog.Warn("Playback failed", "song_id", songID, "error", err)
}

func (c *Controller) persist() {
	c.mu.Lock()
	song, clearPos, saveVolume, volume := c.saveSong, c.clearPos, c.saveVolume, c.volume
	c.saveSong, c.clearPos, c.saveVolume = nil, false, false
	c.mu.Unlock()

	if c.kv == nil {
		return
	}
	if song != nil {
		c.save(storage.KeyLastSong, song)
	}
	if clearPos {
		if err := c.kv.Remove(storage.KeyLastPosition); err != nil {
			slog.Warn("Failed to reset saved position", "error", err)
		}
	}
	if saveVolume {
		value := strconv.FormatFloat(volume, 'f', -1, 64)
		if err := c.kv.Set(storage.KeyVolume, []byte(value)); err != nil {
			slog.Warn("Failed to save volume", "error", err)
		}
	}
}

// savePosition writes the position at most once per whole second
func (c *Controller) savePosition(songID string, seconds float64) {
	if c.kv == nil {
		return
	}
	sec := int(seconds)
	if sec == c.lastSaved {
		return
	}
	c.lastSaved = sec
	c.save(storage.KeyLastPosition, savedPosition{ID: songID, Time: seconds})
}

func (c *Controller) save(key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Failed to encode session value", "key", key, "error", err)
		return
	}
	if err := c.kv.Set(key, data); err != nil {
		slog.Warn("Failed to save session value", "key", key, "error", err)
	}
}

func (c *Controller) load(key string, v interface{}) bool {
	raw, ok, err := c.kv.Get(key)
	if err != nil {
		slog.Warn("Failed to read session value", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		slog.Warn("Ignoring invalid session value", "key", key, "error", err)
		return false
	}
	return true
}

func indexOf(list []models.Song, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneSongs(songs []models.Song) []models.Song {
	if len(songs) == 0 {
		return nil
	}
	return append([]models.Song(nil), songs...)
}
