package player

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const simulatedEventBuffer = 256

// SimulatedTransport is a deterministic Transport driven by a manual clock.
// Nothing advances until Advance is called, or RunClock is running.
type SimulatedTransport struct {
	mu sync.Mutex

	events chan Event

	load            uint64
	locator         string
	duration        float64
	defaultDuration float64
	durations       map[string]float64
	position        float64
	playing         bool
	volume          float64

	loadErrs map[string]error
	playErr  error
	holdPlay chan struct{}

	calls []string
}

// NewSimulatedTransport creates a transport whose resources last
// defaultDuration seconds unless overridden with SetDuration.
func NewSimulatedTransport(defaultDuration float64) *SimulatedTransport {
	return &SimulatedTransport{
		events:          make(chan Event, simulatedEventBuffer),
		defaultDuration: defaultDuration,
		durations:       make(map[string]float64),
		loadErrs:        make(map[string]error),
		volume:          1,
	}
}

// SetDuration overrides the duration reported for locator
func (t *SimulatedTransport) SetDuration(locator string, seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.durations[locator] = seconds
}

// FailLoad makes every Load of locator fail with err
func (t *SimulatedTransport) FailLoad(locator string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loadErrs[locator] = err
}

// FailNextPlay makes the next Play call return err
func (t *SimulatedTransport) FailNextPlay(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playErr = err
}

// HoldNextPlay makes the next Play call block until ReleasePlay is called or
// its context is cancelled.
func (t *SimulatedTransport) HoldNextPlay() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.holdPlay = make(chan struct{})
}

// ReleasePlay unblocks a held Play call
func (t *SimulatedTransport) ReleasePlay() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.holdPlay != nil {
		close(t.holdPlay)
		t.holdPlay = nil
	}
}

func (t *SimulatedTransport) Load(ctx context.Context, locator string) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls = append(t.calls, "load "+locator)
	if err := ctx.Err(); err != nil {
		return 0, ErrAborted
	}
	if err := t.loadErrs[locator]; err != nil {
		return 0, err
	}

	t.load++
	t.locator = locator
	t.position = 0
	t.playing = false
	t.duration = t.defaultDuration
	if d, ok := t.durations[locator]; ok {
		t.duration = d
	}
	t.emitLocked(Event{Kind: EventMetadata, Load: t.load, Seconds: t.duration})
	return t.load, nil
}

func (t *SimulatedTransport) Play(ctx context.Context) error {
	t.mu.Lock()
	t.calls = append(t.calls, "play")
	hold := t.holdPlay
	t.holdPlay = nil
	if err := t.playErr; err != nil {
		t.playErr = nil
		t.mu.Unlock()
		return err
	}
	t.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ErrAborted
		}
	}
	if ctx.Err() != nil {
		return ErrAborted
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.load == 0 {
		return ErrNoSong
	}
	t.playing = true
	return nil
}

func (t *SimulatedTransport) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, "pause")
	t.playing = false
}

func (t *SimulatedTransport) Seek(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, "seek")
	if seconds < 0 {
		seconds = 0
	}
	if t.duration > 0 && seconds > t.duration {
		seconds = t.duration
	}
	t.position = seconds
	t.emitLocked(Event{Kind: EventPosition, Load: t.load, Seconds: t.position})
}

func (t *SimulatedTransport) SetVolume(v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.volume = clampVolume(v)
}

func (t *SimulatedTransport) Duration() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

func (t *SimulatedTransport) Events() <-chan Event {
	return t.events
}

func (t *SimulatedTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
	return nil
}

// Advance moves the clock forward by seconds while playing, emitting a
// position event and, on reaching the end, an ended event.
func (t *SimulatedTransport) Advance(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.playing || t.load == 0 {
		return
	}
	t.position += seconds
	if t.duration > 0 && t.position >= t.duration {
		t.position = t.duration
		t.playing = false
		t.emitLocked(Event{Kind: EventPosition, Load: t.load, Seconds: t.position})
		t.emitLocked(Event{Kind: EventEnded, Load: t.load})
		return
	}
	t.emitLocked(Event{Kind: EventPosition, Load: t.load, Seconds: t.position})
}

// Fail emits an asynchronous resource error for the current load
func (t *SimulatedTransport) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
	t.emitLocked(Event{Kind: EventError, Load: t.load, Err: err})
}

// RunClock advances the clock in real time every tick until ctx is done
func (t *SimulatedTransport) RunClock(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Advance(tick.Seconds())
		}
	}
}

// Locator returns the currently loaded locator
func (t *SimulatedTransport) Locator() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.locator
}

// Position returns the current clock position in seconds
func (t *SimulatedTransport) Position() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position
}

// Playing reports whether the clock is running
func (t *SimulatedTransport) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

// Volume returns the last volume set
func (t *SimulatedTransport) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

// Calls returns the transport operations received so far
func (t *SimulatedTransport) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

func (t *SimulatedTransport) emitLocked(ev Event) {
	select {
	case t.events <- ev:
	default:
		slog.Warn("Simulated transport dropped event", "kind", ev.Kind.String(), "load", ev.Load)
	}
}

var _ Transport = (*SimulatedTransport)(nil)
