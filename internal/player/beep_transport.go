//go:build (linux && cgo) || windows || darwin

package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

const (
	positionInterval = 250 * time.Millisecond
	beepEventBuffer  = 64
)

// BeepTransport plays decoded audio through the system speaker
type BeepTransport struct {
	fetcher    Fetcher
	sampleRate beep.SampleRate
	events     chan Event
	done       chan struct{}
	closeOnce  sync.Once

	mu          sync.Mutex
	initialized bool
	load        uint64
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	gain        *effects.Volume
	level       float64
	inMixer     bool
}

// NewBeepTransport creates a speaker-backed transport. Resources are fetched
// fully into memory before decoding.
func NewBeepTransport(fetcher Fetcher) (*BeepTransport, error) {
	if fetcher == nil {
		return nil, errors.New("audio fetcher is required")
	}

	t := &BeepTransport{
		fetcher:    fetcher,
		sampleRate: beep.SampleRate(44100),
		events:     make(chan Event, beepEventBuffer),
		done:       make(chan struct{}),
		level:      1,
	}
	go t.reportPosition()
	return t, nil
}

func (t *BeepTransport) initSpeakerLocked() error {
	if t.initialized {
		return nil
	}
	if err := speaker.Init(t.sampleRate, t.sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	t.initialized = true
	return nil
}

func (t *BeepTransport) Load(ctx context.Context, locator string) (uint64, error) {
	data, err := t.fetcher.Fetch(ctx, locator)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ErrAborted
		}
		return 0, err
	}

	streamer, format, err := decode(locator, data)
	if err != nil {
		return 0, fmt.Errorf("failed to decode %s: %w", locator, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.initSpeakerLocked(); err != nil {
		streamer.Close()
		return 0, err
	}
	if ctx.Err() != nil {
		streamer.Close()
		return 0, ErrAborted
	}

	t.stopLocked()

	t.load++
	t.streamer = streamer
	t.format = format
	t.ctrl = &beep.Ctrl{
		Streamer: beep.Resample(4, format.SampleRate, t.sampleRate, streamer),
		Paused:   true,
	}
	t.gain = &effects.Volume{Streamer: t.ctrl, Base: 2}
	t.applyLevelLocked()

	t.emit(Event{Kind: EventMetadata, Load: t.load, Seconds: t.durationLocked()})
	return t.load, nil
}

func (t *BeepTransport) Play(ctx context.Context) error {
	if ctx.Err() != nil {
		return ErrAborted
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ctrl == nil {
		return ErrNoSong
	}

	speaker.Lock()
	t.ctrl.Paused = false
	speaker.Unlock()

	if !t.inMixer {
		load := t.load
		t.inMixer = true
		speaker.Play(beep.Seq(t.gain, beep.Callback(func() {
			// runs on the speaker goroutine with the speaker locked
			go t.finished(load)
		})))
	}
	return nil
}

func (t *BeepTransport) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ctrl != nil {
		speaker.Lock()
		t.ctrl.Paused = true
		speaker.Unlock()
	}
}

func (t *BeepTransport) Seek(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.streamer == nil {
		return
	}

	samples := t.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if samples < 0 {
		samples = 0
	}
	if samples > t.streamer.Len() {
		samples = t.streamer.Len()
	}

	speaker.Lock()
	err := t.streamer.Seek(samples)
	pos := t.streamer.Position()
	speaker.Unlock()

	if err != nil {
		slog.Warn("Seek failed", "seconds", seconds, "error", err)
		return
	}
	t.emit(Event{Kind: EventPosition, Load: t.load, Seconds: t.format.SampleRate.D(pos).Seconds()})
}

func (t *BeepTransport) SetVolume(v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.level = clampVolume(v)
	t.applyLevelLocked()
}

func (t *BeepTransport) applyLevelLocked() {
	if t.gain == nil {
		return
	}
	speaker.Lock()
	t.gain.Silent = t.level == 0
	if t.level > 0 {
		t.gain.Volume = math.Log2(t.level)
	}
	speaker.Unlock()
}

func (t *BeepTransport) Duration() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.durationLocked()
}

func (t *BeepTransport) durationLocked() float64 {
	if t.streamer == nil {
		return 0
	}
	return t.format.SampleRate.D(t.streamer.Len()).Seconds()
}

func (t *BeepTransport) Events() <-chan Event {
	return t.events
}

func (t *BeepTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	return nil
}

// stopLocked removes the current resource from the speaker
func (t *BeepTransport) stopLocked() {
	if t.initialized {
		speaker.Clear()
	}
	if t.streamer != nil {
		t.streamer.Close()
	}
	t.streamer = nil
	t.ctrl = nil
	t.gain = nil
	t.inMixer = false
}

func (t *BeepTransport) finished(load uint64) {
	t.mu.Lock()
	current := load == t.load
	if current {
		t.inMixer = false
	}
	t.mu.Unlock()

	if current {
		t.deliver(Event{Kind: EventEnded, Load: load})
	}
}

func (t *BeepTransport) reportPosition() {
	ticker := time.NewTicker(positionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.streamer != nil && t.inMixer {
				speaker.Lock()
				paused := t.ctrl.Paused
				pos := t.streamer.Position()
				speaker.Unlock()
				if !paused {
					t.emit(Event{Kind: EventPosition, Load: t.load, Seconds: t.format.SampleRate.D(pos).Seconds()})
				}
			}
			t.mu.Unlock()
		}
	}
}

// emit drops the event when nobody keeps up; positions are periodic anyway
func (t *BeepTransport) emit(ev Event) {
	select {
	case t.events <- ev:
	default:
	}
}

// deliver waits for room in the event buffer until the transport is closed.
// It must not be called with t.mu held.
func (t *BeepTransport) deliver(ev Event) {
	select {
	case t.events <- ev:
	case <-t.done:
	}
}

func decode(locator string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	reader := nopCloser{bytes.NewReader(data)}
	if strings.EqualFold(path.Ext(locator), ".wav") {
		return wav.Decode(reader)
	}
	return mp3.Decode(reader)
}

// nopCloser wraps a bytes.Reader to implement io.ReadCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }

var _ Transport = (*BeepTransport)(nil)
