package player

import (
	"context"
	"errors"
)

var (
	// ErrAborted is returned by Transport.Play when the request was superseded or cancelled
	ErrAborted = errors.New("playback aborted")
	// ErrNoSong is returned by operations that need a current song
	ErrNoSong = errors.New("no song loaded")
	// ErrAudioUnavailable is returned when this build has no audio output
	ErrAudioUnavailable = errors.New("audio output not available in this build")
)

// EventKind identifies a transport notification
type EventKind int

const (
	// EventPosition reports the playback position in Seconds
	EventPosition EventKind = iota
	// EventEnded fires once when the resource plays to its end
	EventEnded
	// EventError reports an asynchronous resource failure in Err
	EventError
	// EventMetadata reports the resource duration in Seconds once it is known
	EventMetadata
)

func (k EventKind) String() string {
	switch k {
	case EventPosition:
		return "position"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	case EventMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// Event is a notification from a Transport. Load is the id returned by the
// Transport.Load call the event belongs to.
type Event struct {
	Kind    EventKind
	Load    uint64
	Seconds float64
	Err     error
}

// Transport wraps one playable media resource at a time.
//
// Load replaces the current resource and returns a new load id that tags
// every event emitted for it. Play blocks until playback has started or was
// rejected; it returns ErrAborted when ctx is cancelled first. Implementations
// must be safe to call from one goroutine while events are read from another.
type Transport interface {
	Load(ctx context.Context, locator string) (uint64, error)
	Play(ctx context.Context) error
	Pause()
	Seek(seconds float64)
	SetVolume(v float64)
	Duration() float64
	Events() <-chan Event
	Close() error
}

// Fetcher loads the bytes behind an audio locator
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

func clampVolume(v float64) float64 {
	switch {
	case v != v: // NaN
		return DefaultVolume
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
