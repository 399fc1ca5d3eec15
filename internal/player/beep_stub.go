//go:build !((linux && cgo) || windows || darwin)

package player

import "context"

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio requires cgo for the native sound libraries.
const AudioAvailable = false

// BeepTransport is unavailable in builds without cgo
type BeepTransport struct{}

// NewBeepTransport always fails in builds without cgo
func NewBeepTransport(Fetcher) (*BeepTransport, error) {
	return nil, ErrAudioUnavailable
}

func (t *BeepTransport) Load(context.Context, string) (uint64, error) {
	return 0, ErrAudioUnavailable
}

func (t *BeepTransport) Play(context.Context) error { return ErrAudioUnavailable }
func (t *BeepTransport) Pause()                     {}
func (t *BeepTransport) Seek(float64)               {}
func (t *BeepTransport) SetVolume(float64)          {}
func (t *BeepTransport) Duration() float64          { return 0 }
func (t *BeepTransport) Events() <-chan Event       { return nil }
func (t *BeepTransport) Close() error               { return nil }

var _ Transport = (*BeepTransport)(nil)
