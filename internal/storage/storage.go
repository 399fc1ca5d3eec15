// Package storage provides the durable key/value slots the client keeps its
// session and lyrics record in.
package storage

import (
	"errors"
	"strings"
)

// ErrInvalidKey is returned for keys that cannot name a slot
var ErrInvalidKey = errors.New("invalid storage key")

// KV is a namespaced durable key/value store. Each Set fully replaces the
// value stored under key.
type KV interface {
	// Get returns the stored value and whether the key exists
	Get(key string) ([]byte, bool, error)

	// Set replaces the value stored under key
	Set(key string, value []byte) error

	// Remove deletes key; removing a missing key is not an error
	Remove(key string) error
}

// Well-known keys shared by the player and the lyrics store
const (
	KeyLyrics       = "fossils:lyrics"
	KeyLastSong     = "player:lastSong"
	KeyLastPosition = "player:lastPosition"
	KeyVolume       = "player:volume"
)

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}
