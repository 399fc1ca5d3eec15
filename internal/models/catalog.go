package models

import (
	"fmt"
	"math"
)

// Album represents a released album in the catalog
type Album struct {
	ID          string `json:"id" toml:"id"`
	Name        string `json:"name" toml:"name"`
	Image       string `json:"image" toml:"image"`
	ReleaseYear string `json:"releaseYear" toml:"release_year"`
	Description string `json:"description,omitempty" toml:"description"`
}

// TimedLyric is a single line of synced lyrics
type TimedLyric struct {
	Time float64 `json:"time" toml:"time"` // seconds
	Text string  `json:"text" toml:"text"`
}

// Song represents a playable track. Songs are immutable once loaded from the catalog.
type Song struct {
	ID              string       `json:"id" toml:"id"`
	Name            string       `json:"name" toml:"name"`
	AlbumID         string       `json:"albumId" toml:"album_id"`
	AlbumName       string       `json:"albumName" toml:"album_name"`
	AlbumImage      string       `json:"albumImage,omitempty" toml:"album_image"`
	Artist          string       `json:"artist,omitempty" toml:"artist"`
	AudioURL        string       `json:"audioUrl" toml:"audio_url"`
	Duration        string       `json:"duration" toml:"duration"`
	DurationSeconds float64      `json:"durationSeconds" toml:"duration_seconds"`
	TrackNumber     int          `json:"trackNumber" toml:"track_number"`
	LyricsTimed     []TimedLyric `json:"lyricsTimed,omitempty" toml:"lyrics_timed"`
}

// Playable reports whether the song has a resource the transport can load
func (s *Song) Playable() bool {
	return s != nil && s.AudioURL != ""
}

// Playlist is an ordered list of song references
type Playlist struct {
	ID          string   `json:"id" toml:"id"`
	Name        string   `json:"name" toml:"name"`
	Description string   `json:"description" toml:"description"`
	Image       string   `json:"image" toml:"image"`
	Songs       []string `json:"songs" toml:"songs"` // Song IDs
}

// Lyrics wraps the timed lines of one song
type Lyrics struct {
	SongID string       `json:"songId"`
	Lines  []TimedLyric `json:"lines"`
}

// FormatDuration renders seconds as m:ss
func FormatDuration(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "0:00"
	}
	total := int(math.Round(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
