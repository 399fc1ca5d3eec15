package lyrics

import (
	"strings"

	"fossils/internal/models"
)

// Validate requires album, song and body to be non-blank
func Validate(albumName, songName, body string) error {
	if strings.TrimSpace(albumName) == "" {
		return &ValidationError{Field: "albumName", Message: "is required"}
	}
	if strings.TrimSpace(songName) == "" {
		return &ValidationError{Field: "songName", Message: "is required"}
	}
	if strings.TrimSpace(body) == "" {
		return &ValidationError{Field: "bengaliLyrics", Message: "is required"}
	}
	return nil
}

// ValidatePatch rejects fields that are present but blank
func ValidatePatch(p models.LyricsPatch) error {
	if p.AlbumName != nil && strings.TrimSpace(*p.AlbumName) == "" {
		return &ValidationError{Field: "albumName", Message: "must not be empty"}
	}
	if p.SongName != nil && strings.TrimSpace(*p.SongName) == "" {
		return &ValidationError{Field: "songName", Message: "must not be empty"}
	}
	if p.BengaliLyrics != nil && strings.TrimSpace(*p.BengaliLyrics) == "" {
		return &ValidationError{Field: "bengaliLyrics", Message: "must not be empty"}
	}
	return nil
}
