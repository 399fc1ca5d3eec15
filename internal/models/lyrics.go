package models

import (
	"time"

	"github.com/google/uuid"
)

const CurrentSchemaVersion = 2

// LyricsEntry is one user-authored lyrics record. AlbumName and SongName are
// free text; they are matched against the catalog case-insensitively and
// never act as foreign keys.
type LyricsEntry struct {
	ID            string `bson:"_id" json:"id"`
	SchemaVersion int    `bson:"schema_version" json:"-"`

	AlbumName     string `bson:"album_name" json:"albumName"`
	SongName      string `bson:"song_name" json:"songName"`
	BengaliLyrics string `bson:"bengali_lyrics" json:"bengaliLyrics"`

	// Unix milliseconds, immutable after creation
	CreatedAt int64 `bson:"created_at" json:"createdAt"`
}

// LyricsPatch carries the mutable fields of a LyricsEntry. Nil fields are left untouched.
type LyricsPatch struct {
	AlbumName     *string `json:"albumName,omitempty"`
	SongName      *string `json:"songName,omitempty"`
	BengaliLyrics *string `json:"bengaliLyrics,omitempty"`
}

// NewLyricsID generates a time-ordered, unique lyrics id
func NewLyricsID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "lyrics_" + uuid.NewString()
	}
	return "lyrics_" + id.String()
}

// NewLyricsEntry creates an entry with a fresh id and creation timestamp
func NewLyricsEntry(albumName, songName, body string) *LyricsEntry {
	return &LyricsEntry{
		ID:            NewLyricsID(),
		SchemaVersion: CurrentSchemaVersion,
		AlbumName:     albumName,
		SongName:      songName,
		BengaliLyrics: body,
		CreatedAt:     time.Now().UnixMilli(),
	}
}

// Apply copies the non-nil patch fields onto the entry. ID and CreatedAt are preserved.
func (p LyricsPatch) Apply(e *LyricsEntry) {
	if p.AlbumName != nil {
		e.AlbumName = *p.AlbumName
	}
	if p.SongName != nil {
		e.SongName = *p.SongName
	}
	if p.BengaliLyrics != nil {
		e.BengaliLyrics = *p.BengaliLyrics
	}
}

// FullPatch builds a patch that replaces all three mutable fields
func FullPatch(albumName, songName, body string) LyricsPatch {
	return LyricsPatch{
		AlbumName:     &albumName,
		SongName:      &songName,
		BengaliLyrics: &body,
	}
}
