package testutil

import (
	"fmt"

	"fossils/internal/catalog"
	"fossils/internal/models"
)

// LyricsEntryBuilder provides a fluent interface for creating test lyrics entries
type LyricsEntryBuilder struct {
	entry models.LyricsEntry
}

// NewLyricsEntryBuilder creates a new builder with default values
func NewLyricsEntryBuilder() *LyricsEntryBuilder {
	return &LyricsEntryBuilder{
		entry: models.LyricsEntry{
			ID:            "lyrics_test",
			SchemaVersion: models.CurrentSchemaVersion,
			AlbumName:     TestAlbumName,
			SongName:      "Test Song",
			BengaliLyrics: "আমি তোমায় ভালোবাসি",
			CreatedAt:     1700000000000,
		},
	}
}

// WithID sets the entry ID
func (b *LyricsEntryBuilder) WithID(id string) *LyricsEntryBuilder {
	b.entry.ID = id
	return b
}

// WithAlbum sets the album name
func (b *LyricsEntryBuilder) WithAlbum(album string) *LyricsEntryBuilder {
	b.entry.AlbumName = album
	return b
}

// WithSong sets the song name
func (b *LyricsEntryBuilder) WithSong(song string) *LyricsEntryBuilder {
	b.entry.SongName = song
	return b
}

// WithBody sets the lyrics body
func (b *LyricsEntryBuilder) WithBody(body string) *LyricsEntryBuilder {
	b.entry.BengaliLyrics = body
	return b
}

// WithCreatedAt sets the creation timestamp in unix milliseconds
func (b *LyricsEntryBuilder) WithCreatedAt(ms int64) *LyricsEntryBuilder {
	b.entry.CreatedAt = ms
	return b
}

// Build returns the constructed entry
func (b *LyricsEntryBuilder) Build() models.LyricsEntry {
	return b.entry
}

// Common test data
var (
	TestAlbumName = "Aupodartho"

	// Album ids in catalog order
	TestAlbumIDs = []string{"aupodartho", "album-2", "empty-album", "mixtape"}
)

// CreateTestEntries creates n entries with distinct ids and song names
func CreateTestEntries(n int) []models.LyricsEntry {
	entries := make([]models.LyricsEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, NewLyricsEntryBuilder().
			WithID(fmt.Sprintf("lyrics_%d", i+1)).
			WithSong(fmt.Sprintf("Song %d", i+1)).
			WithCreatedAt(int64(1700000000000+i)).
			Build())
	}
	return entries
}

// CreateTestCatalog returns a small catalog with four albums. The third album
// has no playable songs; the fourth mixes songs from two albums in a playlist.
func CreateTestCatalog() catalog.Catalog {
	song := func(id, name, albumID string, track int) models.Song {
		return models.Song{
			ID:              id,
			Name:            name,
			AlbumID:         albumID,
			AudioURL:        "/audio/" + id + ".mp3",
			DurationSeconds: 180,
			TrackNumber:     track,
		}
	}

	return catalog.Catalog{
		Albums: []models.Album{
			{ID: "aupodartho", Name: "Aupodartho", Image: "/img/aupodartho.jpg", ReleaseYear: "2015"},
			{ID: "album-2", Name: "Album 2", Image: "/img/album-2.jpg", ReleaseYear: "2019"},
			{ID: "empty-album", Name: "Empty Album", ReleaseYear: "2021"},
			{ID: "mixtape", Name: "Mixtape", Image: "/img/mixtape.jpg", ReleaseYear: "2023"},
		},
		Songs: []models.Song{
			song("a1", "Hashnuhana", "aupodartho", 1),
			song("a2", "Dusshopno", "aupodartho", 2),
			song("a3", "Bishadgatha", "aupodartho", 3),
			song("b1", "Shohor", "album-2", 1),
			song("b2", "Nirbashon", "album-2", 2),
			{ID: "e1", Name: "Unreleased", AlbumID: "empty-album", TrackNumber: 1},
			song("m1", "Tape One", "mixtape", 1),
		},
		Playlists: []models.Playlist{
			{ID: "favorites", Name: "Favorites", Songs: []string{"b2", "a1", "m1"}},
		},
	}
}

// CreateTestProvider wraps CreateTestCatalog in a static provider
func CreateTestProvider() *catalog.Static {
	return catalog.NewStatic(CreateTestCatalog())
}
