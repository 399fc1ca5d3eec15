// Package catalog supplies the read-only albums, songs and playlists the
// player and lyrics library work against.
package catalog

import (
	"github.com/samber/lo"

	"fossils/internal/models"
)

// Provider is the read-only catalog lookup surface
type Provider interface {
	ListAlbums() []models.Album
	GetAlbum(id string) (*models.Album, bool)
	ListSongsByAlbum(albumID string) []models.Song
	ListSongsByIDs(ids []string) []models.Song
	ListPlaylists() []models.Playlist
	GetPlaylist(id string) (*models.Playlist, bool)
	GetSong(id string) (*models.Song, bool)
	Search(query string) SearchResult
	GetTimedLyrics(songID string) []models.TimedLyric
}

// SearchResult holds the albums and songs matching a query
type SearchResult struct {
	Albums []models.Album `json:"albums"`
	Songs  []models.Song  `json:"songs"`
}

// Catalog is the serialized form of a catalog definition
type Catalog struct {
	Albums    []models.Album    `json:"albums" toml:"albums"`
	Songs     []models.Song     `json:"songs" toml:"songs"`
	Playlists []models.Playlist `json:"playlists" toml:"playlists"`
}

// AlbumNames lists the album names known to p in catalog order
func AlbumNames(p Provider) []string {
	if p == nil {
		return nil
	}
	return lo.Map(p.ListAlbums(), func(a models.Album, _ int) string {
		return a.Name
	})
}

// Empty is a Provider with no content
var Empty Provider = NewStatic(Catalog{})
