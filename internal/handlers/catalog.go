package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fossils/internal/catalog"
	"fossils/internal/models"
)

// PlaylistResponse is a playlist with its songs resolved
type PlaylistResponse struct {
	models.Playlist
	Tracks []models.Song `json:"tracks"`
}

// CatalogHandler serves the read-only album and song catalog
type CatalogHandler struct {
	provider catalog.Provider
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(provider catalog.Provider) *CatalogHandler {
	return &CatalogHandler{provider: provider}
}

// ListAlbums handles GET /api/albums
func (h *CatalogHandler) ListAlbums(c *gin.Context) {
	c.JSON(http.StatusOK, nonNil(h.provider.ListAlbums()))
}

// GetAlbum handles GET /api/albums/:id
func (h *CatalogHandler) GetAlbum(c *gin.Context) {
	album, ok := h.provider.GetAlbum(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Album not found"})
		return
	}
	c.JSON(http.StatusOK, album)
}

// ListAlbumSongs handles GET /api/albums/:id/songs
func (h *CatalogHandler) ListAlbumSongs(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.provider.GetAlbum(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Album not found"})
		return
	}
	c.JSON(http.StatusOK, nonNil(h.provider.ListSongsByAlbum(id)))
}

// GetSong handles GET /api/songs/:id
func (h *CatalogHandler) GetSong(c *gin.Context) {
	song, ok := h.provider.GetSong(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Song not found"})
		return
	}
	c.JSON(http.StatusOK, song)
}

// ListPlaylists handles GET /api/playlists
func (h *CatalogHandler) ListPlaylists(c *gin.Context) {
	c.JSON(http.StatusOK, nonNil(h.provider.ListPlaylists()))
}

// GetPlaylist handles GET /api/playlists/:id
func (h *CatalogHandler) GetPlaylist(c *gin.Context) {
	playlist, ok := h.provider.GetPlaylist(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}
	c.JSON(http.StatusOK, PlaylistResponse{
		Playlist: *playlist,
		Tracks:   nonNil(h.provider.ListSongsByIDs(playlist.Songs)),
	})
}

// Search handles GET /api/search?q=
func (h *CatalogHandler) Search(c *gin.Context) {
	result := h.provider.Search(strings.TrimSpace(c.Query("q")))
	result.Albums = nonNil(result.Albums)
	result.Songs = nonNil(result.Songs)
	c.JSON(http.StatusOK, result)
}

// TimedLyrics handles GET /api/lyrics/timed/:songId
func (h *CatalogHandler) TimedLyrics(c *gin.Context) {
	songID := c.Param("songId")
	if _, ok := h.provider.GetSong(songID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Song not found"})
		return
	}
	c.JSON(http.StatusOK, models.Lyrics{
		SongID: songID,
		Lines:  nonNil(h.provider.GetTimedLyrics(songID)),
	})
}

// nonNil keeps empty collections encoded as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
