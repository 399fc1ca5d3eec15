package catalog

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"fossils/internal/models"
	"fossils/internal/search"
)

// Static serves a catalog held entirely in memory
type Static struct {
	albums    []models.Album
	songs     []models.Song
	playlists []models.Playlist

	albumByID    map[string]int
	songByID     map[string]int
	songsByAlbum map[string][]int
}

// NewStatic indexes c. Songs are resolved against their album: a missing
// album name is filled in and the album image takes precedence over the
// song's own.
func NewStatic(c Catalog) *Static {
	s := &Static{
		albums:       slices.Clone(c.Albums),
		playlists:    slices.Clone(c.Playlists),
		albumByID:    make(map[string]int, len(c.Albums)),
		songByID:     make(map[string]int, len(c.Songs)),
		songsByAlbum: make(map[string][]int),
	}

	for i, a := range s.albums {
		if _, dup := s.albumByID[a.ID]; !dup {
			s.albumByID[a.ID] = i
		}
	}

	s.songs = make([]models.Song, 0, len(c.Songs))
	for _, song := range c.Songs {
		if _, dup := s.songByID[song.ID]; dup {
			continue
		}
		song.LyricsTimed = slices.Clone(song.LyricsTimed)
		s.resolveSong(&song)
		s.songByID[song.ID] = len(s.songs)
		s.songs = append(s.songs, song)
	}

	for i, song := range s.songs {
		s.songsByAlbum[song.AlbumID] = append(s.songsByAlbum[song.AlbumID], i)
	}
	for albumID, idx := range s.songsByAlbum {
		slices.SortStableFunc(idx, func(a, b int) int {
			return s.songs[a].TrackNumber - s.songs[b].TrackNumber
		})
		s.songsByAlbum[albumID] = idx
	}

	return s
}

func (s *Static) resolveSong(song *models.Song) {
	album := s.albumFor(song)
	if album != nil {
		if song.AlbumName == "" {
			song.AlbumName = album.Name
		}
		if album.Image != "" {
			song.AlbumImage = album.Image
		}
	}
	if song.Duration == "" && song.DurationSeconds > 0 {
		song.Duration = models.FormatDuration(song.DurationSeconds)
	}
}

// albumFor finds the album by id first, then by name
func (s *Static) albumFor(song *models.Song) *models.Album {
	if i, ok := s.albumByID[song.AlbumID]; ok {
		return &s.albums[i]
	}
	if song.AlbumName == "" {
		return nil
	}
	for i := range s.albums {
		if s.albums[i].Name == song.AlbumName {
			return &s.albums[i]
		}
	}
	return nil
}

func (s *Static) ListAlbums() []models.Album {
	return slices.Clone(s.albums)
}

func (s *Static) GetAlbum(id string) (*models.Album, bool) {
	i, ok := s.albumByID[id]
	if !ok {
		return nil, false
	}
	album := s.albums[i]
	return &album, true
}

// ListSongsByAlbum returns the album's songs ordered by track number
func (s *Static) ListSongsByAlbum(albumID string) []models.Song {
	return s.songsAt(s.songsByAlbum[albumID])
}

// ListSongsByIDs returns the songs in ids order, skipping unknown ids
func (s *Static) ListSongsByIDs(ids []string) []models.Song {
	idx := lo.FilterMap(ids, func(id string, _ int) (int, bool) {
		i, ok := s.songByID[id]
		return i, ok
	})
	return s.songsAt(idx)
}

func (s *Static) ListPlaylists() []models.Playlist {
	return lo.Map(s.playlists, func(p models.Playlist, _ int) models.Playlist {
		p.Songs = slices.Clone(p.Songs)
		return p
	})
}

func (s *Static) GetPlaylist(id string) (*models.Playlist, bool) {
	p, ok := lo.Find(s.playlists, func(p models.Playlist) bool { return p.ID == id })
	if !ok {
		return nil, false
	}
	p.Songs = slices.Clone(p.Songs)
	return &p, true
}

func (s *Static) GetSong(id string) (*models.Song, bool) {
	i, ok := s.songByID[id]
	if !ok {
		return nil, false
	}
	song := s.songs[i]
	song.LyricsTimed = slices.Clone(song.LyricsTimed)
	return &song, true
}

// Search matches albums by name substring or album alias, and songs by name,
// album name or album alias. Matching is case-insensitive.
func (s *Static) Search(query string) SearchResult {
	q := strings.ToLower(query)

	albums := lo.Filter(s.albums, func(a models.Album, _ int) bool {
		return strings.Contains(strings.ToLower(a.Name), q) || search.MatchesAlbumQuery(a.Name, query)
	})

	var songIdx []int
	for i, song := range s.songs {
		if strings.Contains(strings.ToLower(song.Name), q) ||
			strings.Contains(strings.ToLower(song.AlbumName), q) ||
			search.MatchesAlbumQuery(song.AlbumName, query) {
			songIdx = append(songIdx, i)
		}
	}

	return SearchResult{
		Albums: albums,
		Songs:  s.songsAt(songIdx),
	}
}

func (s *Static) GetTimedLyrics(songID string) []models.TimedLyric {
	i, ok := s.songByID[songID]
	if !ok {
		return nil
	}
	return slices.Clone(s.songs[i].LyricsTimed)
}

func (s *Static) songsAt(idx []int) []models.Song {
	out := make([]models.Song, 0, len(idx))
	for _, i := range idx {
		song := s.songs[i]
		song.LyricsTimed = slices.Clone(song.LyricsTimed)
		out = append(out, song)
	}
	return out
}
