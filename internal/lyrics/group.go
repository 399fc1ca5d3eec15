package lyrics

import (
	"strings"

	"github.com/samber/lo"

	"fossils/internal/models"
)

// GroupByAlbum buckets entries under their exact album name, keeping order
// within each bucket
func GroupByAlbum(entries []models.LyricsEntry) map[string][]models.LyricsEntry {
	return lo.GroupBy(entries, func(e models.LyricsEntry) string {
		return e.AlbumName
	})
}

// FilterAlbums keeps album names containing query, ignoring case. A blank
// query keeps everything.
func FilterAlbums(albums []string, query string) []string {
	if strings.TrimSpace(query) == "" {
		return albums
	}
	q := strings.ToLower(query)
	return lo.Filter(albums, func(a string, _ int) bool {
		return strings.Contains(strings.ToLower(a), q)
	})
}
