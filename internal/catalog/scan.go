package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/v2/mp3"

	"fossils/internal/models"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
}

var coverNames = []string{"cover.jpg", "cover.png", "folder.jpg", "folder.png"}

const unknownAlbum = "Unknown Album"

// ScanDirectory builds a catalog from the tagged audio files under dir. Album
// ids are slugs of the album name; a cover image next to the tracks becomes
// the album image.
func ScanDirectory(dir string) (*Static, error) {
	var c Catalog
	albumIndex := make(map[string]int)
	songIDs := make(map[string]int)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		track, err := readTrack(path)
		if err != nil {
			slog.Warn("Failed to read track", "path", path, "error", err)
			return nil
		}

		albumID := Slug(track.album)
		i, ok := albumIndex[albumID]
		if !ok {
			i = len(c.Albums)
			albumIndex[albumID] = i
			c.Albums = append(c.Albums, albumFromTrack(albumID, track, filepath.Dir(path)))
		}

		songID := albumID + "-" + Slug(track.title)
		if n := songIDs[songID]; n > 0 {
			songIDs[songID] = n + 1
			songID = songID + "-" + strconv.Itoa(n+1)
		} else {
			songIDs[songID] = 1
		}

		c.Songs = append(c.Songs, track.song(songID, albumID, c.Albums[i].Name))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	slog.Info("Catalog scanned", "dir", dir, "albums", len(c.Albums), "songs", len(c.Songs))
	return NewStatic(c), nil
}

type scannedTrack struct {
	path     string
	title    string
	album    string
	artist   string
	year     int
	track    int
	duration float64
}

func (t scannedTrack) song(id, albumID, albumName string) models.Song {
	return models.Song{
		ID:              id,
		Name:            t.title,
		AlbumID:         albumID,
		AlbumName:       albumName,
		Artist:          t.artist,
		AudioURL:        t.path,
		DurationSeconds: t.duration,
		Duration:        models.FormatDuration(t.duration),
		TrackNumber:     t.track,
	}
}

func readTrack(path string) (scannedTrack, error) {
	file, err := os.Open(path)
	if err != nil {
		return scannedTrack{}, err
	}
	defer file.Close()

	t := scannedTrack{
		path:  path,
		title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		album: unknownAlbum,
	}

	if m, err := tag.ReadFrom(file); err == nil {
		if m.Title() != "" {
			t.title = m.Title()
		}
		if m.Album() != "" {
			t.album = m.Album()
		}
		t.artist = m.Artist()
		t.year = m.Year()
		t.track, _ = m.Track()
	} else {
		slog.Debug("No tags, using filename", "path", path, "error", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if d, err := probeMP3Duration(path); err == nil {
			t.duration = d
		} else {
			slog.Debug("Failed to probe duration", "path", path, "error", err)
		}
	}

	return t, nil
}

// probeMP3Duration decodes the stream header and returns its length in seconds
func probeMP3Duration(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}

	streamer, format, err := mp3.Decode(file)
	if err != nil {
		file.Close()
		return 0, err
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()).Seconds(), nil
}

func albumFromTrack(id string, t scannedTrack, dir string) models.Album {
	album := models.Album{
		ID:   id,
		Name: t.album,
	}
	if t.year > 0 {
		album.ReleaseYear = strconv.Itoa(t.year)
	}
	for _, name := range coverNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			album.Image = p
			break
		}
	}
	return album
}

// Slug lowercases s and joins its letter and digit runs with dashes
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}
