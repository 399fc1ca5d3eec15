package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadFile reads a TOML catalog definition
func LoadFile(path string) (*Static, error) {
	var c Catalog
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		slog.Warn("Unknown keys in catalog file", "path", path, "keys", fmt.Sprint(undecoded))
	}

	// Relative audio locators resolve against the catalog file's directory
	base := filepath.Dir(path)
	for i := range c.Songs {
		c.Songs[i].AudioURL = resolveLocator(base, c.Songs[i].AudioURL)
	}

	slog.Info("Catalog loaded",
		"path", path,
		"albums", len(c.Albums),
		"songs", len(c.Songs),
		"playlists", len(c.Playlists))

	return NewStatic(c), nil
}

// resolveLocator joins relative file locators onto base. URLs and absolute
// paths are returned unchanged.
func resolveLocator(base, locator string) string {
	if locator == "" || strings.Contains(locator, "://") || filepath.IsAbs(locator) || strings.HasPrefix(locator, "/") {
		return locator
	}
	return filepath.Join(base, locator)
}

// Open builds the configured catalog. A non-empty dir is scanned for tagged
// audio files; otherwise file is decoded. A missing file yields an empty
// catalog so the lyrics library stays usable without one.
func Open(file, dir string) (Provider, error) {
	if dir != "" {
		return ScanDirectory(dir)
	}
	if file == "" {
		return Empty, nil
	}
	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Catalog file not found, serving an empty catalog", "path", file)
		return Empty, nil
	}
	return LoadFile(file)
}
