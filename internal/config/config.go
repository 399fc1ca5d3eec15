package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// LyricsBackend selects where the server keeps lyrics entries
type LyricsBackend string

const (
	BackendFile   LyricsBackend = "file"
	BackendMongo  LyricsBackend = "mongo"
	BackendHybrid LyricsBackend = "hybrid"
)

// Config holds all configuration for the server
type Config struct {
	// Application settings
	Port    string `envconfig:"PORT" default:"8080"`
	GinMode string `envconfig:"GIN_MODE" default:"debug"`
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	// Lyrics storage
	LyricsBackend   LyricsBackend `envconfig:"LYRICS_BACKEND" default:"file"`
	LyricsFile      string        `envconfig:"LYRICS_FILE" default:"./data/lyrics.json"`
	WatchLyricsFile bool          `envconfig:"WATCH_LYRICS_FILE" default:"true"`
	MongodbURL      string        `envconfig:"MONGODB_URL"`
	MongodbDatabase string        `envconfig:"MONGODB_DATABASE" default:"fossils-music"`

	// Caching; an empty VALKEY_URL keeps everything in process memory
	ValkeyURL    string `envconfig:"VALKEY_URL"`
	CacheL1Items int    `envconfig:"CACHE_L1_ITEMS" default:"1000"`

	// Catalog
	CatalogFile string `envconfig:"CATALOG_FILE" default:"./data/catalog.toml"`
	CatalogDir  string `envconfig:"CATALOG_DIR"`

	// TokenSecret enables bearer-token auth on lyrics mutations
	TokenSecret string `envconfig:"API_TOKEN_SECRET"`
}

// Load reads server configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations envconfig cannot express
func (c *Config) Validate() error {
	c.LyricsBackend = LyricsBackend(strings.ToLower(strings.TrimSpace(string(c.LyricsBackend))))

	switch c.LyricsBackend {
	case BackendFile:
		if c.LyricsFile == "" {
			return fmt.Errorf("LYRICS_FILE is required for the file backend")
		}
	case BackendMongo, BackendHybrid:
		if c.MongodbURL == "" {
			return fmt.Errorf("MONGODB_URL is required for the %s backend", c.LyricsBackend)
		}
		if c.LyricsBackend == BackendHybrid && c.LyricsFile == "" {
			return fmt.Errorf("LYRICS_FILE is required for the hybrid backend")
		}
	default:
		return fmt.Errorf("unsupported LYRICS_BACKEND: %q", c.LyricsBackend)
	}

	if c.CacheL1Items <= 0 {
		return fmt.Errorf("CACHE_L1_ITEMS must be positive, got %d", c.CacheL1Items)
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}

// ClientConfig holds configuration for the fossils CLI
type ClientConfig struct {
	RemoteURL     string        `envconfig:"FOSSILS_REMOTE_URL"`
	StateDir      string        `envconfig:"FOSSILS_STATE_DIR" default:"~/.fossils"`
	SyncTimeout   time.Duration `envconfig:"FOSSILS_SYNC_TIMEOUT" default:"5s"`
	PushMutations bool          `envconfig:"FOSSILS_PUSH_MUTATIONS" default:"true"`
	TokenSecret   string        `envconfig:"API_TOKEN_SECRET"`
	CatalogFile   string        `envconfig:"CATALOG_FILE" default:"./data/catalog.toml"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"warn"`

	// SessionValkeyURL keeps the player session in Valkey instead of the
	// state dir, so playback resumes on any machine sharing it
	SessionValkeyURL string `envconfig:"FOSSILS_SESSION_VALKEY_URL"`
}

// LoadClient reads CLI configuration from environment variables
func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	dir, err := expandHome(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state dir: %w", err)
	}
	cfg.StateDir = dir

	if cfg.SyncTimeout <= 0 {
		return nil, fmt.Errorf("FOSSILS_SYNC_TIMEOUT must be positive, got %s", cfg.SyncTimeout)
	}
	return &cfg, nil
}

// SyncEnabled reports whether a remote lyrics service is configured
func (c *ClientConfig) SyncEnabled() bool {
	return strings.TrimSpace(c.RemoteURL) != ""
}

// Level parses LOG_LEVEL, falling back to warn
func (c *ClientConfig) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return level
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
