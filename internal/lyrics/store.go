// Package lyrics is the local-first library of user-authored lyrics.
package lyrics

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"fossils/internal/catalog"
	"fossils/internal/models"
	"fossils/internal/search"
	"fossils/internal/storage"
)

// Store keeps the lyrics library in memory and rewrites the whole persisted
// record on every mutation. A mutation only becomes visible once the record
// is durably written.
type Store struct {
	kv      storage.KV
	key     string
	catalog catalog.Provider

	mu       sync.RWMutex
	entries  []models.LyricsEntry
	revision uint64
}

// Option configures a Store
type Option func(*Store)

// WithKey stores the record under key instead of storage.KeyLyrics
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// NewStore loads the record from kv. A record that cannot be decoded is
// moved aside and the store starts empty.
func NewStore(kv storage.KV, albums catalog.Provider, opts ...Option) (*Store, error) {
	s := &Store{
		kv:      kv,
		key:     storage.KeyLyrics,
		catalog: albums,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = catalog.Empty
	}

	data, ok, err := kv.Get(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read lyrics record: %w", err)
	}
	if !ok {
		return s, nil
	}

	entries, err := decodeRecord(data)
	if err != nil {
		slog.Warn("Lyrics record unreadable, starting empty", "key", s.key, "error", err)
		if berr := kv.Set(s.key+".corrupt", data); berr != nil {
			slog.Error("Failed to back up unreadable lyrics record", "key", s.key, "error", berr)
		}
		return s, nil
	}

	s.entries = entries
	return s, nil
}

// GetAll returns every entry in insertion order
func (s *Store) GetAll() []models.LyricsEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Get returns one entry by id
func (s *Store) Get(id string) (*models.LyricsEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	e := s.entries[i]
	return &e, nil
}

// Revision counts committed mutations, including replacements
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Add validates and appends a new entry
func (s *Store) Add(albumName, songName, body string) (*models.LyricsEntry, error) {
	if err := Validate(albumName, songName, body); err != nil {
		return nil, err
	}

	entry := models.NewLyricsEntry(albumName, songName, body)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(slices.Clone(s.entries), *entry)
	if err := s.commitLocked(next); err != nil {
		return nil, err
	}
	return entry, nil
}

// Insert appends an entry created elsewhere, keeping its id and timestamp
func (s *Store) Insert(entry models.LyricsEntry) error {
	if err := Validate(entry.AlbumName, entry.SongName, entry.BengaliLyrics); err != nil {
		return err
	}
	if entry.ID == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	entry.SchemaVersion = models.CurrentSchemaVersion

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(entry.ID) >= 0 {
		return &ValidationError{Field: "id", Message: "already exists"}
	}
	return s.commitLocked(append(slices.Clone(s.entries), entry))
}

// Update replaces all three mutable fields of id
func (s *Store) Update(id, albumName, songName, body string) (*models.LyricsEntry, error) {
	return s.Patch(id, models.FullPatch(albumName, songName, body))
}

// Patch applies the non-nil fields of patch to id. ID and CreatedAt never change.
func (s *Store) Patch(id string, patch models.LyricsPatch) (*models.LyricsEntry, error) {
	if err := ValidatePatch(patch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	next := slices.Clone(s.entries)
	patch.Apply(&next[i])
	if err := s.commitLocked(next); err != nil {
		return nil, err
	}

	updated := next[i]
	return &updated, nil
}

// Delete removes id, returning ErrNotFound when it is absent
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	next := slices.Delete(slices.Clone(s.entries), i, i+1)
	return s.commitLocked(next)
}

// Replace swaps the whole library for entries
func (s *Store) Replace(entries []models.LyricsEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commitLocked(migrateEntries(entries, models.CurrentSchemaVersion))
}

// ReplaceIfUnchanged swaps the library only when no mutation has been
// committed since revision was observed. It reports whether the swap happened.
func (s *Store) ReplaceIfUnchanged(revision uint64, entries []models.LyricsEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.revision != revision {
		return false, nil
	}
	if err := s.commitLocked(migrateEntries(entries, models.CurrentSchemaVersion)); err != nil {
		return false, err
	}
	return true, nil
}

// GetByAlbum returns entries whose album name equals albumName ignoring case
func (s *Store) GetByAlbum(albumName string) []models.LyricsEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Filter(s.entries, func(e models.LyricsEntry, _ int) bool {
		return strings.EqualFold(e.AlbumName, albumName)
	})
}

// GetUniqueAlbums merges album names from stored entries with every catalog
// album, so albums without lyrics still show up. The result is sorted.
func (s *Store) GetUniqueAlbums() []string {
	s.mu.RLock()
	fromEntries := lo.Map(s.entries, func(e models.LyricsEntry, _ int) string {
		return e.AlbumName
	})
	s.mu.RUnlock()

	albums := lo.Uniq(append(fromEntries, catalog.AlbumNames(s.catalog)...))
	slices.Sort(albums)
	return albums
}

// Search matches album or song names fuzzily and bodies by substring
func (s *Store) Search(query string) []models.LyricsEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Filter(s.entries, func(e models.LyricsEntry, _ int) bool {
		return search.FuzzyMatch(e.AlbumName, query) ||
			search.FuzzyMatch(e.SongName, query) ||
			search.ContainsFold(e.BengaliLyrics, query)
	})
}

// commitLocked persists next and makes it current. On failure the previous
// entries stay in place.
func (s *Store) commitLocked(next []models.LyricsEntry) error {
	data, err := encodeRecord(next)
	if err != nil {
		return fmt.Errorf("failed to encode lyrics record: %w", err)
	}
	if err := s.kv.Set(s.key, data); err != nil {
		return fmt.Errorf("failed to persist lyrics record: %w", err)
	}

	s.entries = next
	s.revision++
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.entries, func(e models.LyricsEntry) bool {
		return e.ID == id
	})
}

// Reload re-reads the persisted record, picking up edits made outside this
// process
func (s *Store) Reload() error {
	data, ok, err := s.kv.Get(s.key)
	if err != nil {
		return fmt.Errorf("failed to read lyrics record: %w", err)
	}

	var entries []models.LyricsEntry
	if ok {
		entries, err = decodeRecord(data)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = entries
	s.revision++
	return nil
}
