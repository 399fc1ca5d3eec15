package lyrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"fossils/internal/models"
)

// record is the persisted layout of the lyrics library
type record struct {
	Version int                  `json:"version"`
	Entries []models.LyricsEntry `json:"entries"`
}

// decodeRecord reads any known layout and upgrades it to the current one.
// Version 1 was a bare JSON array of entries.
func decodeRecord(data []byte) ([]models.LyricsEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var entries []models.LyricsEntry
	version := 1

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode v1 lyrics record: %w", err)
		}
	} else {
		var r record
		if err := json.Unmarshal(trimmed, &r); err != nil {
			return nil, fmt.Errorf("failed to decode lyrics record: %w", err)
		}
		if r.Version > models.CurrentSchemaVersion {
			return nil, fmt.Errorf("lyrics record version %d is newer than supported version %d", r.Version, models.CurrentSchemaVersion)
		}
		entries = r.Entries
		version = r.Version
	}

	return migrateEntries(entries, version), nil
}

func migrateEntries(entries []models.LyricsEntry, fromVersion int) []models.LyricsEntry {
	if fromVersion < models.CurrentSchemaVersion {
		slog.Info("Migrating lyrics record", "from_version", fromVersion, "to_version", models.CurrentSchemaVersion, "entries", len(entries))
	}

	out := make([]models.LyricsEntry, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			e.ID = models.NewLyricsID()
		}
		e.SchemaVersion = models.CurrentSchemaVersion
		out = append(out, e)
	}
	return out
}

func encodeRecord(entries []models.LyricsEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.LyricsEntry{}
	}
	return json.Marshal(record{
		Version: models.CurrentSchemaVersion,
		Entries: entries,
	})
}
