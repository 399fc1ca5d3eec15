package lyrics

import (
	"fmt"
	"path/filepath"
	"strings"

	"fossils/internal/catalog"
	"fossils/internal/storage"
)

// OpenFile opens a store persisted in a single .json file at path
func OpenFile(path string, albums catalog.Provider) (*Store, *storage.FileKV, error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return nil, nil, fmt.Errorf("lyrics file %s must have a .json extension", path)
	}

	kv, err := storage.NewFileKV(filepath.Dir(path))
	if err != nil {
		return nil, nil, err
	}

	key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if filepath.Base(kv.Path(key)) != filepath.Base(path) {
		return nil, nil, fmt.Errorf("lyrics file name %s must end in .json and avoid %%, : and path separators", filepath.Base(path))
	}
	store, err := NewStore(kv, albums, WithKey(key))
	if err != nil {
		return nil, nil, err
	}
	return store, kv, nil
}
