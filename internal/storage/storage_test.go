package storage

import (
	"os"
	"path/filepath"
	"testing"

	"fossils/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kvImplementations(t *testing.T) map[string]KV {
	fileKV, err := NewFileKV(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)

	return map[string]KV{
		"file":   fileKV,
		"memory": NewMemoryKV(),
		"cache":  NewCacheKV(cache.NewMemoryCache(0), "test:"),
	}
}

func TestKV_RoundTrip(t *testing.T) {
	for name, kv := range kvImplementations(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(KeyVolume)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(KeyVolume, []byte("0.5")))

			value, ok, err := kv.Get(KeyVolume)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []byte("0.5"), value)

			require.NoError(t, kv.Set(KeyVolume, []byte("0.9")))
			value, _, _ = kv.Get(KeyVolume)
			assert.Equal(t, []byte("0.9"), value)

			require.NoError(t, kv.Remove(KeyVolume))
			_, ok, err = kv.Get(KeyVolume)
			require.NoError(t, err)
			assert.False(t, ok)

			// Removing twice is fine
			assert.NoError(t, kv.Remove(KeyVolume))
		})
	}
}

func TestKV_InvalidKey(t *testing.T) {
	for name, kv := range kvImplementations(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := kv.Get("  ")
			assert.ErrorIs(t, err, ErrInvalidKey)
			assert.ErrorIs(t, kv.Set("", []byte("x")), ErrInvalidKey)
		})
	}
}

func TestFileKV_KeyNamesAreSafe(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Set("../escape:key", []byte("x")))

	path := kv.Path("../escape:key")
	assert.Equal(t, dir, filepath.Dir(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFileKV_DistinctKeysDistinctFiles(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	keys := []string{"a:b", "a_b", "a%3Ab", "a/b", "a\\b", "a%2Fb"}
	for _, key := range keys {
		require.NoError(t, kv.Set(key, []byte(key)))
	}
	for _, key := range keys {
		value, ok, err := kv.Get(key)
		require.NoError(t, err)
		require.True(t, ok, key)
		assert.Equal(t, key, string(value))
	}

	entries, err := os.ReadDir(kv.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, len(keys))
}

func TestFileName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"player:volume", "player%3Avolume.json"},
		{"my_lyrics", "my_lyrics.json"},
		{"100%", "100%25.json"},
		{"../up", "..%2Fup.json"},
		{"tab\there", "tab%09here.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fileName(tt.key), tt.key)
	}
}

func TestFileKV_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, kv.Set(KeyLyrics, []byte(`{"version":2,"entries":[]}`)))
	}

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Base(kv.Path(KeyLyrics)), files[0].Name())
}

func TestFileKV_FailedWriteKeepsPreviousValue(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Set(KeyLyrics, []byte("committed")))

	// A directory where the file should be makes the rename fail
	blocked := kv.Path("blocked")
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "child"), 0o755))
	assert.Error(t, kv.Set("blocked", []byte("x")))

	value, ok, err := kv.Get(KeyLyrics)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("committed"), value)
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	value := []byte("abc")
	require.NoError(t, kv.Set("k", value))
	value[0] = 'z'

	stored, _, _ := kv.Get("k")
	assert.Equal(t, []byte("abc"), stored)
}
