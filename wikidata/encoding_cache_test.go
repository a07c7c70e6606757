package wikidata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxvl-d/vabiko-demo/media"
)

func TestEncodingCachePutGet(t *testing.T) {
	cache := NewEncodingCache(filepath.Join(t.TempDir(), "encodings.json"))

	_, ok := cache.Get("url-1")
	assert.False(t, ok)

	encodings := []media.Encoding{{0.1, 0.2}, {0.3, 0.4}}
	cache.Put("url-1", encodings)

	got, ok := cache.Get("url-1")
	require.True(t, ok)
	assert.Equal(t, encodings, got)
	assert.Equal(t, 1, cache.Len())
}

func TestEncodingCacheRemembersEmptyResults(t *testing.T) {
	cache := NewEncodingCache(filepath.Join(t.TempDir(), "encodings.json"))

	cache.Put("url-empty", nil)

	got, ok := cache.Get("url-empty")
	assert.True(t, ok, "a face-free portrait is a result, not a miss")
	assert.Empty(t, got)
}

func TestEncodingCachePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encodings.json")

	cache := NewEncodingCache(path)
	cache.Put("url-1", []media.Encoding{{1, 2, 3}})
	cache.Put("url-empty", nil)

	reopened := NewEncodingCache(path)
	assert.Equal(t, 2, reopened.Len())

	got, ok := reopened.Get("url-1")
	require.True(t, ok)
	assert.Equal(t, []media.Encoding{{1, 2, 3}}, got)

	_, ok = reopened.Get("url-empty")
	assert.True(t, ok)
}

func TestEncodingCacheClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encodings.json")

	cache := NewEncodingCache(path)
	cache.Put("url-1", []media.Encoding{{1}})
	require.FileExists(t, path)

	require.NoError(t, cache.Clear())
	assert.Zero(t, cache.Len())
	assert.NoFileExists(t, path)

	_, ok := cache.Get("url-1")
	assert.False(t, ok)

	require.NoError(t, cache.Clear(), "clearing an empty cache is not an error")
}

func TestEncodingCacheStartsFreshOnCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encodings.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	cache := NewEncodingCache(path)
	assert.Zero(t, cache.Len())
}
