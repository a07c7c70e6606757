package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so the ambient
// environment cannot leak into the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VABIKO_ARCHIVE_BASE", "VABIKO_ENTITIES_FILE", "VABIKO_PERSONS_CSV",
		"DATABASE_PATH", "STORAGE_PATH", "FACE_CROPS_SUBDIR",
		"WIKIDATA_CACHE_SUBDIR", "THUMBNAILS_SUBDIR", "THUMBNAIL_MAX_SIZE",
		"FACE_ENGINE", "DLIB_MODEL_DIR", "FACE_DNN_CONFIG_PATH",
		"FACE_DNN_MODEL_PATH", "FACE_EMBEDDING_NET_PATH", "FACE_EMBEDDING_MODEL",
		"SIMILARITY_THRESHOLD", "STRONG_MATCH_THRESHOLD", "NUM_INGEST_WORKERS",
		"HOST", "PORT", "MAX_URNS_LIST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	expectedArchive, err := filepath.Abs("./data/export_jpg")
	require.NoError(t, err)
	expectedStorage, err := filepath.Abs(".")
	require.NoError(t, err)

	assert.Equal(t, expectedArchive, cfg.ArchiveBase)
	assert.Equal(t, "./data/vabiko_entities.json", cfg.EntitiesFile)
	assert.Equal(t, "./data/persons.csv", cfg.PersonsCSVFile)
	assert.Equal(t, "faces.db", cfg.DatabasePath)
	assert.Equal(t, expectedStorage, cfg.StoragePath)
	assert.Equal(t, filepath.Join(expectedStorage, DefaultFaceCropsSubDir), cfg.FaceCropsPath)
	assert.Equal(t, filepath.Join(expectedStorage, DefaultWikidataCacheSubDir), cfg.WikidataCachePath)
	assert.Equal(t, filepath.Join(expectedStorage, DefaultThumbnailsSubDir), cfg.ThumbnailsPath)
	assert.Equal(t, 300, cfg.ThumbnailMaxSize)
	assert.Equal(t, EngineDlib, cfg.FaceEngine)
	assert.Equal(t, 0.6, cfg.SimilarityThreshold)
	assert.Equal(t, 0.8, cfg.StrongMatchThreshold)
	assert.Equal(t, 4, cfg.NumIngestWorkers)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, 100, cfg.MaxURNList)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	storage := t.TempDir()
	t.Setenv("VABIKO_ARCHIVE_BASE", "/srv/export")
	t.Setenv("STORAGE_PATH", storage)
	t.Setenv("FACE_CROPS_SUBDIR", "crops")
	t.Setenv("DATABASE_PATH", "/var/lib/vabiko/faces.db")
	t.Setenv("FACE_ENGINE", "dnn")
	t.Setenv("SIMILARITY_THRESHOLD", "0.75")
	t.Setenv("NUM_INGEST_WORKERS", "8")
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "8080")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/srv/export", cfg.ArchiveBase)
	assert.Equal(t, storage, cfg.StoragePath)
	assert.Equal(t, filepath.Join(storage, "crops"), cfg.FaceCropsPath)
	assert.Equal(t, "/var/lib/vabiko/faces.db", cfg.DatabasePath)
	assert.Equal(t, EngineDNN, cfg.FaceEngine)
	assert.Equal(t, 0.75, cfg.SimilarityThreshold)
	assert.Equal(t, 8, cfg.NumIngestWorkers)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("THUMBNAIL_MAX_SIZE", "not-a-number")
	t.Setenv("PORT", "-1")
	t.Setenv("SIMILARITY_THRESHOLD", "high")
	t.Setenv("FACE_ENGINE", "tealeaves")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.ThumbnailMaxSize)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, 0.6, cfg.SimilarityThreshold)
	assert.Equal(t, EngineDlib, cfg.FaceEngine, "unknown engines fall back to dlib")
}
