package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultFaceCropsSubDir     = "extracted_faces"
	DefaultWikidataCacheSubDir = "wikidata_cache"
	DefaultThumbnailsSubDir    = "thumbnails"
)

const (
	defaultNumIngestWorkers     = 4
	defaultMaxURNList           = 100
	defaultThumbnailMaxSize     = 300
	defaultSimilarityThreshold  = 0.6
	defaultStrongMatchThreshold = 0.8
)

// EngineKind selects the face detection/embedding backend.
type EngineKind string

const (
	EngineDlib EngineKind = "dlib"
	EngineDNN  EngineKind = "dnn"
)

type Config struct {
	// archive layout (one directory per URN, ':' stored as '+')
	ArchiveBase string

	// tabular metadata sources
	EntitiesFile   string
	PersonsCSVFile string

	// database path
	DatabasePath string

	// generated asset storage
	StoragePath       string
	FaceCropsPath     string // full-calculated path for extracted face crops
	WikidataCachePath string // full-calculated path for cached reference images
	ThumbnailsPath    string // full-calculated path for browse thumbnails

	// thumbnail generation settings
	ThumbnailMaxSize int

	// face engine selection and model paths
	FaceEngine EngineKind

	// dlib models directory (shape predictor + resnet descriptor files)
	DlibModelDir string

	// DNN model paths (SSD detector + embedding net)
	FaceDNNNetConfigPath  string
	FaceDNNNetModelPath   string
	FaceEmbeddingNetPath  string
	FaceEmbeddingNetModel string

	// similarity thresholds
	SimilarityThreshold  float64
	StrongMatchThreshold float64

	// ingest settings
	NumIngestWorkers int

	// HTTP surface
	Host       string
	Port       int
	MaxURNList int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvFloatOrDefault(envVar string, defaultVal float64) float64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s'. Using default %g. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	archiveBase := getEnvOrDefault("VABIKO_ARCHIVE_BASE", "./data/export_jpg")
	absArchiveBase, err := filepath.Abs(archiveBase)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for archive base '%s': %w", archiveBase, err)
	}

	entitiesFile := getEnvOrDefault("VABIKO_ENTITIES_FILE", "./data/vabiko_entities.json")
	personsCSV := getEnvOrDefault("VABIKO_PERSONS_CSV", "./data/persons.csv")

	dbPath := getEnvOrDefault("DATABASE_PATH", "faces.db")

	storage := getEnvOrDefault("STORAGE_PATH", ".")
	absStorage, err := filepath.Abs(storage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for storage '%s': %w", storage, err)
	}

	cropsSubDir := getEnvOrDefault("FACE_CROPS_SUBDIR", DefaultFaceCropsSubDir)
	absFaceCropsPath := filepath.Join(absStorage, cropsSubDir)

	wikidataSubDir := getEnvOrDefault("WIKIDATA_CACHE_SUBDIR", DefaultWikidataCacheSubDir)
	absWikidataCachePath := filepath.Join(absStorage, wikidataSubDir)

	thumbSubDir := getEnvOrDefault("THUMBNAILS_SUBDIR", DefaultThumbnailsSubDir)
	absThumbnailsPath := filepath.Join(absStorage, thumbSubDir)

	engine := EngineKind(getEnvOrDefault("FACE_ENGINE", string(EngineDlib)))
	if engine != EngineDlib && engine != EngineDNN {
		log.Printf("Warning: Unknown FACE_ENGINE '%s'. Using '%s'.", engine, EngineDlib)
		engine = EngineDlib
	}

	dlibModelDir := getEnvOrDefault("DLIB_MODEL_DIR", "./models")

	faceDNNConfig := getEnvOrDefault("FACE_DNN_CONFIG_PATH", "./models/deploy.prototxt.txt")
	faceDNNModel := getEnvOrDefault("FACE_DNN_MODEL_PATH", "./models/res10_300x300_ssd_iter_140000_fp16.caffemodel")
	faceEmbedNet := getEnvOrDefault("FACE_EMBEDDING_NET_PATH", "./models/nn4.small2.v1.t7")
	faceEmbedModel := getEnvOrDefault("FACE_EMBEDDING_MODEL", "openface")

	cfg := Config{
		ArchiveBase:           absArchiveBase,
		EntitiesFile:          entitiesFile,
		PersonsCSVFile:        personsCSV,
		DatabasePath:          dbPath,
		StoragePath:           absStorage,
		FaceCropsPath:         absFaceCropsPath,
		WikidataCachePath:     absWikidataCachePath,
		ThumbnailsPath:        absThumbnailsPath,
		ThumbnailMaxSize:      getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize),
		FaceEngine:            engine,
		DlibModelDir:          dlibModelDir,
		FaceDNNNetConfigPath:  faceDNNConfig,
		FaceDNNNetModelPath:   faceDNNModel,
		FaceEmbeddingNetPath:  faceEmbedNet,
		FaceEmbeddingNetModel: faceEmbedModel,
		SimilarityThreshold:   getEnvFloatOrDefault("SIMILARITY_THRESHOLD", defaultSimilarityThreshold),
		StrongMatchThreshold:  getEnvFloatOrDefault("STRONG_MATCH_THRESHOLD", defaultStrongMatchThreshold),
		NumIngestWorkers:      getEnvIntOrDefault("NUM_INGEST_WORKERS", defaultNumIngestWorkers),
		Host:                  getEnvOrDefault("HOST", "127.0.0.1"),
		Port:                  getEnvIntOrDefault("PORT", 5000),
		MaxURNList:            getEnvIntOrDefault("MAX_URNS_LIST", defaultMaxURNList),
	}

	return cfg, nil
}
