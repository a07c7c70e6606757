package cmd

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/rxvl-d/vabiko-demo/archive"
	"github.com/rxvl-d/vabiko-demo/config"
	"github.com/rxvl-d/vabiko-demo/database"
	"github.com/rxvl-d/vabiko-demo/media"
	"github.com/rxvl-d/vabiko-demo/metadata"
	"github.com/rxvl-d/vabiko-demo/repository"
	"github.com/rxvl-d/vabiko-demo/wikidata"
	"github.com/rxvl-d/vabiko-demo/workers"
)

// encodingCacheFilename sits directly under the storage path, next to the
// cache directories.
const encodingCacheFilename = "wikidata_face_cache.json"

// app bundles the components shared by every command: configuration, the
// face store and the catalog indexes. Catalog files are optional; commands
// degrade to empty indexes when they are missing.
type app struct {
	cfg      config.Config
	gormDB   *gorm.DB
	sqlDB    *sql.DB
	faceRepo *repository.FaceRepository
	nameRepo *repository.ImageNameRepository
	arch     *archive.Archive
	persons  *metadata.PersonDirectory
	entities *metadata.EntityIndex
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	storageDirs := []string{cfg.StoragePath, cfg.FaceCropsPath, cfg.WikidataCachePath, cfg.ThumbnailsPath, filepath.Dir(cfg.DatabasePath)}
	for _, dir := range storageDirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}

	gormDB, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.AutoMigrateModels(gormDB); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying database handle: %w", err)
	}

	persons, err := metadata.LoadPersonDirectory(cfg.PersonsCSVFile)
	if err != nil {
		log.Printf("Warning: failed to load persons file: %v. Name unification disabled.", err)
		persons = metadata.NewPersonDirectory(nil)
	}

	entities, err := metadata.LoadEntityIndex(cfg.EntitiesFile, persons)
	if err != nil {
		log.Printf("Warning: failed to load entities file: %v. Catalog lookups will be empty.", err)
		entities = metadata.NewEntityIndex(nil, persons)
	}

	return &app{
		cfg:      cfg,
		gormDB:   gormDB,
		sqlDB:    sqlDB,
		faceRepo: repository.NewFaceRepository(gormDB),
		nameRepo: repository.NewImageNameRepository(gormDB),
		arch:     archive.New(cfg.ArchiveBase),
		persons:  persons,
		entities: entities,
	}, nil
}

func (a *app) close() {
	if err := a.sqlDB.Close(); err != nil {
		log.Printf("Warning: failed to close database: %v", err)
	}
}

// engineFactory builds one face engine per caller. Engines hold native
// resources, so ingestion workers each get their own.
func (a *app) engineFactory() workers.EngineFactory {
	return func() (media.Engine, error) {
		return media.NewEngineFromConfig(a.cfg)
	}
}

// newCaches builds the Wikidata reference caches under the storage path.
func (a *app) newCaches() (*wikidata.ImageCache, *wikidata.EncodingCache, error) {
	client := wikidata.NewClient()
	imageCache, err := wikidata.NewImageCache(a.cfg.WikidataCachePath, client)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize wikidata image cache: %w", err)
	}
	encodingCache := wikidata.NewEncodingCache(filepath.Join(a.cfg.StoragePath, encodingCacheFilename))
	return imageCache, encodingCache, nil
}
