package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/rxvl-d/vabiko-demo/archive"
	"github.com/rxvl-d/vabiko-demo/media"
	"github.com/rxvl-d/vabiko-demo/metadata"
	"github.com/rxvl-d/vabiko-demo/models"
	"github.com/rxvl-d/vabiko-demo/realtime"
	"github.com/rxvl-d/vabiko-demo/repository"
)

// ErrIngestRunning is returned when a run is requested while another one is
// still in progress.
var ErrIngestRunning = errors.New("an ingestion run is already in progress")

// EngineFactory builds one face engine per worker. Engines hold native
// resources and are not shared between goroutines.
type EngineFactory func() (media.Engine, error)

// IngestReport summarizes one ingestion run. FacesStored counts the faces
// written by this run; TotalFaces is the store-wide count afterwards.
type IngestReport struct {
	JobID       string `json:"job_id"`
	TotalImages int    `json:"total_images"`
	Processed   int    `json:"processed"`
	Failed      int    `json:"failed"`
	FacesStored int    `json:"faces_stored"`
	TotalFaces  int64  `json:"total_faces"`
}

// Ingestor walks archive images through detection and into the face store.
// Runs are idempotent: face rows key on the face hash and name rows ignore
// duplicates, so re-ingesting an image is safe.
type Ingestor struct {
	faceRepo  repository.FaceRepositoryInterface
	nameRepo  repository.ImageNameRepositoryInterface
	archive   *archive.Archive
	catalog   *metadata.EntityIndex
	newEngine EngineFactory
	cropsDir  string
	hub       *realtime.Hub

	mu      sync.Mutex
	running bool
}

// NewIngestor wires the pipeline. catalog and hub may be nil; without a
// catalog no name associations are stored, without a hub no progress events
// are published.
func NewIngestor(
	faceRepo repository.FaceRepositoryInterface,
	nameRepo repository.ImageNameRepositoryInterface,
	arch *archive.Archive,
	catalog *metadata.EntityIndex,
	newEngine EngineFactory,
	cropsDir string,
	hub *realtime.Hub,
) *Ingestor {
	return &Ingestor{
		faceRepo:  faceRepo,
		nameRepo:  nameRepo,
		archive:   arch,
		catalog:   catalog,
		newEngine: newEngine,
		cropsDir:  cropsDir,
		hub:       hub,
	}
}

// IsRunning reports whether a run is currently in progress.
func (ing *Ingestor) IsRunning() bool {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	return ing.running
}

// Run processes the given URNs with numWorkers parallel workers. A failure
// on one image never aborts the run; each failure is counted and the next
// image proceeds. Cancelling ctx stops the run between images and returns
// the partial report alongside the context error. bar may be nil.
func (ing *Ingestor) Run(ctx context.Context, urns []string, numWorkers int, bar *progressbar.ProgressBar) (IngestReport, error) {
	ing.mu.Lock()
	if ing.running {
		ing.mu.Unlock()
		return IngestReport{}, ErrIngestRunning
	}
	ing.running = true
	ing.mu.Unlock()
	defer func() {
		ing.mu.Lock()
		ing.running = false
		ing.mu.Unlock()
	}()

	if numWorkers <= 0 {
		numWorkers = 1
	}

	report := IngestReport{JobID: uuid.New().String(), TotalImages: len(urns)}
	log.Printf("ingest: job %s starting over %d image(s) with %d worker(s)", report.JobID, len(urns), numWorkers)
	ing.publish(realtime.Event{
		Type:  realtime.EventIngestStarted,
		JobID: report.JobID,
		Extra: map[string]any{"total_images": len(urns), "workers": numWorkers},
	})

	var reportMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	urnCh := make(chan string)

	g.Go(func() error {
		defer close(urnCh)
		for _, urn := range urns {
			select {
			case urnCh <- urn:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < numWorkers; i++ {
		workerID := i
		g.Go(func() error {
			engine, err := ing.newEngine()
			if err != nil {
				return fmt.Errorf("worker %d: failed to load face engine: %w", workerID, err)
			}
			defer engine.Close()
			detector := media.NewOrientationDetector(engine)

			for urn := range urnCh {
				faces, err := ing.processImage(detector, urn)

				reportMu.Lock()
				if err != nil {
					report.Failed++
				} else {
					report.Processed++
					report.FacesStored += faces
				}
				reportMu.Unlock()

				status := "processed"
				errMsg := ""
				if err != nil {
					status = "failed"
					errMsg = err.Error()
					log.Printf("ingest: worker %d: failed to process %s: %v", workerID, urn, err)
				}
				ing.publish(realtime.Event{
					Type:   realtime.EventIngestImage,
					JobID:  report.JobID,
					URN:    urn,
					Status: status,
					Error:  errMsg,
				})
				if bar != nil {
					_ = bar.Add(1)
				}

				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
			}
			return nil
		})
	}

	runErr := g.Wait()

	if count, err := ing.faceRepo.Count(); err != nil {
		log.Printf("ingest: failed to count stored faces: %v", err)
	} else {
		report.TotalFaces = count
	}

	ing.publish(realtime.Event{
		Type:  realtime.EventIngestCompleted,
		JobID: report.JobID,
		Extra: map[string]any{
			"processed":    report.Processed,
			"failed":       report.Failed,
			"faces_stored": report.FacesStored,
			"total_faces":  report.TotalFaces,
		},
	})
	log.Printf("ingest: job %s complete: %d processed, %d failed, %d face(s) stored, %d in store",
		report.JobID, report.Processed, report.Failed, report.FacesStored, report.TotalFaces)

	return report, runErr
}

// processImage runs one image through the pipeline and returns how many
// faces it stored. Zero faces is a success; names are only recorded for
// images that contributed faces.
func (ing *Ingestor) processImage(detector *media.OrientationDetector, urn string) (int, error) {
	imagePath, err := ing.archive.FindImagePath(urn)
	if err != nil {
		return 0, err
	}

	img, err := media.LoadImage(imagePath)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s: %w", imagePath, err)
	}

	result := detector.Detect(img)
	if len(result.Regions) == 0 {
		return 0, nil
	}
	if len(result.Encodings) != len(result.Regions) {
		return 0, fmt.Errorf("embedding failed for %s: %d region(s) but %d encoding(s)",
			urn, len(result.Regions), len(result.Encodings))
	}

	if ing.catalog != nil {
		if names := ing.catalog.NamesForImage(urn); len(names) > 0 {
			associations := make([]models.ImageName, 0, len(names))
			for _, name := range names {
				associations = append(associations, models.ImageName{
					ImageURN:    urn,
					UnifiedName: name.UnifiedName,
					DisplayName: name.DisplayName,
				})
			}
			if err := ing.nameRepo.UpsertBatch(associations); err != nil {
				return 0, fmt.Errorf("failed to store names for %s: %w", urn, err)
			}
		}
	}

	stored := 0
	for i, region := range result.Regions {
		faceHash := media.FaceHash(urn, i, region)

		cropPath, err := media.SaveFaceCrop(result.Rotated, region, faceHash, ing.cropsDir)
		if err != nil {
			log.Printf("ingest: failed to save crop for %s face %d: %v", urn, i, err)
			continue
		}

		face := models.Face{
			FaceHash:      faceHash,
			ImageURN:      urn,
			FaceIndex:     i,
			FaceTop:       region.Top,
			FaceRight:     region.Right,
			FaceBottom:    region.Bottom,
			FaceLeft:      region.Left,
			FaceImagePath: cropPath,
		}
		face.SetEncoding(result.Encodings[i])

		if err := ing.faceRepo.Upsert(&face); err != nil {
			log.Printf("ingest: failed to store face %s: %v", faceHash, err)
			continue
		}
		stored++
	}
	return stored, nil
}

func (ing *Ingestor) publish(event realtime.Event) {
	if ing.hub != nil {
		ing.hub.Broadcast(event)
	}
}
