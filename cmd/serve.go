package cmd

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/rxvl-d/vabiko-demo/handlers"
	"github.com/rxvl-d/vabiko-demo/media"
	"github.com/rxvl-d/vabiko-demo/realtime"
	"github.com/rxvl-d/vabiko-demo/services"
	"github.com/rxvl-d/vabiko-demo/workers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the backend that the demo frontends talk to: archive browsing,
face browsing and similarity search, person matching against Wikidata
portraits, and background ingestion with websocket progress events.`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "bind address (overrides HOST)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer a.close()

	host := mustGetString(cmd, "host")
	if host == "" {
		host = a.cfg.Host
	}
	port := mustGetInt(cmd, "port")
	if port == 0 {
		port = a.cfg.Port
	}

	// the server keeps one long-lived engine for previews and matching;
	// ingestion workers create their own via the factory
	engine, err := media.NewEngineFromConfig(a.cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to load face detection models: %v", err)
	}
	defer engine.Close()
	detector := media.NewOrientationDetector(engine)

	imageCache, encodingCache, err := a.newCaches()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	ingestor := workers.NewIngestor(a.faceRepo, a.nameRepo, a.arch, a.entities, a.engineFactory(), a.cfg.FaceCropsPath, hub)
	faceService := services.NewFaceService(a.faceRepo, a.nameRepo, a.sqlDB)
	matcher := services.NewPersonMatcher(a.faceRepo, detector, a.arch, imageCache, encodingCache, a.cfg.SimilarityThreshold)

	log.Printf("Serving archive from: %s", a.cfg.ArchiveBase)
	log.Printf("Using database: %s", a.cfg.DatabasePath)
	log.Printf("Storing face crops in: %s", a.cfg.FaceCropsPath)
	log.Printf("Similarity threshold: %.2f", a.cfg.SimilarityThreshold)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	archiveHandler := &handlers.ArchiveHandler{Archive: a.arch, Cfg: a.cfg}
	peopleHandler := &handlers.PeopleHandler{Index: a.entities}
	facesHandler := &handlers.FacesHandler{Service: faceService, Cfg: a.cfg}
	matchHandler := &handlers.MatchHandler{Matcher: matcher, Persons: a.persons, Index: a.entities}
	ingestHandler := &handlers.IngestHandler{Ingestor: ingestor, Archive: a.arch, Cfg: a.cfg}
	wikidataHandler := &handlers.WikidataHandler{Images: imageCache, Encodings: encodingCache}
	previewHandler := &handlers.PreviewHandler{Archive: a.arch, Detector: detector}
	exportHandler := &handlers.ExportHandler{FaceRepo: a.faceRepo, NameRepo: a.nameRepo, Persons: a.persons}

	r.Route("/api", func(r chi.Router) {
		r.Get("/interfaces", archiveHandler.GetInterfaces)
		r.Get("/list", archiveHandler.ListURNs)

		r.Route("/urn/{urn}", func(r chi.Router) {
			r.Get("/", archiveHandler.GetURN)
			r.Get("/exif", archiveHandler.GetImageExif)
		})

		r.Route("/image/{urn}", func(r chi.Router) {
			r.Get("/", archiveHandler.GetImage)
			r.Get("/thumbnail", archiveHandler.GetThumbnail)
		})

		r.Get("/preview/{urn}", previewHandler.ServeImageWithFaces)

		r.Route("/people", func(r chi.Router) {
			r.Get("/depicted", peopleHandler.GetDepictedPersons)
			r.Get("/depicted/{name}", peopleHandler.GetImagesByPerson)
			r.Get("/depicted/{name}/crops.zip", exportHandler.DownloadPersonCrops)
			r.Get("/photographers", peopleHandler.GetPhotographers)
			r.Get("/photographers/{name}", peopleHandler.GetImagesByPhotographer)
		})

		r.Route("/faces", func(r chi.Router) {
			r.Get("/random", facesHandler.GetRandomFace)
			r.Get("/stats", facesHandler.GetStats)
			r.Route("/{face_id}", func(r chi.Router) {
				r.Get("/similar", facesHandler.GetSimilarFaces)
				r.Get("/crop", facesHandler.GetFaceCrop)
			})
		})

		r.Get("/images/{urn}/names", facesHandler.GetImageNames)

		r.Route("/match", func(r chi.Router) {
			r.Post("/", matchHandler.MatchCustom)
			r.Get("/person/{name}", matchHandler.MatchPersonByName)
		})

		r.Route("/ingest", func(r chi.Router) {
			r.Post("/", ingestHandler.TriggerIngest)
			r.Get("/status", ingestHandler.GetIngestStatus)
		})

		r.Route("/wikidata/cache", func(r chi.Router) {
			r.Get("/stats", wikidataHandler.GetCacheStats)
			r.Post("/clear", wikidataHandler.ClearCache)
		})
	})

	r.Get("/ws", hub.ServeWS)

	serverAddr := fmt.Sprintf("%s:%d", host, port)
	fmt.Printf("Server starting on http://%s\n", serverAddr)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
