package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/rxvl-d/vabiko-demo/archive"
	"github.com/rxvl-d/vabiko-demo/config"
	"github.com/rxvl-d/vabiko-demo/workers"
)

type IngestHandler struct {
	Ingestor *workers.Ingestor
	Archive  *archive.Archive
	Cfg      config.Config
}

// TriggerIngest starts an ingestion run in the background. The request may
// name explicit URNs; otherwise the whole export is walked. Progress is
// published on the websocket hub.
func (ih *IngestHandler) TriggerIngest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URNs    []string `json:"urns"`
		Limit   int      `json:"limit"`
		Workers int      `json:"workers"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		WriteAPIError(w, http.StatusBadRequest, "invalid_request_body", "Invalid request body: "+err.Error())
		return
	}

	if ih.Ingestor.IsRunning() {
		WriteAPIError(w, http.StatusConflict, "ingest_running", "An ingestion run is already in progress")
		return
	}

	urns := req.URNs
	if len(urns) == 0 {
		listed, err := ih.Archive.ListURNs(req.Limit)
		if err != nil {
			WriteAPIError(w, http.StatusNotFound, "archive_unavailable", "Failed to list archive URNs: "+err.Error())
			return
		}
		urns = listed
	}
	if len(urns) == 0 {
		WriteAPIError(w, http.StatusUnprocessableEntity, "no_images", "The archive contains no URN directories to ingest")
		return
	}

	numWorkers := req.Workers
	if numWorkers <= 0 {
		numWorkers = ih.Cfg.NumIngestWorkers
	}

	go func() {
		report, err := ih.Ingestor.Run(context.Background(), urns, numWorkers, nil)
		if err != nil {
			log.Printf("ingest: background run ended early: %v", err)
			return
		}
		log.Printf("ingest: background run %s finished: %d processed, %d failed", report.JobID, report.Processed, report.Failed)
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":       "started",
		"total_images": len(urns),
		"workers":      numWorkers,
	})
}

// GetIngestStatus reports whether an ingestion run is in progress.
func (ih *IngestHandler) GetIngestStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"running": ih.Ingestor.IsRunning(),
	})
}
