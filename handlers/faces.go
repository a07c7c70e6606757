package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/rxvl-d/vabiko-demo/config"
	"github.com/rxvl-d/vabiko-demo/services"
)

const defaultSimilarFacesLimit = 10

type FacesHandler struct {
	Service *services.FaceService
	Cfg     config.Config
}

// GetRandomFace picks a random stored face for the browsing UI.
func (fh *FacesHandler) GetRandomFace(w http.ResponseWriter, r *http.Request) {
	face, names, err := fh.Service.RandomFace()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "No faces in store, run an ingest first"})
			return
		}
		log.Printf("recognition: failed to pick random face: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to pick random face"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"face":      face,
		"names":     names,
		"crop_url":  "/api/faces/" + strconv.FormatUint(uint64(face.ID), 10) + "/crop",
		"image_url": "/api/image/" + face.ImageURN,
	})
}

// GetSimilarFaces ranks other stored faces by similarity to one face.
func (fh *FacesHandler) GetSimilarFaces(w http.ResponseWriter, r *http.Request) {
	faceID, err := strconv.ParseUint(chi.URLParam(r, "face_id"), 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid face ID format"})
		return
	}

	limit := queryInt(r, "limit", defaultSimilarFacesLimit)

	similar, err := fh.Service.FindSimilarFaces(uint(faceID), limit)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Face not found"})
			return
		}
		log.Printf("recognition: similar faces lookup failed for %d: %v", faceID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to find similar faces"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"face_id": faceID,
		"similar": similar,
		"total":   len(similar),
	})
}

// GetFaceCrop serves the extracted crop image for one face.
func (fh *FacesHandler) GetFaceCrop(w http.ResponseWriter, r *http.Request) {
	faceID, err := strconv.ParseUint(chi.URLParam(r, "face_id"), 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid face ID format"})
		return
	}

	face, err := fh.Service.GetFace(uint(faceID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Face not found"})
			return
		}
		log.Printf("recognition: failed to load face %d: %v", faceID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load face"})
		return
	}

	if face.FaceImagePath == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Face has no stored crop"})
		return
	}
	if _, err := os.Stat(face.FaceImagePath); err != nil {
		log.Printf("recognition: crop file missing for face %d: %v", faceID, err)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Crop file missing on disk"})
		return
	}

	http.ServeFile(w, r, face.FaceImagePath)
}

// GetImageNames returns the unified names recorded for an image.
func (fh *FacesHandler) GetImageNames(w http.ResponseWriter, r *http.Request) {
	urn := chi.URLParam(r, "urn")

	names, err := fh.Service.NamesForImage(urn)
	if err != nil {
		log.Printf("recognition: failed to load names for %s: %v", urn, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load image names"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"urn":   urn,
		"names": names,
		"total": len(names),
	})
}

// GetStats reports store-wide face counts.
func (fh *FacesHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := fh.Service.Stats()
	if err != nil {
		log.Printf("recognition: failed to compute stats: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to compute stats"})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
