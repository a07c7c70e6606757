package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/rxvl-d/vabiko-demo/archive"
	"github.com/rxvl-d/vabiko-demo/config"
	"github.com/rxvl-d/vabiko-demo/media"
)

// InterfaceInfo describes one browsable demo surface.
type InterfaceInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ArchiveHandler struct {
	Archive *archive.Archive
	Cfg     config.Config
}

// GetInterfaces lists the demo surfaces this backend serves.
func (ah *ArchiveHandler) GetInterfaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []InterfaceInfo{
		{
			ID:          "archive_browser",
			Name:        "Archive Browser",
			Description: "Browse images and metadata from the VABiKo archive",
		},
		{
			ID:          "people_browser",
			Name:        "People Browser",
			Description: "Browse images by depicted persons and photographers",
		},
		{
			ID:          "face_browser",
			Name:        "Face Browser",
			Description: "Browse detected faces and their most similar neighbours",
		},
		{
			ID:          "person_matcher",
			Name:        "Person Matcher",
			Description: "Compare archive faces against Wikidata reference portraits",
		},
	})
}

// ListURNs returns up to ?limit= URNs from the export, capped at the
// configured maximum.
func (ah *ArchiveHandler) ListURNs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", ah.Cfg.MaxURNList)
	if limit <= 0 || limit > ah.Cfg.MaxURNList {
		limit = ah.Cfg.MaxURNList
	}

	urns, err := ah.Archive.ListURNs(limit)
	if err != nil {
		log.Printf("archive: failed to list urns: %v", err)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Archive directory not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"urns": urns, "total": len(urns)})
}

// GetURN reports what the archive holds for one URN: whether an image
// exists and the formatted METS record when present.
func (ah *ArchiveHandler) GetURN(w http.ResponseWriter, r *http.Request) {
	urn := chi.URLParam(r, "urn")

	if _, err := ah.Archive.FindURNDir(urn); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "URN not found: " + urn})
		return
	}

	result := map[string]interface{}{"urn": urn, "found": true}

	if _, err := ah.Archive.FindImagePath(urn); err == nil {
		result["has_image"] = true
		result["image_url"] = "/api/image/" + urn
	} else {
		result["has_image"] = false
	}

	metadata, err := ah.Archive.ReadMets(urn)
	if err != nil {
		result["has_metadata"] = false
		if !errors.Is(err, archive.ErrURNNotFound) && !os.IsNotExist(errors.Unwrap(err)) {
			result["metadata_error"] = err.Error()
		}
	} else {
		result["has_metadata"] = true
		result["metadata"] = metadata
	}

	writeJSON(w, http.StatusOK, result)
}

// GetImage serves the image file for a URN.
func (ah *ArchiveHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	urn := chi.URLParam(r, "urn")

	imagePath, err := ah.Archive.FindImagePath(urn)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Image not found for URN: " + urn})
		return
	}

	http.ServeFile(w, r, imagePath)
}

// GetThumbnail serves a downscaled copy of a URN's image, generating and
// caching it on first request.
func (ah *ArchiveHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	urn := chi.URLParam(r, "urn")

	imagePath, err := ah.Archive.FindImagePath(urn)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Image not found for URN: " + urn})
		return
	}

	thumbPath, err := media.EnsureThumbnail(imagePath, ah.Cfg.ThumbnailsPath, ah.Cfg.ThumbnailMaxSize)
	if err != nil {
		log.Printf("archive: failed to build thumbnail for %s: %v", urn, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to generate thumbnail"})
		return
	}

	http.ServeFile(w, r, thumbPath)
}

// GetImageExif returns the camera metadata embedded in a URN's image file.
func (ah *ArchiveHandler) GetImageExif(w http.ResponseWriter, r *http.Request) {
	urn := chi.URLParam(r, "urn")

	imagePath, err := ah.Archive.FindImagePath(urn)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Image not found for URN: " + urn})
		return
	}

	info, err := media.GetImageMetadata(imagePath)
	if err != nil {
		log.Printf("archive: failed to read exif for %s: %v", urn, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read image metadata"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"urn": urn, "exif": info})
}
