package handlers

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gocv.io/x/gocv"

	"github.com/rxvl-d/vabiko-demo/archive"
	"github.com/rxvl-d/vabiko-demo/media"
)

type PreviewHandler struct {
	Archive  *archive.Archive
	Detector *media.OrientationDetector
}

// ServeImageWithFaces renders a URN's image in its detected orientation
// with a box around every face. Face coordinates always refer to the
// orientation the detector chose, so drawing happens on that canvas rather
// than the raw file.
func (ph *PreviewHandler) ServeImageWithFaces(w http.ResponseWriter, r *http.Request) {
	urn := chi.URLParam(r, "urn")

	imagePath, err := ph.Archive.FindImagePath(urn)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Image not found for URN: " + urn})
		return
	}

	result := ph.Detector.DetectFile(imagePath)
	if result.Rotated == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read image"})
		return
	}

	img, err := media.ImageToBGRMat(result.Rotated)
	if err != nil {
		log.Printf("preview: failed to convert %s: %v", urn, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to render image"})
		return
	}
	defer img.Close()

	red := color.RGBA{255, 0, 0, 0}
	thickness := 2

	for i, region := range result.Regions {
		rect := region.Rect()
		gocv.Rectangle(&img, rect, red, thickness)

		label := fmt.Sprintf("face %d", i)
		gocv.PutText(&img, label, image.Pt(rect.Min.X, rect.Min.Y-5), gocv.FontHersheySimplex, 0.5, red, 1)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		log.Printf("preview: failed to encode %s: %v", urn, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to encode image"})
		return
	}
	defer buf.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(buf.GetBytes()); err != nil {
		log.Printf("preview: failed to write response for %s: %v", urn, err)
	}
}
