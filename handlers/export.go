package handlers

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rxvl-d/vabiko-demo/metadata"
	"github.com/rxvl-d/vabiko-demo/repository"
)

type ExportHandler struct {
	FaceRepo repository.FaceRepositoryInterface
	NameRepo repository.ImageNameRepositoryInterface
	Persons  *metadata.PersonDirectory
}

// DownloadPersonCrops streams a ZIP of every stored face crop from images
// that depict the named person. Crops that cannot be read are skipped so
// one bad file does not abort the download.
func (eh *ExportHandler) DownloadPersonCrops(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	unified := eh.Persons.UnifiedName(name)

	associations, err := eh.NameRepo.ListByUnifiedName(unified)
	if err != nil {
		log.Printf("export: failed to list images for %s: %v", unified, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list images for person"})
		return
	}
	if len(associations) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No ingested images for person: " + name})
		return
	}

	type cropEntry struct {
		path string
		name string
	}
	var crops []cropEntry
	for _, association := range associations {
		faces, err := eh.FaceRepo.ListByImageURN(association.ImageURN)
		if err != nil {
			log.Printf("export: failed to list faces for %s: %v", association.ImageURN, err)
			continue
		}
		for _, face := range faces {
			if face.FaceImagePath == "" {
				continue
			}
			crops = append(crops, cropEntry{
				path: face.FaceImagePath,
				name: fmt.Sprintf("%s_face%d.jpg", face.FaceHash, face.FaceIndex),
			})
		}
	}
	if len(crops) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No stored face crops for person: " + name})
		return
	}

	filename := fmt.Sprintf("faces_%s_%d.zip", unified, time.Now().Unix())
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	zipWriter := zip.NewWriter(w)
	written := 0
	for _, crop := range crops {
		file, err := os.Open(crop.path)
		if err != nil {
			log.Printf("export: failed to open crop %s: %v. Skipping.", crop.path, err)
			continue
		}

		writer, err := zipWriter.Create(crop.name)
		if err != nil {
			file.Close()
			log.Printf("export: failed to create zip entry for %s: %v. Skipping.", crop.name, err)
			continue
		}

		_, err = io.Copy(writer, file)
		file.Close()
		if err != nil {
			log.Printf("export: failed to write %s to zip: %v", crop.name, err)
			// response is already streaming, nothing to do but stop
			break
		}
		written++
	}

	if err := zipWriter.Close(); err != nil {
		log.Printf("export: failed to finalize zip for %s: %v", unified, err)
		return
	}
	log.Printf("export: streamed %d crop(s) for %s", written, unified)
}
