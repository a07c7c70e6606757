package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rxvl-d/vabiko-demo/metadata"
)

type PeopleHandler struct {
	Index *metadata.EntityIndex
}

// GetDepictedPersons lists every depicted person with their photo count,
// most-photographed first.
func (ph *PeopleHandler) GetDepictedPersons(w http.ResponseWriter, r *http.Request) {
	persons := ph.Index.DepictedPersons()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"persons": persons,
		"total":   len(persons),
	})
}

// GetPhotographers lists every photographer with their photo count,
// most-photographed first.
func (ph *PeopleHandler) GetPhotographers(w http.ResponseWriter, r *http.Request) {
	photographers := ph.Index.Photographers()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"photographers": photographers,
		"total":         len(photographers),
	})
}

// GetImagesByPerson returns the catalog records featuring one depicted
// person, keyed by the raw catalog spelling.
func (ph *PeopleHandler) GetImagesByPerson(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	images := entitySummaries(ph.Index.ImagesByDepicted(name))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"person": name,
		"images": images,
		"total":  len(images),
	})
}

// GetImagesByPhotographer returns the catalog records taken by one
// photographer.
func (ph *PeopleHandler) GetImagesByPhotographer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	images := entitySummaries(ph.Index.ImagesByPhotographer(name))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"photographer": name,
		"images":       images,
		"total":        len(images),
	})
}

// entitySummaries trims catalog records down to the fields the browsing UI
// renders.
func entitySummaries(entities []metadata.Entity) []map[string]interface{} {
	summaries := make([]map[string]interface{}, 0, len(entities))
	for _, entity := range entities {
		summaries = append(summaries, map[string]interface{}{
			"urn":              entity.URN,
			"title":            entity.Title,
			"image_path":       entity.ImagePath,
			"content_keywords": entity.ContentKeywords,
			"subject_location": entity.SubjectLocation,
			"creation_date":    entity.CreationDate,
			"has_image":        entity.ImagePath != "",
		})
	}
	return summaries
}
