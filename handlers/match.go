package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rxvl-d/vabiko-demo/metadata"
	"github.com/rxvl-d/vabiko-demo/services"
)

type MatchHandler struct {
	Matcher *services.PersonMatcher
	Persons *metadata.PersonDirectory
	Index   *metadata.EntityIndex
}

// MatchPersonByName compares every archive face of a person against their
// Wikidata reference portraits. The name may be any catalog spelling; it is
// folded to the unified name first.
func (mh *MatchHandler) MatchPersonByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	unified := mh.Persons.UnifiedName(name)

	urls := mh.Persons.WikidataURLs(unified)
	if len(urls) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No Wikidata links recorded for person: " + name})
		return
	}

	urns := mh.Index.URNsForUnifiedName(unified)
	if len(urns) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No archive images found for person: " + name})
		return
	}

	report := mh.Matcher.MatchPerson(urns, urls)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"person":           name,
		"unified_name":     unified,
		"archive_images":   len(urns),
		"reference_images": len(urls),
		"report":           report,
	})
}

// MatchCustom compares an explicit set of archive URNs against an explicit
// set of Wikidata image URLs.
func (mh *MatchHandler) MatchCustom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ArchiveURNs  []string `json:"archive_urns"`
		WikidataURLs []string `json:"wikidata_urls"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_request_body", "Invalid request body: "+err.Error())
		return
	}
	if len(req.ArchiveURNs) == 0 {
		WriteAPIError(w, http.StatusBadRequest, "missing_archive_urns", "archive_urns must list at least one URN")
		return
	}
	if len(req.WikidataURLs) == 0 {
		WriteAPIError(w, http.StatusBadRequest, "missing_wikidata_urls", "wikidata_urls must list at least one URL")
		return
	}

	report := mh.Matcher.MatchPerson(req.ArchiveURNs, req.WikidataURLs)
	writeJSON(w, http.StatusOK, report)
}
