package handlers

import (
	"log"
	"net/http"

	"github.com/rxvl-d/vabiko-demo/wikidata"
)

type WikidataHandler struct {
	Images    *wikidata.ImageCache
	Encodings *wikidata.EncodingCache
}

// GetCacheStats reports the size of both reference caches.
func (wh *WikidataHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	entries, images, bytes := wh.Images.Stats()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"image_cache": map[string]interface{}{
			"entries":     entries,
			"image_files": images,
			"total_bytes": bytes,
		},
		"encoding_cache": map[string]interface{}{
			"entries": wh.Encodings.Len(),
		},
	})
}

// ClearCache wipes the reference caches. ?scope=images or ?scope=encodings
// clears one side; the default clears both. Clearing also resets negative
// entries, so previously failed lookups are retried.
func (wh *WikidataHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")

	clearImages := scope == "" || scope == "all" || scope == "images"
	clearEncodings := scope == "" || scope == "all" || scope == "encodings"
	if !clearImages && !clearEncodings {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid scope, expected images, encodings or all"})
		return
	}

	result := map[string]interface{}{"scope": scope}
	if scope == "" {
		result["scope"] = "all"
	}

	if clearImages {
		if err := wh.Images.Clear(); err != nil {
			log.Printf("wikidata: failed to clear image cache: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to clear image cache"})
			return
		}
		result["images_cleared"] = true
	}
	if clearEncodings {
		if err := wh.Encodings.Clear(); err != nil {
			log.Printf("wikidata: failed to clear encoding cache: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to clear encoding cache"})
			return
		}
		result["encodings_cleared"] = true
	}

	writeJSON(w, http.StatusOK, result)
}
