package wikidata

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sparqlBindings(imageURLs ...string) string {
	bindings := ""
	for i, url := range imageURLs {
		if i > 0 {
			bindings += ","
		}
		bindings += fmt.Sprintf(`{"image":{"value":%q}}`, url)
	}
	return fmt.Sprintf(`{"results":{"bindings":[%s]}}`, bindings)
}

func TestFetchImageURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "VABiKo")
		assert.Equal(t, "application/sparql-results+json", r.Header.Get("Accept"))
		assert.Contains(t, r.URL.Query().Get("query"), "wd:Q1234 wdt:P18")
		fmt.Fprint(w, sparqlBindings("https://commons.example/Portrait.jpg"))
	}))
	defer server.Close()

	client := NewClient()
	client.Endpoint = server.URL

	imageURL, err := client.FetchImageURL("Q1234")
	require.NoError(t, err)
	assert.Equal(t, "https://commons.example/Portrait.jpg", imageURL)
}

func TestFetchImageURLNoPortrait(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sparqlBindings())
	}))
	defer server.Close()

	client := NewClient()
	client.Endpoint = server.URL

	_, err := client.FetchImageURL("Q1234")
	require.ErrorIs(t, err, ErrNoImage)
}

func TestFetchImageURLServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient()
	client.Endpoint = server.URL

	_, err := client.FetchImageURL("Q1234")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestDownloadImage(t *testing.T) {
	payload := []byte("jpeg bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/portrait.jpg" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	client := NewClient()

	data, err := client.DownloadImage(server.URL + "/portrait.jpg")
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = client.DownloadImage(server.URL + "/missing.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestEntityID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		id   string
		ok   bool
	}{
		{"wiki page", "https://www.wikidata.org/wiki/Q1234", "Q1234", true},
		{"entity uri", "http://www.wikidata.org/entity/Q42", "Q42", true},
		{"empty", "", "", false},
		{"foreign host", "https://example.com/wiki/Q1", "", false},
		{"trailing slash", "https://www.wikidata.org/wiki/", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := EntityID(tc.url)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.id, id)
		})
	}
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		url string
		ext string
	}{
		{"https://commons.example/a.jpg", ".jpg"},
		{"https://commons.example/a.JPEG", ".jpg"},
		{"https://commons.example/a.png", ".png"},
		{"https://commons.example/a.png?width=300", ".png"},
		{"https://commons.example/a.gif", ".gif"},
		{"https://commons.example/a.webp", ".webp"},
		{"https://commons.example/portrait", ".jpg"},
	}

	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			assert.Equal(t, tc.ext, fileExtension(tc.url))
		})
	}
}
