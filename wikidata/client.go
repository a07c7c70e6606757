package wikidata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultEndpoint = "https://query.wikidata.org/sparql"
	userAgent       = "VABiKo-Demo/1.0 (https://example.com/contact)"

	sparqlTimeout   = 10 * time.Second
	downloadTimeout = 30 * time.Second
)

// ErrNoImage means the entity exists but carries no portrait (P18) claim.
var ErrNoImage = errors.New("wikidata entity has no portrait image")

// Client queries the Wikidata SPARQL endpoint for entity portraits and
// downloads image files. Metadata queries and binary downloads get separate
// timeouts.
type Client struct {
	Endpoint string

	sparqlHTTP   *http.Client
	downloadHTTP *http.Client
}

func NewClient() *Client {
	return &Client{
		Endpoint:     DefaultEndpoint,
		sparqlHTTP:   &http.Client{Timeout: sparqlTimeout},
		downloadHTTP: &http.Client{Timeout: downloadTimeout},
	}
}

// EntityID extracts the entity identifier from a Wikidata URL. URLs that do
// not point at wikidata.org yield false.
func EntityID(wikidataURL string) (string, bool) {
	if wikidataURL == "" || !strings.Contains(wikidataURL, "wikidata.org") {
		return "", false
	}
	parts := strings.Split(wikidataURL, "/")
	id := parts[len(parts)-1]
	if id == "" {
		return "", false
	}
	return id, true
}

type sparqlResponse struct {
	Results struct {
		Bindings []struct {
			Image struct {
				Value string `json:"value"`
			} `json:"image"`
		} `json:"bindings"`
	} `json:"results"`
}

// FetchImageURL asks Wikidata for the entity's P18 image and returns its
// URL. ErrNoImage is returned when the entity has no portrait claim.
func (c *Client) FetchImageURL(entityID string) (string, error) {
	query := fmt.Sprintf(`SELECT ?image WHERE { wd:%s wdt:P18 ?image . } LIMIT 1`, entityID)

	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")

	req, err := http.NewRequest(http.MethodGet, c.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating SPARQL request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.sparqlHTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying wikidata for %s: %w", entityID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikidata query for %s returned status %d", entityID, resp.StatusCode)
	}

	var parsed sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding SPARQL response for %s: %w", entityID, err)
	}

	if len(parsed.Results.Bindings) == 0 {
		return "", ErrNoImage
	}
	return parsed.Results.Bindings[0].Image.Value, nil
}

// DownloadImage fetches the image bytes behind imageURL.
func (c *Client) DownloadImage(imageURL string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.downloadHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading image %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download %s returned status %d", imageURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading image body from %s: %w", imageURL, err)
	}
	return data, nil
}

// fileExtension maps an image URL to a file extension for the cache file.
func fileExtension(imageURL string) string {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return ".jpg"
	}
	path := strings.ToLower(parsed.Path)
	switch {
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".jpeg"):
		return ".jpg"
	case strings.HasSuffix(path, ".png"):
		return ".png"
	case strings.HasSuffix(path, ".gif"):
		return ".gif"
	case strings.HasSuffix(path, ".webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}
