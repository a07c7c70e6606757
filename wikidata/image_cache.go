package wikidata

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const metadataFilename = "metadata.json"

// CacheEntry records one entity's resolution outcome in metadata.json.
// Negative outcomes (no portrait claim, failed download) are recorded too so
// a known miss does not trigger a new network round trip on every call.
type CacheEntry struct {
	ImageURL  string `json:"image_url,omitempty"`
	ImagePath string `json:"image_path,omitempty"` // filename relative to the cache directory
	Error     string `json:"error,omitempty"`
}

// ImageCache resolves Wikidata entity URLs to local portrait files, fetching
// each at most once. Files are stored as {entity_id}_{md5(image_url)}{ext}
// beside a metadata.json index. Clearing the cache is an explicit
// administrative action; nothing is evicted otherwise.
type ImageCache struct {
	dir    string
	client *Client

	mu       sync.Mutex
	metadata map[string]CacheEntry
}

// NewImageCache opens (or creates) the on-disk cache at dir.
func NewImageCache(dir string, client *Client) (*ImageCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create wikidata cache directory %s: %w", dir, err)
	}

	c := &ImageCache{
		dir:      dir,
		client:   client,
		metadata: make(map[string]CacheEntry),
	}

	metaPath := filepath.Join(dir, metadataFilename)
	data, err := os.ReadFile(metaPath)
	if err == nil {
		if err := json.Unmarshal(data, &c.metadata); err != nil {
			log.Printf("wikidata: unreadable metadata file %s, starting fresh: %v", metaPath, err)
			c.metadata = make(map[string]CacheEntry)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read wikidata cache metadata: %w", err)
	}

	return c, nil
}

// ResolveImage returns the local path of the entity's portrait, fetching and
// caching it on first use. A cached negative outcome is returned as an error
// without touching the network again.
func (c *ImageCache) ResolveImage(wikidataURL string) (string, error) {
	entityID, ok := EntityID(wikidataURL)
	if !ok {
		return "", fmt.Errorf("not a wikidata entity URL: %q", wikidataURL)
	}

	c.mu.Lock()
	entry, found := c.metadata[entityID]
	c.mu.Unlock()
	if found {
		if entry.ImagePath != "" {
			fullPath := filepath.Join(c.dir, entry.ImagePath)
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath, nil
			}
			// cached file vanished; refetch below
		} else {
			return "", fmt.Errorf("entity %s: %s", entityID, entry.Error)
		}
	}

	imageURL, err := c.client.FetchImageURL(entityID)
	if err != nil {
		c.storeEntry(entityID, CacheEntry{Error: err.Error()})
		return "", fmt.Errorf("failed to resolve portrait for %s: %w", entityID, err)
	}

	data, err := c.client.DownloadImage(imageURL)
	if err != nil {
		c.storeEntry(entityID, CacheEntry{ImageURL: imageURL, Error: err.Error()})
		return "", fmt.Errorf("failed to download portrait for %s: %w", entityID, err)
	}

	filename := fmt.Sprintf("%s_%x%s", entityID, md5.Sum([]byte(imageURL)), fileExtension(imageURL))
	fullPath := filepath.Join(c.dir, filename)

	// write via temp file + rename; concurrent fetches of the same entity
	// produce the same bytes, last writer wins
	tmpPath := fullPath + "." + uuid.NewString()[:8] + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write cached image %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to finalize cached image %s: %w", fullPath, err)
	}

	c.storeEntry(entityID, CacheEntry{ImageURL: imageURL, ImagePath: filename})
	log.Printf("wikidata: cached portrait for %s at %s", entityID, filename)
	return fullPath, nil
}

// CachedImagePath reports the local portrait path if one is already cached.
func (c *ImageCache) CachedImagePath(wikidataURL string) (string, bool) {
	entityID, ok := EntityID(wikidataURL)
	if !ok {
		return "", false
	}

	c.mu.Lock()
	entry, found := c.metadata[entityID]
	c.mu.Unlock()
	if !found || entry.ImagePath == "" {
		return "", false
	}

	fullPath := filepath.Join(c.dir, entry.ImagePath)
	if _, err := os.Stat(fullPath); err != nil {
		return "", false
	}
	return fullPath, true
}

// Stats reports cache occupancy: total metadata entries, how many carry an
// image file, and the bytes those files occupy.
func (c *ImageCache) Stats() (entries, images int, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries = len(c.metadata)
	for _, entry := range c.metadata {
		if entry.ImagePath == "" {
			continue
		}
		info, err := os.Stat(filepath.Join(c.dir, entry.ImagePath))
		if err != nil {
			continue
		}
		images++
		bytes += info.Size()
	}
	return entries, images, bytes
}

// Clear removes every cached image and resets the metadata index.
func (c *ImageCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.metadata {
		if entry.ImagePath == "" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.ImagePath)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove cached image %s: %w", entry.ImagePath, err)
		}
	}
	c.metadata = make(map[string]CacheEntry)
	return c.saveLocked()
}

func (c *ImageCache) storeEntry(entityID string, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata[entityID] = entry
	if err := c.saveLocked(); err != nil {
		log.Printf("wikidata: failed to persist cache metadata: %v", err)
	}
}

func (c *ImageCache) saveLocked() error {
	data, err := json.MarshalIndent(c.metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, metadataFilename), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache metadata: %w", err)
	}
	return nil
}
