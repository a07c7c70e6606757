package wikidata

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/rxvl-d/vabiko-demo/media"
)

// EncodingCache persists face encodings computed from reference portraits,
// keyed by the portrait's image URL. Empty lists are stored too: a portrait
// where detection found nothing is a result worth remembering, not
// recomputing. The cache only grows; Clear is the one eviction path.
type EncodingCache struct {
	path string

	mu      sync.Mutex
	entries map[string][]media.Encoding
}

// NewEncodingCache loads the JSON cache at path, starting empty when the
// file is missing or unreadable.
func NewEncodingCache(path string) *EncodingCache {
	c := &EncodingCache{
		path:    path,
		entries: make(map[string][]media.Encoding),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("wikidata: failed to read encoding cache %s: %v", path, err)
		}
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		log.Printf("wikidata: unreadable encoding cache %s, starting fresh: %v", path, err)
		c.entries = make(map[string][]media.Encoding)
	}
	return c
}

// Get returns the cached encodings for url. The boolean distinguishes "never
// processed" from a cached empty result.
func (c *EncodingCache) Get(url string) ([]media.Encoding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	encodings, ok := c.entries[url]
	return encodings, ok
}

// Put stores the encodings for url and persists the cache.
func (c *EncodingCache) Put(url string, encodings []media.Encoding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = encodings
	if err := c.saveLocked(); err != nil {
		log.Printf("wikidata: failed to persist encoding cache: %v", err)
	}
}

// Len reports the number of cached URLs.
func (c *EncodingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry and removes the backing file.
func (c *EncodingCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]media.Encoding)
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove encoding cache %s: %w", c.path, err)
	}
	return nil
}

func (c *EncodingCache) saveLocked() error {
	data, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("failed to marshal encoding cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write encoding cache %s: %w", c.path, err)
	}
	return nil
}
