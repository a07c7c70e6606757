// Package metadata loads the archive's catalog exports: the entity JSON
// dump and the curated persons CSV. Both are read once at startup and
// indexed in memory.
package metadata

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
)

// Entity is one catalog record from the archive export.
type Entity struct {
	URN             string         `json:"urn"`
	Title           string         `json:"title"`
	ImagePath       string         `json:"image_path"`
	DepictedPersons []string       `json:"depicted_person"`
	Photographers   []string       `json:"photographers"`
	ContentKeywords []string       `json:"content_keywords"`
	SubjectLocation []string       `json:"subject_location"`
	CreationDate    map[string]any `json:"creation_date"`
}

// NamePair couples the curated unified name with the spelling the catalog
// actually uses for an image.
type NamePair struct {
	UnifiedName string `json:"unified_name"`
	DisplayName string `json:"display_name"`
}

// PersonCount is a browsable person entry with their image count.
type PersonCount struct {
	Name        string `json:"name"`
	Count       int    `json:"count"`
	DisplayName string `json:"display_name"`
}

// EntityIndex answers catalog lookups by URN, depicted person and
// photographer. Person keys are the raw catalog spellings; the unified
// index additionally folds spellings through the person directory.
type EntityIndex struct {
	entities       []Entity
	byURN          map[string]*Entity
	byDepicted     map[string][]*Entity
	byPhotographer map[string][]*Entity
	byUnified      map[string][]*Entity
	persons        *PersonDirectory
}

// LoadEntityIndex reads the entity JSON dump and builds the lookup indexes.
// persons may be nil, in which case unified lookups fall back to raw
// spellings.
func LoadEntityIndex(path string, persons *PersonDirectory) (*EntityIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entities file: %w", err)
	}

	var entities []Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("failed to parse entities file: %w", err)
	}

	ix := NewEntityIndex(entities, persons)
	log.Printf("metadata: loaded %d entity records, indexed %d depicted persons and %d photographers",
		ix.Len(), len(ix.byDepicted), len(ix.byPhotographer))
	return ix, nil
}

// NewEntityIndex builds the lookup indexes over catalog records.
func NewEntityIndex(entities []Entity, persons *PersonDirectory) *EntityIndex {
	ix := &EntityIndex{
		entities:       entities,
		byURN:          make(map[string]*Entity, len(entities)),
		byDepicted:     make(map[string][]*Entity),
		byPhotographer: make(map[string][]*Entity),
		byUnified:      make(map[string][]*Entity),
		persons:        persons,
	}

	for i := range ix.entities {
		entity := &ix.entities[i]
		ix.byURN[entity.URN] = entity

		for _, person := range entity.DepictedPersons {
			if strings.TrimSpace(person) == "" {
				continue
			}
			ix.byDepicted[person] = append(ix.byDepicted[person], entity)

			unified := strings.TrimSpace(person)
			if persons != nil {
				unified = persons.UnifiedName(unified)
			}
			ix.byUnified[unified] = append(ix.byUnified[unified], entity)
		}

		for _, photographer := range entity.Photographers {
			if strings.TrimSpace(photographer) == "" {
				continue
			}
			ix.byPhotographer[photographer] = append(ix.byPhotographer[photographer], entity)
		}
	}

	return ix
}

func (ix *EntityIndex) Len() int {
	return len(ix.entities)
}

// ByURN looks up the catalog record for an image.
func (ix *EntityIndex) ByURN(urn string) (*Entity, bool) {
	entity, ok := ix.byURN[urn]
	return entity, ok
}

// NamesForImage returns the unified/display name pairs for every person
// depicted on an image. Unknown URNs yield an empty slice.
func (ix *EntityIndex) NamesForImage(urn string) []NamePair {
	entity, ok := ix.byURN[urn]
	if !ok {
		return nil
	}

	var names []NamePair
	for _, person := range entity.DepictedPersons {
		display := strings.TrimSpace(person)
		if display == "" {
			continue
		}

		unified := display
		if ix.persons != nil {
			unified = ix.persons.UnifiedName(display)
		}
		names = append(names, NamePair{UnifiedName: unified, DisplayName: display})
	}
	return names
}

// DepictedPersons lists every depicted person with their image count,
// most-photographed first, ties broken by name.
func (ix *EntityIndex) DepictedPersons() []PersonCount {
	return countIndex(ix.byDepicted)
}

// Photographers lists every photographer with their image count,
// most-photographed first, ties broken by name.
func (ix *EntityIndex) Photographers() []PersonCount {
	return countIndex(ix.byPhotographer)
}

// ImagesByDepicted returns the catalog records featuring a person, keyed by
// the raw catalog spelling.
func (ix *EntityIndex) ImagesByDepicted(name string) []Entity {
	return copyEntities(ix.byDepicted[name])
}

// ImagesByPhotographer returns the catalog records taken by a photographer.
func (ix *EntityIndex) ImagesByPhotographer(name string) []Entity {
	return copyEntities(ix.byPhotographer[name])
}

// URNsForUnifiedName returns the URNs of every image depicting a person,
// with all catalog spellings folded to their unified name.
func (ix *EntityIndex) URNsForUnifiedName(unified string) []string {
	entities := ix.byUnified[unified]
	urns := make([]string, 0, len(entities))
	seen := make(map[string]bool, len(entities))
	for _, entity := range entities {
		if seen[entity.URN] {
			continue
		}
		seen[entity.URN] = true
		urns = append(urns, entity.URN)
	}
	return urns
}

func countIndex(index map[string][]*Entity) []PersonCount {
	counts := make([]PersonCount, 0, len(index))
	for name, entities := range index {
		if strings.TrimSpace(name) == "" {
			continue
		}
		counts = append(counts, PersonCount{
			Name:        name,
			Count:       len(entities),
			DisplayName: fmt.Sprintf("%s (%d)", name, len(entities)),
		})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})
	return counts
}

func copyEntities(entities []*Entity) []Entity {
	out := make([]Entity, 0, len(entities))
	for _, entity := range entities {
		out = append(out, *entity)
	}
	return out
}
