package metadata

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// Person is one curated row from the persons CSV. ExistingNames holds the
// archive spellings that fold into the unified name; WikidataURLs holds the
// entity links collected across the linked_name columns.
type Person struct {
	UnifiedName   string   `json:"unified_name"`
	ExistingNames []string `json:"existing_names"`
	WikidataURLs  []string `json:"wikidata_urls"`
	ItemCount     int      `json:"items_with_person"`
}

// PersonDirectory resolves archive name spellings to unified names and
// unified names to their Wikidata entity links.
type PersonDirectory struct {
	persons   []Person
	byUnified map[string]*Person
	toUnified map[string]string
}

// linkedNameColumns are the CSV columns that may carry a Wikidata entity
// URL for a person. Later columns are manual corrections of earlier ones,
// so all non-empty values are kept in order.
var linkedNameColumns = []string{"linked_name", "linked_name_v2", "linked_name_v3", "linked_name_v4"}

// LoadPersonDirectory reads the persons CSV. The existing_names column is
// pipe-separated; every trimmed spelling maps to the row's unified name.
func LoadPersonDirectory(path string) (*PersonDirectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open persons file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse persons file: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("persons file %s has no header row", path)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.TrimSpace(name)] = i
	}
	if _, ok := columns["unified_name"]; !ok {
		return nil, fmt.Errorf("persons file %s is missing the unified_name column", path)
	}

	var persons []Person
	for _, row := range rows[1:] {
		unified := strings.TrimSpace(cell(row, columns, "unified_name"))
		if unified == "" {
			continue
		}

		person := Person{UnifiedName: unified}

		for _, existing := range strings.Split(cell(row, columns, "existing_names"), "|") {
			existing = strings.TrimSpace(existing)
			if existing == "" {
				continue
			}
			person.ExistingNames = append(person.ExistingNames, existing)
		}

		for _, column := range linkedNameColumns {
			link := strings.TrimSpace(cell(row, columns, column))
			if link != "" && strings.Contains(link, "wikidata.org") {
				person.WikidataURLs = append(person.WikidataURLs, link)
			}
		}

		if count := strings.TrimSpace(cell(row, columns, "items_with_person")); count != "" {
			if n, err := strconv.Atoi(count); err == nil {
				person.ItemCount = n
			}
		}

		persons = append(persons, person)
	}

	dir := NewPersonDirectory(persons)
	log.Printf("metadata: loaded %d person records", dir.Len())
	return dir, nil
}

// NewPersonDirectory builds the lookup maps over curated person records.
func NewPersonDirectory(persons []Person) *PersonDirectory {
	dir := &PersonDirectory{
		persons:   persons,
		byUnified: make(map[string]*Person, len(persons)),
		toUnified: make(map[string]string),
	}
	for i := range dir.persons {
		person := &dir.persons[i]
		dir.byUnified[person.UnifiedName] = person
		for _, existing := range person.ExistingNames {
			dir.toUnified[existing] = person.UnifiedName
		}
	}
	return dir
}

func (d *PersonDirectory) Len() int {
	return len(d.persons)
}

// UnifiedName folds an archive spelling into its unified name. Spellings
// the directory does not know pass through trimmed.
func (d *PersonDirectory) UnifiedName(existing string) string {
	existing = strings.TrimSpace(existing)
	if unified, ok := d.toUnified[existing]; ok {
		return unified
	}
	return existing
}

// Get looks up a person by their unified name.
func (d *PersonDirectory) Get(unified string) (*Person, bool) {
	person, ok := d.byUnified[unified]
	return person, ok
}

// WikidataURLs returns the Wikidata entity links recorded for a person.
func (d *PersonDirectory) WikidataURLs(unified string) []string {
	person, ok := d.byUnified[unified]
	if !ok {
		return nil
	}
	return person.WikidataURLs
}

func cell(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
