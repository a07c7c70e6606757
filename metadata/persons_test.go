package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personsCSV = `unified_name,existing_names,items_with_person,linked_name,linked_name_v2
"Kahn, Ernst","Kahn, E.|Kahn, Ernst | Kahn",3,https://www.wikidata.org/wiki/Q1234,
"Blum, Maria","Blum, M.",1,not-a-link,https://www.wikidata.org/wiki/Q9999
"Short, Row"
"",orphaned spelling,0,,
`

func writePersonsCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "persons.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPersonDirectory(t *testing.T) {
	dir, err := LoadPersonDirectory(writePersonsCSV(t, personsCSV))
	require.NoError(t, err)

	// the empty unified_name row is dropped
	assert.Equal(t, 3, dir.Len())

	person, ok := dir.Get("Kahn, Ernst")
	require.True(t, ok)
	assert.Equal(t, []string{"Kahn, E.", "Kahn, Ernst", "Kahn"}, person.ExistingNames)
	assert.Equal(t, 3, person.ItemCount)
}

func TestUnifiedNameFolding(t *testing.T) {
	dir, err := LoadPersonDirectory(writePersonsCSV(t, personsCSV))
	require.NoError(t, err)

	tests := []struct {
		name     string
		spelling string
		want     string
	}{
		{"known spelling", "Kahn, E.", "Kahn, Ernst"},
		{"pipe-separated spelling with padding", "Kahn", "Kahn, Ernst"},
		{"unified name maps to itself via its spelling", "Kahn, Ernst", "Kahn, Ernst"},
		{"unknown spelling passes through", "Doe, Jane", "Doe, Jane"},
		{"unknown spelling is trimmed", "  Doe, Jane ", "Doe, Jane"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dir.UnifiedName(tt.spelling))
		})
	}
}

func TestWikidataURLs(t *testing.T) {
	dir, err := LoadPersonDirectory(writePersonsCSV(t, personsCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://www.wikidata.org/wiki/Q1234"}, dir.WikidataURLs("Kahn, Ernst"))

	// non-wikidata cell content is filtered, later columns still count
	assert.Equal(t, []string{"https://www.wikidata.org/wiki/Q9999"}, dir.WikidataURLs("Blum, Maria"))

	assert.Empty(t, dir.WikidataURLs("Short, Row"))
	assert.Empty(t, dir.WikidataURLs("Nobody"))
}

func TestLoadPersonDirectoryErrors(t *testing.T) {
	_, err := LoadPersonDirectory(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	_, err = LoadPersonDirectory(writePersonsCSV(t, "name,count\nKahn,3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unified_name")
}

func TestNewPersonDirectoryEmpty(t *testing.T) {
	dir := NewPersonDirectory(nil)
	assert.Equal(t, 0, dir.Len())
	assert.Equal(t, "Anyone", dir.UnifiedName("Anyone"))
	assert.Empty(t, dir.WikidataURLs("Anyone"))
}
