package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDirectory() *PersonDirectory {
	return NewPersonDirectory([]Person{
		{
			UnifiedName:   "Kahn, Ernst",
			ExistingNames: []string{"Kahn, E.", "Kahn, Ernst"},
			WikidataURLs:  []string{"https://www.wikidata.org/wiki/Q1234"},
		},
	})
}

func testEntities() []Entity {
	return []Entity{
		{
			URN:             "urn:x:1",
			Title:           "Group portrait",
			ImagePath:       "urn+x+1/image.jpg",
			DepictedPersons: []string{"Kahn, E.", "Doe, Jane"},
			Photographers:   []string{"Lens, Otto"},
		},
		{
			URN:             "urn:x:2",
			DepictedPersons: []string{"Kahn, Ernst", "Kahn, E.", " "},
			Photographers:   []string{"Lens, Otto"},
		},
		{
			URN:             "urn:x:3",
			DepictedPersons: []string{"Doe, Jane"},
		},
	}
}

func TestNamesForImage(t *testing.T) {
	ix := NewEntityIndex(testEntities(), testDirectory())

	names := ix.NamesForImage("urn:x:1")
	require.Len(t, names, 2)
	assert.Equal(t, NamePair{UnifiedName: "Kahn, Ernst", DisplayName: "Kahn, E."}, names[0])
	assert.Equal(t, NamePair{UnifiedName: "Doe, Jane", DisplayName: "Doe, Jane"}, names[1])

	assert.Empty(t, ix.NamesForImage("urn:x:unknown"))
}

func TestNamesForImageWithoutDirectory(t *testing.T) {
	ix := NewEntityIndex(testEntities(), nil)

	names := ix.NamesForImage("urn:x:1")
	require.Len(t, names, 2)
	assert.Equal(t, "Kahn, E.", names[0].UnifiedName, "without a directory the raw spelling stands in")
}

func TestDepictedPersonsCounts(t *testing.T) {
	ix := NewEntityIndex(testEntities(), testDirectory())

	persons := ix.DepictedPersons()
	require.Len(t, persons, 3)

	// most-photographed first, ties broken by name; keys stay raw spellings
	assert.Equal(t, PersonCount{Name: "Doe, Jane", Count: 2, DisplayName: "Doe, Jane (2)"}, persons[0])
	assert.Equal(t, PersonCount{Name: "Kahn, E.", Count: 2, DisplayName: "Kahn, E. (2)"}, persons[1])
	assert.Equal(t, PersonCount{Name: "Kahn, Ernst", Count: 1, DisplayName: "Kahn, Ernst (1)"}, persons[2])
}

func TestPhotographers(t *testing.T) {
	ix := NewEntityIndex(testEntities(), testDirectory())

	photographers := ix.Photographers()
	require.Len(t, photographers, 1)
	assert.Equal(t, "Lens, Otto", photographers[0].Name)
	assert.Equal(t, 2, photographers[0].Count)

	images := ix.ImagesByPhotographer("Lens, Otto")
	require.Len(t, images, 2)
	assert.Equal(t, "urn:x:1", images[0].URN)
}

func TestImagesByDepictedUsesRawSpelling(t *testing.T) {
	ix := NewEntityIndex(testEntities(), testDirectory())

	assert.Len(t, ix.ImagesByDepicted("Kahn, E."), 2)
	assert.Len(t, ix.ImagesByDepicted("Kahn, Ernst"), 1)
	assert.Empty(t, ix.ImagesByDepicted("Unknown"))
}

func TestURNsForUnifiedName(t *testing.T) {
	ix := NewEntityIndex(testEntities(), testDirectory())

	// urn:x:2 lists the person under two spellings and must appear once
	assert.Equal(t, []string{"urn:x:1", "urn:x:2"}, ix.URNsForUnifiedName("Kahn, Ernst"))
	assert.Equal(t, []string{"urn:x:1", "urn:x:3"}, ix.URNsForUnifiedName("Doe, Jane"))
	assert.Empty(t, ix.URNsForUnifiedName("Nobody"))
}

func TestLoadEntityIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"urn": "urn:x:1", "title": "One", "depicted_person": ["Kahn, E."]},
		{"urn": "urn:x:2", "title": "Two"}
	]`), 0644))

	ix, err := LoadEntityIndex(path, testDirectory())
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())

	entity, ok := ix.ByURN("urn:x:1")
	require.True(t, ok)
	assert.Equal(t, "One", entity.Title)
}

func TestLoadEntityIndexErrors(t *testing.T) {
	_, err := LoadEntityIndex(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = LoadEntityIndex(bad, nil)
	require.Error(t, err)
}
