package handlers

import (
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxvl-d/vabiko-demo/archive"
	"github.com/rxvl-d/vabiko-demo/config"
)

const testMets = `<mets xmlns="http://www.loc.gov/METS/"><metsHdr><agent ROLE="CREATOR"><name>VABiKo</name></agent></metsHdr></mets>`

func archiveTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	base := t.TempDir()
	addURN := func(urn string, withImage, withMets bool) {
		dir := filepath.Join(base, archive.NormalizeURN(urn))
		require.NoError(t, os.MkdirAll(dir, 0755))
		if withImage {
			img := imaging.New(600, 400, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
			require.NoError(t, imaging.Save(img, filepath.Join(dir, "image.jpg")))
		}
		if withMets {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "mets.xml"), []byte(testMets), 0644))
		}
	}
	addURN("urn:nbn:1", true, true)
	addURN("urn:nbn:2", false, false)
	addURN("urn:nbn:3", true, false)

	ah := &ArchiveHandler{
		Archive: archive.New(base),
		Cfg: config.Config{
			MaxURNList:       2,
			ThumbnailsPath:   t.TempDir(),
			ThumbnailMaxSize: 300,
		},
	}

	r := chi.NewRouter()
	r.Get("/api/list", ah.ListURNs)
	r.Get("/api/urn/{urn}", ah.GetURN)
	r.Get("/api/urn/{urn}/exif", ah.GetImageExif)
	r.Get("/api/image/{urn}", ah.GetImage)
	r.Get("/api/image/{urn}/thumbnail", ah.GetThumbnail)
	return r
}

func TestGetURN(t *testing.T) {
	router := archiveTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/urn/urn:nbn:1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		URN         string `json:"urn"`
		Found       bool   `json:"found"`
		HasImage    bool   `json:"has_image"`
		ImageURL    string `json:"image_url"`
		HasMetadata bool   `json:"has_metadata"`
		Metadata    string `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "urn:nbn:1", body.URN)
	assert.True(t, body.Found)
	assert.True(t, body.HasImage)
	assert.Equal(t, "/api/image/urn:nbn:1", body.ImageURL)
	assert.True(t, body.HasMetadata)
	assert.Contains(t, body.Metadata, "\n  <metsHdr>", "METS comes back re-indented")
}

func TestGetURNWithoutImage(t *testing.T) {
	router := archiveTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/urn/urn:nbn:2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		HasImage    bool `json:"has_image"`
		HasMetadata bool `json:"has_metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.HasImage)
	assert.False(t, body.HasMetadata)
}

func TestGetURNNotFound(t *testing.T) {
	router := archiveTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/urn/urn:nbn:missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "URN not found")
}

func TestListURNs(t *testing.T) {
	router := archiveTestRouter(t)

	get := func(target string) (urns []string, total int) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			URNs  []string `json:"urns"`
			Total int      `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body.URNs, body.Total
	}

	urns, total := get("/api/list")
	assert.Equal(t, 2, total, "the configured maximum caps the default")
	assert.Equal(t, []string{"urn:nbn:1", "urn:nbn:2"}, urns)

	urns, _ = get("/api/list?limit=1")
	assert.Equal(t, []string{"urn:nbn:1"}, urns)

	_, total = get("/api/list?limit=999")
	assert.Equal(t, 2, total, "a limit above the maximum is capped")
}

func TestGetImage(t *testing.T) {
	router := archiveTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/image/urn:nbn:1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotZero(t, rec.Body.Len())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/image/urn:nbn:2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetThumbnail(t *testing.T) {
	router := archiveTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/image/urn:nbn:1/thumbnail", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	thumb, err := imaging.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 300, thumb.Bounds().Dx())
	assert.Equal(t, 200, thumb.Bounds().Dy())
}

func TestGetImageExif(t *testing.T) {
	router := archiveTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/urn/urn:nbn:1/exif", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		URN  string `json:"urn"`
		Exif struct {
			Width      *int    `json:"width"`
			Height     *int    `json:"height"`
			CameraMake *string `json:"camera_make"`
		} `json:"exif"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "urn:nbn:1", body.URN)
	require.NotNil(t, body.Exif.Width)
	assert.Equal(t, 600, *body.Exif.Width)
	require.NotNil(t, body.Exif.Height)
	assert.Equal(t, 400, *body.Exif.Height)
	assert.Nil(t, body.Exif.CameraMake, "synthetic scans carry no EXIF block")
}
