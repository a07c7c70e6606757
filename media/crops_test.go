package media

import (
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveFaceCrop(t *testing.T) {
	dir := t.TempDir()
	img := testImage(40, 20)

	path, err := SaveFaceCrop(img, Region{Top: 2, Right: 14, Bottom: 10, Left: 6}, "abc123", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc123.jpg"), path)

	crop, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 8, crop.Bounds().Dx())
	assert.Equal(t, 8, crop.Bounds().Dy())
}

func TestSaveFaceCropClampsToImage(t *testing.T) {
	dir := t.TempDir()
	img := testImage(40, 20)

	// region extends past the right and bottom edges
	path, err := SaveFaceCrop(img, Region{Top: 10, Right: 60, Bottom: 30, Left: 30}, "over", dir)
	require.NoError(t, err)

	crop, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 10, crop.Bounds().Dx())
	assert.Equal(t, 10, crop.Bounds().Dy())
}

func TestSaveFaceCropRejectsRegionOutsideImage(t *testing.T) {
	_, err := SaveFaceCrop(testImage(40, 20), Region{Top: 100, Right: 160, Bottom: 150, Left: 110}, "out", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside")
}

func TestEnsureThumbnail(t *testing.T) {
	srcDir := t.TempDir()
	thumbDir := t.TempDir()
	src := filepath.Join(srcDir, "large.jpg")
	require.NoError(t, imaging.Save(testImage(600, 400), src))

	path, err := EnsureThumbnail(src, thumbDir, 300)
	require.NoError(t, err)

	thumb, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 300, thumb.Bounds().Dx())
	assert.Equal(t, 200, thumb.Bounds().Dy(), "aspect ratio must be preserved")

	again, err := EnsureThumbnail(src, thumbDir, 300)
	require.NoError(t, err)
	assert.Equal(t, path, again, "thumbnail name must be stable per source path")
}

func TestEnsureThumbnailDoesNotUpscale(t *testing.T) {
	src := filepath.Join(t.TempDir(), "small.jpg")
	require.NoError(t, imaging.Save(testImage(100, 50), src))

	path, err := EnsureThumbnail(src, t.TempDir(), 300)
	require.NoError(t, err)

	thumb, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 100, thumb.Bounds().Dx())
	assert.Equal(t, 50, thumb.Bounds().Dy())
}

func TestEnsureThumbnailMissingSource(t *testing.T) {
	_, err := EnsureThumbnail(filepath.Join(t.TempDir(), "gone.jpg"), t.TempDir(), 300)
	require.Error(t, err)
}

func TestGetImageMetadataWithoutExif(t *testing.T) {
	src := filepath.Join(t.TempDir(), "scan.jpg")
	require.NoError(t, imaging.Save(testImage(120, 80), src))

	info, err := GetImageMetadata(src)
	require.NoError(t, err, "missing EXIF must not be an error, archive scans frequently lack it")
	require.NotNil(t, info.Width)
	require.NotNil(t, info.Height)
	assert.Equal(t, 120, *info.Width)
	assert.Equal(t, 80, *info.Height)
	assert.Nil(t, info.CameraMake)
}
