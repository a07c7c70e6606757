package media

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const (
	FaceCropJpegQuality = 95
	faceCropExtension   = ".jpg"
)

// SaveFaceCrop cuts the region out of the oriented image and writes it as a
// JPEG named after the face hash. The oriented image must be the one the
// region was detected on. Returns the path the crop was saved to.
func SaveFaceCrop(oriented image.Image, region Region, faceHash, cropsDir string) (string, error) {
	if err := os.MkdirAll(cropsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create face crops directory %s: %w", cropsDir, err)
	}

	bounds := oriented.Bounds()
	rect := region.Rect().Intersect(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if rect.Empty() {
		return "", fmt.Errorf("face region %+v lies outside the %dx%d image", region, bounds.Dx(), bounds.Dy())
	}

	crop := imaging.Crop(oriented, rect)

	savePath := filepath.Join(cropsDir, faceHash+faceCropExtension)
	if err := imaging.Save(crop, savePath, imaging.JPEGQuality(FaceCropJpegQuality)); err != nil {
		return "", fmt.Errorf("failed to save face crop to %s: %w", savePath, err)
	}
	return savePath, nil
}
