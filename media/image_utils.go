package media

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

var supportedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsRasterImage checks if the filename has a common raster image extension
func IsRasterImage(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return supportedImageExtensions[ext]
}

// LoadImage opens an image file as-is, without applying EXIF orientation.
// Archive scans are stored in arbitrary rotations and the orientation
// detector owns the job of finding the right one; auto-orienting here would
// shift every stored region coordinate.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	return img, nil
}

// Rotate returns the image rotated by one of the trial angles, expanding the
// canvas so no pixels are cropped. Unknown angles return the image unchanged.
func Rotate(img image.Image, angle int) image.Image {
	switch angle {
	case RotationCCW:
		return imaging.Rotate90(img)
	case RotationCW:
		return imaging.Rotate270(img)
	default:
		return img
	}
}
