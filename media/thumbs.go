package media

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const thumbnailJpegQuality = 80

// EnsureThumbnail returns a downscaled copy of an image, generating it on
// first request. Thumbnails are cached under a name derived from the source
// path and regenerated when the source file is newer.
func EnsureThumbnail(originalImagePath, thumbnailDir string, maxSize int) (string, error) {
	if err := os.MkdirAll(thumbnailDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory %s: %w", thumbnailDir, err)
	}

	srcInfo, err := os.Stat(originalImagePath)
	if err != nil {
		return "", fmt.Errorf("failed to stat image %s: %w", originalImagePath, err)
	}

	thumbPath := filepath.Join(thumbnailDir, fmt.Sprintf("%x.jpg", md5.Sum([]byte(originalImagePath))))
	if info, err := os.Stat(thumbPath); err == nil && info.ModTime().After(srcInfo.ModTime()) {
		return thumbPath, nil
	}

	img, err := imaging.Open(originalImagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image %s: %w", originalImagePath, err)
	}

	thumb := imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(thumbnailJpegQuality)); err != nil {
		return "", fmt.Errorf("failed to save thumbnail to %s: %w", thumbPath, err)
	}
	return thumbPath, nil
}
