// Package archive resolves image URNs against the on-disk export of the
// photo archive. Each image lives in its own directory named after the
// URN, with colons replaced by plus signs for filesystem safety.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/facette/natsort"

	"github.com/rxvl-d/vabiko-demo/media"
)

var (
	ErrURNNotFound   = errors.New("urn not found in archive")
	ErrImageNotFound = errors.New("no image file for urn")
)

// primaryImageName is the canonical image filename inside a URN directory.
// Older exports used other names, so resolution falls back to any raster
// file when it is absent.
const primaryImageName = "image.jpg"

const metsFileName = "mets.xml"

// NormalizeURN converts a URN to its filesystem form.
func NormalizeURN(urn string) string {
	return strings.ReplaceAll(urn, ":", "+")
}

// DenormalizeURN converts a filesystem directory name back to URN form.
func DenormalizeURN(name string) string {
	return strings.ReplaceAll(name, "+", ":")
}

// Archive is a read-only view over the export directory.
type Archive struct {
	base string
}

func New(base string) *Archive {
	return &Archive{base: base}
}

func (a *Archive) Base() string {
	return a.base
}

// FindURNDir locates the directory for a URN, trying the normalized form
// first and the raw form second.
func (a *Archive) FindURNDir(urn string) (string, error) {
	for _, name := range []string{NormalizeURN(urn), urn} {
		dir := filepath.Join(a.base, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrURNNotFound, urn)
}

// FindImagePath returns the image file for a URN, preferring the canonical
// image.jpg and falling back to the first raster file in natural order.
func (a *Archive) FindImagePath(urn string) (string, error) {
	dir, err := a.FindURNDir(urn)
	if err != nil {
		return "", err
	}

	primary := filepath.Join(dir, primaryImageName)
	if info, err := os.Stat(primary); err == nil && !info.IsDir() {
		return primary, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read urn directory %s: %w", dir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if !entry.IsDir() && media.IsRasterImage(entry.Name()) {
			candidates = append(candidates, entry.Name())
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, urn)
	}

	natsort.Sort(candidates)
	return filepath.Join(dir, candidates[0]), nil
}

// MetsPath returns the METS metadata file for a URN if one exists.
func (a *Archive) MetsPath(urn string) (string, error) {
	dir, err := a.FindURNDir(urn)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, metsFileName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no metadata file for urn %s: %w", urn, err)
	}
	return path, nil
}

// ListURNs returns up to limit URNs from the export in natural order.
// limit <= 0 means no cap.
func (a *Archive) ListURNs(limit int) ([]string, error) {
	entries, err := os.ReadDir(a.base)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory %s: %w", a.base, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	natsort.Sort(names)

	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	urns := make([]string, len(names))
	for i, name := range names {
		urns[i] = DenormalizeURN(name)
	}
	return urns, nil
}
