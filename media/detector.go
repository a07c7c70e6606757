package media

import (
	"image"
	"log"

	"github.com/patrickmn/go-cache"
)

// orientationTrials is the fixed trial order. Order matters: a later
// orientation must strictly beat the best count so far, so on a tie the
// earlier orientation keeps the result.
var orientationTrials = []int{RotationNone, RotationCCW, RotationCW}

// OrientationDetector wraps an Engine with the rotation strategy. Archive
// scans are frequently stored sideways, so detection tries the upright image
// plus both 90-degree rotations and keeps the orientation exposing the most
// faces.
type OrientationDetector struct {
	engine Engine
	cache  *cache.Cache
}

// NewOrientationDetector builds a detector around the given engine. A full
// pass costs up to three engine invocations plus embedding, so per-file
// results are memoized for the process lifetime; Reset is the only eviction.
func NewOrientationDetector(engine Engine) *OrientationDetector {
	return &OrientationDetector{
		engine: engine,
		cache:  cache.New(cache.NoExpiration, 0),
	}
}

// DetectFile runs the full detection pass over an image file: rotation
// trials, then embeddings for the winning orientation. Failures surface as
// absences: an unreadable file or a failing engine yields an empty result,
// never an error to the caller.
func (d *OrientationDetector) DetectFile(imagePath string) OrientationResult {
	if cached, ok := d.cache.Get(imagePath); ok {
		return cached.(OrientationResult)
	}

	img, err := LoadImage(imagePath)
	if err != nil {
		// not cached; the file may become readable later
		log.Printf("detector: %v", err)
		return OrientationResult{Angle: RotationNone}
	}

	result := d.Detect(img)
	d.cache.Set(imagePath, result, cache.NoExpiration)
	return result
}

// Detect tries each rotation on an already-loaded image and returns the
// regions and embeddings of the winning orientation. A zero-face orientation
// never claims the result, so when nothing is found anywhere the returned
// result is empty at angle 0.
func (d *OrientationDetector) Detect(img image.Image) OrientationResult {
	best := OrientationResult{Angle: RotationNone, Rotated: img}
	bestCount := 0

	for _, angle := range orientationTrials {
		rotated := Rotate(img, angle)
		regions, err := d.engine.DetectFaces(rotated)
		if err != nil {
			// a failed orientation counts as zero faces; the rest are still tried
			log.Printf("detector: detection failed at rotation %+d: %v", angle, err)
			continue
		}
		if len(regions) > bestCount {
			best = OrientationResult{Angle: angle, Rotated: rotated, Regions: regions}
			bestCount = len(regions)
		}
	}

	if len(best.Regions) == 0 {
		return best
	}

	encodings, err := d.engine.EncodeFaces(best.Rotated, best.Regions)
	if err != nil {
		log.Printf("detector: embedding failed at rotation %+d: %v", best.Angle, err)
		return OrientationResult{Angle: best.Angle, Rotated: best.Rotated}
	}
	best.Encodings = encodings
	return best
}

// Reset drops every memoized detection result.
func (d *OrientationDetector) Reset() {
	d.cache.Flush()
}

// CachedCount reports how many files currently have memoized results.
func (d *OrientationDetector) CachedCount() int {
	return d.cache.ItemCount()
}
