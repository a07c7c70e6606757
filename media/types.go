package media

import (
	"crypto/md5"
	"fmt"
	"image"
)

// Region is one detected face's bounding box in pixel coordinates, stored in
// (top, right, bottom, left) order to match the detection engine's output.
type Region struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Rect converts the region to a stdlib rectangle for cropping and drawing.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// Encoding is a fixed-length face embedding vector. Dimensionality is
// whatever the engine produces (128 for the dlib backend).
type Encoding []float64

// Rotation angles tried during detection, in trial order.
const (
	RotationNone = 0
	RotationCCW  = 90  // counter-clockwise
	RotationCW   = -90 // clockwise
)

// OrientationResult is the outcome of one image's detection pass: the
// rotation that won, the image in that orientation, and the faces found
// there. Regions and Encodings are paired by index. Region coordinates are
// relative to Rotated, not to the original file; callers that crop or draw
// must use Rotated.
type OrientationResult struct {
	Angle     int
	Rotated   image.Image
	Regions   []Region
	Encodings []Encoding
}

// FaceHash derives the deterministic fingerprint of one detected face from
// its source image, detection index, and region. Re-processing the same
// image with the same engine reproduces the hash, which is what makes
// re-ingestion idempotent.
func FaceHash(imageURN string, faceIndex int, region Region) string {
	key := fmt.Sprintf("%s_%d_%d_%d_%d_%d", imageURN, faceIndex, region.Top, region.Right, region.Bottom, region.Left)
	return fmt.Sprintf("%x", md5.Sum([]byte(key)))
}
