package media

import (
	"bytes"
	"fmt"
	"image"
	"log"

	"github.com/Kagami/go-face"
	"github.com/disintegration/imaging"
)

// DlibEngine detects and embeds faces with dlib's HOG detector and 128-d
// ResNet descriptors via go-face. The model directory must contain
// shape_predictor_5_face_landmarks.dat and
// dlib_face_recognition_resnet_model_v1.dat.
type DlibEngine struct {
	rec *face.Recognizer
}

var _ Engine = (*DlibEngine)(nil)

// NewDlibEngine loads the dlib models from modelDir.
func NewDlibEngine(modelDir string) (*DlibEngine, error) {
	rec, err := face.NewRecognizer(modelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load dlib models from %s: %w", modelDir, err)
	}
	log.Printf("recognition: loaded dlib models from %s", modelDir)
	return &DlibEngine{rec: rec}, nil
}

func (e *DlibEngine) Close() {
	if e != nil && e.rec != nil {
		e.rec.Close()
		log.Println("recognition: closed dlib recognizer")
		e.rec = nil
	}
}

// DetectFaces returns the bounding region of every face in img.
func (e *DlibEngine) DetectFaces(img image.Image) ([]Region, error) {
	faces, err := e.recognize(img)
	if err != nil {
		return nil, err
	}

	regions := make([]Region, len(faces))
	for i, f := range faces {
		regions[i] = rectToRegion(f.Rectangle)
	}
	return regions, nil
}

// EncodeFaces computes one 128-d embedding per region. dlib produces regions
// and descriptors in one pass, so this re-runs recognition on the same image
// and pairs descriptors with the requested regions by detection order.
func (e *DlibEngine) EncodeFaces(img image.Image, regions []Region) ([]Encoding, error) {
	if len(regions) == 0 {
		return nil, nil
	}

	faces, err := e.recognize(img)
	if err != nil {
		return nil, err
	}
	if len(faces) != len(regions) {
		return nil, fmt.Errorf("detection returned %d faces but %d regions were requested", len(faces), len(regions))
	}

	encodings := make([]Encoding, len(faces))
	for i, f := range faces {
		enc := make(Encoding, len(f.Descriptor))
		for j, v := range f.Descriptor {
			enc[j] = float64(v)
		}
		encodings[i] = enc
	}
	return encodings, nil
}

// recognize feeds img to go-face, which wants JPEG bytes. Recognition is
// deterministic for identical input, so repeated calls on the same image
// return the same faces in the same order.
func (e *DlibEngine) recognize(img image.Image) ([]face.Face, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, fmt.Errorf("failed to encode image for recognition: %w", err)
	}

	faces, err := e.rec.Recognize(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("dlib recognition failed: %w", err)
	}
	return faces, nil
}

func rectToRegion(r image.Rectangle) Region {
	return Region{Top: r.Min.Y, Right: r.Max.X, Bottom: r.Max.Y, Left: r.Min.X}
}
