package media

import (
	"fmt"
	"image"

	"github.com/rxvl-d/vabiko-demo/config"
)

// Engine is the face detection and embedding capability the orientation
// detector wraps. Implementations carry a concrete model stack; the rest of
// the system only sees regions and encodings.
type Engine interface {
	// DetectFaces returns the bounding region of every face found in img,
	// in detection order.
	DetectFaces(img image.Image) ([]Region, error)
	// EncodeFaces computes one embedding per region, paired one-to-one with
	// regions. The image must be the same one the regions were detected on.
	EncodeFaces(img image.Image, regions []Region) ([]Encoding, error)
	// Close releases model resources.
	Close()
}

// NewEngineFromConfig selects and loads the configured engine backend.
func NewEngineFromConfig(cfg config.Config) (Engine, error) {
	switch cfg.FaceEngine {
	case config.EngineDNN:
		return NewDNNEngine(cfg.FaceDNNNetConfigPath, cfg.FaceDNNNetModelPath, cfg.FaceEmbeddingNetPath, cfg.FaceEmbeddingNetModel)
	case config.EngineDlib:
		return NewDlibEngine(cfg.DlibModelDir)
	default:
		return nil, fmt.Errorf("unknown face engine %q", cfg.FaceEngine)
	}
}
