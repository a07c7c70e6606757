package media

import (
	"fmt"
	"image"
	"log"
	"math"
	"os"

	"gocv.io/x/gocv"
)

// DNNEngine detects faces with an SSD res10 Caffe network and embeds them
// with a separate embedding net (OpenFace-style), both through OpenCV's DNN
// module. Kept as an alternative to the dlib backend for deployments where
// dlib models are unavailable.
type DNNEngine struct {
	detector gocv.Net
	embedder gocv.Net

	// detector parameters
	InputSizeW    int
	InputSizeH    int
	ScaleFactor   float64
	MeanVal       gocv.Scalar
	ConfThreshold float32

	// embedder parameters
	EmbedModelName string
	EmbedSizeW     int
	EmbedSizeH     int
}

var _ Engine = (*DNNEngine)(nil)

// NewDNNEngine loads the SSD detector and the embedding network.
func NewDNNEngine(configPath, modelPath, embedNetPath, embedModelName string) (*DNNEngine, error) {
	if configPath == "" || modelPath == "" || embedNetPath == "" {
		return nil, fmt.Errorf("dnn engine requires detector config, detector model, and embedding net paths")
	}
	for _, p := range []string{configPath, modelPath, embedNetPath} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return nil, fmt.Errorf("dnn model file does not exist: %s", p)
		}
	}

	detector := gocv.ReadNet(modelPath, configPath)
	if detector.Empty() {
		return nil, fmt.Errorf("failed to load detection network: config=%s, model=%s", configPath, modelPath)
	}

	embedder := gocv.ReadNet(embedNetPath, "")
	if embedder.Empty() {
		detector.Close()
		return nil, fmt.Errorf("failed to load embedding network: %s", embedNetPath)
	}

	for _, net := range []*gocv.Net{&detector, &embedder} {
		cudaBackendErr := net.SetPreferableBackend(gocv.NetBackendCUDA)
		cudaTargetErr := net.SetPreferableTarget(gocv.NetTargetCUDA)
		if cudaBackendErr != nil || cudaTargetErr != nil {
			net.SetPreferableBackend(gocv.NetBackendDefault)
			net.SetPreferableTarget(gocv.NetTargetCPU)
		}
	}
	log.Printf("recognition: loaded DNN detector %s and embedder %s (%s)", modelPath, embedNetPath, embedModelName)

	embedW, embedH := 96, 96 // openface nn4 input
	switch embedModelName {
	case "arcface":
		embedW, embedH = 112, 112
	case "facenet":
		embedW, embedH = 160, 160
	}

	return &DNNEngine{
		detector:       detector,
		embedder:       embedder,
		InputSizeW:     300,
		InputSizeH:     300,
		ScaleFactor:    1.0,
		MeanVal:        gocv.NewScalar(104.0, 177.0, 123.0, 0),
		ConfThreshold:  0.2,
		EmbedModelName: embedModelName,
		EmbedSizeW:     embedW,
		EmbedSizeH:     embedH,
	}, nil
}

func (e *DNNEngine) Close() {
	if e == nil {
		return
	}
	e.detector.Close()
	e.embedder.Close()
	log.Println("recognition: closed DNN networks")
}

// DetectFaces runs the SSD detector over img. The output matrix is
// [1, 1, N, 7] with rows (_, _, confidence, xMin, yMin, xMax, yMax) in
// normalized coordinates.
func (e *DNNEngine) DetectFaces(img image.Image) ([]Region, error) {
	mat, err := ImageToBGRMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	imgHeight := float32(mat.Rows())
	imgWidth := float32(mat.Cols())

	blob := gocv.BlobFromImage(mat, e.ScaleFactor, image.Pt(e.InputSizeW, e.InputSizeH), e.MeanVal, false, false)
	defer blob.Close()

	e.detector.SetInput(blob, "")
	detectionsMat := e.detector.Forward("")
	defer detectionsMat.Close()

	sizes := detectionsMat.Size()
	if len(sizes) < 3 {
		return nil, fmt.Errorf("unexpected detection output dimensions: %v", sizes)
	}
	numDetections := sizes[2]
	if numDetections == 0 {
		return nil, nil
	}

	detectionsData := detectionsMat.Reshape(1, numDetections)
	defer detectionsData.Close()

	var regions []Region
	for i := 0; i < numDetections; i++ {
		confidence := detectionsData.GetFloatAt(i, 2)
		if confidence <= e.ConfThreshold {
			continue
		}

		xMin := detectionsData.GetFloatAt(i, 3) * imgWidth
		yMin := detectionsData.GetFloatAt(i, 4) * imgHeight
		xMax := detectionsData.GetFloatAt(i, 5) * imgWidth
		yMax := detectionsData.GetFloatAt(i, 6) * imgHeight

		xMin = float32(math.Max(0, float64(xMin)))
		yMin = float32(math.Max(0, float64(yMin)))
		xMax = float32(math.Min(float64(imgWidth), float64(xMax)))
		yMax = float32(math.Min(float64(imgHeight), float64(yMax)))

		if xMax > xMin && yMax > yMin {
			regions = append(regions, Region{
				Top:    int(yMin),
				Right:  int(xMax),
				Bottom: int(yMax),
				Left:   int(xMin),
			})
		}
	}

	return regions, nil
}

// EncodeFaces crops each region out of img and runs it through the
// embedding network, L2-normalizing each vector.
func (e *DNNEngine) EncodeFaces(img image.Image, regions []Region) ([]Encoding, error) {
	if len(regions) == 0 {
		return nil, nil
	}

	mat, err := ImageToBGRMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	encodings := make([]Encoding, 0, len(regions))
	for _, region := range regions {
		rect := clampRect(region.Rect(), mat.Cols(), mat.Rows())
		if rect.Empty() {
			log.Printf("recognition: region %+v is outside the image, storing empty vector", region)
			encodings = append(encodings, nil)
			continue
		}

		faceRegion := mat.Region(rect)
		embedding := e.extractEmbedding(faceRegion)
		faceRegion.Close()

		enc := make(Encoding, len(embedding))
		for i, v := range embedding {
			enc[i] = float64(v)
		}
		encodings = append(encodings, enc)
	}
	return encodings, nil
}

// extractEmbedding preprocesses one face region and runs the embedding net.
func (e *DNNEngine) extractEmbedding(faceRegion gocv.Mat) []float32 {
	if faceRegion.Empty() {
		return nil
	}

	resized := gocv.NewMat()
	gocv.Resize(faceRegion, &resized, image.Pt(e.EmbedSizeW, e.EmbedSizeH), 0, 0, gocv.InterpolationLinear)
	defer resized.Close()

	// normalize to [0,1]; the embedding nets expect scaled float input
	blob := gocv.BlobFromImage(resized, 1.0/255.0, image.Pt(e.EmbedSizeW, e.EmbedSizeH), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	e.embedder.SetInput(blob, "")
	output := e.embedder.Forward("")
	defer output.Close()

	flattened := output.Reshape(1, 1)
	defer flattened.Close()

	embedding := make([]float32, flattened.Cols())
	for i := 0; i < flattened.Cols(); i++ {
		embedding[i] = flattened.GetFloatAt(0, i)
	}

	return normalizeEmbedding(embedding)
}

// normalizeEmbedding normalizes the embedding vector to unit length
func normalizeEmbedding(embedding []float32) []float32 {
	if len(embedding) == 0 {
		return embedding
	}

	var norm float32
	for _, val := range embedding {
		norm += val * val
	}
	norm = float32(math.Sqrt(float64(norm)))
	if norm == 0 {
		return embedding
	}

	normalized := make([]float32, len(embedding))
	for i, val := range embedding {
		normalized[i] = val / norm
	}
	return normalized
}

func clampRect(r image.Rectangle, width, height int) image.Rectangle {
	return r.Intersect(image.Rect(0, 0, width, height))
}
