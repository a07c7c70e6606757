package media

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ImageToBGRMat converts a decoded image into an OpenCV matrix. OpenCV nets
// and drawing primitives expect BGR channel order.
func ImageToBGRMat(img image.Image) (gocv.Mat, error) {
	rgb, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to convert image to matrix: %w", err)
	}
	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	rgb.Close()
	return bgr, nil
}
