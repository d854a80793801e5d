//go:build gocv

package vision

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Haar cascade parameters.
const (
	cascadeScale     = 1.1
	cascadeNeighbors = 5
	cascadeMinSize   = 30
)

// CascadeDetector finds faces with an OpenCV Haar cascade.
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
}

// NewCascadeDetector loads the cascade file at path.
func NewCascadeDetector(path string) (*CascadeDetector, error) {
	c := gocv.NewCascadeClassifier()
	if !c.Load(path) {
		_ = c.Close()
		return nil, fmt.Errorf("%w: %s", ErrCascadeLoad, path)
	}
	return &CascadeDetector{classifier: c}, nil
}

// Detect implements Detector on a grayscale copy of the frame.
func (d *CascadeDetector) Detect(_ context.Context, frame []byte) ([]Rect, error) {
	img, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFrame, err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDecodeFrame)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	d.mu.Lock()
	found := d.classifier.DetectMultiScaleWithParams(gray, cascadeScale, cascadeNeighbors, 0,
		image.Pt(cascadeMinSize, cascadeMinSize), image.Pt(0, 0))
	d.mu.Unlock()

	rects := make([]Rect, 0, len(found))
	for _, r := range found {
		rects = append(rects, Rect{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()})
	}
	return rects, nil
}

// Close releases the classifier.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
