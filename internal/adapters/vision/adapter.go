package vision

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/elrobot/internal/domain/model"
	"github.com/okian/elrobot/pkg/logger"
	"github.com/okian/elrobot/pkg/metrics"
)

// Default crop settings.
const (
	defaultWidth   = 200
	defaultQuality = 95
)

// Detector locates candidate face rectangles in an encoded frame. Order of
// the result does not matter.
type Detector interface {
	Detect(ctx context.Context, frame []byte) ([]Rect, error)
}

// Face is one detected face: its box and the encoded crop.
type Face struct {
	Box  model.Box
	Crop []byte
}

// Adapter runs detection on a frame and prepares what gets published.
type Adapter struct {
	detector Detector
	width    int
	quality  int
	logger   logger.Logger
}

// NewAdapter creates a detection adapter around detector.
func NewAdapter(detector Detector, opts ...Option) *Adapter {
	a := &Adapter{
		detector: detector,
		width:    defaultWidth,
		quality:  defaultQuality,
		logger:   logger.Get().Named("detection"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Process detects the faces of one frame. Faces come back in index order.
// The result only depends on the frame bytes and the detector, so an
// unchanged frame yields identical boxes, crops and indices.
func (a *Adapter) Process(ctx context.Context, f model.Frame) ([]Face, error) {
	img, err := DecodeFrame(f.Data)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rects, err := a.detector.Detect(ctx, f.Data)
	metrics.RecordAdapterLatency("detect", float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("%w: camera %s: %w", ErrDetect, f.Camera, err)
	}

	boxes := SortBoxes(f.Camera, usable(rects, img.Bounds()))
	faces := make([]Face, 0, len(boxes))
	for _, b := range boxes {
		crop, err := CropFace(img, b, a.width, a.quality)
		if err != nil {
			return nil, err
		}
		faces = append(faces, Face{Box: b, Crop: crop})
	}
	metrics.RecordFacesDetected(len(faces))
	a.logger.Debug(ctx, "faces detected", logger.String("camera", f.Camera), logger.Int("faces", len(faces)))
	return faces, nil
}
