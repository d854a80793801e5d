//go:build !gocv

package vision

import "context"

// CascadeDetector is only available in builds with the gocv tag.
type CascadeDetector struct{}

// NewCascadeDetector reports that the cascade backend is not built in.
func NewCascadeDetector(string) (*CascadeDetector, error) {
	return nil, ErrCascadeUnavailable
}

// Detect implements Detector.
func (*CascadeDetector) Detect(context.Context, []byte) ([]Rect, error) {
	return nil, ErrCascadeUnavailable
}

// Close implements io.Closer.
func (*CascadeDetector) Close() error { return nil }
