// Package vision turns camera frames into ordered face boxes and crops. The
// classifier itself is external: a helper process or an OpenCV cascade.
package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // frames may also arrive as PNG
	"sort"

	"golang.org/x/image/draw"

	"github.com/okian/elrobot/internal/domain/model"
)

// Rect is a detector result: top-left corner plus size, in pixels.
type Rect struct {
	X, Y, W, H int
}

// DecodeFrame decodes an encoded camera frame.
func DecodeFrame(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrDecodeFrame)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFrame, err)
	}
	return img, nil
}

// SortBoxes converts detector rectangles to boxes of one camera, ordered
// ascending by (top, right, bottom, left). The index of a box is its
// position in that order; it only identifies the face within this pass.
func SortBoxes(camera string, rects []Rect) []model.Box {
	boxes := make([]model.Box, 0, len(rects))
	for _, r := range rects {
		boxes = append(boxes, model.Box{
			Camera: camera,
			Left:   r.X,
			Top:    r.Y,
			Right:  r.X + r.W,
			Bottom: r.Y + r.H,
		})
	}
	sort.SliceStable(boxes, func(i, j int) bool {
		a, b := boxes[i], boxes[j]
		if a.Top != b.Top {
			return a.Top < b.Top
		}
		if a.Right != b.Right {
			return a.Right < b.Right
		}
		if a.Bottom != b.Bottom {
			return a.Bottom < b.Bottom
		}
		return a.Left < b.Left
	})
	for i := range boxes {
		boxes[i].Index = i
	}
	return boxes
}

// usable drops rectangles that are empty or fall outside the frame.
func usable(rects []Rect, bounds image.Rectangle) []Rect {
	out := rects[:0:0]
	for _, r := range rects {
		if r.W <= 0 || r.H <= 0 {
			continue
		}
		if image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H).Intersect(bounds).Empty() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CropFace cuts the box out of img, resizes it to width keeping the aspect
// ratio and encodes it as JPEG at quality.
func CropFace(img image.Image, b model.Box, width, quality int) ([]byte, error) {
	src := image.Rect(b.Left, b.Top, b.Right, b.Bottom).Intersect(img.Bounds())
	if src.Empty() {
		return nil, fmt.Errorf("%w: box %+v outside frame", ErrEncodeCrop, b)
	}
	height := src.Dy() * width / src.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeCrop, err)
	}
	return buf.Bytes(), nil
}
