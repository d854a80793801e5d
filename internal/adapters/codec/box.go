package codec

import (
	"encoding/json"
	"fmt"

	"github.com/okian/elrobot/internal/domain/model"
)

type boxPayload struct {
	Left   *int `json:"left"`
	Top    *int `json:"top"`
	Right  *int `json:"right"`
	Bottom *int `json:"bottom"`
}

// EncodeBox serializes the corners of a box as a JSON object.
func EncodeBox(b model.Box) ([]byte, error) {
	return json.Marshal(boxPayload{Left: &b.Left, Top: &b.Top, Right: &b.Right, Bottom: &b.Bottom})
}

// DecodeBox parses a JSON box for the given slot. All four corners are
// required and the box must not be inverted.
func DecodeBox(k model.FaceKey, payload []byte) (model.Box, error) {
	var p boxPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return model.Box{}, fmt.Errorf("%w: %w", ErrMalformedBox, err)
	}
	if p.Left == nil || p.Top == nil || p.Right == nil || p.Bottom == nil {
		return model.Box{}, fmt.Errorf("%w: missing corner", ErrMalformedBox)
	}
	b := model.Box{
		Camera: k.Camera, Index: k.Index,
		Left: *p.Left, Top: *p.Top, Right: *p.Right, Bottom: *p.Bottom,
	}
	if b.Right < b.Left || b.Bottom < b.Top {
		return model.Box{}, fmt.Errorf("%w: inverted box %+v", ErrMalformedBox, b)
	}
	return b, nil
}
