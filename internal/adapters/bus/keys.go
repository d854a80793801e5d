package bus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/elrobot/internal/domain/model"
)

// Keys builds and parses the key hierarchy under a prefix:
//
//	{prefix}/cams/{cam}                 frame
//	{prefix}/faces/{cam}/{i}            face crop
//	{prefix}/faces/{cam}/{i}/box        face box
//	{prefix}/faces/{cam}/{i}/name       face label
//	{prefix}/vectors/{name}/{num}       recognition vector
//
// The face index i is the ephemeral per-cycle position, not a track id.
type Keys struct {
	Prefix string
	// Rosout is the robot log topic, outside the prefix.
	Rosout string
}

// Parsed is a classified bus key.
type Parsed struct {
	Kind   model.SampleKind
	Face   model.FaceKey // frame: Camera only
	Name   string        // vector owner
	Number string        // vector number
}

// Camera returns the frame key of a camera.
func (k Keys) Camera(cam string) string { return k.Prefix + "/cams/" + cam }

// Crop returns the crop key of a face slot.
func (k Keys) Crop(f model.FaceKey) string {
	return k.Prefix + "/faces/" + f.Camera + "/" + strconv.Itoa(f.Index)
}

// Box returns the box key of a face slot.
func (k Keys) Box(f model.FaceKey) string { return k.Crop(f) + "/box" }

// Label returns the label key of a face slot.
func (k Keys) Label(f model.FaceKey) string { return k.Crop(f) + "/name" }

// Vector returns the key of one stored recognition vector.
func (k Keys) Vector(name, num string) string { return k.Prefix + "/vectors/" + name + "/" + num }

// Subscription patterns.
func (k Keys) CamerasPattern() string { return k.Prefix + "/cams/*" }
func (k Keys) CropsPattern() string   { return k.Prefix + "/faces/*/*" }
func (k Keys) BoxesPattern() string   { return k.Prefix + "/faces/*/*/box" }
func (k Keys) LabelsPattern() string  { return k.Prefix + "/faces/*/*/name" }
func (k Keys) VectorsPattern() string { return k.Prefix + "/vectors/**" }

// Classify parses a key received on the bus.
func (k Keys) Classify(key string) (Parsed, error) {
	if k.Rosout != "" && key == k.Rosout {
		return Parsed{Kind: model.KindLog}, nil
	}
	rest, ok := strings.CutPrefix(key, k.Prefix+chunkSep)
	if !ok {
		return Parsed{}, fmt.Errorf("%w: %q outside prefix %q", ErrUnknownKey, key, k.Prefix)
	}
	c := strings.Split(rest, chunkSep)
	for _, chunk := range c {
		if chunk == "" {
			return Parsed{}, fmt.Errorf("%w: %q has an empty chunk", ErrUnknownKey, key)
		}
	}

	switch {
	case c[0] == "cams" && len(c) == 2:
		return Parsed{Kind: model.KindFrame, Face: model.FaceKey{Camera: c[1]}}, nil
	case c[0] == "faces" && len(c) == 3:
		return faceKey(model.KindCrop, key, c[1], c[2])
	case c[0] == "faces" && len(c) == 4 && c[3] == "box":
		return faceKey(model.KindBox, key, c[1], c[2])
	case c[0] == "faces" && len(c) == 4 && c[3] == "name":
		return faceKey(model.KindLabel, key, c[1], c[2])
	case c[0] == "vectors" && len(c) >= 3:
		// Deeper keys are accepted; the owner is always the second to last chunk.
		return Parsed{Kind: model.KindVector, Name: c[len(c)-2], Number: c[len(c)-1]}, nil
	}
	return Parsed{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

func faceKey(kind model.SampleKind, key, cam, idx string) (Parsed, error) {
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return Parsed{}, fmt.Errorf("%w: %q has a bad face index", ErrUnknownKey, key)
	}
	return Parsed{Kind: kind, Face: model.FaceKey{Camera: cam, Index: i}}, nil
}
