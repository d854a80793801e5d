// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// FaceKey addresses one face slot of one camera.
//
// Index is an ephemeral per-cycle position: it is assigned by sorting the
// boxes of a single detection pass and may point at a different physical
// face on the next pass. It is not a track id.
type FaceKey struct {
	Camera string
	Index  int
}

func (k FaceKey) String() string {
	return fmt.Sprintf("%s/%d", k.Camera, k.Index)
}

// Less orders keys by camera, then index.
func (k FaceKey) Less(o FaceKey) bool {
	if k.Camera != o.Camera {
		return k.Camera < o.Camera
	}
	return k.Index < o.Index
}

// Frame is the last encoded image received from a camera.
type Frame struct {
	Camera string
	Data   []byte
}

// Box locates a detected face inside a frame, in pixels.
type Box struct {
	Camera string
	Index  int
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Key returns the face slot the box belongs to.
func (b Box) Key() FaceKey { return FaceKey{Camera: b.Camera, Index: b.Index} }

// Height is bottom minus top.
func (b Box) Height() int { return b.Bottom - b.Top }

// Middle is the floored horizontal midpoint.
func (b Box) Middle() int { return (b.Left + b.Right) >> 1 }

// Label is the identity attached to a face slot. An empty Name means no
// identity is known.
type Label struct {
	Camera string
	Index  int
	Name   string
}

// Key returns the face slot the label belongs to.
func (l Label) Key() FaceKey { return FaceKey{Camera: l.Camera, Index: l.Index} }

// Crop is an encoded face image cut out of a frame.
type Crop struct {
	Camera string
	Index  int
	Data   []byte
}

// Key returns the face slot the crop belongs to.
func (c Crop) Key() FaceKey { return FaceKey{Camera: c.Camera, Index: c.Index} }

// RecognitionEntry is one known appearance signature.
type RecognitionEntry struct {
	Key      string // bus key the vector was read from
	Name     string
	Encoding []float64
}

// Motion is a unit command: each component is -1, 0 or +1.
type Motion struct {
	Linear  int
	Angular int
}

// IsZero reports whether the motion is the dead-zone command.
func (m Motion) IsZero() bool { return m.Linear == 0 && m.Angular == 0 }

// Vector3 is a three component float vector.
type Vector3 struct {
	X float64
	Y float64
	Z float64
}

// Command is the velocity command sent to the robot. Only Linear.X and
// Angular.Z are ever populated.
type Command struct {
	Linear  Vector3
	Angular Vector3
}

// CommandState remembers the last geometry decision of a face slot.
type CommandState struct {
	LastAppliedSampleCount uint64
	LastDecision           Motion
}

// SampleKind classifies inbound bus samples.
type SampleKind string

// Inbound sample kinds.
const (
	KindFrame  SampleKind = "frame"
	KindCrop   SampleKind = "crop"
	KindBox    SampleKind = "box"
	KindLabel  SampleKind = "label"
	KindVector SampleKind = "vector"
	KindLog    SampleKind = "log"
)

// Sample is one raw inbound message waiting to be applied to the store.
type Sample struct {
	Key        string
	Payload    []byte
	ReceivedAt time.Time
}

// LogRecord is a decoded entry of the robot log topic.
type LogRecord struct {
	Stamp    time.Time
	Level    int8
	Name     string
	Message  string
	File     string
	Function string
	Line     uint32
}
