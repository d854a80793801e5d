package repository

import (
	"sort"
	"time"

	"github.com/okian/elrobot/internal/domain/model"
)

// Snapshot is an immutable view of the store. Payload byte slices are shared
// with the store; nothing in the process mutates a payload after it was put.
type Snapshot struct {
	Frames  map[string]model.Frame
	Boxes   map[model.FaceKey]model.Box
	Labels  map[model.FaceKey]model.Label
	Crops   map[model.FaceKey]model.Crop
	Samples map[model.FaceKey]uint64
	// Vectors in first-insertion order.
	Vectors []model.RecognitionEntry
	// VectorGeneration changes whenever a vector is added or replaced.
	VectorGeneration uint64
	TakenAt          time.Time

	version uint64
}

// Cameras returns the cameras with a frame, sorted.
func (s *Snapshot) Cameras() []string {
	out := make([]string, 0, len(s.Frames))
	for cam := range s.Frames {
		out = append(out, cam)
	}
	sort.Strings(out)
	return out
}

// Faces returns every face slot with a box, label or crop, sorted by camera
// then index.
func (s *Snapshot) Faces() []model.FaceKey {
	seen := make(map[model.FaceKey]struct{}, len(s.Boxes)+len(s.Crops))
	for k := range s.Boxes {
		seen[k] = struct{}{}
	}
	for k := range s.Labels {
		seen[k] = struct{}{}
	}
	for k := range s.Crops {
		seen[k] = struct{}{}
	}
	out := make([]model.FaceKey, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Box returns the box of a slot.
func (s *Snapshot) Box(k model.FaceKey) (model.Box, bool) {
	b, ok := s.Boxes[k]
	return b, ok
}

// LabelName returns the identity of a slot, empty when none is known.
func (s *Snapshot) LabelName(k model.FaceKey) string {
	return s.Labels[k].Name
}

// Counts returns the number of entries per kind.
func (s *Snapshot) Counts() Counts {
	return Counts{
		Cameras: len(s.Frames),
		Boxes:   len(s.Boxes),
		Labels:  len(s.Labels),
		Crops:   len(s.Crops),
		Vectors: len(s.Vectors),
	}
}
