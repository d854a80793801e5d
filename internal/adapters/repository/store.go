// Package repository holds the ingestion store: the last known frame, box,
// label and crop per camera and face slot, plus the recognition vectors.
package repository

import (
	"context"

	"github.com/okian/elrobot/internal/domain/model"
)

// Store is written by inbound message handlers and read by the control loop
// through snapshots. Every put overwrites the current value for its key; there
// is no merge, no history and no expiry.
type Store interface {
	PutFrame(ctx context.Context, f model.Frame) error
	// PutBox also bumps the box sample counter of the slot.
	PutBox(ctx context.Context, b model.Box) error
	PutLabel(ctx context.Context, l model.Label) error
	PutCrop(ctx context.Context, c model.Crop) error
	// PutVector stores one signature under its bus key. A key seen before
	// keeps its position in the entry order.
	PutVector(ctx context.Context, e model.RecognitionEntry) error

	// Snapshot returns a consistent point-in-time view. Callers must not
	// mutate it.
	Snapshot(ctx context.Context) *Snapshot

	// Counts returns the number of entries per kind.
	Counts(ctx context.Context) Counts
}

// Counts is the number of entries held per kind.
type Counts struct {
	Cameras int `json:"cameras"`
	Boxes   int `json:"boxes"`
	Labels  int `json:"labels"`
	Crops   int `json:"crops"`
	Vectors int `json:"vectors"`
}
