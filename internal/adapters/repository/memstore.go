package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/elrobot/internal/domain/model"
	"github.com/okian/elrobot/pkg/metrics"
)

// MemoryStore is the in-memory Store. Writers serialize on a mutex; readers
// get a snapshot that is rebuilt only when something changed since the last
// one.
type MemoryStore struct {
	mu      sync.RWMutex
	frames  map[string]model.Frame
	boxes   map[model.FaceKey]model.Box
	labels  map[model.FaceKey]model.Label
	crops   map[model.FaceKey]model.Crop
	samples map[model.FaceKey]uint64
	vectors []model.RecognitionEntry
	vecIdx  map[string]int

	// version is bumped under mu on every write.
	version  uint64
	vecGen   uint64
	snapshot atomic.Pointer[Snapshot]

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	closeOnce             sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store and starts its metrics updater,
// which stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		frames:                make(map[string]model.Frame),
		boxes:                 make(map[model.FaceKey]model.Box),
		labels:                make(map[model.FaceKey]model.Label),
		crops:                 make(map[model.FaceKey]model.Crop),
		samples:               make(map[model.FaceKey]uint64),
		vecIdx:                make(map[string]int),
		metricsUpdateInterval: metrics.RefreshInterval(),
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func validKey(camera string, index int) error {
	if camera == "" {
		return fmt.Errorf("%w: empty camera", ErrInvalidKey)
	}
	if index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidKey, index)
	}
	return nil
}

// PutFrame implements Store.PutFrame.
func (s *MemoryStore) PutFrame(_ context.Context, f model.Frame) error {
	if f.Camera == "" {
		return fmt.Errorf("%w: empty camera", ErrInvalidKey)
	}
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: frame %s", ErrEmptyPayload, f.Camera)
	}
	s.mu.Lock()
	s.frames[f.Camera] = f
	s.version++
	s.mu.Unlock()
	return nil
}

// PutBox implements Store.PutBox.
func (s *MemoryStore) PutBox(_ context.Context, b model.Box) error {
	if err := validKey(b.Camera, b.Index); err != nil {
		return err
	}
	k := b.Key()
	s.mu.Lock()
	s.boxes[k] = b
	s.samples[k]++
	s.version++
	s.mu.Unlock()
	return nil
}

// PutLabel implements Store.PutLabel.
func (s *MemoryStore) PutLabel(_ context.Context, l model.Label) error {
	if err := validKey(l.Camera, l.Index); err != nil {
		return err
	}
	s.mu.Lock()
	s.labels[l.Key()] = l
	s.version++
	s.mu.Unlock()
	return nil
}

// PutCrop implements Store.PutCrop.
func (s *MemoryStore) PutCrop(_ context.Context, c model.Crop) error {
	if err := validKey(c.Camera, c.Index); err != nil {
		return err
	}
	if len(c.Data) == 0 {
		return fmt.Errorf("%w: crop %s", ErrEmptyPayload, c.Key())
	}
	s.mu.Lock()
	s.crops[c.Key()] = c
	s.version++
	s.mu.Unlock()
	return nil
}

// PutVector implements Store.PutVector.
func (s *MemoryStore) PutVector(_ context.Context, e model.RecognitionEntry) error {
	if e.Key == "" || e.Name == "" {
		return fmt.Errorf("%w: vector key %q name %q", ErrInvalidKey, e.Key, e.Name)
	}
	if len(e.Encoding) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyEncoding, e.Key)
	}
	s.mu.Lock()
	if i, ok := s.vecIdx[e.Key]; ok {
		s.vectors[i] = e
	} else {
		s.vecIdx[e.Key] = len(s.vectors)
		s.vectors = append(s.vectors, e)
	}
	s.vecGen++
	s.version++
	s.mu.Unlock()
	return nil
}

// Snapshot implements Store.Snapshot.
func (s *MemoryStore) Snapshot(_ context.Context) *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if snap := s.snapshot.Load(); snap != nil && snap.version == s.version {
		return snap
	}

	snap := &Snapshot{
		Frames:           make(map[string]model.Frame, len(s.frames)),
		Boxes:            make(map[model.FaceKey]model.Box, len(s.boxes)),
		Labels:           make(map[model.FaceKey]model.Label, len(s.labels)),
		Crops:            make(map[model.FaceKey]model.Crop, len(s.crops)),
		Samples:          make(map[model.FaceKey]uint64, len(s.samples)),
		Vectors:          make([]model.RecognitionEntry, len(s.vectors)),
		VectorGeneration: s.vecGen,
		TakenAt:          time.Now(),
		version:          s.version,
	}
	for k, v := range s.frames {
		snap.Frames[k] = v
	}
	for k, v := range s.boxes {
		snap.Boxes[k] = v
	}
	for k, v := range s.labels {
		snap.Labels[k] = v
	}
	for k, v := range s.crops {
		snap.Crops[k] = v
	}
	for k, v := range s.samples {
		snap.Samples[k] = v
	}
	copy(snap.Vectors, s.vectors)

	s.snapshot.Store(snap)
	return snap
}

// Counts implements Store.Counts.
func (s *MemoryStore) Counts(_ context.Context) Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Cameras: len(s.frames),
		Boxes:   len(s.boxes),
		Labels:  len(s.labels),
		Crops:   len(s.crops),
		Vectors: len(s.vectors),
	}
}

// startMetricsUpdater starts a background goroutine that publishes store sizes.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics(ctx context.Context) {
	if !metrics.Enabled() {
		return
	}
	c := s.Counts(ctx)
	metrics.UpdateStoreEntries("frame", c.Cameras)
	metrics.UpdateStoreEntries("box", c.Boxes)
	metrics.UpdateStoreEntries("label", c.Labels)
	metrics.UpdateStoreEntries("crop", c.Crops)
	metrics.UpdateStoreEntries("vector", c.Vectors)
}
