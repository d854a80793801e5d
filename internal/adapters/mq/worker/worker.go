// Package worker applies inbound bus samples to the ingestion store: it
// classifies the key, decodes the payload into a typed value and puts it.
// Malformed samples are logged, counted and discarded.
package worker

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/elrobot/internal/adapters/bus"
	"github.com/okian/elrobot/internal/adapters/codec"
	"github.com/okian/elrobot/internal/adapters/mq/queue"
	"github.com/okian/elrobot/internal/domain/model"
	"github.com/okian/elrobot/pkg/logger"
	"github.com/okian/elrobot/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 1
	shardBufferSize     = 64
	poolShutdownTimeout = 5 * time.Second
)

// ErrDiscarded marks a sample that was dropped as malformed.
var ErrDiscarded = errors.New("sample discarded")

// Sample is what workers read off the queue.
type Sample = queue.Sample

// Store is the write side of the ingestion store.
type Store interface {
	PutFrame(ctx context.Context, f model.Frame) error
	PutBox(ctx context.Context, b model.Box) error
	PutLabel(ctx context.Context, l model.Label) error
	PutCrop(ctx context.Context, c model.Crop) error
	PutVector(ctx context.Context, e model.RecognitionEntry) error
}

// Classifier maps a bus key to its sample kind and slot.
type Classifier interface {
	Classify(key string) (bus.Parsed, error)
}

// Queue defines how workers receive samples.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Sample
}

// Worker drains the queue into the store.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	store      Store
	classifier Classifier
	name       string

	applied   atomic.Uint64
	discarded atomic.Uint64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, store Store, classifier Classifier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		store:      store,
		classifier: classifier,
		name:       "ingest",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("ingest"),
	}

	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logger.String("worker", w.name))

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	samples := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-samples:
			if !ok {
				return
			}
			_ = w.Apply(ctx, s)
		}
	}
}

// Shutdown stops the worker and waits for the sample in flight.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Applied returns the number of samples put into the store.
func (w *InMemoryWorker) Applied() uint64 { return w.applied.Load() }

// Discarded returns the number of malformed samples dropped.
func (w *InMemoryWorker) Discarded() uint64 { return w.discarded.Load() }

// Apply decodes one sample and puts it into the store. Any error wraps
// ErrDiscarded and has already been logged and counted.
func (w *InMemoryWorker) Apply(ctx context.Context, s Sample) error {
	p, err := w.classifier.Classify(s.Key)
	if err != nil {
		return w.discard(ctx, "key", s, err)
	}
	metrics.RecordSample(string(p.Kind))

	switch p.Kind {
	case model.KindFrame:
		err = w.store.PutFrame(ctx, model.Frame{Camera: p.Face.Camera, Data: s.Payload})
	case model.KindCrop:
		err = w.store.PutCrop(ctx, model.Crop{Camera: p.Face.Camera, Index: p.Face.Index, Data: s.Payload})
	case model.KindBox:
		var b model.Box
		if b, err = codec.DecodeBox(p.Face, s.Payload); err == nil {
			err = w.store.PutBox(ctx, b)
		}
	case model.KindLabel:
		var name string
		if name, err = codec.DecodeLabel(s.Payload); err == nil {
			err = w.store.PutLabel(ctx, model.Label{Camera: p.Face.Camera, Index: p.Face.Index, Name: name})
		}
	case model.KindVector:
		var enc []float64
		if enc, err = codec.DecodeVector(s.Payload); err == nil {
			err = w.store.PutVector(ctx, model.RecognitionEntry{Key: s.Key, Name: p.Name, Encoding: enc})
		}
	case model.KindLog:
		var rec model.LogRecord
		if rec, err = codec.DecodeLog(s.Payload); err == nil {
			w.logger.Debug(ctx, "rosout",
				logger.String("node", rec.Name),
				logger.Int("level", int(rec.Level)),
				logger.String("msg", rec.Message),
				logger.String("at", rec.File+":"+strconv.FormatUint(uint64(rec.Line), 10)),
				logger.String("function", rec.Function),
				logger.String("stamp", rec.Stamp.Format(time.RFC3339Nano)),
			)
		}
	default:
		err = fmt.Errorf("%w: kind %q", bus.ErrUnknownKey, p.Kind)
	}
	if err != nil {
		return w.discard(ctx, string(p.Kind), s, err)
	}
	w.applied.Add(1)
	return nil
}

func (w *InMemoryWorker) discard(ctx context.Context, kind string, s Sample, err error) error {
	w.discarded.Add(1)
	metrics.RecordDecodeError(kind)
	w.logger.Warn(ctx, "discarding sample",
		logger.String("key", s.Key),
		logger.Int("bytes", len(s.Payload)),
		logger.Error(err),
	)
	return fmt.Errorf("%w: %s: %w", ErrDiscarded, s.Key, err)
}

// Pool manages the store writers. Samples are sharded by key so every key
// has exactly one writer and is applied in arrival order.
type Pool struct {
	workers []*InMemoryWorker
	shards  []shard
	queue   Queue
	wg      sync.WaitGroup

	stop     chan struct{}
	stopOnce sync.Once

	logger logger.Logger
}

// shard is the private queue of one worker.
type shard chan Sample

func (s shard) Dequeue(context.Context) <-chan Sample { return s }

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, store Store, classifier Classifier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		shards:  make([]shard, workerCount),
		queue:   q,
		stop:    make(chan struct{}),
		logger:  logger.Get().Named("ingest-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.shards[i] = make(shard, shardBufferSize)
		wopts := append([]Option{WithName("ingest-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(pool.shards[i], store, classifier, wopts...)
	}

	return pool
}

// owner returns the index of the worker writing key.
func (p *Pool) owner(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(p.workers)))
}

// dispatch moves samples from the shared queue to the owning shard until
// the queue closes, the pool stops or ctx is done, then closes the shards.
func (p *Pool) dispatch(ctx context.Context) {
	defer func() {
		for _, sh := range p.shards {
			close(sh)
		}
	}()

	samples := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case s, ok := <-samples:
			if !ok {
				return
			}
			select {
			case p.shards[p.owner(s.Key)] <- s:
			case <-ctx.Done():
				return
			case <-p.stop:
				return
			}
		}
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Run runs the dispatcher and all workers and returns when they have
// stopped. A pool runs once.
func (p *Pool) Run(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.dispatch(ctx)
	}()
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	p.wg.Wait()
}

// Apply runs a sample through its owning worker synchronously. Use it only
// before Run, while no worker is draining.
func (p *Pool) Apply(ctx context.Context, s Sample) error {
	return p.workers[p.owner(s.Key)].Apply(ctx, s)
}

// Stats returns the applied and discarded totals.
func (p *Pool) Stats() (applied, discarded uint64) {
	for _, w := range p.workers {
		applied += w.Applied()
		discarded += w.Discarded()
	}
	return applied, discarded
}

// Shutdown closes the queue and waits for the workers to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.stopOnce.Do(func() { close(p.stop) })
	for _, w := range p.workers {
		w.shutdownOnce.Do(func() { close(w.shutdown) })
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	select {
	case <-done:
		return nil
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "worker shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
	}
}
