// Package service wires a role process together: bus session, ingestion
// store, ingest workers, decision engine and the control loop.
package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/elrobot/internal/adapters/bus"
	"github.com/okian/elrobot/internal/adapters/command"
	"github.com/okian/elrobot/internal/adapters/http/api"
	"github.com/okian/elrobot/internal/adapters/mq/queue"
	"github.com/okian/elrobot/internal/adapters/mq/worker"
	"github.com/okian/elrobot/internal/adapters/repository"
	"github.com/okian/elrobot/internal/adapters/vision"
	"github.com/okian/elrobot/internal/config"
	"github.com/okian/elrobot/internal/domain/model"
	"github.com/okian/elrobot/internal/domain/policy"
	"github.com/okian/elrobot/internal/domain/recognition"
	"github.com/okian/elrobot/pkg/logger"
)

// Service runs one role: detector or recognizer.
type Service struct {
	mu sync.RWMutex

	cfg  *config.Config
	keys bus.Keys

	// Core components
	bus        bus.Bus
	ownsBus    bool
	store      *repository.MemoryStore
	queue      *queue.InMemoryQueue
	pool       *worker.Pool
	engine     *policy.Engine
	publisher  *command.Publisher
	adapter    *vision.Adapter
	recognizer *recognition.Recognizer
	detector   vision.Detector
	encoder    recognition.Encoder
	closers    []io.Closer
	subs       []bus.Subscription

	// Only touched by the control loop.
	identities map[model.FaceKey]identity

	// State
	session        string
	started        bool
	ticks          atomic.Uint64
	recomputations atomic.Uint64
	debounced      atomic.Uint64

	logger logger.Logger
}

// New constructs a Service. Without WithConfig the defaults of config.New
// are used.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:        config.New(),
		session:    uuid.NewString(),
		identities: make(map[model.FaceKey]identity),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named(s.cfg.Role)
	}
	s.logger = s.logger.With(logger.String("session", s.session))
	return s
}

// Start connects to the bus, bootstraps recognition vectors and subscribes
// to the inbound keys of the role. Any failure is returned and leaves the
// service stopped.
func (s *Service) Start(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrStart, err)
	}

	s.logger.Info(ctx, "starting service",
		logger.String("role", s.cfg.Role),
		logger.String("prefix", s.cfg.Prefix),
		logger.String("driver", s.cfg.Bus.Driver),
		logger.String("mode", s.cfg.Bus.Mode))

	defer func() {
		if err != nil {
			s.teardown(ctx)
		}
	}()

	if s.bus == nil {
		if s.bus, err = Dial(ctx, s.cfg); err != nil {
			return fmt.Errorf("%w: %w", ErrStart, err)
		}
		s.ownsBus = true
	}
	s.keys = bus.Keys{Prefix: s.cfg.Prefix, Rosout: s.cfg.Rosout}

	s.store = repository.NewMemoryStore(ctx)
	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.cfg.Ingest.QueueSize),
		queue.WithBufferSize(s.cfg.Ingest.QueueSize),
	)
	s.pool = worker.NewPool(s.cfg.Ingest.Workers, s.queue, s.store, s.keys)

	named, err := policy.NamedMotions(s.cfg.NamedIdentities)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStart, err)
	}
	s.engine = policy.NewEngine(
		policy.WithNamedMotions(named),
		policy.WithGeometry(s.cfg.GeometryThresholds()),
		policy.WithScale(s.cfg.LinearScale, s.cfg.AngularScale),
		policy.WithDebounce(s.cfg.Role == config.RoleRecognizer),
	)
	s.publisher = command.NewPublisher(s.bus, command.WithTopic(s.cfg.CmdVel))

	switch s.cfg.Role {
	case config.RoleDetector:
		err = s.startDetector(ctx)
	case config.RoleRecognizer:
		err = s.startRecognizer(ctx)
	}
	if err != nil {
		return err
	}

	if err = s.subscribe(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStart, err)
	}

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("subscriptions", len(s.subs)),
		logger.Int("workers", s.pool.Size()),
		logger.Duration("delay", s.cfg.Delay))
	return nil
}

func (s *Service) startDetector(ctx context.Context) error {
	if s.detector == nil {
		d, err := s.openDetector(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStart, err)
		}
		s.detector = d
	}
	s.adapter = vision.NewAdapter(s.detector,
		vision.WithWidth(s.cfg.Detection.Width),
		vision.WithQuality(s.cfg.Detection.Quality),
	)
	return nil
}

func (s *Service) startRecognizer(ctx context.Context) error {
	if !s.cfg.Recognition.Enabled {
		s.logger.Info(ctx, "recognition disabled; geometry only")
		return nil
	}
	if s.encoder == nil {
		h, err := vision.StartHelper(ctx, s.cfg.Detection.HelperCommand)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStart, err)
		}
		s.closers = append(s.closers, h)
		s.encoder = h
	}
	s.recognizer = recognition.NewRecognizer(s.encoder,
		recognition.WithTolerance(s.cfg.Recognition.Tolerance),
		recognition.WithCacheTTL(s.cfg.Recognition.CacheTTL),
	)
	return s.bootstrapVectors(ctx)
}

// openDetector builds the configured detection backend.
func (s *Service) openDetector(ctx context.Context) (vision.Detector, error) {
	switch s.cfg.Detection.Backend {
	case config.BackendCascade:
		c, err := vision.NewCascadeDetector(s.cfg.Detection.Cascade)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, c)
		return c, nil
	default:
		h, err := vision.StartHelper(ctx, s.cfg.Detection.HelperCommand)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, h)
		return h, nil
	}
}

// bootstrapVectors loads every stored recognition vector before the first
// tick. Malformed entries are discarded by the worker.
func (s *Service) bootstrapVectors(ctx context.Context) error {
	getCtx, cancel := context.WithTimeout(ctx, s.cfg.Bus.GetTimeout)
	defer cancel()

	msgs, err := s.bus.Get(getCtx, s.keys.VectorsPattern())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	loaded := 0
	for _, m := range msgs {
		if s.pool.Apply(ctx, worker.Sample{Key: m.Key, Payload: m.Payload, ReceivedAt: time.Now()}) == nil {
			loaded++
		}
	}
	s.logger.Info(ctx, "recognition vectors loaded",
		logger.Int("fetched", len(msgs)),
		logger.Int("loaded", loaded))
	return nil
}

// patterns returns the inbound key expressions of the role.
func (s *Service) patterns() []string {
	var out []string
	switch s.cfg.Role {
	case config.RoleDetector:
		out = []string{s.keys.CamerasPattern(), s.keys.LabelsPattern()}
	case config.RoleRecognizer:
		out = []string{s.keys.CropsPattern(), s.keys.BoxesPattern(), s.keys.LabelsPattern()}
		if s.recognizer != nil {
			out = append(out, s.keys.VectorsPattern())
		}
	}
	if s.keys.Rosout != "" {
		out = append(out, s.keys.Rosout)
	}
	return out
}

func (s *Service) subscribe(ctx context.Context) error {
	for _, p := range s.patterns() {
		sub, err := s.bus.Subscribe(ctx, p, s.enqueue)
		if err != nil {
			return err
		}
		s.subs = append(s.subs, sub)
		s.logger.Debug(ctx, "subscribed", logger.String("pattern", p))
	}
	return nil
}

// enqueue hands an inbound message to the ingest workers without blocking
// the bus delivery goroutine.
func (s *Service) enqueue(ctx context.Context, m bus.Message) {
	s.queue.Enqueue(ctx, queue.Sample{Key: m.Key, Payload: m.Payload, ReceivedAt: time.Now()})
}

// Run runs the ingest workers, the control loop and the HTTP server until
// ctx is cancelled or one of them fails.
func (s *Service) Run(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.pool.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return s.loop(gctx)
	})
	if addr := s.cfg.HTTP.Addr; addr != "" {
		g.Go(func() error {
			return api.NewServer(s).ListenAndServe(gctx, addr)
		})
	}
	return g.Wait()
}

// Stop releases subscriptions, workers, helpers and the bus session.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping service...")
	s.teardown(ctx)
	s.started = false
	s.logger.Info(ctx, "service stopped", logger.Uint64("ticks", s.ticks.Load()))
}

// teardown releases whatever Start managed to set up. Callers hold mu.
func (s *Service) teardown(ctx context.Context) {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn(ctx, "unsubscribe failed", logger.String("pattern", sub.Pattern()), logger.Error(err))
		}
	}
	s.subs = nil

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Warn(ctx, "closing helper failed", logger.Error(err))
		}
	}
	s.closers = nil

	if s.ownsBus && s.bus != nil {
		if err := s.bus.Close(); err != nil {
			s.logger.Warn(ctx, "closing bus failed", logger.Error(err))
		}
		s.bus = nil
		s.ownsBus = false
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started": s.started,
		"role":    s.cfg.Role,
		"session": s.session,
		"ticks":   s.ticks.Load(),
	}

	if s.started {
		applied, discarded := s.pool.Stats()
		stats["store"] = s.store.Counts(ctx)
		stats["queueLength"] = s.queue.Len(ctx)
		stats["applied"] = applied
		stats["discarded"] = discarded
		stats["recomputations"] = s.recomputations.Load()
		stats["debounced"] = s.debounced.Load()
	}

	return stats
}
