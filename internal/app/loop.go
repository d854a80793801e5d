package service

import (
	"context"
	"time"

	"github.com/okian/elrobot/internal/config"
	"github.com/okian/elrobot/internal/domain/policy"
	"github.com/okian/elrobot/pkg/logger"
	"github.com/okian/elrobot/pkg/metrics"
)

// loop ticks until ctx is cancelled. Cancellation is only observed between
// ticks and during the delay, never in the middle of a tick.
func (s *Service) loop(ctx context.Context) error {
	s.logger.Info(ctx, "control loop started", logger.Duration("delay", s.cfg.Delay))
	defer func() {
		s.logger.Info(ctx, "control loop stopped", logger.Uint64("ticks", s.ticks.Load()))
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		if ctx.Err() != nil {
			return nil
		}

		start := time.Now()
		s.Tick(ctx)
		metrics.RecordTick(float64(time.Since(start).Microseconds()) / 1000)

		timer.Reset(s.cfg.Delay)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}

// Tick runs one pass of the role over a fresh snapshot of the store.
func (s *Service) Tick(ctx context.Context) {
	switch s.cfg.Role {
	case config.RoleDetector:
		s.detectTick(ctx)
	case config.RoleRecognizer:
		s.recognizeTick(ctx)
	}
	s.ticks.Add(1)
}

// emit records and publishes one decision. Publish failures are logged by
// the publisher and do not stop the loop.
func (s *Service) emit(ctx context.Context, d policy.Decision) {
	s.recomputations.Store(s.engine.Recomputations())
	s.debounced.Store(s.engine.Debounced())
	metrics.RecordDecision(string(d.Source))
	_ = s.publisher.Publish(ctx, d.Command)
}

// publish sends a derived payload. Failures are logged and counted.
func (s *Service) publish(ctx context.Context, kind, key string, payload []byte) {
	if err := s.bus.Publish(ctx, key, payload); err != nil {
		metrics.RecordPublishError(kind)
		s.logger.Warn(ctx, "publish failed", logger.String("key", key), logger.Error(err))
	}
}
