package service

import (
	"github.com/okian/elrobot/internal/adapters/bus"
	"github.com/okian/elrobot/internal/adapters/vision"
	"github.com/okian/elrobot/internal/config"
	"github.com/okian/elrobot/internal/domain/recognition"
	"github.com/okian/elrobot/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. It is validated by Start.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithBus makes the service use an existing session instead of dialing one
// from the configuration. The caller keeps ownership and closes it.
func WithBus(b bus.Bus) Option {
	return func(s *Service) {
		s.bus = b
	}
}

// WithDetector replaces the configured detection backend.
func WithDetector(d vision.Detector) Option {
	return func(s *Service) {
		s.detector = d
	}
}

// WithEncoder replaces the configured signature encoder.
func WithEncoder(e recognition.Encoder) Option {
	return func(s *Service) {
		s.encoder = e
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
