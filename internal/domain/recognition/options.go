package recognition

import (
	"time"

	"github.com/okian/elrobot/pkg/logger"
)

// Option applies a configuration option to the Recognizer.
type Option func(*Recognizer)

// WithTolerance sets the match distance.
func WithTolerance(tolerance float64) Option {
	return func(r *Recognizer) {
		if tolerance > 0 {
			r.tolerance = tolerance
		}
	}
}

// WithCacheTTL sets how long a crop signature is remembered. Zero disables
// the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Recognizer) {
		r.cacheTTL = ttl
	}
}

// WithUnknownName sets the label used when nobody matches.
func WithUnknownName(name string) Option {
	return func(r *Recognizer) {
		if name != "" {
			r.unknown = name
		}
	}
}

// WithLogger sets a custom logger for the recognizer.
func WithLogger(l logger.Logger) Option {
	return func(r *Recognizer) {
		if l != nil {
			r.logger = l
		}
	}
}
