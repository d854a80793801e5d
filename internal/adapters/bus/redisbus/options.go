package redisbus

import "github.com/okian/elrobot/pkg/logger"

// Option applies a configuration option to the Bus.
type Option func(*Bus)

// WithLogger sets a custom logger for the bus.
func WithLogger(l logger.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}
