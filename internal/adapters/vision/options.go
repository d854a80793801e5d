package vision

import "github.com/okian/elrobot/pkg/logger"

// Option applies a configuration option to the Adapter.
type Option func(*Adapter)

// WithWidth sets the width crops are resized to.
func WithWidth(width int) Option {
	return func(a *Adapter) {
		if width > 0 {
			a.width = width
		}
	}
}

// WithQuality sets the JPEG quality of crops.
func WithQuality(quality int) Option {
	return func(a *Adapter) {
		if quality >= 1 && quality <= 100 {
			a.quality = quality
		}
	}
}

// WithLogger sets a custom logger for the adapter.
func WithLogger(l logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}
