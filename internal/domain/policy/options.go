// Package policy turns face geometry and identity into velocity commands.
package policy

import "github.com/okian/elrobot/internal/domain/model"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithNamedMotions sets the identities that map to a fixed unit command.
// The map is copied; zero motions are ignored.
func WithNamedMotions(named map[string]model.Motion) Option {
	return func(e *Engine) {
		e.named = make(map[string]model.Motion, len(named))
		for name, m := range named {
			if name == "" || m.IsZero() {
				continue
			}
			e.named[name] = m
		}
	}
}

// WithGeometry sets the thresholds of the geometry branch.
func WithGeometry(g Geometry) Option {
	return func(e *Engine) {
		if g.valid() {
			e.geometry = g
		}
	}
}

// WithScale sets the factors applied to unit motions.
func WithScale(linear, angular float64) Option {
	return func(e *Engine) {
		e.scale = Scale{Linear: linear, Angular: angular}
	}
}

// WithDebounce enables reuse of the previous geometry decision when no new
// box sample arrived for a face slot since the last tick.
func WithDebounce(enabled bool) Option {
	return func(e *Engine) {
		e.debounce = enabled
	}
}
