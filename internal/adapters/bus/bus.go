// Package bus defines the pub/sub session the robot talks over and the key
// hierarchy used on it. Drivers live in sub-packages.
package bus

import (
	"context"
)

// Message is one sample read from the bus.
type Message struct {
	Key     string
	Payload []byte
}

// Handler receives messages of a subscription. It runs on the driver's
// delivery goroutine and must return quickly.
type Handler func(ctx context.Context, msg Message)

// Subscription is a live subscription. Unsubscribe waits until the handler
// is no longer called.
type Subscription interface {
	Pattern() string
	Unsubscribe() error
}

// Bus is a key addressed pub/sub session. Patterns are key expressions:
// "*" matches exactly one chunk, "**" any number of chunks.
type Bus interface {
	// Publish sends a payload to current subscribers only.
	Publish(ctx context.Context, key string, payload []byte) error
	// Store persists the payload under key and publishes it, so later Get
	// calls and current subscribers both see it.
	Store(ctx context.Context, key string, payload []byte) error
	// Subscribe delivers every published message whose key matches pattern.
	Subscribe(ctx context.Context, pattern string, h Handler) (Subscription, error)
	// Get returns the stored messages matching pattern, sorted by key.
	Get(ctx context.Context, pattern string) ([]Message, error)
	Close() error
}
