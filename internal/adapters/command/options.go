package command

import "github.com/okian/elrobot/pkg/logger"

// Option configures a Publisher.
type Option func(*Publisher)

// WithTopic overrides the command topic. Empty values are ignored.
func WithTopic(topic string) Option {
	return func(p *Publisher) {
		if topic != "" {
			p.topic = topic
		}
	}
}

// WithLogger sets the publisher logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}
