// Package command publishes velocity commands to the robot.
package command

import (
	"context"
	"fmt"

	"github.com/okian/elrobot/internal/adapters/codec"
	"github.com/okian/elrobot/internal/domain/model"
	"github.com/okian/elrobot/pkg/logger"
	"github.com/okian/elrobot/pkg/metrics"
)

// Default topic of the velocity command.
const DefaultTopic = "rt/turtle1/cmd_vel"

// Sender is the part of the bus the publisher needs.
type Sender interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Publisher encodes commands as CDR Twist messages and sends them.
type Publisher struct {
	sender Sender
	topic  string
	logger logger.Logger
}

// NewPublisher creates a publisher writing to the given topic.
func NewPublisher(sender Sender, opts ...Option) *Publisher {
	p := &Publisher{
		sender: sender,
		topic:  DefaultTopic,
		logger: logger.Get().Named("cmd-vel"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Topic returns the key commands are published to.
func (p *Publisher) Topic() string { return p.topic }

// Publish sends one command. A failed send is logged and counted; the
// error is returned so callers may decide, but the control loop does not
// stop on it.
func (p *Publisher) Publish(ctx context.Context, cmd model.Command) error {
	if err := p.sender.Publish(ctx, p.topic, codec.EncodeTwist(cmd)); err != nil {
		metrics.RecordPublishError("cmd_vel")
		p.logger.Warn(ctx, "publish command failed",
			logger.String("topic", p.topic),
			logger.Float64("linear_x", cmd.Linear.X),
			logger.Float64("angular_z", cmd.Angular.Z),
			logger.Error(err))
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	metrics.RecordCommandPublished()
	p.logger.Debug(ctx, "command published",
		logger.Float64("linear_x", cmd.Linear.X),
		logger.Float64("angular_z", cmd.Angular.Z))
	return nil
}
