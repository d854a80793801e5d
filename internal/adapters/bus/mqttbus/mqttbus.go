// Package mqttbus implements bus.Bus on an MQTT broker. Stored samples are
// retained messages.
package mqttbus

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/okian/elrobot/internal/adapters/bus"
	"github.com/okian/elrobot/pkg/logger"
)

const (
	defaultConnectTimeout = 30 * time.Second
	defaultOpTimeout      = 10 * time.Second
	defaultGetQuiet       = 200 * time.Millisecond
	disconnectQuiesceMs   = 250
)

// Config describes the broker session.
type Config struct {
	Brokers  []string
	ClientID string
	Username string
	Password string
	QoS      byte
	// GetQuiet ends a Get once no retained message arrived for this long.
	GetQuiet time.Duration
}

// Bus is an MQTT backed bus.Bus.
type Bus struct {
	client mqtt.Client
	qos    byte
	quiet  time.Duration
	logger logger.Logger

	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
}

var _ bus.Bus = (*Bus)(nil)

// New connects to the brokers of cfg.
func New(ctx context.Context, cfg Config) (*Bus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: no broker", bus.ErrConnect)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "elrobot-" + uuid.NewString()
	}

	b := newBus(nil, cfg)

	opts := mqtt.NewClientOptions()
	for _, broker := range cfg.Brokers {
		opts.AddBroker(broker)
	}
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		b.logger.Info(ctx, "connected", logger.String("client_id", cfg.ClientID))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		b.logger.Warn(ctx, "connection lost", logger.Error(err))
	})
	b.client = mqtt.NewClient(opts)

	token := b.client.Connect()
	if err := wait(ctx, token, defaultConnectTimeout); err != nil {
		return nil, fmt.Errorf("%w: mqtt %s: %w", bus.ErrConnect, strings.Join(cfg.Brokers, ","), err)
	}
	return b, nil
}

func newBus(client mqtt.Client, cfg Config) *Bus {
	quiet := cfg.GetQuiet
	if quiet <= 0 {
		quiet = defaultGetQuiet
	}
	return &Bus{
		client: client,
		qos:    cfg.QoS,
		quiet:  quiet,
		logger: logger.Get().Named("mqttbus"),
		subs:   make(map[*subscription]struct{}),
	}
}

// Publish implements bus.Bus.
func (b *Bus) Publish(ctx context.Context, key string, payload []byte) error {
	return b.publish(ctx, key, payload, false)
}

// Store implements bus.Bus with a retained publication.
func (b *Bus) Store(ctx context.Context, key string, payload []byte) error {
	return b.publish(ctx, key, payload, true)
}

func (b *Bus) publish(ctx context.Context, key string, payload []byte, retained bool) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}
	if err := wait(ctx, b.client.Publish(key, b.qos, retained, payload), defaultOpTimeout); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

// Subscribe implements bus.Bus.
func (b *Bus) Subscribe(ctx context.Context, pattern string, h bus.Handler) (bus.Subscription, error) {
	if err := bus.ValidatePattern(pattern); err != nil {
		return nil, err
	}
	if err := b.ensureOpen(); err != nil {
		return nil, err
	}

	s := &subscription{pattern: pattern, filter: ToFilter(pattern), owner: b}
	hctx := context.WithoutCancel(ctx)
	cb := func(_ mqtt.Client, m mqtt.Message) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.done || !bus.Match(pattern, m.Topic()) {
			return
		}
		h(hctx, bus.Message{Key: m.Topic(), Payload: m.Payload()})
	}
	if err := wait(ctx, b.client.Subscribe(s.filter, b.qos, cb), defaultOpTimeout); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", pattern, err)
	}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s, nil
}

// Get implements bus.Bus by collecting the retained messages the broker
// replays on a fresh subscription. It returns once no retained message
// arrived for the quiet period, or when ctx is done.
func (b *Bus) Get(ctx context.Context, pattern string) ([]bus.Message, error) {
	var (
		mu   sync.Mutex
		got  = make(map[string][]byte)
		tick = make(chan struct{}, 1)
	)
	sub, err := b.Subscribe(ctx, pattern, func(_ context.Context, m bus.Message) {
		mu.Lock()
		got[m.Key] = m.Payload
		mu.Unlock()
		select {
		case tick <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = sub.Unsubscribe() }()

	timer := time.NewTimer(b.quiet)
	defer timer.Stop()
collect:
	for {
		select {
		case <-ctx.Done():
			break collect
		case <-timer.C:
			break collect
		case <-tick:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(b.quiet)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	out := make([]bus.Message, 0, len(got))
	for k, v := range got {
		out = append(out, bus.Message{Key: k, Payload: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Close unsubscribes everything and disconnects.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*subscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		_ = s.Unsubscribe()
	}
	b.client.Disconnect(disconnectQuiesceMs)
	return nil
}

func (b *Bus) ensureOpen() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return bus.ErrClosed
	}
	return nil
}

type subscription struct {
	pattern string
	filter  string
	owner   *Bus

	mu   sync.RWMutex
	done bool
}

func (s *subscription) Pattern() string { return s.pattern }

// Unsubscribe implements bus.Subscription. Taking the write lock waits for a
// running handler.
func (s *subscription) Unsubscribe() error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	s.done = true
	s.mu.Unlock()

	s.owner.mu.Lock()
	delete(s.owner.subs, s)
	s.owner.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultOpTimeout)
	defer cancel()
	return wait(ctx, s.owner.client.Unsubscribe(s.filter), defaultOpTimeout)
}

// ToFilter converts a key expression to an MQTT topic filter. MQTT only
// allows "#" last, so everything after the first "**" collapses into it;
// deliveries are matched against the full expression again.
func ToFilter(pattern string) string {
	chunks := strings.Split(pattern, "/")
	for i, c := range chunks {
		switch c {
		case "*":
			chunks[i] = "+"
		case "**":
			return strings.Join(append(chunks[:i:i], "#"), "/")
		}
	}
	return strings.Join(chunks, "/")
}

func wait(ctx context.Context, t mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.Done():
		return t.Error()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
