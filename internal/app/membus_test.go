package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sort"
	"sync"

	"github.com/okian/elrobot/internal/adapters/bus"
	"github.com/okian/elrobot/internal/adapters/codec"
	"github.com/okian/elrobot/internal/adapters/vision"
	"github.com/okian/elrobot/internal/domain/model"
)

// memBus is an in-process bus.Bus delivering synchronously.
type memBus struct {
	mu        sync.Mutex
	stored    map[string][]byte
	subs      map[*memSub]struct{}
	published []bus.Message
	failKey   string
	closed    bool
}

type memSub struct {
	b       *memBus
	pattern string
	h       bus.Handler
}

func newMemBus() *memBus {
	return &memBus{stored: map[string][]byte{}, subs: map[*memSub]struct{}{}}
}

func (b *memBus) Publish(ctx context.Context, key string, payload []byte) error {
	b.mu.Lock()
	if key == b.failKey {
		b.mu.Unlock()
		return errors.New("publish refused")
	}
	b.published = append(b.published, bus.Message{Key: key, Payload: payload})
	var targets []*memSub
	for s := range b.subs {
		if bus.Match(s.pattern, key) {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	for _, s := range targets {
		s.h(ctx, bus.Message{Key: key, Payload: payload})
	}
	return nil
}

func (b *memBus) Store(ctx context.Context, key string, payload []byte) error {
	b.mu.Lock()
	b.stored[key] = payload
	b.mu.Unlock()
	return b.Publish(ctx, key, payload)
}

func (b *memBus) Subscribe(_ context.Context, pattern string, h bus.Handler) (bus.Subscription, error) {
	if err := bus.ValidatePattern(pattern); err != nil {
		return nil, err
	}
	s := &memSub{b: b, pattern: pattern, h: h}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s, nil
}

func (b *memBus) Get(_ context.Context, pattern string) ([]bus.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []bus.Message
	for k, v := range b.stored {
		if bus.Match(pattern, k) {
			out = append(out, bus.Message{Key: k, Payload: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (b *memBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

func (s *memSub) Pattern() string { return s.pattern }

func (s *memSub) Unsubscribe() error {
	s.b.mu.Lock()
	delete(s.b.subs, s)
	s.b.mu.Unlock()
	return nil
}

func (b *memBus) subscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// sent returns the payloads published on key, oldest first.
func (b *memBus) sent(key string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out [][]byte
	for _, m := range b.published {
		if m.Key == key {
			out = append(out, m.Payload)
		}
	}
	return out
}

// commands decodes every Twist published on topic.
func (b *memBus) commands(topic string) []model.Command {
	var out []model.Command
	for _, p := range b.sent(topic) {
		c, err := codec.DecodeTwist(p)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

type fixedDetector struct {
	mu    sync.Mutex
	rects []vision.Rect
	calls int
}

func (d *fixedDetector) Detect(context.Context, []byte) ([]vision.Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return append([]vision.Rect(nil), d.rects...), nil
}

type countingEncoder struct {
	mu        sync.Mutex
	encodings [][]float64
	err       error
	calls     int
}

func (e *countingEncoder) Encode(context.Context, []byte) ([][]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.encodings, e.err
}

func (e *countingEncoder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func jpegFrame(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 5), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
