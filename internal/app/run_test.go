package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/okian/elrobot/internal/adapters/bus"
	"github.com/okian/elrobot/internal/adapters/bus/redisbus"
	"github.com/okian/elrobot/internal/adapters/codec"
	"github.com/okian/elrobot/internal/adapters/vision"
	"github.com/okian/elrobot/internal/config"
)

func TestService_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := newMemBus()
	svc := New(
		WithConfig(testConfig(config.RoleDetector)),
		WithBus(b),
		WithDetector(&fixedDetector{rects: []vision.Rect{{X: 20, Y: 20, W: 500, H: 280}}}),
	)
	ctx := context.Background()
	require.NoError(t, svc.Start(ctx))

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- svc.Run(runCtx) }()

	require.NoError(t, b.Publish(ctx, "elrobot/cams/cam0", jpegFrame(640, 480)))
	require.Eventually(t, func() bool {
		return len(b.sent(cmdVel)) >= 3
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("control loop did not stop after cancellation")
	}
	svc.Stop()

	assert.Equal(t, 0, b.subscriptions())
	for _, c := range b.commands(cmdVel) {
		assert.Equal(t, 10.0, c.Linear.X)
		assert.Equal(t, 0.0, c.Angular.Z)
	}
}

func TestService_EndToEndRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	cfg := testConfig(config.RoleRecognizer)
	cfg.Bus.Connect = []string{mr.Addr()}
	cfg.LinearScale = 10

	svc := New(WithConfig(cfg))
	require.NoError(t, svc.Start(ctx))
	defer svc.Stop()

	observer, err := redisbus.New(ctx, &redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	defer observer.Close()

	got := make(chan []byte, 256)
	sub, err := observer.Subscribe(ctx, cfg.CmdVel, func(_ context.Context, m bus.Message) {
		select {
		case got <- m.Payload:
		default:
		}
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- svc.Run(runCtx) }()

	box := []byte(`{"left": 20, "top": 20, "right": 520, "bottom": 300}`)
	require.NoError(t, observer.Publish(ctx, "elrobot/faces/cam0/0/box", box))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case payload := <-got:
			cmd, err := codec.DecodeTwist(payload)
			require.NoError(t, err)
			assert.Equal(t, 10.0, cmd.Linear.X)
			assert.Zero(t, cmd.Linear.Y)
			assert.Zero(t, cmd.Linear.Z)
			assert.Zero(t, cmd.Angular.X)
			assert.Zero(t, cmd.Angular.Y)
			assert.Zero(t, cmd.Angular.Z)

			cancel()
			require.NoError(t, <-done)
			return
		case <-deadline:
			t.Fatal("no velocity command published")
		}
	}
}

func TestService_StartFailsWithoutBus(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(config.RoleRecognizer)
	cfg.Bus.Connect = []string{addr}

	svc := New(WithConfig(cfg))
	err := svc.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStart)
	assert.ErrorIs(t, err, bus.ErrConnect)
	assert.Equal(t, false, svc.GetStats()["started"])
}
