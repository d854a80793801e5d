package main

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/okian/elrobot/pkg/logger"
	"github.com/okian/elrobot/pkg/metrics"
)

const nanosecondsPerMillisecond = 1e6

// startSystemMetricsUpdater updates system metrics every refresh interval
// until ctx is done. It does nothing while metrics are disabled.
func startSystemMetricsUpdater(ctx context.Context) {
	if !metrics.Enabled() {
		return
	}
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())) //nolint:gosec // pid fits int32
	if err != nil {
		logger.Get().Warn(ctx, "process stats unavailable", logger.Error(err))
	}

	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics(ctx, proc)
		}
	}
}

// updateSystemMetrics updates runtime and process metrics.
func updateSystemMetrics(ctx context.Context, proc *process.Process) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}

	if proc == nil {
		return
	}
	cpu, err := proc.PercentWithContext(ctx, 0)
	if err != nil {
		return
	}
	mem, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return
	}
	metrics.UpdateProcessStats(cpu, mem.RSS)
}
