package envelope

import (
	"context"
	"log/slog"
	"time"
)

// ResourceStats is one sample of container resource usage (spec.md §4.6).
type ResourceStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	DiskPercent   float64 `json:"disk_percent"`
}

const (
	cpuWarnThreshold    = 90.0
	memoryWarnThreshold = 85.0
)

// StatsSink persists a resource-stats sample; pkg/cache.Cache satisfies
// this via PutResourceStats.
type StatsSink interface {
	PutResourceStats(ctx context.Context, testID string, stats any) error
}

// StatsSource collects one resource-usage sample, typically by execing
// `docker stats` against the running container.
type StatsSource func(ctx context.Context) (ResourceStats, error)

// Sampler polls a StatsSource on an interval and records samples to a
// StatsSink, warning when usage crosses the spec's thresholds.
type Sampler struct {
	testID   string
	source   StatsSource
	sink     StatsSink
	interval time.Duration
	log      *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSampler constructs a Sampler with the spec's default 5s interval.
func NewSampler(testID string, source StatsSource, sink StatsSink, interval time.Duration, log *slog.Logger) *Sampler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sampler{testID: testID, source: source, sink: sink, interval: interval, log: log}
}

// Start begins sampling in a background goroutine.
func (s *Sampler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sampleOnce(ctx)
			}
		}
	}()
}

// Stop cancels sampling and waits for the background goroutine to exit —
// the "monitor cancel" step of the envelope's reverse-order cleanup.
func (s *Sampler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Sampler) sampleOnce(ctx context.Context) {
	stats, err := s.source(ctx)
	if err != nil {
		s.log.Warn("envelope: sample failed", "test_id", s.testID, "error", err)
		return
	}
	if err := s.sink.PutResourceStats(ctx, s.testID, stats); err != nil {
		s.log.Warn("envelope: cache sample failed", "test_id", s.testID, "error", err)
	}
	if stats.CPUPercent > cpuWarnThreshold {
		s.log.Warn("envelope: cpu usage high", "test_id", s.testID, "cpu_percent", stats.CPUPercent)
	}
	if stats.MemoryPercent > memoryWarnThreshold {
		s.log.Warn("envelope: memory usage high", "test_id", s.testID, "memory_percent", stats.MemoryPercent)
	}
}
