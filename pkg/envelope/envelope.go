// Package envelope implements the Determinism Controller's layered
// execution envelope (spec.md §4.6): network shaping, time freeze, resource
// limits, and container isolation, each toggleable and composed as a
// resource stack whose layers release in reverse acquisition order.
package envelope

import (
	"context"
	"fmt"
	"time"
)

// State is the envelope state machine's current phase (spec.md §4.6).
type State string

const (
	StateIdle            State = "idle"
	StateApplyEnvelope    State = "apply_envelope"
	StateContainerCreated State = "container_created"
	StateReady            State = "ready"
	StateExecuting        State = "executing"
	StateCompleted         State = "completed"
	StateFailed            State = "failed"
	StateCleanup            State = "cleanup"
)

// Config controls which envelope layers are active and their parameters.
type Config struct {
	EnableNetworkShaping bool
	EnableTimeFreezing   bool
	EnableResourceLimits bool

	// Network shaping.
	AddedLatencyMS int
	BandwidthKbps  int
	Interface      string

	// Time freeze.
	FrozenAt        time.Time
	FakeTimeOffset  time.Duration

	// Resource limits.
	CPUQuotaFraction float64 // fraction of one core
	MemoryCapMB      int
	DiskQuotaMB      int

	// Container.
	Image             string
	ReadinessTimeout  time.Duration
}

func (c *Config) setDefaults() {
	if c.ReadinessTimeout <= 0 {
		c.ReadinessTimeout = 30 * time.Second
	}
}

// Layer is one acquirable/releasable envelope component (spec.md §9's
// resource-stack design note, substituting for a context-manager idiom).
type Layer interface {
	Name() string
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// Stack acquires layers in order and guarantees release in reverse order,
// even on partial failure.
type Stack struct {
	layers   []Layer
	acquired []Layer
}

// NewStack builds a Stack from a Config, including only the layers enabled
// by the EnableX flags, in the spec's fixed layer order: network shaping,
// time freeze, resource limits, container.
func NewStack(cfg Config, container *ContainerLayer) *Stack {
	cfg.setDefaults()
	var layers []Layer
	if cfg.EnableNetworkShaping {
		layers = append(layers, NewNetworkShapingLayer(cfg.Interface, cfg.AddedLatencyMS, cfg.BandwidthKbps))
	}
	if cfg.EnableTimeFreezing {
		layers = append(layers, NewTimeFreezeLayer(resolveFrozenTime(cfg)))
	}
	if cfg.EnableResourceLimits {
		layers = append(layers, NewResourceLimitLayer(cfg.CPUQuotaFraction, cfg.MemoryCapMB, cfg.DiskQuotaMB))
	}
	if container != nil {
		layers = append(layers, container)
	}
	return &Stack{layers: layers}
}

func resolveFrozenTime(cfg Config) time.Time {
	if !cfg.FrozenAt.IsZero() {
		return cfg.FrozenAt
	}
	return time.Now().Add(cfg.FakeTimeOffset)
}

// Apply acquires every layer in order, rolling back (releasing) whatever
// was already acquired if any Acquire fails.
func (s *Stack) Apply(ctx context.Context) error {
	for _, l := range s.layers {
		if err := l.Acquire(ctx); err != nil {
			s.Teardown(context.Background())
			return fmt.Errorf("envelope: acquire %s: %w", l.Name(), err)
		}
		s.acquired = append(s.acquired, l)
	}
	return nil
}

// Teardown releases every acquired layer in reverse order. Errors are
// collected but do not stop subsequent releases: cleanup must always run
// to completion (spec.md §4.6's state machine).
func (s *Stack) Teardown(ctx context.Context) []error {
	var errs []error
	for i := len(s.acquired) - 1; i >= 0; i-- {
		l := s.acquired[i]
		if err := l.Release(ctx); err != nil {
			errs = append(errs, fmt.Errorf("envelope: release %s: %w", l.Name(), err))
		}
	}
	s.acquired = nil
	return errs
}
