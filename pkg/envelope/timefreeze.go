package envelope

import (
	"context"
	"sync"
	"time"
)

// TimeFreezeLayer binds a logical clock to a fixed instant for the duration
// of the envelope (spec.md §4.6). Go has no OS-level clock override
// available anywhere in the retrieval pack, so the binding is exposed as a
// Clock collaborator that envelope-aware code (the determinism worker's own
// timers, generated test harness) reads instead of time.Now directly.
type TimeFreezeLayer struct {
	mu     sync.RWMutex
	frozen time.Time
	active bool
}

// NewTimeFreezeLayer freezes the clock at t once Acquired.
func NewTimeFreezeLayer(t time.Time) *TimeFreezeLayer {
	return &TimeFreezeLayer{frozen: t}
}

func (t *TimeFreezeLayer) Name() string { return "time_freeze" }

func (t *TimeFreezeLayer) Acquire(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = true
	return nil
}

func (t *TimeFreezeLayer) Release(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	return nil
}

// Now returns the frozen instant while active, else the real wall clock —
// so code that holds a reference to the layer before Acquire still behaves
// correctly outside the envelope.
func (t *TimeFreezeLayer) Now() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.active {
		return t.frozen
	}
	return time.Now()
}
