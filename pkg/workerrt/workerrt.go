// Package workerrt generalizes the teacher's hand-built
// engine/ingest.StartConsumer loop into a reusable runtime shared by every
// pipeline worker role: bounded concurrent admission, reconnect backoff,
// per-task scoped temp directories, and poison-message quarantine after a
// configurable redelivery count (spec.md §7).
package workerrt

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/repropipe/fabric/pkg/bus"
)

// Handler processes one decoded message of type T. It returns an error to
// request redelivery (via Nak) or a *Poison error to force immediate
// termination regardless of the configured MaxDeliver.
type Handler[T any] func(ctx context.Context, scratchDir string, msg T) error

// Poison marks an error as non-retryable: the runtime Terms the message
// immediately instead of Nak-ing it, matching spec.md's MalformedInput /
// PolicyViolation error kinds which can never succeed on redelivery.
type Poison struct{ Err error }

func (p *Poison) Error() string { return p.Err.Error() }
func (p *Poison) Unwrap() error { return p.Err }

// Config controls runtime admission and retry behavior.
type Config struct {
	// Role names the worker (e.g. "ingest", "signal"); used as the durable
	// consumer name and the scratch-dir prefix.
	Role string
	// MaxConcurrentTasks bounds in-flight handler invocations (the
	// "max_concurrent_tasks" setting from spec.md §7).
	MaxConcurrentTasks int
	// MaxDeliver is the redelivery ceiling before a message is quarantined
	// (default 5 per spec.md's poison-message rule).
	MaxDeliver int
	// FetchBatch is how many messages to pull per Fetch call.
	FetchBatch int
	// NakDelay is how long a Nak'd message waits before redelivery.
	NakDelay time.Duration
	// ReconnectBackoffBase is the initial backoff after a Fetch error
	// (default 5s, unbounded retries per spec.md).
	ReconnectBackoffBase time.Duration
	// ScratchRoot is the parent directory for per-task scoped temp dirs.
	ScratchRoot string
	Logger      *slog.Logger
}

func (c *Config) setDefaults() {
	if c.MaxConcurrentTasks <= 0 {
		c.MaxConcurrentTasks = 4
	}
	if c.MaxDeliver <= 0 {
		c.MaxDeliver = 5
	}
	if c.FetchBatch <= 0 {
		c.FetchBatch = 10
	}
	if c.NakDelay <= 0 {
		c.NakDelay = 10 * time.Second
	}
	if c.ReconnectBackoffBase <= 0 {
		c.ReconnectBackoffBase = 5 * time.Second
	}
	if c.ScratchRoot == "" {
		c.ScratchRoot = os.TempDir()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Runtime drives a durable consumer through a bounded worker pool.
type Runtime[T any] struct {
	cfg     Config
	cons    *bus.Consumer[T]
	handler Handler[T]

	stop   chan struct{}
	done   chan struct{}
	sem    chan struct{}
	wg     sync.WaitGroup
}

// New builds a Runtime bound to an already-created durable consumer.
func New[T any](cfg Config, cons *bus.Consumer[T], handler Handler[T]) *Runtime[T] {
	cfg.setDefaults()
	return &Runtime[T]{
		cfg:     cfg,
		cons:    cons,
		handler: handler,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		sem:     make(chan struct{}, cfg.MaxConcurrentTasks),
	}
}

// Start runs the fetch loop until Stop is called or ctx is cancelled.
func (r *Runtime[T]) Start(ctx context.Context) {
	defer close(r.done)
	backoff := r.cfg.ReconnectBackoffBase
	for {
		select {
		case <-r.stop:
			r.wg.Wait()
			return
		case <-ctx.Done():
			r.wg.Wait()
			return
		default:
		}

		deliveries, err := r.cons.Fetch(ctx, r.cfg.FetchBatch)
		if err != nil {
			r.cfg.Logger.Error("workerrt: fetch failed", "role", r.cfg.Role, "error", err, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-r.stop:
				r.wg.Wait()
				return
			case <-ctx.Done():
				r.wg.Wait()
				return
			}
			if backoff < time.Minute {
				backoff *= 2
			}
			continue
		}
		backoff = r.cfg.ReconnectBackoffBase

		for _, d := range deliveries {
			d := d
			r.sem <- struct{}{}
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				defer func() { <-r.sem }()
				r.process(ctx, d)
			}()
		}
	}
}

// Stop signals the fetch loop to exit after draining in-flight handlers.
func (r *Runtime[T]) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Runtime[T]) process(ctx context.Context, d bus.Delivery[T]) {
	taskCtx := d.Context(ctx)
	scratch, cleanup, err := scopedTempDir(r.cfg.ScratchRoot, r.cfg.Role)
	if err != nil {
		r.cfg.Logger.Error("workerrt: scratch dir", "role", r.cfg.Role, "error", err)
		_ = d.Nak(r.cfg.NakDelay)
		return
	}
	defer cleanup()

	if d.NumDelivered > uint64(r.cfg.MaxDeliver) {
		r.cfg.Logger.Warn("workerrt: quarantining poison message", "role", r.cfg.Role, "delivered", d.NumDelivered)
		_ = d.Term()
		return
	}

	err = r.handler(taskCtx, scratch, d.Value)
	if err == nil {
		_ = d.Ack()
		return
	}

	var poison *Poison
	if asPoison(err, &poison) {
		r.cfg.Logger.Error("workerrt: poison message terminated", "role", r.cfg.Role, "error", poison.Err)
		_ = d.Term()
		return
	}

	r.cfg.Logger.Warn("workerrt: handler failed, nak", "role", r.cfg.Role, "error", err, "delivered", d.NumDelivered)
	_ = d.Nak(r.cfg.NakDelay)
}

func asPoison(err error, target **Poison) bool {
	for err != nil {
		if p, ok := err.(*Poison); ok {
			*target = p
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// scopedTempDir creates a per-task temp directory under root, returning a
// cleanup func guaranteed safe to call even on the error path.
func scopedTempDir(root, role string) (string, func(), error) {
	dir, err := os.MkdirTemp(root, "fabric-"+role+"-*")
	if err != nil {
		return "", func() {}, err
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}
