// Package telemetry wraps github.com/prometheus/client_golang with the
// same thin Counter/Gauge/Histogram call-site shape the pipeline's worker
// mains use (Inc/Add/Set/Observe/Since), so every cmd/*-worker main.go reads
// like the teacher's cmd/ingest/main.go metrics block, backed by a real
// Prometheus registry instead of a hand-rolled one.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/repropipe/fabric/pkg/mid"
)

// DefaultBuckets mirrors Prometheus's own recommended latency buckets (seconds).
var DefaultBuckets = prometheus.DefBuckets

// Registry owns a private Prometheus registry so multiple worker processes
// in the same test binary don't collide on the global default registry.
type Registry struct {
	reg *prometheus.Registry
}

// New creates a Registry over a fresh private registry with no collectors
// registered; CollectRuntime adds the Go-runtime and process collectors,
// matching the teacher's met.CollectRuntime convention.
func New() *Registry {
	r := prometheus.NewRegistry()
	return &Registry{reg: r}
}

// CollectRuntime registers the standard process/Go-runtime collectors under
// the given namespace prefix.
func (r *Registry) CollectRuntime(namespace string) {
	r.reg.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: namespace}),
		prometheus.NewGoCollector(),
	)
}

// Counter is a monotonically increasing counter, optionally labeled.
type Counter struct{ c prometheus.Counter }

func (c *Counter) Inc()        { c.c.Inc() }
func (c *Counter) Add(n float64) { c.c.Add(n) }

// Gauge can go up and down.
type Gauge struct{ g prometheus.Gauge }

func (g *Gauge) Set(v float64) { g.g.Set(v) }
func (g *Gauge) Inc()          { g.g.Inc() }
func (g *Gauge) Dec()          { g.g.Dec() }
func (g *Gauge) Add(v float64) { g.g.Add(v) }

// Histogram tracks the distribution of observed values.
type Histogram struct{ h prometheus.Histogram }

func (h *Histogram) Observe(v float64) { h.h.Observe(v) }
func (h *Histogram) Since(t time.Time) { h.h.Observe(time.Since(t).Seconds()) }

// WithLabels builds a metric name annotated with one label pair, following
// the teacher's metrics.WithLabels helper convention. Prometheus metric
// identity is the (name, label-values) pair, so this simply records the
// label on a per-call vector rather than mangling the name.
type LabeledSpec struct {
	Name   string
	Labels map[string]string
}

func WithLabels(name string, kv ...string) LabeledSpec {
	labels := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		labels[kv[i]] = kv[i+1]
	}
	return LabeledSpec{Name: name, Labels: labels}
}

// Counter registers a new counter; registering a name that is already
// registered panics. Pass a LabeledSpec from WithLabels to register a new
// vector and get its child counter for those label values.
func (r *Registry) Counter(nameOrSpec any, help string) *Counter {
	name, labels := resolve(nameOrSpec)
	if len(labels) == 0 {
		return &Counter{c: promauto.With(r.reg).NewCounter(prometheus.CounterOpts{Name: name, Help: help})}
	}
	vec := promauto.With(r.reg).NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, keysOf(labels))
	return &Counter{c: vec.With(labels)}
}

// Gauge registers a new gauge; a duplicate name panics.
func (r *Registry) Gauge(nameOrSpec any, help string) *Gauge {
	name, labels := resolve(nameOrSpec)
	if len(labels) == 0 {
		return &Gauge{g: promauto.With(r.reg).NewGauge(prometheus.GaugeOpts{Name: name, Help: help})}
	}
	vec := promauto.With(r.reg).NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, keysOf(labels))
	return &Gauge{g: vec.With(labels)}
}

// Histogram registers a new histogram with the given buckets
// (DefaultBuckets if nil); a duplicate name panics.
func (r *Registry) Histogram(nameOrSpec any, help string, buckets []float64) *Histogram {
	if buckets == nil {
		buckets = DefaultBuckets
	}
	name, labels := resolve(nameOrSpec)
	if len(labels) == 0 {
		return &Histogram{h: promauto.With(r.reg).NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets})}
	}
	vec := promauto.With(r.reg).NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, keysOf(labels))
	return &Histogram{h: vec.With(labels)}
}

func resolve(nameOrSpec any) (string, map[string]string) {
	switch v := nameOrSpec.(type) {
	case string:
		return v, nil
	case LabeledSpec:
		return v.Name, v.Labels
	default:
		panic(fmt.Sprintf("telemetry: unsupported metric spec %T", v))
	}
}

func keysOf(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// ServeAsync starts a /metrics and /healthz HTTP server on port in a
// background goroutine, matching the teacher's met.ServeAsync(9091) call
// site in cmd/ingest/main.go.
func (r *Registry) ServeAsync(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	handler := mid.Chain(mux, mid.Logger(slog.Default()))
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: handler}
	go func() { _ = srv.ListenAndServe() }()
}

// Shutdown is a placeholder for symmetry with worker lifecycle; the admin
// server does not hold resources that need graceful draining beyond the
// process exit itself.
func (r *Registry) Shutdown(ctx context.Context) error {
	return nil
}
