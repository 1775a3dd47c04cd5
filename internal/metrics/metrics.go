// Package metrics exposes Prometheus counters/gauges for a reconstruction
// run and an OpenTelemetry tracer for the spans within it, served over
// HTTP when -metrics-addr is set. Adapted from internal/server/metrics.go's
// promauto wiring, generalized from per-HTTP-request counters to
// per-probe/per-phase reconstruction counters.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Metrics collects Prometheus series for one reconstruction run and hands
// out a tracer for span instrumentation.
type Metrics struct {
	handler http.Handler
	tracer  trace.Tracer

	ProbesDispatched prometheus.Counter
	ProbesFailed     prometheus.Counter
	PrimesConsumed   prometheus.Counter
	ActiveFunctions  prometheus.Gauge
	PoolQueueDepth   prometheus.Gauge
}

// New builds a fresh Metrics instance. Prometheus collectors are
// registered globally, so New must be called at most once per process.
func New() *Metrics {
	return &Metrics{
		handler: promhttp.Handler(),
		tracer:  otel.Tracer("firefly/reconstruct"),
		ProbesDispatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "firefly_probes_dispatched_total",
			Help: "Total number of black-box probe points dispatched to workers.",
		}),
		ProbesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "firefly_probes_failed_total",
			Help: "Total number of black-box probes that returned an error.",
		}),
		PrimesConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "firefly_primes_consumed_total",
			Help: "Total number of primes advanced through across all functions.",
		}),
		ActiveFunctions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "firefly_active_functions",
			Help: "Number of registered functions not yet converged.",
		}),
		PoolQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "firefly_pool_queue_depth",
			Help: "Number of jobs waiting in the worker pool's deque.",
		}),
	}
}

// Tracer returns the tracer used for reconstruction spans (probe
// dispatch, CRT lifting, rational reconstruction).
func (m *Metrics) Tracer() trace.Tracer { return m.tracer }

// StartSpan is a convenience wrapper so call sites don't need to import
// go.opentelemetry.io/otel directly just to start a span.
func (m *Metrics) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, name)
}

// ServeHTTP exposes the Prometheus text-format handler directly, for
// mounting at /metrics.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}
