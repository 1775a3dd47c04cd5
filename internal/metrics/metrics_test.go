package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// New registers its collectors on the global Prometheus registry, so it
// must be called at most once per process; every assertion about a live
// Metrics instance lives in this single test function rather than being
// split across several, which would each try to register the same
// collector names again and panic.
func TestMetrics(t *testing.T) {
	m := New()

	if m.Tracer() == nil {
		t.Fatalf("expected a non-nil tracer")
	}

	ctx, span := m.StartSpan(context.Background(), "test-span")
	if ctx == nil || span == nil {
		t.Fatalf("expected StartSpan to return a context and span")
	}
	span.End()

	m.ProbesDispatched.Inc()
	m.ProbesDispatched.Inc()
	m.ProbesFailed.Inc()
	m.PrimesConsumed.Inc()
	m.ActiveFunctions.Set(3)
	m.PoolQueueDepth.Set(7)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 from /metrics, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"firefly_probes_dispatched_total",
		"firefly_probes_failed_total",
		"firefly_primes_consumed_total",
		"firefly_active_functions",
		"firefly_pool_queue_depth",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected /metrics output to mention %q, got:\n%s", want, body)
		}
	}
}
