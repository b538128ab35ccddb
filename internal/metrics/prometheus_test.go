package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPrometheusCountersExposed(t *testing.T) {
	p := NewPrometheus()
	p.Metrics.OrdersInserted.Inc()
	p.Metrics.OrdersInserted.Inc()
	p.Metrics.HedgesSent.Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, req)

	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := string(body)
	if !strings.Contains(out, "etf_arb_bot_orders_inserted_total 2") {
		t.Fatalf("expected inserted counter at 2, got:\n%s", out)
	}
	if !strings.Contains(out, "etf_arb_bot_hedges_sent_total 1") {
		t.Fatalf("expected hedges counter at 1, got:\n%s", out)
	}
	if !strings.Contains(out, "etf_arb_bot_events_dropped_total 0") {
		t.Fatalf("expected untouched counter at 0, got:\n%s", out)
	}
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoop()
	// all counters must be callable without wiring
	m.OrdersInserted.Inc()
	m.OrdersCancelled.Inc()
	m.OwnFills.Inc()
	m.HedgesSent.Inc()
	m.HedgeFills.Inc()
	m.OrderErrors.Inc()
	m.EventsDropped.Inc()
	m.Reconnects.Inc()
}
