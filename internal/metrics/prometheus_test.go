package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fixedGauges struct{ conns, rooms int }

func (g fixedGauges) ActiveConnections() int { return g.conns }
func (g fixedGauges) ActiveRooms() int { return g.rooms }

func TestPrometheusHandler_ExposesSnapshot(t *testing.T) {
	m := New()
	m.Inc("foo")
	m.Add("bar", 2)
	m.Inc(`quote"back\slash`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()

	PrometheusHandler(m, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", rr.Code, http.StatusOK)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "# TYPE signal_relay_events_total counter") {
		t.Fatalf("missing TYPE header: %s", body)
	}
	if !strings.Contains(body, `signal_relay_events_total{event="bar"} 2`) {
		t.Fatalf("missing bar counter: %s", body)
	}
	if !strings.Contains(body, `signal_relay_events_total{event="foo"} 1`) {
		t.Fatalf("missing foo counter: %s", body)
	}
	if !strings.Contains(body, `signal_relay_events_total{event="quote\"back\\slash"} 1`) {
		t.Fatalf("missing escaped counter: %s", body)
	}
	if strings.Contains(body, "signal_relay_rooms") {
		t.Fatalf("unexpected gauges without a gauge source: %s", body)
	}
}

func TestPrometheusHandler_Gauges(t *testing.T) {
	rr := httptest.NewRecorder()
	PrometheusHandler(New(), fixedGauges{conns: 3, rooms: 1}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rr.Body.String()
	if !strings.Contains(body, "signal_relay_connections 3\n") {
		t.Fatalf("missing connections gauge: %s", body)
	}
	if !strings.Contains(body, "signal_relay_rooms 1\n") {
		t.Fatalf("missing rooms gauge: %s", body)
	}
}

func TestPrometheusHandler_NilMetrics(t *testing.T) {
	rr := httptest.NewRecorder()
	PrometheusHandler(nil, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
