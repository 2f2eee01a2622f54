package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Gauges are sampled at scrape time.
type Gauges interface {
	ActiveConnections() int
	ActiveRooms() int
}

// PrometheusHandler exposes Metrics in Prometheus' text exposition format.
//
// All counters are exported as one metric with an `event` label. gauges may
// be nil.
func PrometheusHandler(m *Metrics, gauges Gauges) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			http.Error(w, "metrics not configured", http.StatusInternalServerError)
			return
		}

		snap := m.Snapshot()
		keys := make([]string, 0, len(snap))
		for k := range snap {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = fmt.Fprintln(w, "# HELP signal_relay_events_total Internal event counters.")
		_, _ = fmt.Fprintln(w, "# TYPE signal_relay_events_total counter")
		escaper := strings.NewReplacer("\\", "\\\\", "\"", "\\\"", "\n", "\\n")
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "signal_relay_events_total{event=\"%s\"} %d\n", escaper.Replace(k), snap[k])
		}

		if gauges == nil {
			return
		}
		_, _ = fmt.Fprintln(w, "# HELP signal_relay_connections Live signaling connections.")
		_, _ = fmt.Fprintln(w, "# TYPE signal_relay_connections gauge")
		_, _ = fmt.Fprintf(w, "signal_relay_connections %d\n", gauges.ActiveConnections())
		_, _ = fmt.Fprintln(w, "# HELP signal_relay_rooms Non-empty rooms.")
		_, _ = fmt.Fprintln(w, "# TYPE signal_relay_rooms gauge")
		_, _ = fmt.Fprintf(w, "signal_relay_rooms %d\n", gauges.ActiveRooms())
	})
}
