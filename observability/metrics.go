package observability

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Counter names exposed on the metrics endpoint.
const (
	MetricWebhookDuplicates = "webhook_duplicates_total"
	MetricRateLimitHits     = "rate_limits_total"
	MetricParserFallbacks   = "parser_fallbacks_total"
)

var metricHelp = map[string]string{
	MetricWebhookDuplicates: "Total number of duplicate webhook events detected",
	MetricRateLimitHits:     "Total number of rate limit hits (429 responses)",
	MetricParserFallbacks:   "Total number of parser fallbacks from LLM to rule-based",
}

// Metrics is a set of named monotonic counters labeled with the service
// name, rendered in the Prometheus text exposition format. All methods are
// nil-safe so instrumented components work with metrics disabled.
type Metrics struct {
	service string

	mu       sync.Mutex
	counters map[string]uint64
}

func NewMetrics(service string) *Metrics {
	service = strings.TrimSpace(service)
	if service == "" {
		service = "autohub"
	}
	return &Metrics{
		service:  service,
		counters: map[string]uint64{},
	}
}

// Inc bumps the named counter by one.
func (m *Metrics) Inc(name string) {
	if m == nil || strings.TrimSpace(name) == "" {
		return
	}
	m.mu.Lock()
	m.counters[name]++
	m.mu.Unlock()
}

// Count reads the current value of the named counter.
func (m *Metrics) Count(name string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// Snapshot copies the counter values.
func (m *Metrics) Snapshot() map[string]uint64 {
	if m == nil {
		return map[string]uint64{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.counters))
	for name, value := range m.counters {
		out[name] = value
	}
	return out
}

// Handler serves the counters as Prometheus text exposition.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snapshot := m.Snapshot()
		names := make([]string, 0, len(snapshot))
		for name := range snapshot {
			names = append(names, name)
		}
		sort.Strings(names)

		var b strings.Builder
		for _, name := range names {
			if help, ok := metricHelp[name]; ok {
				fmt.Fprintf(&b, "# HELP %s %s\n", name, help)
			}
			fmt.Fprintf(&b, "# TYPE %s counter\n", name)
			fmt.Fprintf(&b, "%s{service=%q} %d\n", name, m.serviceLabel(), snapshot[name])
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(b.String()))
	})
}

func (m *Metrics) serviceLabel() string {
	if m == nil {
		return "autohub"
	}
	return m.service
}
