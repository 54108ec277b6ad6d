package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client counters on a private registry so that several
// sessions (and tests) never collide on the default registerer.
type Metrics struct {
	Registry *prometheus.Registry

	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	CacheInvalidations prometheus.Counter
	GatewayRequests    *prometheus.CounterVec
}

// New creates and registers all counters.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wishboard",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Fresh cache reads by key kind.",
		}, []string{"kind"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wishboard",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache reads that required a fetch, by key kind.",
		}, []string{"kind"}),
		CacheInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wishboard",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Entries marked stale by invalidation.",
		}),
		GatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wishboard",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Remote API calls by operation and result.",
		}, []string{"op", "result"}),
	}
	m.Registry.MustRegister(m.CacheHits, m.CacheMisses, m.CacheInvalidations, m.GatewayRequests)
	return m
}

// CacheHit records a fresh read. Safe on a nil receiver.
func (m *Metrics) CacheHit(kind string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(kind).Inc()
}

// CacheMiss records a read that went to the gateway. Safe on a nil receiver.
func (m *Metrics) CacheMiss(kind string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(kind).Inc()
}

// Invalidated records n entries marked stale. Safe on a nil receiver.
func (m *Metrics) Invalidated(n int) {
	if m == nil || n == 0 {
		return
	}
	m.CacheInvalidations.Add(float64(n))
}

// GatewayCall records a remote call outcome. Safe on a nil receiver.
func (m *Metrics) GatewayCall(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.GatewayRequests.WithLabelValues(op, result).Inc()
}

// WriteSummary prints every non-zero counter as "name{labels} value".
func (m *Metrics) WriteSummary(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.Registry.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			v := metric.GetCounter().GetValue()
			if v == 0 {
				continue
			}
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, lp := range metric.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, v))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
