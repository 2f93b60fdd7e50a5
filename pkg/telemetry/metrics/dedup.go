package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// DedupMetrics tracks the in-flight request dedup table: how many distinct
// fingerprints are currently in flight, and how many subscribers are
// waiting on each one's broadcaster.
type DedupMetrics struct {
	inflight    prometheus.Gauge
	subscribers *prometheus.GaugeVec

	// Fingerprints are request-derived hashes with effectively unbounded
	// cardinality. cardinality guards the per-fingerprint subscribers gauge,
	// aggregating overflow into a single "other" series instead of letting
	// every unique fingerprint create its own time series.
	cardinality *cardinalityLimiter
}

func newDedupMetrics(registry *prometheus.Registry) *DedupMetrics {
	dm := &DedupMetrics{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_dedup_inflight",
			Help: "Current number of distinct request fingerprints in flight.",
		}),
		subscribers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relay_broadcaster_subscribers",
				Help: "Current number of subscribers waiting on an in-flight broadcaster, by fingerprint.",
			},
			[]string{"fingerprint"},
		),
		cardinality: newCardinalityLimiter(2000),
	}

	registry.MustRegister(dm.inflight, dm.subscribers)
	return dm
}

func (dm *DedupMetrics) setInflight(n int) {
	dm.inflight.Set(float64(n))
}

func (dm *DedupMetrics) setSubscribers(fingerprint string, n int) {
	label := fingerprint
	if !dm.cardinality.allow(fingerprint) {
		label = "other"
	}
	dm.subscribers.WithLabelValues(label).Set(float64(n))
}

// cardinalityLimiter bounds the number of distinct label values a gauge
// will track before aggregating overflow into a shared "other" bucket.
type cardinalityLimiter struct {
	max     int
	mu      sync.RWMutex
	current map[string]struct{}
}

func newCardinalityLimiter(max int) *cardinalityLimiter {
	return &cardinalityLimiter{max: max, current: make(map[string]struct{})}
}

func (cl *cardinalityLimiter) allow(label string) bool {
	cl.mu.RLock()
	if _, ok := cl.current[label]; ok {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if _, ok := cl.current[label]; ok {
		return true
	}
	if len(cl.current) >= cl.max {
		return false
	}
	cl.current[label] = struct{}{}
	return true
}
