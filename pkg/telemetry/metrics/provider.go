package metrics

import "github.com/prometheus/client_golang/prometheus"

// ProviderMetrics tracks per-provider dispatch outcomes and health state.
type ProviderMetrics struct {
	requests *prometheus.CounterVec
	health   *prometheus.GaugeVec
}

func newProviderMetrics(registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_provider_requests_total",
				Help: "Total dispatch attempts per provider, labeled by classified outcome.",
			},
			[]string{"provider", "outcome"},
		),
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relay_provider_health_state",
				Help: "Provider health state (1=healthy, 0=unhealthy).",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(pm.requests, pm.health)
	return pm
}

func (pm *ProviderMetrics) recordRequest(provider, outcome string) {
	pm.requests.WithLabelValues(provider, outcome).Inc()
}

func (pm *ProviderMetrics) setHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
}
