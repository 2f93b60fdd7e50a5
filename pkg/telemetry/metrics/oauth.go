package metrics

import "github.com/prometheus/client_golang/prometheus"

// OAuthMetrics tracks OAuth token refresh outcomes per account.
type OAuthMetrics struct {
	refresh *prometheus.CounterVec
}

func newOAuthMetrics(registry *prometheus.Registry) *OAuthMetrics {
	om := &OAuthMetrics{
		refresh: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_oauth_refresh_total",
				Help: "Total OAuth token refresh attempts per account, labeled by outcome (success, failure).",
			},
			[]string{"account", "outcome"},
		),
	}

	registry.MustRegister(om.refresh)
	return om
}

func (om *OAuthMetrics) recordRefresh(account, outcome string) {
	om.refresh.WithLabelValues(account, outcome).Inc()
}
