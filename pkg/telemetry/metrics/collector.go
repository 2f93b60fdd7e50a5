package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the orchestrator for every Prometheus metric the relay
// exposes. It manages metric registration and provides a single interface
// for recording outcomes across dispatch, health, dedup, and OAuth.
type Collector struct {
	registry *prometheus.Registry

	provider *ProviderMetrics
	dedup    *DedupMetrics
	oauth    *OAuthMetrics
}

// NewCollector creates a new metrics collector against registry. If
// registry is nil, a fresh, non-default registry is used so tests don't
// collide with process-global state.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &Collector{
		registry: registry,
		provider: newProviderMetrics(registry),
		dedup:    newDedupMetrics(registry),
		oauth:    newOAuthMetrics(registry),
	}
}

// RecordProviderRequest records the classified outcome of one dispatch
// attempt against a provider, matching the outcome kinds in pkg/dispatch
// (terminal_success, retryable_failure, non_retryable_failure).
func (c *Collector) RecordProviderRequest(provider, outcome string) {
	c.provider.recordRequest(provider, outcome)
}

// SetProviderHealth updates a provider's health gauge (1=healthy, 0=unhealthy).
func (c *Collector) SetProviderHealth(provider string, healthy bool) {
	c.provider.setHealth(provider, healthy)
}

// SetDedupInflight reports the current number of in-flight dedup table
// entries.
func (c *Collector) SetDedupInflight(n int) {
	c.dedup.setInflight(n)
}

// SetBroadcasterSubscribers reports the current number of subscribers
// waiting on an in-flight broadcaster.
func (c *Collector) SetBroadcasterSubscribers(fingerprint string, n int) {
	c.dedup.setSubscribers(fingerprint, n)
}

// RecordOAuthRefresh records the outcome ("success" or "failure") of an
// OAuth token refresh attempt for account.
func (c *Collector) RecordOAuthRefresh(account, outcome string) {
	c.oauth.recordRefresh(account, outcome)
}

// Registry returns the underlying Prometheus registry, for mounting a
// /metrics handler via Collector.Handler().
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
