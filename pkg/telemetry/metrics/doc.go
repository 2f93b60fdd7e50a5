// Package metrics provides Prometheus metrics for the relay.
//
// # Overview
//
// Collector registers and updates the five gauges/counters that describe
// the relay's runtime behavior: per-provider dispatch outcomes and health
// state, in-flight dedup table occupancy and broadcaster fan-out, and
// OAuth refresh outcomes.
//
// # Usage
//
//	collector := metrics.NewCollector(nil)
//	http.Handle("/metrics", collector.Handler())
//
//	collector.RecordProviderRequest("anthropic-direct", "terminal_success")
//	collector.SetProviderHealth("anthropic-direct", true)
//	collector.SetDedupInflight(table.Len())
//	collector.SetBroadcasterSubscribers(fingerprint, entry.Broadcaster.SubscriberCount())
//	collector.RecordOAuthRefresh("acct-1", "success")
//
// # Metrics
//
//	relay_provider_requests_total{provider,outcome}    counter
//	relay_provider_health_state{provider}              gauge (1=healthy, 0=unhealthy)
//	relay_dedup_inflight                                gauge
//	relay_broadcaster_subscribers{fingerprint}          gauge
//	relay_oauth_refresh_total{account,outcome}          counter
//
// # Cardinality
//
// Fingerprints are request-derived hashes with effectively unbounded
// cardinality, so relay_broadcaster_subscribers is guarded by a small
// cardinality limiter that aggregates overflow label values into a shared
// "other" series rather than letting every unique fingerprint mint its own
// time series.
//
// # Prometheus Endpoint
//
// Collector.Handler() returns an http.Handler suitable for mounting at
// /metrics.
package metrics
