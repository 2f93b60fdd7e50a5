// Package telemetry groups the relay's observability subpackages:
//
//   - logging: structured slog-based logging with credential redaction
//   - metrics: Prometheus counters/gauges for dispatch, dedup, and OAuth
//   - health: liveness/readiness HTTP endpoints
//
// Each subpackage is used independently by pkg/server; this package holds
// no shared state of its own.
package telemetry
