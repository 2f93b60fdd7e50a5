package handlers

import (
	"net/http"

	"mercator-hq/relay/pkg/telemetry/health"
	"mercator-hq/relay/pkg/telemetry/metrics"
)

// MountDiagnostics registers the process-health (/health, /ready,
// /version) and /metrics endpoints on mux.
func MountDiagnostics(mux *http.ServeMux, checker *health.Checker, collector *metrics.Collector, version, commit, buildTime string) {
	health.HTTPMiddleware(mux, checker, version, commit, buildTime)
	mux.Handle("/metrics", collector.Handler())
}
