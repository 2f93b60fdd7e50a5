package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/relay/pkg/telemetry/logging"
)

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetRequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/providers", nil)
	rec := httptest.NewRecorder()
	RequestID(next).ServeHTTP(rec, req)

	if seen == "" {
		t.Fatalf("expected a generated request ID in the handler's context")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Fatalf("expected the response header to echo the context request ID, got %q want %q", got, seen)
	}
}

func TestRequestIDReusesInboundValue(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetRequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/providers", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied-id")
	rec := httptest.NewRecorder()
	RequestID(next).ServeHTTP(rec, req)

	if seen != "caller-supplied-id" {
		t.Fatalf("expected the inbound request ID to be reused, got %q", seen)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "caller-supplied-id" {
		t.Fatalf("expected the response to echo the inbound request ID, got %q", got)
	}
}

func TestGenerateRequestIDProducesDistinctValues(t *testing.T) {
	a := generateRequestID()
	b := generateRequestID()
	if a == b {
		t.Fatalf("expected two calls to generateRequestID to differ")
	}
}
