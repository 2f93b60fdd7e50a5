package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"mercator-hq/relay/pkg/telemetry/logging"
)

// RequestIDHeader is the header the relay both reads an inbound request ID
// from and echoes back on the response.
const RequestIDHeader = "X-Request-Id"

// RequestID assigns each request a correlation ID, reusing one the caller
// already supplied, and threads it through the request context via
// pkg/telemetry/logging so every log line for this request carries it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = generateRequestID()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := logging.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func generateRequestID() string {
	return uuid.NewString()
}
