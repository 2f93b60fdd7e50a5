package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"mercator-hq/relay/pkg/protocol"
	"mercator-hq/relay/pkg/telemetry/logging"
)

// Recovery recovers a panic anywhere downstream, logs it with a stack
// trace, and writes the Anthropic-shaped error envelope instead of letting
// net/http close the connection with no body.
func Recovery(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.WithContext(r.Context()).Error("panic recovered",
						"panic", rec,
						"stack", string(debug.Stack()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(protocol.NewAnthropicError("api_error", "internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
