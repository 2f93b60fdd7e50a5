package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"mercator-hq/relay/pkg/protocol"
)

// Timeout bounds how long a handler may run before the relay gives up and
// returns a timeout error. Not suitable for streaming endpoints: wrap only
// handlers whose response is a single buffered body.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			done := make(chan struct{})
			go func() {
				next.ServeHTTP(w, r.WithContext(ctx))
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusGatewayTimeout)
				_ = json.NewEncoder(w).Encode(protocol.NewAnthropicError("timeout_error", "request exceeded its time budget"))
			}
		})
	}
}
