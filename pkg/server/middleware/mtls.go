package middleware

import (
	"net/http"

	"mercator-hq/relay/pkg/security/tls"
	"mercator-hq/relay/pkg/telemetry/logging"
)

// ClientIdentity extracts the caller's mTLS client-certificate identity
// per the configured identity source and threads it through the request
// context, so request logging and diagnostics can attribute a request to
// the certificate that authenticated it. A request with no peer
// certificate (mTLS disabled, or a non-TLS listener) passes through
// unchanged.
func ClientIdentity(identitySource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity := tls.GetClientIdentity(r, identitySource); identity != "" {
				r = r.WithContext(logging.WithClientIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}
