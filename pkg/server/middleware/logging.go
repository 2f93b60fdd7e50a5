package middleware

import (
	"net/http"
	"time"

	"mercator-hq/relay/pkg/telemetry/logging"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.written = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}

// Logging logs one line per request at start (debug) and completion,
// escalating level with the response status.
func Logging(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			cl := logging.NewContextLogger(logger, r.Context())
			cl.Debug("request started", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

			rw := &responseWriter{ResponseWriter: w}
			next.ServeHTTP(rw, r)

			latencyMS := time.Since(start).Milliseconds()
			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"latency_ms", latencyMS,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			}

			switch {
			case rw.statusCode >= 500:
				cl.Error("request completed", fields...)
			case rw.statusCode >= 400:
				cl.Warn("request completed", fields...)
			default:
				cl.Info("request completed", fields...)
			}
		})
	}
}
