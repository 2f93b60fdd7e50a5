// Package server wires the relay's HTTP surface together and manages its
// lifecycle: route registration, middleware chaining, TLS termination, and
// graceful shutdown.
//
// # Architecture
//
// Server is the top-level orchestrator. It owns no routing or dispatch
// logic itself — it mounts pkg/server/handlers onto a mux, wraps the mux in
// pkg/server/middleware, and manages the underlying *http.Server's
// lifecycle.
//
// # Routes
//
//	POST   /v1/messages               - dispatch a message, buffered or streamed
//	GET    /providers                 - provider registry + live health
//	GET    /oauth/generate-url        - start an OAuth PKCE flow
//	POST   /oauth/exchange-code       - complete an OAuth PKCE flow
//	POST   /oauth/refresh/{account}   - force-refresh one account's token
//	GET    /oauth/status              - list tracked OAuth accounts
//	DELETE /oauth/tokens[/{account}]  - revoke one or all tracked tokens
//	GET    /health                    - liveness probe
//	GET    /ready                     - readiness probe (provider health)
//	GET    /version                   - build version info
//	GET    /metrics                   - Prometheus exposition
//
// # Middleware Chain
//
// Innermost to outermost: Timeout (every route except /v1/messages) ->
// ClientAuth (when configured) -> CORS -> RequestID -> ClientIdentity (when
// mTLS is enabled) -> Logging -> Recovery. /v1/messages skips Timeout,
// since a hard deadline on the handler goroutine would truncate a
// legitimately long-lived SSE connection.
package server
