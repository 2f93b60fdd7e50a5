package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// ClientKeySource defines where to extract a client key from.
type ClientKeySource struct {
	Type   string // header, query
	Name   string // Header name or query param
	Scheme string // "Bearer", etc. (optional)
}

// ClientKeyMiddleware gates the relay's own listen socket on a client key,
// independent of the provider-side credentials dispatched upstream.
type ClientKeyMiddleware struct {
	validator *ClientKeyValidator
	sources   []ClientKeySource
}

// NewClientKeyMiddleware creates a new client key authentication middleware.
func NewClientKeyMiddleware(validator *ClientKeyValidator, sources []ClientKeySource) *ClientKeyMiddleware {
	return &ClientKeyMiddleware{
		validator: validator,
		sources:   sources,
	}
}

// Handle wraps an HTTP handler with client key authentication.
func (m *ClientKeyMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := m.extractClientKey(r)
		if err != nil {
			slog.Warn("missing client key",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			http.Error(w, "Missing or invalid client key", http.StatusUnauthorized)
			return
		}

		keyInfo, err := m.validator.Validate(key)
		if err != nil {
			slog.Warn("invalid client key",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			http.Error(w, "Invalid client key", http.StatusUnauthorized)
			return
		}

		slog.Debug("client key authenticated",
			"label", keyInfo.Label,
			"path", r.URL.Path,
		)

		ctx := context.WithValue(r.Context(), clientKeyInfoKey, keyInfo)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractClientKey extracts the client key from the request using configured sources.
func (m *ClientKeyMiddleware) extractClientKey(r *http.Request) (string, error) {
	for _, source := range m.sources {
		switch source.Type {
		case "header":
			value := r.Header.Get(source.Name)
			if value != "" {
				// Remove scheme prefix if present
				if source.Scheme != "" {
					prefix := source.Scheme + " "
					if strings.HasPrefix(value, prefix) {
						return strings.TrimPrefix(value, prefix), nil
					}
				} else {
					return value, nil
				}
			}

		case "query":
			value := r.URL.Query().Get(source.Name)
			if value != "" {
				return value, nil
			}
		}
	}

	return "", fmt.Errorf("no client key found")
}

// Context key for client key info
type contextKey string

// #nosec G101 - This is a context key constant, not a credential
const clientKeyInfoKey contextKey = "client_key_info"

// GetClientKeyInfo retrieves client key info from request context.
func GetClientKeyInfo(ctx context.Context) (*ClientKeyInfo, bool) {
	info, ok := ctx.Value(clientKeyInfoKey).(*ClientKeyInfo)
	return info, ok
}
