/*
Package auth authenticates callers against the relay's own listen socket,
distinct from the provider-side credentials held in config.AuthConfig and
refreshed by pkg/oauth.

# Basic Usage

Create a client key validator and middleware:

	validator := auth.NewClientKeyValidator([]*auth.ClientKeyInfo{
		{Key: "sk-relay-1234567890abcdef", Label: "ci", Enabled: true, CreatedAt: time.Now()},
	})

	sources := []auth.ClientKeySource{
		{Type: "header", Name: "Authorization", Scheme: "Bearer"},
		{Type: "header", Name: "x-api-key", Scheme: ""},
	}

	middleware := auth.NewClientKeyMiddleware(validator, sources)

	http.Handle("/v1/messages", middleware.Handle(messagesHandler))

# Extracting Client Key Info

	func handler(w http.ResponseWriter, r *http.Request) {
		keyInfo, ok := auth.GetClientKeyInfo(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		fmt.Printf("request from %s\n", keyInfo.Label)
	}

# Client Key Sources

The middleware tries sources in order and uses the first key found:

 1. Authorization header with Bearer scheme
 2. A custom header (x-api-key), with no scheme prefix
 3. A query parameter

# Security Considerations

Client key values are never logged, only their label. Configure at least
one source that maps onto how the client SDKs already send credentials
(Anthropic clients send x-api-key; OpenAI-compatible clients send an
Authorization: Bearer header) so this layer doesn't require clients to
adopt a relay-specific convention.

This middleware is optional: a relay deployed behind its own network
boundary can leave settings.client_auth.enabled false and skip it.
*/
package auth
