/*
Package security provides transport security (TLS/mTLS) and inbound client
key authentication for the relay.

# TLS Configuration

Configure TLS for the relay's listen socket:

	cfg := &tls.Config{
		Enabled:  true,
		CertFile: "/etc/relay/certs/server.crt",
		KeyFile:  "/etc/relay/certs/server.key",
		MinVersion: "1.3",
	}

	tlsConfig, err := cfg.ToTLSConfig()
	if err != nil {
		log.Fatal(err)
	}

# Client Key Authentication

Validate client keys in HTTP middleware, gating the relay's own endpoints
independently of the provider-side credentials in pkg/oauth:

	validator := auth.NewClientKeyValidator(clientKeys)
	middleware := auth.NewClientKeyMiddleware(validator, sources)

	http.Handle("/", middleware.Handle(handler))
*/
package security
