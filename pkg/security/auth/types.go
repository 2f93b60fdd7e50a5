package auth

import "time"

// ClientKeyInfo describes one credential a caller may present to the
// relay's own listen socket, distinct from the provider-side credentials
// held in config.AuthConfig and refreshed by pkg/oauth.
type ClientKeyInfo struct {
	Key       string
	Label     string
	Enabled   bool
	CreatedAt time.Time
}

// ClientKeyStore validates client-presented keys.
type ClientKeyStore interface {
	Validate(key string) (*ClientKeyInfo, error)
	List() []*ClientKeyInfo
}
