// Package provider holds the immutable description of configured upstream
// LLM endpoints: their protocol, credentials, and identity.
package provider

// Protocol identifies the wire format a provider speaks.
type Protocol string

const (
	// Anthropic providers speak the native /v1/messages shape.
	Anthropic Protocol = "anthropic"
	// OpenAI providers speak the chat-completions shape and require
	// translation to and from the Anthropic shape at the edge.
	OpenAI Protocol = "openai"
)

// AuthKind identifies how a provider's credential is supplied.
type AuthKind string

const (
	// AuthAPIKey sends the literal value as an API-key-style header.
	AuthAPIKey AuthKind = "api-key"
	// AuthToken sends the literal value as a bearer/auth-token header.
	AuthToken AuthKind = "auth-token"
	// AuthOAuth resolves the credential from the OAuth store at request time.
	AuthOAuth AuthKind = "oauth"
)

// Passthrough is the sentinel meaning "forward the client's value unchanged".
// It applies both to Auth.Value (forward the inbound credential header) and
// to a route candidate's model (forward the client's requested model).
const Passthrough = "passthrough"

// Auth describes how to authenticate outbound requests to a provider.
type Auth struct {
	Kind AuthKind
	// Value is the literal credential, or Passthrough.
	Value string
}

// Identity is the unique key for a provider entry: (name, account).
// Account is empty for providers that don't carry a specific account
// (e.g. static API-key providers); OAuth providers are usually
// disambiguated by account (typically an email address).
type Identity struct {
	Name    string
	Account string
}

// Provider is an immutable configured upstream LLM endpoint.
type Provider struct {
	Identity
	Protocol Protocol
	BaseURL  string
	Auth     Auth
	// ProxyURL is an optional outbound HTTP/HTTPS proxy used for requests
	// to this provider specifically.
	ProxyURL string
	Enabled  bool
}
