package oauth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Flow drives the authorization-code + PKCE exchange backing
// GET /oauth/generate-url and POST /oauth/exchange-code. It is a thin
// wrapper over golang.org/x/oauth2, which supplies both the PKCE verifier
// generation and the code exchange.
type Flow struct {
	Config *oauth2.Config

	pendingMu sync.Mutex
	pending   map[string]string // state -> code verifier
}

// NewFlow creates a Flow for the given OAuth client configuration.
func NewFlow(cfg *oauth2.Config) *Flow {
	return &Flow{Config: cfg, pending: make(map[string]string)}
}

// GenerateURL starts a new authorization request: it mints a PKCE verifier
// and an opaque state value, remembers the verifier keyed by state, and
// returns the authorization URL for the operator to visit.
func (f *Flow) GenerateURL() (authURL, state string) {
	verifier := oauth2.GenerateVerifier()
	state = uuid.NewString()

	f.pendingMu.Lock()
	f.pending[state] = verifier
	f.pendingMu.Unlock()

	authURL = f.Config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return authURL, state
}

// Exchange completes the flow: it looks up the verifier for state,
// exchanges code for a token, and returns a Token for accountEmail.
func (f *Flow) Exchange(ctx context.Context, state, code, accountEmail string) (Token, error) {
	f.pendingMu.Lock()
	verifier, ok := f.pending[state]
	if ok {
		delete(f.pending, state)
	}
	f.pendingMu.Unlock()
	if !ok {
		return Token{}, fmt.Errorf("oauth: unknown or expired state %q", state)
	}

	raw, err := f.Config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return Token{}, fmt.Errorf("oauth: code exchange failed: %w", err)
	}

	scopes := f.Config.Scopes
	return fromOAuth2(accountEmail, raw, scopes, time.Now()), nil
}
