// Package oauth manages per-account OAuth credential lifecycle: issuance,
// persistence, automatic refresh, and round-robin selection among usable
// accounts. It wraps golang.org/x/oauth2's Token shape with store
// semantics on top: usability windows, refresh coalescing, and
// last-used-based account selection.
package oauth

import (
	"time"

	"golang.org/x/oauth2"
)

// usableSkew is the window before expiry within which a token is no longer
// considered usable and a refresh is attempted.
const usableSkew = 5 * time.Minute

// refreshBackoff is how long a failed refresh blocks further refresh
// attempts for that account.
const refreshBackoff = time.Hour

// Token is the per-account credential record.
type Token struct {
	Account      string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scopes       []string
	CreatedAt    time.Time
	LastUsedAt   time.Time
	UsageCount   int64
	// RefreshFailureBackoffUntil blocks new refresh attempts until this
	// time once a refresh has failed.
	RefreshFailureBackoffUntil time.Time
}

// Usable reports whether the token may be used right now: not within 5
// minutes of expiry, and not within a post-failure refresh backoff window.
func (t Token) Usable(now time.Time) bool {
	if !now.Add(usableSkew).Before(t.ExpiresAt) {
		return false
	}
	return !now.Before(t.RefreshFailureBackoffUntil)
}

// NeedsRefresh reports whether a refresh should be attempted: within 5
// minutes of expiry.
func (t Token) NeedsRefresh(now time.Time) bool {
	return !now.Add(usableSkew).Before(t.ExpiresAt)
}

// oauth2Token adapts a Token to the golang.org/x/oauth2 shape expected by
// an oauth2.Config's TokenSource when performing a refresh.
func (t Token) oauth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiresAt,
	}
}

func fromOAuth2(account string, tok *oauth2.Token, scopes []string, createdAt time.Time) Token {
	return Token{
		Account:      account,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		Scopes:       scopes,
		CreatedAt:    createdAt,
	}
}
