package oauth

import (
	"context"

	"golang.org/x/oauth2"
)

// OAuth2Refresher refreshes tokens through a standard
// golang.org/x/oauth2.Config. Requests go through the HTTP client that ctx
// carries under oauth2.HTTPClient, or the default client; no OAuth proxy
// is configured for them.
type OAuth2Refresher struct {
	Config *oauth2.Config
}

// Refresh exchanges refreshToken for a new access token using the
// standard OAuth2 refresh grant.
func (r *OAuth2Refresher) Refresh(ctx context.Context, account, refreshToken string) (*oauth2.Token, error) {
	src := r.Config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return src.Token()
}
