package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"mercator-hq/relay/pkg/oauth"
)

func newTestFlow() *oauth.Flow {
	return oauth.NewFlow(&oauth2.Config{
		ClientID:    "client",
		RedirectURL: "https://relay.example.com/callback",
		Scopes:      []string{"scope-a"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://provider.example.com/authorize",
			TokenURL: "https://provider.example.com/token",
		},
	})
}

func TestOAuthGenerateURLReturnsStateAndAuthURL(t *testing.T) {
	h := &OAuthHandler{Flow: newTestFlow()}

	req := httptest.NewRequest(http.MethodGet, "/oauth/generate-url", nil)
	rec := httptest.NewRecorder()
	h.GenerateURL(rec, req)

	var body generateURLResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.State == "" || body.AuthURL == "" {
		t.Fatalf("expected both state and auth_url to be populated, got %+v", body)
	}
}

func TestOAuthStatusListsStoredAccounts(t *testing.T) {
	store := oauth.NewStore(nil, nil, "relay", false, false)
	if err := store.Put(oauth.Token{Account: "ops@example.com", AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	h := &OAuthHandler{Store: store}

	req := httptest.NewRequest(http.MethodGet, "/oauth/status", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	var body struct {
		Accounts []tokenStatusView `json:"accounts"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Accounts) != 1 || body.Accounts[0].Account != "ops@example.com" {
		t.Fatalf("unexpected accounts: %+v", body.Accounts)
	}
}

func TestOAuthDeleteTokenRequiresDelete(t *testing.T) {
	store := oauth.NewStore(nil, nil, "relay", false, false)
	h := &OAuthHandler{Store: store}

	req := httptest.NewRequest(http.MethodGet, "/oauth/tokens", nil)
	rec := httptest.NewRecorder()
	h.DeleteToken(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for a non-DELETE method, got %d", rec.Code)
	}
}

func TestOAuthDeleteTokenRemovesAccount(t *testing.T) {
	store := oauth.NewStore(nil, nil, "relay", false, false)
	_ = store.Put(oauth.Token{Account: "ops@example.com", ExpiresAt: time.Now().Add(time.Hour)})
	h := &OAuthHandler{Store: store}

	req := httptest.NewRequest(http.MethodDelete, "/oauth/tokens/ops@example.com", nil)
	req.SetPathValue("account", "ops@example.com")
	rec := httptest.NewRecorder()
	h.DeleteToken(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(store.Status()) != 0 {
		t.Fatalf("expected the account to be removed from the store")
	}
}

func TestOAuthExchangeCodeRequiresAccount(t *testing.T) {
	h := &OAuthHandler{Flow: newTestFlow(), Store: oauth.NewStore(nil, nil, "relay", false, false)}

	req := httptest.NewRequest(http.MethodPost, "/oauth/exchange-code", nil)
	rec := httptest.NewRecorder()
	h.ExchangeCode(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing body/account, got %d", rec.Code)
	}
}
