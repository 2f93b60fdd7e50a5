package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"mercator-hq/relay/pkg/oauth"
)

// OAuthHandler serves the operator-facing OAuth lifecycle endpoints:
// starting the PKCE flow, completing it, forcing a refresh, listing
// tracked accounts, and revoking tokens.
type OAuthHandler struct {
	Flow  *oauth.Flow
	Store *oauth.Store
}

type generateURLResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// GenerateURL serves GET /oauth/generate-url.
func (h *OAuthHandler) GenerateURL(w http.ResponseWriter, r *http.Request) {
	authURL, state := h.Flow.GenerateURL()
	writeJSON(w, http.StatusOK, generateURLResponse{AuthURL: authURL, State: state})
}

type exchangeCodeRequest struct {
	State   string `json:"state"`
	Code    string `json:"code"`
	Account string `json:"account"`
}

// ExchangeCode serves POST /oauth/exchange-code.
func (h *OAuthHandler) ExchangeCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req exchangeCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Account == "" {
		http.Error(w, "state, code, and account are required", http.StatusBadRequest)
		return
	}

	tok, err := h.Flow.Exchange(r.Context(), req.State, req.Code, req.Account)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Store.Put(tok); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tokenView(tok))
}

// Refresh serves POST /oauth/refresh/{account}.
func (h *OAuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	account := r.PathValue("account")
	if account == "" {
		http.Error(w, "account is required", http.StatusBadRequest)
		return
	}

	tok, err := h.Store.ForceRefresh(r.Context(), account)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, tokenView(tok))
}

// Status serves GET /oauth/status.
func (h *OAuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	tokens := h.Store.Status()
	views := make([]tokenStatusView, 0, len(tokens))
	for _, tok := range tokens {
		views = append(views, tokenView(tok))
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": views})
}

// DeleteToken serves DELETE /oauth/tokens/{account} and, with no account
// path segment, DELETE /oauth/tokens.
func (h *OAuthHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	account := r.PathValue("account")
	var err error
	if account == "" {
		err = h.Store.DeleteAll()
	} else {
		err = h.Store.Delete(account)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tokenStatusView struct {
	Account    string    `json:"account"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastUsedAt time.Time `json:"last_used_at,omitempty"`
	UsageCount int64     `json:"usage_count"`
	Usable     bool      `json:"usable"`
}

func tokenView(tok oauth.Token) tokenStatusView {
	return tokenStatusView{
		Account:    tok.Account,
		ExpiresAt:  tok.ExpiresAt,
		LastUsedAt: tok.LastUsedAt,
		UsageCount: tok.UsageCount,
		Usable:     tok.Usable(time.Now()),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
