package oauth

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Refresher performs the actual refresh-token exchange against a
// provider's OAuth endpoint. Implementations wrap an oauth2.Config; the
// relay's configuration has no OAuth proxy setting to route them through.
type Refresher interface {
	Refresh(ctx context.Context, account string, refreshToken string) (*oauth2.Token, error)
}

// TokenPersister persists tokens keyed by (service name, account
// identifier). The shipped implementation (persist.go) is a 0600 JSON
// file, documented in DESIGN.md as the stdlib fallback for this one
// concern: no OS-native keyring binding appears anywhere in the retrieval
// pack to ground an ecosystem choice on.
type TokenPersister interface {
	Save(serviceName string, tok Token) error
	Load(serviceName, account string) (Token, bool, error)
	Delete(serviceName, account string) error
	LoadAll(serviceName string) ([]Token, error)
}

// Store is the per-process OAuth credential store. Refresh for a given
// account is singleflight: concurrent callers join one refresh and share
// its outcome, using golang.org/x/sync/singleflight for the coalescing.
type Store struct {
	mu     sync.RWMutex
	tokens map[string]Token

	refresher   Refresher
	persister   TokenPersister
	serviceName string

	enablePersistence bool
	enableAutoRefresh bool

	sf singleflight.Group
}

// NewStore creates a Store. persister may be nil when enablePersistence is
// false.
func NewStore(refresher Refresher, persister TokenPersister, serviceName string, enablePersistence, enableAutoRefresh bool) *Store {
	s := &Store{
		tokens:            make(map[string]Token),
		refresher:         refresher,
		persister:         persister,
		serviceName:       serviceName,
		enablePersistence: enablePersistence,
		enableAutoRefresh: enableAutoRefresh,
	}
	if enablePersistence && persister != nil {
		if all, err := persister.LoadAll(serviceName); err == nil {
			for _, tok := range all {
				s.tokens[tok.Account] = tok
			}
		}
	}
	return s
}

// Put installs a freshly-issued or exchanged token (e.g. after
// POST /oauth/exchange-code) and persists it if enabled.
func (s *Store) Put(tok Token) error {
	s.mu.Lock()
	s.tokens[tok.Account] = tok
	s.mu.Unlock()
	return s.maybePersist(tok)
}

func (s *Store) maybePersist(tok Token) error {
	if !s.enablePersistence || s.persister == nil {
		return nil
	}
	return s.persister.Save(s.serviceName, tok)
}

// Get returns a usable token for account, refreshing it first if it is
// within 5 minutes of expiry, auto-refresh is enabled, and the refresh
// backoff has elapsed. If that refresh fails, the old token is returned
// as long as it has not expired. Returns an error if no token can be
// produced — the caller (the dispatcher) turns that into auth_required.
func (s *Store) Get(ctx context.Context, account string) (Token, error) {
	now := time.Now()

	s.mu.RLock()
	tok, ok := s.tokens[account]
	s.mu.RUnlock()
	if !ok {
		return Token{}, fmt.Errorf("oauth: no token for account %q", account)
	}

	servable := tok.Usable(now)
	if tok.NeedsRefresh(now) && s.enableAutoRefresh && !now.Before(tok.RefreshFailureBackoffUntil) {
		refreshed, err := s.refresh(ctx, account)
		if err == nil {
			tok = refreshed
			servable = tok.Usable(now)
		} else if now.Before(tok.ExpiresAt) {
			// Refresh failed but the pre-refresh token has not expired
			// yet: serve it.
			servable = true
		} else {
			return Token{}, fmt.Errorf("oauth: refresh failed and existing token has expired: %w", err)
		}
	}

	if !servable {
		return Token{}, fmt.Errorf("oauth: token for account %q is not usable", account)
	}

	// Update the stored record rather than overwriting it with tok, so a
	// backoff recorded by a failed refresh is kept.
	s.mu.Lock()
	stored := s.tokens[account]
	stored.LastUsedAt = now
	stored.UsageCount++
	s.tokens[account] = stored
	s.mu.Unlock()
	tok.LastUsedAt, tok.UsageCount = stored.LastUsedAt, stored.UsageCount

	return tok, nil
}

// refresh performs a singleflight-coalesced refresh for account: N
// concurrent callers issue exactly one upstream refresh HTTP call and all
// observe its result.
func (s *Store) refresh(ctx context.Context, account string) (Token, error) {
	v, err, _ := s.sf.Do(account, func() (interface{}, error) {
		s.mu.RLock()
		current, ok := s.tokens[account]
		s.mu.RUnlock()
		if !ok {
			return Token{}, fmt.Errorf("oauth: no token for account %q", account)
		}

		raw, refreshErr := s.refresher.Refresh(ctx, account, current.RefreshToken)
		if refreshErr != nil {
			s.mu.Lock()
			current = s.tokens[account]
			current.RefreshFailureBackoffUntil = time.Now().Add(refreshBackoff)
			s.tokens[account] = current
			s.mu.Unlock()
			return Token{}, refreshErr
		}

		refreshed := fromOAuth2(account, raw, current.Scopes, current.CreatedAt)
		s.mu.Lock()
		s.tokens[account] = refreshed
		s.mu.Unlock()
		if persistErr := s.maybePersist(refreshed); persistErr != nil {
			return refreshed, persistErr
		}
		return refreshed, nil
	})
	if err != nil {
		return Token{}, err
	}
	return v.(Token), nil
}

// ForceRefresh refreshes account's token unconditionally (POST
// /oauth/refresh/{account_email}).
func (s *Store) ForceRefresh(ctx context.Context, account string) (Token, error) {
	return s.refresh(ctx, account)
}

// SelectAccount resolves which account identifier to use for a candidate
// that omits one, round-robining among usable tokens by LastUsedAt (the
// least-recently-used usable account goes next).
func (s *Store) SelectAccount(now time.Time) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var usable []Token
	for _, tok := range s.tokens {
		if tok.Usable(now) {
			usable = append(usable, tok)
		}
	}
	if len(usable) == 0 {
		return "", fmt.Errorf("oauth: no usable account available")
	}

	sort.Slice(usable, func(i, j int) bool {
		return usable[i].LastUsedAt.Before(usable[j].LastUsedAt)
	})
	return usable[0].Account, nil
}

// Status returns every tracked token (for GET /oauth/status).
func (s *Store) Status() []Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Token, 0, len(s.tokens))
	for _, tok := range s.tokens {
		out = append(out, tok)
	}
	return out
}

// Delete removes one account's token (DELETE /oauth/tokens/{account_email}).
func (s *Store) Delete(account string) error {
	s.mu.Lock()
	delete(s.tokens, account)
	s.mu.Unlock()
	if s.enablePersistence && s.persister != nil {
		return s.persister.Delete(s.serviceName, account)
	}
	return nil
}

// DeleteAll removes every tracked token (DELETE /oauth/tokens).
func (s *Store) DeleteAll() error {
	s.mu.RLock()
	accounts := make([]string, 0, len(s.tokens))
	for a := range s.tokens {
		accounts = append(accounts, a)
	}
	s.mu.RUnlock()

	for _, a := range accounts {
		if err := s.Delete(a); err != nil {
			return err
		}
	}
	return nil
}
