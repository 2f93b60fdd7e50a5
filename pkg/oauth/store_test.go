package oauth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

type countingRefresher struct {
	calls int64
	delay time.Duration
}

func (r *countingRefresher) Refresh(ctx context.Context, account, refreshToken string) (*oauth2.Token, error) {
	atomic.AddInt64(&r.calls, 1)
	time.Sleep(r.delay)
	return &oauth2.Token{
		AccessToken:  "new-" + refreshToken,
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func TestRefreshIsSingleflight(t *testing.T) {
	refresher := &countingRefresher{delay: 20 * time.Millisecond}
	store := NewStore(refresher, nil, "relay", false, true)
	_ = store.Put(Token{
		Account:      "a@example.com",
		AccessToken:  "old",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(4 * time.Minute), // within the 5-minute refresh window
	})

	var wg sync.WaitGroup
	results := make([]Token, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := store.Get(context.Background(), "a@example.com")
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			results[i] = tok
		}(i)
	}
	wg.Wait()

	if refresher.calls != 1 {
		t.Fatalf("expected exactly one refresh call, got %d", refresher.calls)
	}
	for _, tok := range results {
		if tok.AccessToken != "new-refresh-token" {
			t.Fatalf("expected every caller to observe the refreshed token, got %q", tok.AccessToken)
		}
	}
}

type failingRefresher struct{}

func (failingRefresher) Refresh(ctx context.Context, account, refreshToken string) (*oauth2.Token, error) {
	return nil, context.DeadlineExceeded
}

func TestFailedRefreshSetsBackoffAndServesOldTokenIfUsable(t *testing.T) {
	store := NewStore(failingRefresher{}, nil, "relay", false, true)
	_ = store.Put(Token{
		Account:      "a@example.com",
		AccessToken:  "old",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(4 * time.Minute),
	})

	tok, err := store.Get(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("expected the still-usable pre-refresh token to be served, got err=%v", err)
	}
	if tok.AccessToken != "old" {
		t.Fatalf("expected old token, got %q", tok.AccessToken)
	}

	s := store.tokens["a@example.com"]
	if s.RefreshFailureBackoffUntil.Before(time.Now().Add(55 * time.Minute)) {
		t.Fatalf("expected refresh failure backoff to be set to roughly now+1h")
	}
}

func TestSelectAccountPicksLeastRecentlyUsed(t *testing.T) {
	store := NewStore(nil, nil, "relay", false, false)
	now := time.Now()
	_ = store.Put(Token{Account: "b", ExpiresAt: now.Add(time.Hour), LastUsedAt: now.Add(-1 * time.Minute)})
	_ = store.Put(Token{Account: "a", ExpiresAt: now.Add(time.Hour), LastUsedAt: now.Add(-10 * time.Minute)})

	account, err := store.SelectAccount(now)
	if err != nil {
		t.Fatalf("SelectAccount: %v", err)
	}
	if account != "a" {
		t.Fatalf("expected least-recently-used account %q, got %q", "a", account)
	}
}
