package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mercator-hq/relay/pkg/dedup"
	"mercator-hq/relay/pkg/dispatch"
	"mercator-hq/relay/pkg/health"
	"mercator-hq/relay/pkg/oauth"
	"mercator-hq/relay/pkg/provider"
	"mercator-hq/relay/pkg/routing"
)

type fixedResolver struct{ candidates []routing.ResolvedCandidate }

func (f fixedResolver) Resolve(string) ([]routing.ResolvedCandidate, error) {
	return f.candidates, nil
}

type noopHealth struct{}

func (noopHealth) RecordSuccess(provider.Identity, time.Time) {}
func (noopHealth) RecordFailure(provider.Identity, time.Time) health.Snapshot {
	return health.Snapshot{}
}

type noopOAuth struct{}

func (noopOAuth) Get(context.Context, string) (oauth.Token, error) { return oauth.Token{}, nil }
func (noopOAuth) SelectAccount(time.Time) (string, error)          { return "", nil }

type scriptedCaller struct {
	publish []byte
	result  dispatch.CallResult
}

func (c *scriptedCaller) Call(_ context.Context, _ dispatch.CallRequest, b *dedup.Broadcaster) dispatch.CallResult {
	if c.publish != nil {
		b.Publish(c.publish)
	}
	return c.result
}

func testCandidate() routing.ResolvedCandidate {
	return routing.ResolvedCandidate{
		Provider: &provider.Provider{
			Identity: provider.Identity{Name: "a"},
			Protocol: provider.Anthropic,
			BaseURL:  "https://a.example.com",
			Auth:     provider.Auth{Kind: provider.AuthAPIKey, Value: "k"},
			Enabled:  true,
		},
		UpstreamModel: "claude-x",
	}
}

func TestMessagesHandlerBuffersNonStreamingResponse(t *testing.T) {
	caller := &scriptedCaller{
		publish: []byte(`{"id":"msg_1"}`),
		result:  dispatch.CallResult{Kind: dispatch.TerminalSuccess, HTTPStatus: 200},
	}
	d := &dispatch.Dispatcher{
		Table:    dedup.NewTable(0),
		Resolver: fixedResolver{candidates: []routing.ResolvedCandidate{testCandidate()}},
		Health:   noopHealth{},
		OAuth:    noopOAuth{},
		Caller:   caller,
	}
	h := &MessagesHandler{Dispatcher: d}

	body := bytes.NewBufferString(`{"model":"claude-x","messages":[{"role":"user","content":"hi"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("expected a buffered JSON body, got %q: %v", rec.Body.String(), err)
	}
}

func TestMessagesHandlerRejectsInvalidJSON(t *testing.T) {
	h := &MessagesHandler{Dispatcher: &dispatch.Dispatcher{}}

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestMessagesHandlerRejectsNonPost(t *testing.T) {
	h := &MessagesHandler{Dispatcher: &dispatch.Dispatcher{}}

	req := httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestMessagesHandlerStreamsSSEWhenRequested(t *testing.T) {
	caller := &scriptedCaller{
		publish: []byte("event: content_block_delta\ndata: {}\n\n"),
		result:  dispatch.CallResult{Kind: dispatch.TerminalSuccess, HTTPStatus: 200},
	}
	d := &dispatch.Dispatcher{
		Table:    dedup.NewTable(0),
		Resolver: fixedResolver{candidates: []routing.ResolvedCandidate{testCandidate()}},
		Health:   noopHealth{},
		OAuth:    noopOAuth{},
		Caller:   caller,
	}
	h := &MessagesHandler{Dispatcher: d}

	body := bytes.NewBufferString(`{"model":"claude-x","stream":true,"messages":[{"role":"user","content":"hi"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected an SSE content type, got %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("expected the published SSE chunk to reach the response body")
	}
}
