package dispatch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mercator-hq/relay/pkg/dedup"
	"mercator-hq/relay/pkg/protocol"
	"mercator-hq/relay/pkg/provider"
)

// HTTPCaller is the concrete Caller, issuing real outbound HTTP requests to
// configured providers. It keeps one *http.Client per distinct proxy
// configuration, reused across requests.
type HTTPCaller struct {
	Classify ClassifyConfig
	Timeout  time.Duration

	clients map[string]*http.Client
}

// NewHTTPCaller builds an HTTPCaller. timeout bounds a single upstream
// attempt (the configured per_request_timeout).
func NewHTTPCaller(classify ClassifyConfig, timeout time.Duration) *HTTPCaller {
	return &HTTPCaller{Classify: classify, Timeout: timeout, clients: make(map[string]*http.Client)}
}

func (c *HTTPCaller) clientFor(proxyURL string) *http.Client {
	if cl, ok := c.clients[proxyURL]; ok {
		return cl
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	cl := &http.Client{Transport: transport, Timeout: c.Timeout}
	c.clients[proxyURL] = cl
	return cl
}

// Call implements Caller.
func (c *HTTPCaller) Call(ctx context.Context, req CallRequest, broadcaster *dedup.Broadcaster) CallResult {
	body, endpoint, err := c.buildRequest(req)
	if err != nil {
		return CallResult{Kind: NonRetryableFailure, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return CallResult{Kind: NonRetryableFailure, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	setAuthHeader(httpReq, req)

	client := c.clientFor(req.Provider.ProxyURL)
	resp, err := client.Do(httpReq)
	if err != nil {
		kind := Classify(err, 0, nil, c.Classify)
		return CallResult{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	if req.Mode == Direct && req.Anthropic.Stream && req.Provider.Protocol == provider.Anthropic {
		return c.streamDirect(resp, broadcaster)
	}
	return c.buffer(resp, req, broadcaster)
}

func (c *HTTPCaller) buildRequest(req CallRequest) (body []byte, endpoint string, err error) {
	anthropic := req.Anthropic
	anthropic.Model = req.UpstreamModel

	switch req.Provider.Protocol {
	case provider.OpenAI:
		openaiReq := protocol.ToOpenAIRequest(anthropic)
		body, err = json.Marshal(openaiReq)
		endpoint = strings.TrimRight(req.Provider.BaseURL, "/") + "/chat/completions"
	default:
		body, err = json.Marshal(anthropic)
		endpoint = strings.TrimRight(req.Provider.BaseURL, "/") + "/v1/messages"
	}
	return body, endpoint, err
}

func setAuthHeader(httpReq *http.Request, req CallRequest) {
	if req.Provider.Auth.Kind != provider.AuthOAuth && req.Provider.Auth.Value == provider.Passthrough {
		// Forward the client's inbound Authorization header unchanged.
		if req.ClientAuthHeader != "" {
			httpReq.Header.Set("Authorization", req.ClientAuthHeader)
		}
		if req.Provider.Protocol != provider.OpenAI {
			httpReq.Header.Set("anthropic-version", "2023-06-01")
		}
		return
	}
	switch req.Provider.Protocol {
	case provider.OpenAI:
		httpReq.Header.Set("Authorization", "Bearer "+req.CredentialHeader)
	default:
		if req.Provider.Auth.Kind == provider.AuthToken {
			httpReq.Header.Set("Authorization", "Bearer "+req.CredentialHeader)
		} else {
			httpReq.Header.Set("x-api-key", req.CredentialHeader)
		}
		httpReq.Header.Set("anthropic-version", "2023-06-01")
	}
}

// streamDirect pipes an Anthropic-protocol SSE response straight through,
// publishing each event as it arrives. Once the first event is published,
// the dispatcher can no longer fail over — HasPublished() is now true —
// so a mid-stream error here is terminal, not retryable-from-the-top.
func (c *HTTPCaller) streamDirect(resp *http.Response, broadcaster *dedup.Broadcaster) CallResult {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		sample, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		kind := Classify(nil, resp.StatusCode, sample, c.Classify)
		return CallResult{Kind: kind, HTTPStatus: resp.StatusCode, Err: fmt.Errorf("upstream status %d", resp.StatusCode)}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var event bytes.Buffer
	flush := func() {
		if event.Len() == 0 {
			return
		}
		chunk := make([]byte, event.Len())
		copy(chunk, event.Bytes())
		broadcaster.Publish(chunk)
		event.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			flush()
			continue
		}
		event.WriteString(line)
		event.WriteByte('\n')
	}
	flush()

	if err := scanner.Err(); err != nil {
		return CallResult{Kind: RetryableFailure, HTTPStatus: resp.StatusCode, Err: err}
	}
	return CallResult{Kind: TerminalSuccess, HTTPStatus: resp.StatusCode}
}

// buffer reads the whole upstream response before publishing anything,
// used for non-streaming client requests and background-mode candidates
// (openai-typed providers, or any provider once background mode is
// selected). Because nothing reaches the broadcaster until classification
// completes, the dispatcher is always free to fail over on this path.
func (c *HTTPCaller) buffer(resp *http.Response, req CallRequest, broadcaster *dedup.Broadcaster) CallResult {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024*1024))
	if err != nil {
		return CallResult{Kind: RetryableFailure, HTTPStatus: resp.StatusCode, Err: err}
	}

	kind := Classify(nil, resp.StatusCode, raw, c.Classify)
	if kind != TerminalSuccess {
		return CallResult{Kind: kind, HTTPStatus: resp.StatusCode, Err: fmt.Errorf("upstream status %d", resp.StatusCode)}
	}

	if err := publishBuffered(raw, req, broadcaster); err != nil {
		return CallResult{Kind: RetryableFailure, HTTPStatus: resp.StatusCode, Err: err}
	}
	return CallResult{Kind: TerminalSuccess, HTTPStatus: resp.StatusCode}
}

// publishBuffered translates (if needed) and publishes a buffered
// response body as either one whole-body chunk (client did not request
// streaming) or a synthesized Anthropic SSE sequence (client did).
func publishBuffered(raw []byte, req CallRequest, broadcaster *dedup.Broadcaster) error {
	var anthropicResp protocol.AnthropicResponse

	switch req.Provider.Protocol {
	case provider.OpenAI:
		var openaiResp protocol.OpenAIResponse
		if req.Anthropic.Stream {
			// The upstream request carried stream:true, so the body is an
			// SSE chunk stream; aggregate it into one choice.
			content, finish, err := protocol.ReadOpenAISSE(bytes.NewReader(raw))
			if err != nil {
				return fmt.Errorf("dispatch: reading openai stream: %w", err)
			}
			openaiResp.Choices = []protocol.OpenAIChoice{{Message: protocol.OpenAIMessage{Role: "assistant", Content: content}, FinishReason: finish}}
		} else if err := json.Unmarshal(raw, &openaiResp); err != nil {
			return fmt.Errorf("dispatch: decoding openai response: %w", err)
		}
		translated, err := protocol.FromOpenAIResponse(req.UpstreamModel, openaiResp)
		if err != nil {
			return err
		}
		anthropicResp = translated
	default:
		if err := json.Unmarshal(raw, &anthropicResp); err != nil {
			return fmt.Errorf("dispatch: decoding anthropic response: %w", err)
		}
	}

	if !req.Anthropic.Stream {
		out, err := json.Marshal(anthropicResp)
		if err != nil {
			return err
		}
		broadcaster.Publish(out)
		return nil
	}

	for _, event := range protocol.AnthropicSSEEvents(anthropicResp) {
		broadcaster.Publish(event)
	}
	return nil
}
