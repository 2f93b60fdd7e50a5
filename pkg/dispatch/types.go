// Package dispatch is the per-request orchestrator: fingerprint -> dedup
// lookup -> candidate iteration -> upstream call -> failover -> health
// update. This is the core of the system.
package dispatch

import (
	"context"

	"mercator-hq/relay/pkg/dedup"
	"mercator-hq/relay/pkg/protocol"
	"mercator-hq/relay/pkg/provider"
)

// StreamMode selects how a candidate's response is delivered to
// subscribers.
type StreamMode int

const (
	// Direct pipes upstream bytes through as they arrive. Lower latency;
	// failover is impossible once the first byte is published.
	Direct StreamMode = iota
	// Background buffers the whole upstream response, classifies it, and
	// only then begins publishing — supporting mid-stream failover
	// because nothing has reached the client yet.
	Background
)

// OutcomeKind is the result of classifying one candidate attempt.
type OutcomeKind int

const (
	TerminalSuccess OutcomeKind = iota
	RetryableFailure
	NonRetryableFailure
)

// CallRequest is everything a Caller needs to attempt one candidate.
type CallRequest struct {
	Provider         *provider.Provider
	UpstreamModel    string
	Anthropic        protocol.AnthropicRequest
	CredentialHeader string
	ClientAuthHeader string
	Mode             StreamMode
}

// CallResult is the classified outcome of one candidate attempt.
type CallResult struct {
	Kind       OutcomeKind
	HTTPStatus int
	Err        error
}

// Caller performs one upstream attempt, publishing chunks to broadcaster
// as appropriate for its StreamMode. Implementations must respect context
// cancellation.
type Caller interface {
	Call(ctx context.Context, req CallRequest, broadcaster *dedup.Broadcaster) CallResult
}
