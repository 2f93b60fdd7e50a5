package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"mercator-hq/relay/pkg/dedup"
	"mercator-hq/relay/pkg/fingerprint"
	"mercator-hq/relay/pkg/health"
	"mercator-hq/relay/pkg/oauth"
	"mercator-hq/relay/pkg/protocol"
	"mercator-hq/relay/pkg/provider"
	"mercator-hq/relay/pkg/relayerr"
	"mercator-hq/relay/pkg/routing"
	"mercator-hq/relay/pkg/telemetry/metrics"
)

// Resolver is the subset of *routing.Resolver the dispatcher needs,
// narrowed for testability.
type Resolver interface {
	Resolve(clientModel string) ([]routing.ResolvedCandidate, error)
}

// HealthRecorder is the subset of *health.Tracker the dispatcher needs.
type HealthRecorder interface {
	RecordSuccess(id provider.Identity, now time.Time)
	RecordFailure(id provider.Identity, now time.Time) health.Snapshot
}

// AccountResolver is the subset of *oauth.Store the dispatcher needs.
type AccountResolver interface {
	Get(ctx context.Context, account string) (oauth.Token, error)
	SelectAccount(now time.Time) (string, error)
}

// Dispatcher is the per-request orchestrator: it owns no HTTP concerns,
// taking an already-parsed Anthropic request and returning the in-flight
// dedup.Entry the caller (the HTTP handler) subscribes to for the
// response.
type Dispatcher struct {
	Table      *dedup.Table
	Resolver   Resolver
	Health     HealthRecorder
	OAuth      AccountResolver
	Caller     Caller
	StreamMode func(p *provider.Provider) StreamMode

	// Metrics is optional; a nil Collector disables recording.
	Metrics *metrics.Collector

	IncludeMaxTokensInFingerprint bool
}

// Dispatch computes the request's fingerprint, joins or leads the
// in-flight entry for it, and — if this caller is the leader — starts the
// candidate loop in a detached goroutine so it survives the triggering
// request's context so long as other subscribers remain.
func (d *Dispatcher) Dispatch(req protocol.AnthropicRequest, clientAuthHeader string) (*dedup.Entry, bool, error) {
	fp, err := fingerprint.Compute(toFingerprintRequest(req), d.IncludeMaxTokensInFingerprint)
	if err != nil {
		return nil, false, err
	}

	entry, isLeader := d.Table.JoinOrLead(fp)
	if isLeader {
		go d.runLeader(entry, req, clientAuthHeader)
	}
	return entry, isLeader, nil
}

func toFingerprintRequest(req protocol.AnthropicRequest) fingerprint.Request {
	messages, _ := json.Marshal(req.Messages)
	var system json.RawMessage
	if req.System != "" {
		system, _ = json.Marshal(req.System)
	}
	var tools json.RawMessage
	if len(req.Tools) > 0 {
		tools, _ = json.Marshal(req.Tools)
	}

	maxTokens := req.MaxTokens
	return fingerprint.Request{
		Model:       req.Model,
		Messages:    messages,
		System:      system,
		Tools:       tools,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		TopK:        req.TopK,
		Stream:      req.Stream,
		MaxTokens:   &maxTokens,
	}
}

// runLeader drives the candidate loop on a context derived from
// context.Background() rather than the triggering request's context, so
// the upstream fetch survives that request's own disconnect so long as
// other subscribers are still waiting on it. It is cancelled only once
// the broadcaster's last subscriber unsubscribes, at which point the
// in-flight upstream call is abandoned and the broadcaster closes
// closed-error(cancelled).
func (d *Dispatcher) runLeader(entry *dedup.Entry, req protocol.AnthropicRequest, clientAuthHeader string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-entry.Broadcaster.Idle():
			cancel()
		case <-ctx.Done():
		}
	}()

	now := time.Now()

	candidates, err := d.Resolver.Resolve(req.Model)
	if err != nil {
		d.finish(entry, relayerr.NoRoute(req.Model))
		return
	}
	if len(candidates) == 0 {
		d.finish(entry, relayerr.NoRoute(req.Model))
		return
	}

	var (
		triedAny         bool
		firstMissingAcct string
		lastStatus       int
		lastErr          error
	)

	for _, cand := range candidates {
		if ctx.Err() != nil {
			d.finish(entry, relayerr.Cancelled())
			return
		}

		cred, skipAccount, err := d.acquireCredential(ctx, cand.Provider)
		if err != nil {
			if firstMissingAcct == "" {
				firstMissingAcct = skipAccount
			}
			continue
		}

		triedAny = true
		mode := Direct
		if d.StreamMode != nil {
			mode = d.StreamMode(cand.Provider)
		}

		result := d.Caller.Call(ctx, CallRequest{
			Provider:         cand.Provider,
			UpstreamModel:    cand.UpstreamModel,
			Anthropic:        req,
			CredentialHeader: cred,
			ClientAuthHeader: clientAuthHeader,
			Mode:             mode,
		}, entry.Broadcaster)

		if ctx.Err() != nil {
			d.finish(entry, relayerr.Cancelled())
			return
		}

		switch result.Kind {
		case TerminalSuccess:
			d.recordOutcome(cand.Provider.Identity.Name, "success")
			d.Health.RecordSuccess(cand.Provider.Identity, now)
			entry.Broadcaster.Close(dedup.ClosedOK, nil)
			d.Table.Retire(entry.Fingerprint)
			return
		case RetryableFailure:
			d.recordOutcome(cand.Provider.Identity.Name, "retryable_failure")
			snap := d.Health.RecordFailure(cand.Provider.Identity, now)
			if d.Metrics != nil {
				d.Metrics.SetProviderHealth(cand.Provider.Identity.Name, snap.Eligible(now))
			}
			lastStatus, lastErr = result.HTTPStatus, result.Err
			if entry.Broadcaster.HasPublished() {
				// Post-commit: bytes already reached subscribers. Failing
				// over now would desync the stream, so this is terminal.
				d.finishWithRetire(entry, relayerr.AllProvidersFailed(result.HTTPStatus, result.Err))
				return
			}
			continue
		case NonRetryableFailure:
			d.recordOutcome(cand.Provider.Identity.Name, "non_retryable_failure")
			d.finishWithRetire(entry, relayerr.UpstreamNonRetryable(result.HTTPStatus, result.Err))
			return
		}
	}

	if !triedAny {
		d.finishWithRetire(entry, relayerr.AuthRequired(firstMissingAcct))
		return
	}
	d.finishWithRetire(entry, relayerr.AllProvidersFailed(lastStatus, lastErr))
}

// acquireCredential resolves the outbound credential header for a
// candidate. For OAuth providers it resolves the account (selecting the
// least-recently-used usable one if the candidate didn't pin one) and
// fetches/refreshes its token; skip is the account name to report if no
// usable token exists, so the dispatcher can distinguish "every candidate
// was tried and failed" from "no candidate could even be attempted".
func (d *Dispatcher) acquireCredential(ctx context.Context, p *provider.Provider) (cred string, skip string, err error) {
	switch p.Auth.Kind {
	case provider.AuthOAuth:
		account := p.Account
		if account == "" {
			selected, err := d.OAuth.SelectAccount(time.Now())
			if err != nil {
				return "", "", err
			}
			account = selected
		}
		tok, err := d.OAuth.Get(ctx, account)
		if err != nil {
			return "", account, err
		}
		return tok.AccessToken, "", nil
	default:
		return p.Auth.Value, "", nil
	}
}

func (d *Dispatcher) recordOutcome(provider, outcome string) {
	if d.Metrics != nil {
		d.Metrics.RecordProviderRequest(provider, outcome)
	}
}

func (d *Dispatcher) finish(entry *dedup.Entry, err *relayerr.Error) {
	entry.Broadcaster.Close(dedup.ClosedError, err)
	d.Table.Retire(entry.Fingerprint)
}

func (d *Dispatcher) finishWithRetire(entry *dedup.Entry, err *relayerr.Error) {
	entry.Broadcaster.Close(dedup.ClosedError, err)
	d.Table.RetireAfterDelay(entry.Fingerprint, entry)
}
