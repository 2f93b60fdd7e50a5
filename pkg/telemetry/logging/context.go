package logging

import (
	"context"
	"strconv"
)

// Context keys for the relay's request-scoped log fields.
type contextKey string

const (
	// RequestIDKey is the context key for the inbound X-Request-Id.
	RequestIDKey contextKey = "request_id"

	// FingerprintKey is the context key for the request's dedup fingerprint.
	FingerprintKey contextKey = "fingerprint"

	// ProviderKey is the context key for the upstream provider name.
	ProviderKey contextKey = "provider"

	// AccountKey is the context key for the OAuth account identifier.
	AccountKey contextKey = "account"

	// ModelKey is the context key for the client-facing model name.
	ModelKey contextKey = "model"

	// CandidateIndexKey is the context key for the candidate's position in
	// its route's priority list.
	CandidateIndexKey contextKey = "candidate_index"

	// OutcomeKey is the context key for a dispatch attempt's classified
	// outcome.
	OutcomeKey contextKey = "outcome"

	// ClientIdentityKey is the context key for the identity extracted from
	// an mTLS client certificate.
	ClientIdentityKey contextKey = "client_identity"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithFingerprint adds a dedup fingerprint to the context.
func WithFingerprint(ctx context.Context, fingerprint string) context.Context {
	return context.WithValue(ctx, FingerprintKey, fingerprint)
}

// GetFingerprint retrieves the dedup fingerprint from the context.
func GetFingerprint(ctx context.Context) string {
	if v, ok := ctx.Value(FingerprintKey).(string); ok {
		return v
	}
	return ""
}

// WithProvider adds a provider name to the context.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, ProviderKey, provider)
}

// GetProvider retrieves the provider name from the context.
func GetProvider(ctx context.Context) string {
	if v, ok := ctx.Value(ProviderKey).(string); ok {
		return v
	}
	return ""
}

// WithAccount adds an OAuth account identifier to the context.
func WithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, AccountKey, account)
}

// GetAccount retrieves the OAuth account identifier from the context.
func GetAccount(ctx context.Context) string {
	if v, ok := ctx.Value(AccountKey).(string); ok {
		return v
	}
	return ""
}

// WithModel adds a model name to the context.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ModelKey, model)
}

// GetModel retrieves the model name from the context.
func GetModel(ctx context.Context) string {
	if v, ok := ctx.Value(ModelKey).(string); ok {
		return v
	}
	return ""
}

// WithCandidateIndex adds a candidate's position in its route's priority
// list to the context.
func WithCandidateIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, CandidateIndexKey, index)
}

// GetCandidateIndex retrieves the candidate index from the context, or -1
// if absent.
func GetCandidateIndex(ctx context.Context) int {
	if v, ok := ctx.Value(CandidateIndexKey).(int); ok {
		return v
	}
	return -1
}

// WithOutcome adds a dispatch attempt's classified outcome to the context.
func WithOutcome(ctx context.Context, outcome string) context.Context {
	return context.WithValue(ctx, OutcomeKey, outcome)
}

// GetOutcome retrieves the dispatch outcome from the context.
func GetOutcome(ctx context.Context) string {
	if v, ok := ctx.Value(OutcomeKey).(string); ok {
		return v
	}
	return ""
}

// WithClientIdentity adds an mTLS client certificate identity to the context.
func WithClientIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, ClientIdentityKey, identity)
}

// GetClientIdentity retrieves the mTLS client certificate identity from the context.
func GetClientIdentity(ctx context.Context) string {
	if v, ok := ctx.Value(ClientIdentityKey).(string); ok {
		return v
	}
	return ""
}

// extractContextFields extracts the relay's request-scoped fields from
// context for logging. Returns a slice of key-value pairs suitable for
// logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, "request_id", v)
	}
	if v := GetFingerprint(ctx); v != "" {
		fields = append(fields, "fingerprint", v)
	}
	if v := GetProvider(ctx); v != "" {
		fields = append(fields, "provider", v)
	}
	if v := GetAccount(ctx); v != "" {
		fields = append(fields, "account", v)
	}
	if v := GetModel(ctx); v != "" {
		fields = append(fields, "model", v)
	}
	if v := GetCandidateIndex(ctx); v >= 0 {
		fields = append(fields, "candidate_index", strconv.Itoa(v))
	}
	if v := GetOutcome(ctx); v != "" {
		fields = append(fields, "outcome", v)
	}
	if v := GetClientIdentity(ctx); v != "" {
		fields = append(fields, "client_identity", v)
	}

	return fields
}

// ContextLogger is a logger that automatically includes context fields.
type ContextLogger struct {
	logger *Logger
	ctx    context.Context
}

// NewContextLogger creates a logger that automatically includes context fields.
func NewContextLogger(logger *Logger, ctx context.Context) *ContextLogger {
	return &ContextLogger{
		logger: logger.WithContext(ctx),
		ctx:    ctx,
	}
}

// Debug logs a debug message with context fields.
func (cl *ContextLogger) Debug(msg string, args ...any) {
	cl.logger.DebugContext(cl.ctx, msg, args...)
}

// Info logs an info message with context fields.
func (cl *ContextLogger) Info(msg string, args ...any) {
	cl.logger.InfoContext(cl.ctx, msg, args...)
}

// Warn logs a warning message with context fields.
func (cl *ContextLogger) Warn(msg string, args ...any) {
	cl.logger.WarnContext(cl.ctx, msg, args...)
}

// Error logs an error message with context fields.
func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.ErrorContext(cl.ctx, msg, args...)
}

// With creates a new context logger with additional fields.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{
		logger: cl.logger.With(args...),
		ctx:    cl.ctx,
	}
}
