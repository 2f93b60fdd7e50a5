// Package routing maps an inbound model name to an ordered candidate list
// of (provider, upstream-model) pairs, filtered to currently healthy and
// enabled providers, with a selector/strategy split separating route
// matching from candidate ordering.
package routing

import "strings"

// Candidate is one (provider, upstream-model, priority, optional account)
// tuple inside a Route.
type Candidate struct {
	ProviderName string
	// Model is the upstream model name, or provider.Passthrough to forward
	// the client's original model string unchanged.
	Model    string
	Priority int
	// Account, if non-empty, requires this specific account identifier.
	Account string
}

// Route is a model-name pattern (exact string, or a glob of the form
// "*substring*") paired with an ordered list of candidates. Candidates are
// sorted ascending by Priority at construction time; ties keep
// configuration order (Go's stable sort).
type Route struct {
	Pattern    string
	Candidates []Candidate
}

// isGlob reports whether a pattern uses relay's one supported glob shape:
// a literal substring bracketed by '*' on both ends.
func isGlob(pattern string) bool {
	return strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") && len(pattern) > 1
}

// globSubstring extracts the substring between the leading and trailing
// '*' of a glob pattern.
func globSubstring(pattern string) string {
	return pattern[1 : len(pattern)-1]
}

// matches reports whether a route's pattern matches a client model string.
// Exact patterns match byte-for-byte; glob patterns match case-insensitive
// substring containment.
func (r Route) matches(model string) bool {
	if !isGlob(r.Pattern) {
		return r.Pattern == model
	}
	sub := globSubstring(r.Pattern)
	return strings.Contains(strings.ToLower(model), strings.ToLower(sub))
}
