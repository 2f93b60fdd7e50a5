package provider

import "fmt"

// Registry enumerates the configured upstreams and supports lookup by
// (name, optional account identifier): a candidate that omits an account identifier
// prefers a provider entry that also omits one, and otherwise falls back
// to any entry sharing the name.
type Registry struct {
	byIdentity map[Identity]*Provider
	byName     map[string][]*Provider
}

// NewRegistry builds a Registry from a flat list of providers. Providers
// are immutable once registered; a configuration reload constructs a new
// Registry rather than mutating an existing one.
func NewRegistry(providers []*Provider) (*Registry, error) {
	r := &Registry{
		byIdentity: make(map[Identity]*Provider, len(providers)),
		byName:     make(map[string][]*Provider, len(providers)),
	}
	for _, p := range providers {
		if p.Name == "" {
			return nil, fmt.Errorf("provider registry: provider with empty name")
		}
		if _, exists := r.byIdentity[p.Identity]; exists {
			return nil, fmt.Errorf("provider registry: duplicate provider identity %+v", p.Identity)
		}
		r.byIdentity[p.Identity] = p
		r.byName[p.Name] = append(r.byName[p.Name], p)
	}
	return r, nil
}

// Resolve finds the concrete provider for a candidate's (name, account).
// When account is empty, it prefers an entry that also has no account;
// failing that, it falls back to any entry sharing the name.
func (r *Registry) Resolve(name, account string) (*Provider, bool) {
	if account != "" {
		p, ok := r.byIdentity[Identity{Name: name, Account: account}]
		return p, ok
	}

	if p, ok := r.byIdentity[Identity{Name: name}]; ok {
		return p, true
	}

	candidates := r.byName[name]
	if len(candidates) == 0 {
		return nil, false
	}
	return candidates[0], true
}

// All returns every registered provider.
func (r *Registry) All() []*Provider {
	out := make([]*Provider, 0, len(r.byIdentity))
	for _, p := range r.byIdentity {
		out = append(out, p)
	}
	return out
}

// ByName returns every provider entry sharing a name (one per account).
func (r *Registry) ByName(name string) []*Provider {
	return r.byName[name]
}
