package routing

import (
	"sort"
	"time"

	"mercator-hq/relay/pkg/health"
	"mercator-hq/relay/pkg/provider"
	"mercator-hq/relay/pkg/routing/strategy"
)

// ResolvedCandidate is a candidate with its concrete provider already
// looked up in the registry and its upstream model string finalized
// (passthrough resolved against the client's requested model).
type ResolvedCandidate struct {
	Provider      *provider.Provider
	UpstreamModel string
	Priority      int
}

// Resolver is the route resolver: client model string in, ordered
// candidate list out.
type Resolver struct {
	exact map[string]*compiledRoute
	globs []*compiledRoute

	registry *provider.Registry
	health   *health.Tracker
	strat    strategy.Strategy
}

type compiledRoute struct {
	route   Route
	cursors []uint64 // one cursor per priority tier, indexed by tier order
	tiers   [][]Candidate
}

// NewResolver compiles routes (sorting each route's candidates by
// ascending priority, stable on configuration order) and wires the
// registry, health tracker, and selection strategy used for every lookup.
func NewResolver(routes []Route, registry *provider.Registry, tracker *health.Tracker, strat strategy.Strategy) *Resolver {
	r := &Resolver{
		exact:    make(map[string]*compiledRoute),
		registry: registry,
		health:   tracker,
		strat:    strat,
	}

	for _, route := range routes {
		cr := compileRoute(route)
		if isGlob(route.Pattern) {
			r.globs = append(r.globs, cr)
		} else {
			r.exact[route.Pattern] = cr
		}
	}
	return r
}

func compileRoute(route Route) *compiledRoute {
	candidates := append([]Candidate(nil), route.Candidates...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})

	var tiers [][]Candidate
	for _, c := range candidates {
		if len(tiers) == 0 || tiers[len(tiers)-1][0].Priority != c.Priority {
			tiers = append(tiers, []Candidate{c})
		} else {
			tiers[len(tiers)-1] = append(tiers[len(tiers)-1], c)
		}
	}

	return &compiledRoute{
		route:   Route{Pattern: route.Pattern, Candidates: candidates},
		cursors: make([]uint64, len(tiers)),
		tiers:   tiers,
	}
}

// match finds the compiled route for a client model string: exact lookup
// first, then the first matching glob in configuration order.
func (r *Resolver) match(model string) *compiledRoute {
	if cr, ok := r.exact[model]; ok {
		return cr
	}
	for _, cr := range r.globs {
		if cr.route.matches(model) {
			return cr
		}
	}
	return nil
}

// Resolve returns the ordered, filtered candidate list for a client model
// string. It returns ErrNoRoute if no pattern matches.
func (r *Resolver) Resolve(clientModel string) ([]ResolvedCandidate, error) {
	cr := r.match(clientModel)
	if cr == nil {
		return nil, ErrNoRoute
	}

	now := time.Now()
	var out []ResolvedCandidate

	for i, tier := range cr.tiers {
		order := r.strat.Order(len(tier), &cr.cursors[i])
		for _, idx := range order {
			c := tier[idx]
			p, ok := r.registry.Resolve(c.ProviderName, c.Account)
			if !ok || !p.Enabled {
				continue
			}
			snap := r.health.Snapshot(p.Identity, now)
			if !snap.Eligible(now) {
				continue
			}

			upstreamModel := c.Model
			if upstreamModel == provider.Passthrough {
				upstreamModel = clientModel
			}
			out = append(out, ResolvedCandidate{
				Provider:      p,
				UpstreamModel: upstreamModel,
				Priority:      c.Priority,
			})
		}
	}

	return out, nil
}
