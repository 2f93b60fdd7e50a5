package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"mercator-hq/relay/pkg/health"
	"mercator-hq/relay/pkg/provider"
)

// RegistryReader is the subset of *provider.Registry the handler needs —
// satisfied directly by *provider.Registry, or by a wrapper that swaps the
// underlying registry on config reload.
type RegistryReader interface {
	All() []*provider.Provider
}

// ProvidersHandler serves GET /providers: the configured provider registry
// cross-referenced with its live health state, for operator diagnostics.
type ProvidersHandler struct {
	Registry RegistryReader
	Health   *health.Tracker
}

type providerView struct {
	Name              string `json:"name"`
	Account           string `json:"account,omitempty"`
	Protocol          string `json:"protocol"`
	Enabled           bool   `json:"enabled"`
	Health            string `json:"health"`
	ConsecutiveErrors int    `json:"consecutive_errors"`
	CooldownUntil     string `json:"cooldown_until,omitempty"`
}

func (h *ProvidersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := time.Now()
	all := h.Registry.All()
	views := make([]providerView, 0, len(all))

	for _, p := range all {
		snap := h.Health.Snapshot(p.Identity, now)
		v := providerView{
			Name:              p.Identity.Name,
			Account:           p.Identity.Account,
			Protocol:          string(p.Protocol),
			Enabled:           p.Enabled,
			Health:            string(snap.State),
			ConsecutiveErrors: snap.ConsecutiveErrors,
		}
		if snap.State == health.Unhealthy {
			v.CooldownUntil = snap.CooldownUntil.Format(time.RFC3339)
		}
		views = append(views, v)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"providers": views})
}
