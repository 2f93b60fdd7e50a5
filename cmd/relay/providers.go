package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
)

type providerStatus struct {
	Name              string `json:"name"`
	Account           string `json:"account,omitempty"`
	Protocol          string `json:"protocol"`
	Enabled           bool   `json:"enabled"`
	Health            string `json:"health"`
	ConsecutiveErrors int    `json:"consecutive_errors"`
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the configured providers and their health",
	Long: `Load the configuration and print every configured provider alongside
its current health state, without starting the relay server.

Examples:
  relay providers
  relay providers --output json`,
	RunE: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return cli.NewCommandError("providers", err)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return cli.NewCommandError("providers", fmt.Errorf("provider configuration: %w", err))
	}
	tracker := buildHealthTracker(cfg)

	now := time.Now()
	all := registry.All()
	views := make([]providerStatus, 0, len(all))
	for _, p := range all {
		snap := tracker.Snapshot(p.Identity, now)
		views = append(views, providerStatus{
			Name:              p.Identity.Name,
			Account:           p.Identity.Account,
			Protocol:          string(p.Protocol),
			Enabled:           p.Enabled,
			Health:            string(snap.State),
			ConsecutiveErrors: snap.ConsecutiveErrors,
		})
	}

	if outputFormat == string(cli.FormatText) {
		for _, v := range views {
			fmt.Printf("%-24s protocol=%-10s enabled=%-5t health=%-10s errors=%d\n", v.Name, v.Protocol, v.Enabled, v.Health, v.ConsecutiveErrors)
		}
		return nil
	}
	return formatter().FormatTo(os.Stdout, views)
}
