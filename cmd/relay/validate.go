package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
)

type validateResult struct {
	Valid       bool `json:"valid"`
	Providers   int  `json:"providers"`
	ModelRoutes int  `json:"model_routes"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the relay configuration",
	Long: `Load and validate a relay configuration file without starting the server.

Checks that every provider reference in model_routes resolves to a
configured provider, that the structural and type constraints in
pkg/config/validate.go hold, and that the provider registry can be built.
The OAuth settings are not checked for completeness.

Examples:
  relay validate
  relay validate --config /etc/relay/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	if _, err := buildRegistry(cfg); err != nil {
		return cli.NewCommandError("validate", fmt.Errorf("provider configuration: %w", err))
	}

	result := validateResult{Valid: true, Providers: len(cfg.Providers), ModelRoutes: len(cfg.ModelRoutes)}
	if outputFormat == string(cli.FormatText) {
		fmt.Printf("configuration valid: %d provider(s), %d model route(s)\n", result.Providers, result.ModelRoutes)
		return nil
	}
	return formatter().FormatTo(os.Stdout, result)
}
