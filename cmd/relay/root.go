package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/relay/pkg/cli"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "relay - multi-provider LLM reverse proxy",
	Long: `relay is a reverse proxy that fronts multiple LLM providers behind a
single Anthropic-shaped /v1/messages endpoint.

It provides:
  - Model-based routing across Anthropic- and OpenAI-protocol upstreams
  - In-flight request deduplication with mid-stream failover
  - Per-provider health tracking with automatic cooldown and recovery
  - OAuth credential lifecycle management with coalesced refresh`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json)")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}

// formatter returns the cli.Formatter matching the --output flag.
func formatter() cli.Formatter {
	return cli.NewFormatter(cli.OutputFormat(outputFormat))
}
