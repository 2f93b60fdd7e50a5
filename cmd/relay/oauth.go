package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
)

// accountStatus is the formatter-facing view of one tracked OAuth account,
// shaped for both the default tabular text output and --output json.
type accountStatus struct {
	Account    string    `json:"account"`
	Usable     bool      `json:"usable"`
	UsageCount int64     `json:"usage_count"`
	ExpiresAt  time.Time `json:"expires_at"`
}

var oauthFlags struct {
	account string
	state   string
	code    string
}

var oauthCmd = &cobra.Command{
	Use:   "oauth",
	Short: "Manage provider OAuth credentials",
	Long: `Manage the OAuth2 authorization-code-with-PKCE lifecycle for provider
accounts, without starting the relay server.

Examples:
  # Print the authorization URL for a new account
  relay oauth login

  # Complete the flow once the provider redirects back with a code
  relay oauth exchange --state abc123 --code xyz789 --account ops@example.com

  # List known accounts and token freshness
  relay oauth status`,
}

var oauthLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Print the authorization URL to start a PKCE flow",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOAuthConfig()
		if err != nil {
			return err
		}
		built, err := buildServer(cfg)
		if err != nil {
			return cli.NewCommandError("oauth login", err)
		}
		authURL, state := built.flow.GenerateURL()
		fmt.Printf("Authorization URL: %s\n", authURL)
		fmt.Printf("State: %s\n", state)
		return nil
	},
}

var oauthExchangeCmd = &cobra.Command{
	Use:   "exchange",
	Short: "Exchange an authorization code for a token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if oauthFlags.state == "" || oauthFlags.code == "" || oauthFlags.account == "" {
			return cli.NewConfigError("oauth", "--state, --code, and --account are all required")
		}
		cfg, err := loadOAuthConfig()
		if err != nil {
			return err
		}
		built, err := buildServer(cfg)
		if err != nil {
			return cli.NewCommandError("oauth exchange", err)
		}
		tok, err := built.flow.Exchange(context.Background(), oauthFlags.state, oauthFlags.code, oauthFlags.account)
		if err != nil {
			return cli.NewCommandError("oauth exchange", err)
		}
		if err := built.server.OAuthStore.Put(tok); err != nil {
			return cli.NewCommandError("oauth exchange", err)
		}
		fmt.Printf("stored token for %s (expires %s)\n", tok.Account, tok.ExpiresAt)
		return nil
	},
}

var oauthStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List known accounts and token freshness",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOAuthConfig()
		if err != nil {
			return err
		}
		built, err := buildServer(cfg)
		if err != nil {
			return cli.NewCommandError("oauth status", err)
		}

		tokens := built.server.OAuthStore.Status()
		views := make([]accountStatus, 0, len(tokens))
		for _, tok := range tokens {
			views = append(views, accountStatus{
				Account:    tok.Account,
				Usable:     tok.Usable(time.Now()),
				UsageCount: tok.UsageCount,
				ExpiresAt:  tok.ExpiresAt,
			})
		}

		if outputFormat == string(cli.FormatText) {
			for _, v := range views {
				fmt.Printf("%-32s usable=%-5t uses=%-4d expires=%s\n", v.Account, v.Usable, v.UsageCount, v.ExpiresAt)
			}
			return nil
		}
		return formatter().FormatTo(os.Stdout, views)
	},
}

var oauthRefreshAllCmd = &cobra.Command{
	Use:   "refresh-all",
	Short: "Force-refresh every known account's token",
	Long: `Force-refresh the token for every account the store knows about,
reporting progress as each one completes. Accounts whose provider has no
refresh token on file fail individually without aborting the rest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOAuthConfig()
		if err != nil {
			return err
		}
		built, err := buildServer(cfg)
		if err != nil {
			return cli.NewCommandError("oauth refresh-all", err)
		}

		accounts := built.server.OAuthStore.Status()
		progress := cli.NewProgressReporter(os.Stdout)
		progress.Start(int64(len(accounts)))

		var failures int
		for i, tok := range accounts {
			if _, err := built.server.OAuthStore.ForceRefresh(context.Background(), tok.Account); err != nil {
				progress.Error(fmt.Errorf("%s: %w", tok.Account, err))
				failures++
			}
			progress.Update(int64(i + 1))
		}
		progress.Finish()

		if failures > 0 {
			return cli.NewCommandError("oauth refresh-all", fmt.Errorf("%d of %d accounts failed to refresh", failures, len(accounts)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(oauthCmd)
	oauthCmd.AddCommand(oauthLoginCmd, oauthExchangeCmd, oauthStatusCmd, oauthRefreshAllCmd)

	oauthExchangeCmd.Flags().StringVar(&oauthFlags.state, "state", "", "state value returned by the provider")
	oauthExchangeCmd.Flags().StringVar(&oauthFlags.code, "code", "", "authorization code returned by the provider")
	oauthExchangeCmd.Flags().StringVar(&oauthFlags.account, "account", "", "account label to store the token under")
}

func loadOAuthConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	return config.GetConfig(), nil
}
