package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/dedup"
	"mercator-hq/relay/pkg/health"
	"mercator-hq/relay/pkg/oauth"
	"mercator-hq/relay/pkg/server"
	"mercator-hq/relay/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relay server",
	Long: `Start the relay server with the specified configuration.

The server listens on the configured address and multiplexes Anthropic-shaped
/v1/messages requests across the configured provider candidates, with
model-based routing, health-aware failover, and in-flight deduplication.

Examples:
  # Start with default config
  relay run

  # Start with custom config
  relay run --config /etc/relay/config.yaml

  # Override listen address
  relay run --listen 0.0.0.0:8443

  # Validate config without starting the server
  relay run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen host:port")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if runFlags.listenAddress != "" {
		host, port, err := splitHostPort(runFlags.listenAddress)
		if err != nil {
			return cli.NewConfigError("listen", err.Error())
		}
		cfg.Host, cfg.Port = host, port
	}
	if runFlags.logLevel != "" {
		cfg.LogLevel = runFlags.logLevel
	}

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	built, err := buildServer(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	ctx := cli.SetupSignalHandler()
	go watchConfigReload(ctx, cfgFile, built)
	go watchDedupMetrics(ctx, built.table, built.metrics)

	fmt.Printf("relay %s starting on %s:%d\n", Version, cfg.Host, cfg.Port)

	if err := built.server.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("server stopped")
	return nil
}

// builtServer bundles the assembled Server together with the swappable
// wiring a config reload needs to touch: the provider registry and route
// resolver. The health tracker is reused across reloads rather than
// rebuilt, since it carries accumulated per-provider state a reload must
// not discard; the dedup table and OAuth store are likewise left alone.
type builtServer struct {
	server   *server.Server
	flow     *oauth.Flow
	registry *dynamicRegistry
	resolver *dynamicResolver
	tracker  *health.Tracker
	table    *dedup.Table
	metrics  *metrics.Collector
}

// buildServer assembles every runtime dependency described by cfg into a
// ready-to-start Server. The provider registry and route resolver are
// wrapped so a config reload (see watchConfigReload) can swap them without
// disturbing in-flight requests, per the configuration hot-swap invariant.
func buildServer(cfg *config.Config) (*builtServer, error) {
	logger, err := buildLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("building provider registry: %w", err)
	}
	dynRegistry := newDynamicRegistry(registry)

	tracker := buildHealthTracker(cfg)
	dynResolver := newDynamicResolver(buildResolver(cfg, registry, tracker))

	oauthCfg := buildOAuthConfig(cfg)
	flow := oauth.NewFlow(oauthCfg)
	store := buildOAuthStore(cfg, oauthCfg)

	table := buildDedupTable(cfg)
	collector := buildMetricsCollector()
	dispatcher := buildDispatcher(cfg, table, dynResolver, tracker, store, collector)
	checker := buildHealthChecker(dynRegistry, tracker)

	srv := server.New(cfg)
	srv.Dispatcher = dispatcher
	srv.Registry = dynRegistry
	srv.HealthTrack = tracker
	srv.OAuthStore = store
	srv.OAuthFlow = flow
	srv.Metrics = collector
	srv.Checker = checker
	srv.Logger = logger
	srv.ClientAuth = buildClientAuth(cfg)
	srv.Version = Version
	srv.Commit = GitCommit
	srv.BuildTime = BuildDate

	return &builtServer{server: srv, flow: flow, registry: dynRegistry, resolver: dynResolver, tracker: tracker, table: table, metrics: collector}, nil
}

// watchDedupMetrics periodically republishes the dedup table's live
// in-flight count and per-fingerprint subscriber counts onto the
// relay_dedup_inflight and relay_broadcaster_subscribers gauges, since
// those are sampled state rather than discrete events the dispatcher can
// record inline.
func watchDedupMetrics(ctx context.Context, table *dedup.Table, collector *metrics.Collector) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collector.SetDedupInflight(table.Len())
			for fingerprint, n := range table.Snapshot() {
				collector.SetBroadcasterSubscribers(fingerprint, n)
			}
		}
	}
}

// watchConfigReload polls the config file for changes and republishes a
// freshly built provider registry and route resolver into the running
// server, using the same long-lived health tracker so accumulated
// per-provider state survives the reload. A reload that fails validation
// or provider construction is discarded; the previous wiring stays live.
func watchConfigReload(ctx context.Context, path string, built *builtServer) {
	watcher, err := config.NewWatcher(path, slog.Default())
	if err != nil {
		return
	}
	go func() { _ = watcher.Watch(ctx) }()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	last := watcher.Current()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cfg := watcher.Current()
			if cfg == last {
				continue
			}
			last = cfg

			registry, err := buildRegistry(cfg)
			if err != nil {
				continue
			}
			resolver := buildResolver(cfg, registry, built.tracker)

			built.registry.swap(registry)
			built.resolver.swap(resolver)
		}
	}
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid listen port %q: %w", portStr, err)
	}
	return host, port, nil
}
