package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"labelsync/internal/logger"
	"labelsync/pkg/dedup"
	"labelsync/pkg/github"
	"labelsync/pkg/replicator"
	"labelsync/pkg/webhook"
)

var (
	serveHost      string
	servePort      int
	serveLogLevel  string
	serveLogFormat string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the label replication webhook server",
	Long: `Run an HTTP server that receives GitHub label webhooks and replicates
each change to the other repositories of the originating group.

A label created, edited or deleted in any configured repository is
propagated to its group siblings. Renames follow the previous name so
issue associations survive. Changes the server itself made are
recognized by their webhook echo and ignored, which breaks the
propagation loop.

The webhook secret must be configured (github.webhook_secret or the
LABELSYNC_WEBHOOK_SECRET environment variable); deliveries with a bad
signature are rejected. Point the GitHub webhook at the server root
with content type application/json and the "Label" event selected.

Endpoints:
  POST /         webhook receiver
  GET  /         replicated repositories overview
  GET  /healthz  liveness probe

Examples:
  labelsync serve
  labelsync serve --port 8080
  labelsync serve --log-level debug --log-format json`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Bind address (overrides server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides server.port)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "Log level: debug, info, warn or error (overrides server.log_level)")
	serveCmd.Flags().StringVar(&serveLogFormat, "log-format", "", "Log encoding: text or json (overrides server.log_format)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	level := cfg.Server.LogLevel
	if serveLogLevel != "" {
		level = serveLogLevel
	}
	format := cfg.Server.LogFormat
	if serveLogFormat != "" {
		format = serveLogFormat
	}
	log, err := logger.New(logger.WithLevel(level), logger.WithFormat(format))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	authManager := github.NewAuthManager()
	tokenInfo, err := authManager.AuthenticateFromConfig(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", github.GetAuthInstructions())
		return fmt.Errorf("authentication failed: %w", err)
	}
	fmt.Printf("✓ Authenticated as %s\n", tokenInfo.User)

	limiterCfg := github.DefaultRateLimiterConfig()
	limiterCfg.ConcurrencyLimit = cfg.Concurrency()
	limiter := github.NewRateLimiter(limiterCfg)

	client, err := github.NewClient(authManager.Token(), github.WithRateObserver(limiter.UpdateLimits))
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	resolved, err := cfg.ResolvedGroups()
	if err != nil {
		return err
	}
	groups := make([]replicator.Group, 0, len(resolved))
	for _, g := range resolved {
		groups = append(groups, replicator.Group{Name: g.Name, Repos: g.Repos})
	}
	registry, err := replicator.NewRegistry(groups...)
	if err != nil {
		return err
	}

	cache := dedup.NewCache(cfg.DedupTTL())
	orch := replicator.New(client,
		replicator.WithRateLimiter(limiter),
		replicator.WithDedupCache(cache),
		replicator.WithLogger(log),
		replicator.WithConcurrency(cfg.Concurrency()),
	)

	processor := webhook.NewProcessor(registry, orch,
		webhook.WithDedupCache(cache),
		webhook.WithPropagationTimeout(cfg.PropagationTimeout()),
		webhook.WithLogger(log),
	)
	handler := webhook.NewHandler(cfg.WebhookSecret(), registry, processor, log)

	// Expired echo suppression entries are swept in the background for
	// the lifetime of the server.
	go cache.Janitor(ctx, cfg.DedupTTL())

	addr := cfg.ServerAddr()
	fmt.Printf("📋 Replicating labels across %d repositories in %d groups\n", len(registry.Repositories()), len(registry.Groups()))
	fmt.Printf("✅ Webhook server listening on http://%s\n", addr)

	srv := webhook.NewServer(addr, handler, log)
	return srv.Run(ctx)
}
