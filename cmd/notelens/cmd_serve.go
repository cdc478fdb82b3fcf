package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notelens-ai/notelens/internal/auth"
	"github.com/notelens-ai/notelens/internal/config"
	"github.com/notelens-ai/notelens/internal/framework"
	"github.com/notelens-ai/notelens/internal/logging"
	"github.com/notelens-ai/notelens/internal/server"
	"github.com/notelens-ai/notelens/internal/telemetry"
)

var serveFlags struct {
	configPath string
	addr       string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the notelens evaluation API server",
	Long: `Starts the HTTP API. Workspaces authenticate with bearer API keys and
submit notes to POST /v1/evaluations; frameworks are served read-only
under /v1/frameworks.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.configPath, "config", "notelens.yaml", "Path to config file")
	f.StringVar(&serveFlags.addr, "addr", "", "HTTP listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveFlags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	log := logging.New("main")

	masker, err := buildMasker(cfg.Masking)
	if err != nil {
		return err
	}

	authz, err := auth.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	store, err := framework.NewStore(cfg.Frameworks.Dir)
	if err != nil {
		return fmt.Errorf("frameworks: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Frameworks.Watch && cfg.Frameworks.Dir != "" {
		go func() {
			if err := store.Watch(ctx); err != nil {
				log.Warn("framework watch stopped", "error", err)
			}
		}()
	}

	emitter, err := buildAuditEmitter(cfg.Audit)
	if err != nil {
		return err
	}
	defer emitter.Close(context.Background())

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  "notelens",
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer tel.Shutdown(context.Background())

	srv := server.New(cfg, server.Options{
		Auth:            authz,
		Store:           store,
		Evaluators:      buildEvaluators(cfg, masker, tel),
		DefaultProvider: cfg.DefaultProvider,
		Audit:           emitter,
		Telemetry:       tel,
	})

	addr := cfg.Server.Addr
	if serveFlags.addr != "" {
		addr = serveFlags.addr
	}

	log.Info("starting notelens", "addr", addr, "frameworks", len(store.List()))
	return srv.Start(addr)
}
