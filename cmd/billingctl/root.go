package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erp/billing/internal/bootstrap"
	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/erp/billing/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "billingctl",
	Short: "Administer the billing back office",
	Long: `billingctl applies schema migrations and runs back-office jobs such as the
dunning sweep or offer conversion without going through the HTTP API.

Configuration is read like the server does: config.toml, then BILLING_*
environment variables, with a .env file loaded first when present.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./config.toml or /etc/billing/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

// setup loads configuration and a console logger on stderr
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// withApp runs fn against a fully wired application. The scheduler and HTTP
// server are not started.
func withApp(ctx context.Context, fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Jobs run once; exporting telemetry from a short-lived process is not useful
	cfg.Telemetry.Enabled = false

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()
	if err := app.Bus.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = app.Bus.Stop(context.WithoutCancel(ctx)) }()

	return fn(ctx, app)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
