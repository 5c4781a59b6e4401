package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"bizbridge/gateway/pkg/cli"
	"bizbridge/gateway/pkg/config"
	"bizbridge/gateway/pkg/server"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watch         bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gateway server",
	Long: `Start the gateway server with the specified configuration.

The server listens on the configured address and answers OpenAI-compatible
chat completion requests using the configured Gemini Business accounts.

While running, edits to the configuration file are watched and the log level
is applied without a restart. Other settings require a restart.

Examples:
  # Start with default config
  bizbridge run

  # Start with custom config
  bizbridge run --config /etc/bizbridge/config.yaml

  # Override listen address
  bizbridge run --listen 0.0.0.0:8000

  # Validate config and accounts without starting the server
  bizbridge run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "assemble the gateway without starting the server")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", true, "apply log level changes from the config file while running")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	app, err := server.NewApp(cfg, server.AppOptions{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			app.Logger.Error("failed to release resources", "error", err)
		}
	}()

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintf(out, "✓ Configuration valid (%d accounts, %d models)\n", app.Pool.Len(), len(app.Orchestrator.Models()))
		return nil
	}

	slog.SetDefault(app.Logger.Logger)
	printBanner(out, cfg)

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	if runFlags.watch {
		go watchConfig(ctx, app)
	}

	if err := server.NewServer(app).Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// watchConfig applies runtime-safe settings from config file edits.
func watchConfig(ctx context.Context, app *server.App) {
	logger := app.Logger.Logger
	watcher := config.NewWatcher(cfgFile, logger)

	err := watcher.Watch(ctx, func(cfg *config.Config) {
		level := cfg.Telemetry.Logging.Level
		if runFlags.logLevel != "" {
			level = runFlags.logLevel
		}
		if err := app.Logger.SetLevel(level); err != nil {
			logger.Warn("ignoring invalid log level from config", "level", level, "error", err)
			return
		}
		logger.Info("configuration reloaded", "log_level", level)
	})
	if err != nil {
		logger.Warn("config watcher stopped", "error", err)
	}
}

func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "bizbridge v%s\n", Version)
	fmt.Fprintf(w, "✓ Configuration loaded from %s\n", cfgFile)
	fmt.Fprintf(w, "✓ %d accounts configured\n", len(cfg.Accounts))
	fmt.Fprintf(w, "✓ Serving on %s (public URL %s)\n", cfg.Server.ListenAddress, cfg.Server.BaseURL)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(w, "✓ Metrics endpoint: %s%s\n", cfg.Server.BaseURL, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(w, "\nPress Ctrl+C to stop")
}
