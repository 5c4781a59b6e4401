package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bizbridge/gateway/pkg/cli"
	"bizbridge/gateway/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "bizbridge",
	Short: "OpenAI-compatible gateway for Gemini Business",
	Long: `bizbridge exposes an OpenAI-compatible chat completions API backed by
Gemini Business accounts.

It provides:
  - /v1/chat/completions with blocking and streaming responses
  - Round-robin account rotation with session reuse per conversation
  - Local storage and serving of generated images
  - Prometheus metrics and OpenTelemetry tracing`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
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
}

// loadConfig reads the --config file with environment overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}
