package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bizbridge/gateway/pkg/cli"
	"bizbridge/gateway/pkg/config"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without contacting the upstream.

Every problem found is reported, not just the first. On success a summary of
the effective settings (defaults and environment overrides applied) is printed.

Examples:
  # Validate the default config file
  bizbridge validate

  # Validate another file and print the summary as JSON
  bizbridge validate --config prod.yaml --format json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json, csv")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(validateFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), summarize(cfg))
}

// summarize lists the effective settings worth eyeballing before a deploy.
func summarize(cfg *config.Config) *cli.Table {
	models := make([]string, 0, len(cfg.Models))
	for alias := range cfg.Models {
		models = append(models, alias)
	}
	slices.Sort(models)

	names := make([]string, 0, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		names = append(names, a.Name)
	}

	retention := "disabled"
	if cfg.Artifacts.Retention.MaxAge > 0 {
		retention = fmt.Sprintf("%s (%s)", cfg.Artifacts.Retention.MaxAge, cfg.Artifacts.Retention.Schedule)
	}

	table := &cli.Table{Headers: []string{"SETTING", "VALUE"}}
	table.Append("listen_address", cfg.Server.ListenAddress)
	table.Append("base_url", cfg.Server.BaseURL)
	table.Append("accounts", strings.Join(names, ", "))
	table.Append("models", strings.Join(models, ", "))
	table.Append("session_ttl", cfg.Session.TTL.String())
	table.Append("session_retries", strconv.Itoa(cfg.Orchestrator.SessionRetryBudget()))
	table.Append("artifact_retry", strconv.FormatBool(!cfg.Orchestrator.DisableArtifactRetry))
	table.Append("artifact_dir", cfg.Artifacts.Dir)
	table.Append("artifact_catalog", cfg.Artifacts.Catalog.Backend)
	table.Append("artifact_retention", retention)
	table.Append("metrics", strconv.FormatBool(cfg.Telemetry.Metrics.Enabled))
	table.Append("tracing", strconv.FormatBool(cfg.Telemetry.Tracing.Enabled))
	return table
}
