package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bizbridge/gateway/pkg/accounts"
	"bizbridge/gateway/pkg/auth"
	"bizbridge/gateway/pkg/cli"
	"bizbridge/gateway/pkg/upstream"
)

var accountsFlags struct {
	format  string
	name    string
	session bool
	timeout time.Duration
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Inspect configured upstream accounts",
	Long: `Inspect the upstream accounts listed in the configuration file.

Examples:
  # List accounts
  bizbridge accounts list

  # Mint a token for every account
  bizbridge accounts check

  # Also open an upstream session for one account
  bizbridge accounts check --name alpha --session`,
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured accounts",
	RunE:  listAccounts,
}

var accountsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that accounts can authenticate upstream",
	Long: `Mint a bearer token for each account, and optionally open a session,
reporting the outcome per account. The command fails if any account fails.`,
	RunE: checkAccounts,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsListCmd, accountsCheckCmd)

	accountsCmd.PersistentFlags().StringVar(&accountsFlags.format, "format", "text", "output format: text, json, csv")
	accountsCheckCmd.Flags().StringVar(&accountsFlags.name, "name", "", "check only the named account")
	accountsCheckCmd.Flags().BoolVar(&accountsFlags.session, "session", false, "also create an upstream session")
	accountsCheckCmd.Flags().DurationVar(&accountsFlags.timeout, "timeout", 30*time.Second, "per-account timeout")
}

func listAccounts(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(accountsFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	table := &cli.Table{Headers: []string{"NAME", "CONFIG_ID", "PROJECT_ID", "CSESIDX"}}
	for _, a := range cfg.Accounts {
		table.Append(a.Name, a.ConfigID, a.ProjectID, a.Csesidx)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
}

func checkAccounts(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(accountsFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := upstream.NewHTTPClient(cfg.Upstream)
	if err != nil {
		return cli.NewCommandError("accounts check", err)
	}
	pool, err := accounts.Load(cfg.Accounts, auth.IssuerOptions{
		AuthBaseURL: cfg.Upstream.AuthBaseURL,
		UserAgent:   cfg.Upstream.UserAgent,
		HTTPClient:  client,
	})
	if err != nil {
		return cli.NewConfigError("accounts", err.Error())
	}
	gw, err := upstream.New(cfg.Upstream, upstream.Options{HTTPClient: client})
	if err != nil {
		return cli.NewCommandError("accounts check", err)
	}
	defer gw.Close()

	targets := pool.Accounts()
	if accountsFlags.name != "" {
		acct, ok := pool.Lookup(accountsFlags.name)
		if !ok {
			return cli.NewConfigError("accounts", fmt.Sprintf("no account named %q", accountsFlags.name))
		}
		targets = []*accounts.Account{acct}
	}

	progress := cli.NewLabeledProgress(cmd.ErrOrStderr(), "Checking accounts")
	progress.Start(int64(len(targets)))

	table := &cli.Table{Headers: []string{"NAME", "STATUS", "TOKEN_EXPIRES", "SESSION", "ELAPSED"}}
	var failed []error
	for i, acct := range targets {
		row, err := checkAccount(cmd.Context(), gw, acct)
		table.Append(row...)
		if err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", acct.Name, err))
		}
		progress.Update(int64(i + 1))
	}
	progress.Finish()

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table); err != nil {
		return err
	}
	if len(failed) > 0 {
		return cli.NewCommandError("accounts check", errors.Join(failed...))
	}
	return nil
}

func checkAccount(parent context.Context, gw *upstream.Gateway, acct *accounts.Account) ([]string, error) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, accountsFlags.timeout)
	defer cancel()

	start := time.Now()
	row := func(status, expires, session string) []string {
		return []string{acct.Name, status, expires, session, time.Since(start).Round(time.Millisecond).String()}
	}

	if _, err := acct.Token(ctx); err != nil {
		return row("token failed", "-", "-"), err
	}
	expires := acct.Tokens.Current().ExpiresAt.Format(time.RFC3339)

	if !accountsFlags.session {
		return row("ok", expires, "skipped"), nil
	}
	name, err := gw.CreateSession(ctx, acct)
	if err != nil {
		return row("session failed", expires, "-"), err
	}
	return row("ok", expires, name), nil
}
