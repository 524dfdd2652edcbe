package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/locshare/internal/config"
	"github.com/nao1215/locshare/internal/database"
	"github.com/nao1215/locshare/internal/locator"
	"github.com/nao1215/locshare/internal/report"
)

// NewLocateCmd creates the locate command. kr supplies the password when
// only the username is configured.
func NewLocateCmd(kr config.Keyring) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate NAME...",
		Short: "Tell where a person sharing their location is",
		Long: `Locate signs in to Google, reads the locations shared with the account and
answers where the person whose name best matches NAME is.

Each NAME is looked up independently. Names do not need to be exact: the
shared person with the closest name is chosen.

Settings are read in this order, later ones winning:
  1. Built-in defaults
  2. The configuration file (.locshare, ~/.locshare or ~/.config/locshare/config.yaml)
  3. The environment and the .env file
  4. The OS keyring, for a password that is still missing
  5. Command-line flags

Examples:
  # Where is Alice?
  locshare locate alice

  # Several people at once, two at a time
  locshare locate alice bob carol -b 2

  # JSON output for scripts
  locshare locate --json alice

  # Print the answer and keep a JSON copy of the report
  locshare locate -o reports/alice.json alice

  # Route traffic through a SOCKS5 proxy
  locshare locate -x 127.0.0.1:1080 alice`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocateCmd(cmd, args, kr)
		},
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of names looked up concurrently")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .locshare in current or home directory)")
	cmd.Flags().String("env-file", config.DefaultEnvFile,
		"Dotenv file with GOOGLE_USERNAME, GOOGLE_PASSWORD and LOCATION_* variables")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (host:port)")
	cmd.Flags().IntP("authuser", "a", 0,
		"Index of the signed-in Google account")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Also write the report as JSON to this file (creates directories if needed)")
	cmd.Flags().Bool("no-history", false,
		"Do not record the lookups in the history database")

	return cmd
}

// runLocateCmd executes the locate command.
func runLocateCmd(cmd *cobra.Command, args []string, kr config.Keyring) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	logger := newLogger(cmd, cfg.Verbose)

	// A locked or absent keyring only means the password stays missing.
	if err := config.ApplyKeyring(cfg, kr); err != nil {
		logger.Warn("keyring unavailable", "error", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, closeOutput, err := locateOutput(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeOutput()

	return runLocate(ctx, out, cfg, logger)
}

// locateOutput returns the report writer: the selected format on stdout,
// plus a JSON copy when --output names a file.
func locateOutput(cmd *cobra.Command, cfg *config.Config) (report.Writer, func(), error) {
	screen := newReportWriter(cmd.OutOrStdout(), cfg.JSONReport, cfg.MarkdownReport, cfg.Verbose)

	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		return screen, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// The report names the people looked up; keep it private.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	file := report.NewJSONWriter(f, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	return report.NewMultiWriter(screen, file), func() { _ = f.Close() }, nil
}

// buildConfig creates a Config from defaults, the configuration file, the
// environment and the flags the user changed.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if err := applyConfigFile(cfg, configPath); err != nil {
		return nil, err
	}

	envFile, err := flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	if err := applyEnvironment(cfg, envFile); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("authuser") {
		if cfg.AuthUser, err = flags.GetInt("authuser"); err != nil {
			return nil, err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveHistory = false
	}

	cfg.Names = args

	return cfg, nil
}

// runLocate looks up every name and writes the report to out.
// Failed lookups are part of the report; only cancellation is an error.
func runLocate(ctx context.Context, out report.Writer, cfg *config.Config, logger *slog.Logger) error {
	logger.Debug("starting lookups",
		"names", len(cfg.Names),
		"batch_size", cfg.BatchSize,
		"reference", cfg.Reference != nil,
		"save_history", cfg.SaveHistory,
	)

	var opts []locator.Option
	if cfg.SaveHistory {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Debug("history database opened", "path", db.Path())
		opts = append(opts, locator.WithHistory(db))
	}

	loc, err := locator.FromConfig(cfg, logger, opts...)
	if err != nil {
		return err
	}

	lookups, locateErr := loc.LocateAll(ctx, cfg.Names)

	if _, err := out.WriteLookups(lookups); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return locateErr
}
