package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/locshare/internal/config"
	"github.com/nao1215/locshare/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [NAME]",
		Short: "Show past lookups",
		Long: `History lists recorded lookups, newest first.

With NAME, only lookups whose question or matched person equals NAME
(case-insensitively) are shown. Coordinates are never recorded; the history
holds the answer, the distance and the failure class of each lookup.

Examples:
  # The last 20 lookups
  locshare history

  # Every lookup of Alice
  locshare history alice -n 0`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Maximum number of lookups to show (0 for all)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .locshare in current or home directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	jsonReport, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownReport, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonReport && markdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}

	cfg := config.NewConfig()
	if err := applyConfigFile(cfg, configPath); err != nil {
		return err
	}

	records, err := loadHistory(cmd, cfg.DBDir, args, limit)
	if err != nil {
		return err
	}

	writer := newReportWriter(cmd.OutOrStdout(), jsonReport, markdownReport, getVerboseFlag(cmd))
	if _, err := writer.WriteHistory(records); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// loadHistory reads the records to show. A database that was never created
// holds no records.
func loadHistory(cmd *cobra.Command, dbDir string, args []string, limit int) ([]database.LookupRecord, error) {
	if _, err := os.Stat(filepath.Join(dbDir, database.FileName)); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	if len(args) == 1 {
		return db.ListLookupsForQuery(cmd.Context(), args[0], limit)
	}
	return db.ListLookups(cmd.Context(), limit)
}
