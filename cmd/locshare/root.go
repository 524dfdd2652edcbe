package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/locshare/internal/config"
	"github.com/nao1215/locshare/internal/log"
)

// NewRootCmd creates the root command for locshare.
func NewRootCmd() *cobra.Command {
	return newRootCmd(config.OSKeyring())
}

// newRootCmd creates the root command with the keyring used for passwords.
func newRootCmd(kr config.Keyring) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locshare",
		Short: "Answer where someone is from Google location sharing",
		Long: `locshare answers "where is NAME" from the locations shared with your Google account.

It signs in with GOOGLE_USERNAME and GOOGLE_PASSWORD (environment, .env file,
configuration file or OS keyring), reads the shared locations and answers with
the street the person is on. With a reference location configured, people
inside its radius are reported as being at the reference place and everyone
else with their distance in kilometers.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")

	// Add subcommands
	cmd.AddCommand(NewLocateCmd(kr))
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewPasswordCmd(kr))
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	return getGlobalBool(cmd, "verbose")
}

// getGlobalBool retrieves a persistent boolean flag from the command or
// the root.
func getGlobalBool(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return value
}

// newLogger creates the masking logger on the command's stderr, as text or
// with --log-json as JSON.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	if getGlobalBool(cmd, "log-json") {
		return log.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}
