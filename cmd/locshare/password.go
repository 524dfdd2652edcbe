package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/locshare/internal/config"
)

// errNoUsername is returned when no account username can be determined.
var errNoUsername = errors.New("no username: use --username or set GOOGLE_USERNAME")

// NewPasswordCmd creates the password command, which manages the account
// password stored in kr.
func NewPasswordCmd(kr config.Keyring) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Manage the account password in the OS keyring",
		Long: `Password stores or removes the Google account password in the OS keyring.

locate reads the password from the keyring when the username is configured
but GOOGLE_PASSWORD is not set.

Examples:
  # Store the password, read from standard input
  locshare password set -u alice@example.com

  # Remove it again
  locshare password delete -u alice@example.com`,
	}

	cmd.PersistentFlags().StringP("username", "u", "",
		"Google account username (default: from the configuration or GOOGLE_USERNAME)")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .locshare in current or home directory)")

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store the password read from standard input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPasswordSet(cmd, kr)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPasswordDelete(cmd, kr)
		},
	})

	return cmd
}

func runPasswordSet(cmd *cobra.Command, kr config.Keyring) error {
	username, err := resolveUsername(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", username)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr())

	password := strings.TrimRight(line, "\r\n")
	if err := config.StorePassword(kr, username, password); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored password for %s in the OS keyring.\n", username)
	return nil
}

func runPasswordDelete(cmd *cobra.Command, kr config.Keyring) error {
	username, err := resolveUsername(cmd)
	if err != nil {
		return err
	}

	if err := config.ForgetPassword(kr, username); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed password for %s from the OS keyring.\n", username)
	return nil
}

// resolveUsername returns the --username flag, or the username from the
// configuration file and the environment.
func resolveUsername(cmd *cobra.Command) (string, error) {
	username, err := cmd.Flags().GetString("username")
	if err != nil {
		return "", err
	}
	if username != "" {
		return username, nil
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}

	cfg := config.NewConfig()
	if err := applyConfigFile(cfg, configPath); err != nil {
		return "", err
	}
	if err := applyEnvironment(cfg, config.DefaultEnvFile); err != nil {
		return "", fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.Credentials.Username == "" {
		return "", errNoUsername
	}
	return cfg.Credentials.Username, nil
}
