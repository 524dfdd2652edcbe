package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name passwords are stored under.
const KeyringService = AppName

// Keyring stores the account password in the OS credential store.
type Keyring interface {
	Get(service, user string) (string, error)
	Set(service, user, password string) error
	Delete(service, user string) error
}

// osKeyring is the Keyring backed by the OS credential store.
type osKeyring struct{}

func (osKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

func (osKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

func (osKeyring) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

// OSKeyring returns the Keyring of the operating system.
func OSKeyring() Keyring {
	return osKeyring{}
}

// ApplyKeyring fills in a missing password from kr, keyed by the username.
// Nothing happens without a username or when a password is already set.
// A missing keyring entry is not an error.
func ApplyKeyring(cfg *Config, kr Keyring) error {
	if cfg.Credentials.Username == "" || cfg.Credentials.Password != "" {
		return nil
	}

	password, err := kr.Get(KeyringService, cfg.Credentials.Username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read password from keyring: %w", err)
	}

	cfg.Credentials.Password = password
	return nil
}

// StorePassword saves password for username in kr.
func StorePassword(kr Keyring, username, password string) error {
	if username == "" || password == "" {
		return ErrMissingCredentials
	}
	if err := kr.Set(KeyringService, username, password); err != nil {
		return fmt.Errorf("failed to store password in keyring: %w", err)
	}
	return nil
}

// ForgetPassword removes the stored password for username.
// Removing a password that was never stored is not an error.
func ForgetPassword(kr Keyring, username string) error {
	if err := kr.Delete(KeyringService, username); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete password from keyring: %w", err)
	}
	return nil
}
