package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/locshare/internal/model"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".locshare"

// xdgConfigFile is the file name looked up inside the XDG config directory.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// AccountSection is the account part of the configuration file.
type AccountSection struct {
	// Username is the Google account e-mail.
	Username string `yaml:"username,omitempty"`

	// Password is accepted for completeness; the environment or the OS
	// keyring are the better places for it.
	Password string `yaml:"password,omitempty"`
}

// NetworkSection is the network part of the configuration file.
type NetworkSection struct {
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Proxy       string        `yaml:"proxy,omitempty"`
	UserAgent   string        `yaml:"user_agent,omitempty"`
	AuthUser    *int          `yaml:"authuser,omitempty"`
	MaxBodySize int64         `yaml:"max_body_size,omitempty"`
}

// HistorySection is the history part of the configuration file.
type HistorySection struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// File represents the structure of the .locshare configuration file.
type File struct {
	Account   AccountSection           `yaml:"account,omitempty"`
	Reference *model.ReferenceLocation `yaml:"reference,omitempty"`
	Geocoder  GeocoderConfig           `yaml:"geocoder,omitempty"`
	Network   NetworkSection           `yaml:"network,omitempty"`
	History   HistorySection           `yaml:"history,omitempty"`
	BatchSize int                      `yaml:"batch_size,omitempty"`
	Endpoints Endpoints                `yaml:"endpoints,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .locshare in the current directory
// 3. Look for .locshare in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// Apply overlays the values set in the file onto cfg.
// Zero values in the file leave cfg untouched.
func (cf *File) Apply(cfg *Config) {
	if cf.Account.Username != "" {
		cfg.Credentials.Username = cf.Account.Username
	}
	if cf.Account.Password != "" {
		cfg.Credentials.Password = cf.Account.Password
	}

	if cf.Reference != nil {
		ref := *cf.Reference
		cfg.Reference = &ref
	}

	if cf.Geocoder.Provider != "" {
		cfg.Geocoder.Provider = cf.Geocoder.Provider
	}
	if cf.Geocoder.APIKey != "" {
		cfg.Geocoder.APIKey = cf.Geocoder.APIKey
	}
	if cf.Geocoder.Language != "" {
		cfg.Geocoder.Language = cf.Geocoder.Language
	}
	if cf.Geocoder.StaticLabel != "" {
		cfg.Geocoder.StaticLabel = cf.Geocoder.StaticLabel
	}

	if cf.Network.Timeout != 0 {
		cfg.Timeout = cf.Network.Timeout
	}
	if cf.Network.Proxy != "" {
		cfg.ProxyAddress = cf.Network.Proxy
	}
	if cf.Network.UserAgent != "" {
		cfg.UserAgent = cf.Network.UserAgent
	}
	if cf.Network.AuthUser != nil {
		cfg.AuthUser = *cf.Network.AuthUser
	}
	if cf.Network.MaxBodySize != 0 {
		cfg.MaxBodySize = cf.Network.MaxBodySize
	}

	if cf.History.Enabled != nil {
		cfg.SaveHistory = *cf.History.Enabled
	}
	if cf.History.Dir != "" {
		cfg.DBDir = cf.History.Dir
	}

	if cf.BatchSize != 0 {
		cfg.BatchSize = cf.BatchSize
	}

	cfg.Endpoints.merge(cf.Endpoints)
}
