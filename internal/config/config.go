package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/text/language"

	"github.com/nao1215/locshare/internal/model"
	"github.com/nao1215/locshare/internal/transport"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths and
	// as the OS keyring service name.
	AppName = "locshare"

	// DefaultTimeout bounds each HTTP request including reading its body.
	// The login pages answer within a few seconds; 30 seconds leaves room
	// for slow proxies without hanging a voice-style request forever.
	DefaultTimeout = 30 * time.Second

	// DefaultBatchSize is the number of names resolved concurrently.
	// Every name runs its own login handshake, so this stays small to avoid
	// tripping the login rate limiter.
	DefaultBatchSize = 2

	// DefaultUserAgent is a desktop browser User-Agent. The no-JavaScript
	// login flow is only served to clients that look like a browser.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	// DefaultMaxBodySize limits the response body size read per request.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultHistoryLimit is the number of history rows shown by default.
	DefaultHistoryLimit = 20

	// GeocoderGoogle selects the Google Geocoding API.
	GeocoderGoogle = "google"

	// GeocoderStatic answers every position with a fixed label.
	GeocoderStatic = "static"

	// DefaultGeocoderLanguage is the language of locality labels.
	DefaultGeocoderLanguage = "en"
)

// GeocoderConfig selects and configures the reverse geocoder.
type GeocoderConfig struct {
	// Provider is GeocoderGoogle or GeocoderStatic.
	Provider string `yaml:"provider,omitempty"`

	// APIKey authenticates against the Google Geocoding API.
	APIKey string `yaml:"api_key,omitempty"`

	// Language is a BCP 47 tag for the returned labels.
	Language string `yaml:"language,omitempty"`

	// StaticLabel is the answer of the static provider.
	StaticLabel string `yaml:"static_label,omitempty"`
}

// Config holds all configuration options for locshare.
// It is populated from defaults, the config file, the environment and CLI
// flags, in that order, and passed through the application explicitly.
type Config struct {
	// Credentials are the Google account credentials. Never logged.
	Credentials model.Credentials

	// Reference is the optional reference location; nil means none.
	Reference *model.ReferenceLocation

	// Names are the people to locate.
	Names []string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// BatchSize is the number of names resolved concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// ProxyAddress routes all traffic through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// AuthUser is the index of the signed-in account whose shared
	// locations are read (the authuser query parameter).
	AuthUser int

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default.
	MaxBodySize int64

	// Geocoder configures reverse geocoding.
	Geocoder GeocoderConfig

	// Endpoints are the remote URLs.
	Endpoints Endpoints

	// JSONReport enables JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// SaveHistory records each lookup outcome in the history database.
	SaveHistory bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/locshare on Linux).
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		BatchSize:   DefaultBatchSize,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		Geocoder: GeocoderConfig{
			Provider: GeocoderGoogle,
			Language: DefaultGeocoderLanguage,
		},
		Endpoints:   DefaultEndpoints(),
		SaveHistory: true,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for locshare.
// On Linux: ~/.local/share/locshare
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for locshare.
// On Linux: ~/.config/locshare
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// EffectiveMaxBodySize returns MaxBodySize, or the default when it is 0.
func (c *Config) EffectiveMaxBodySize() int64 {
	if c.MaxBodySize == 0 {
		return DefaultMaxBodySize
	}
	return c.MaxBodySize
}

// CheckCredentials returns ErrMissingCredentials unless both username and
// password are present.
func (c *Config) CheckCredentials() error {
	if !c.Credentials.Complete() {
		return ErrMissingCredentials
	}
	return nil
}

// GeocoderLanguage parses the configured language tag.
func (c *Config) GeocoderLanguage() (language.Tag, error) {
	lang := c.Geocoder.Language
	if lang == "" {
		lang = DefaultGeocoderLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return language.Und, fmt.Errorf("%w: language %q: %w", ErrInvalidGeocoder, lang, err)
	}
	return tag, nil
}

// Validate checks the settings needed to run a lookup.
// It returns the first problem found. Credentials are checked separately
// by CheckCredentials so that their absence maps to its own answer.
func (c *Config) Validate() error {
	if len(c.Names) == 0 {
		return ErrNoName
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.AuthUser < 0 {
		return ErrInvalidAuthUser
	}

	if c.ProxyAddress != "" && !transport.ValidProxyAddress(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}

	if err := validateReference(c.Reference); err != nil {
		return err
	}

	switch c.Geocoder.Provider {
	case GeocoderGoogle, "":
	case GeocoderStatic:
		if c.Geocoder.StaticLabel == "" {
			return fmt.Errorf("%w: static provider needs static_label", ErrInvalidGeocoder)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidGeocoder, c.Geocoder.Provider)
	}

	if _, err := c.GeocoderLanguage(); err != nil {
		return err
	}

	return nil
}

func validateReference(ref *model.ReferenceLocation) error {
	if ref == nil {
		return nil
	}
	if ref.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidReference)
	}
	if ref.Radius < 0 {
		return fmt.Errorf("%w: radius must be non-negative", ErrInvalidReference)
	}
	if ref.Latitude < -90 || ref.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidReference, ref.Latitude)
	}
	if ref.Longitude < -180 || ref.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidReference, ref.Longitude)
	}
	return nil
}
