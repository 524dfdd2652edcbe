package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and the credential checks
// and provide specific information about what is wrong with the configuration.
var (
	// ErrNoName is returned when no person name is given to locate.
	ErrNoName = errors.New("no name specified: provide at least one person to locate")

	// ErrMissingCredentials is returned when the Google username or password
	// is absent. It is checked before any network call.
	ErrMissingCredentials = errors.New("missing Google credentials: set GOOGLE_USERNAME and GOOGLE_PASSWORD")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidReference is returned when the reference location has no name,
	// a negative radius or coordinates out of range.
	ErrInvalidReference = errors.New("invalid reference location")

	// ErrInvalidProxyAddress is returned when the proxy is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")

	// ErrInvalidAuthUser is returned when the account index is negative.
	ErrInvalidAuthUser = errors.New("invalid authuser: must be non-negative")

	// ErrInvalidGeocoder is returned for an unknown geocoder provider or an
	// unparseable language tag.
	ErrInvalidGeocoder = errors.New("invalid geocoder configuration")
)
