package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/nao1215/locshare/internal/model"
)

// Environment variable names.
const (
	EnvUsername       = "GOOGLE_USERNAME"
	EnvPassword       = "GOOGLE_PASSWORD"
	EnvLocationName   = "LOCATION_NAME"
	EnvLocationRadius = "LOCATION_RADIUS"
	EnvLocationLat    = "LOCATION_LAT"
	EnvLocationLong   = "LOCATION_LONG"
	EnvGeocoderAPIKey = "GOOGLE_GEOCODER_API_KEY"
)

// DefaultEnvFile is the dotenv file read from the current directory.
const DefaultEnvFile = ".env"

// LookupFunc looks up one environment variable.
type LookupFunc func(key string) (string, bool)

// EnvLookup returns a LookupFunc over the process environment with the
// dotenv files as fallback. Process variables always win; among the files
// the first one defining a key wins. Missing files are skipped.
func EnvLookup(dotenvPaths ...string) (LookupFunc, error) {
	fromFiles := make(map[string]string)
	for _, path := range dotenvPaths {
		vars, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for k, v := range vars {
			if _, seen := fromFiles[k]; !seen {
				fromFiles[k] = v
			}
		}
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fromFiles[key]
		return v, ok
	}, nil
}

// ApplyEnv overlays environment values onto cfg.
//
// A reference location is taken from the environment when both
// LOCATION_LAT and LOCATION_LONG are set; LOCATION_NAME and LOCATION_RADIUS
// complete it. Unparseable numbers are reported as ErrInvalidReference.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if v, ok := lookup(EnvUsername); ok && v != "" {
		cfg.Credentials.Username = v
	}
	if v, ok := lookup(EnvPassword); ok && v != "" {
		cfg.Credentials.Password = v
	}
	if v, ok := lookup(EnvGeocoderAPIKey); ok && v != "" {
		cfg.Geocoder.APIKey = v
	}

	lat, hasLat := lookup(EnvLocationLat)
	long, hasLong := lookup(EnvLocationLong)
	if !hasLat || !hasLong || lat == "" || long == "" {
		return nil
	}

	ref := model.ReferenceLocation{}
	if cfg.Reference != nil {
		ref = *cfg.Reference
	}

	var err error
	if ref.Latitude, err = parseFloat(EnvLocationLat, lat); err != nil {
		return err
	}
	if ref.Longitude, err = parseFloat(EnvLocationLong, long); err != nil {
		return err
	}
	if v, ok := lookup(EnvLocationRadius); ok && v != "" {
		if ref.Radius, err = parseFloat(EnvLocationRadius, v); err != nil {
			return err
		}
	}
	if v, ok := lookup(EnvLocationName); ok && v != "" {
		ref.Name = v
	}

	cfg.Reference = &ref
	return nil
}

func parseFloat(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidReference, key, value)
	}
	return f, nil
}
