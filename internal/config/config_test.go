package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/zalando/go-keyring"

	"github.com/nao1215/locshare/internal/model"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default BatchSize is 2", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 2 {
			t.Errorf("expected BatchSize to be 2, got %d", cfg.BatchSize)
		}
	})

	t.Run("no reference location by default", func(t *testing.T) {
		t.Parallel()
		if cfg.Reference != nil {
			t.Errorf("expected nil Reference, got %+v", cfg.Reference)
		}
	})

	t.Run("default geocoder is google in english", func(t *testing.T) {
		t.Parallel()
		if cfg.Geocoder.Provider != GeocoderGoogle || cfg.Geocoder.Language != "en" {
			t.Errorf("unexpected geocoder defaults %+v", cfg.Geocoder)
		}
	})

	t.Run("default endpoints are production URLs", func(t *testing.T) {
		t.Parallel()
		want := Endpoints{
			ServiceLogin: "https://accounts.google.com/ServiceLogin",
			Lookup:       "https://accounts.google.com/signin/v1/lookup",
			Challenge:    "https://accounts.google.com/signin/challenge/sl/password",
			Origin:       "https://accounts.google.com",
			Locations:    "https://www.google.com/maps/preview/locationsharing/read",
			Geocoder:     "https://maps.googleapis.com/maps/api/geocode/json",
		}
		if diff := cmp.Diff(want, cfg.Endpoints); diff != "" {
			t.Errorf("Endpoints mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("history is saved to the XDG data directory", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveHistory {
			t.Error("expected SaveHistory to be true")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("DBDir = %q", cfg.DBDir)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Names = []string{"alice"}
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"valid config", func(*Config) {}, nil},
		{"no names", func(c *Config) { c.Names = nil }, ErrNoName},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative batch", func(c *Config) { c.BatchSize = -1 }, ErrInvalidBatchSize},
		{"both report formats", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"negative max body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"zero max body size means default", func(c *Config) { c.MaxBodySize = 0 }, nil},
		{"negative authuser", func(c *Config) { c.AuthUser = -1 }, ErrInvalidAuthUser},
		{"bad proxy", func(c *Config) { c.ProxyAddress = "localhost" }, ErrInvalidProxyAddress},
		{"good proxy", func(c *Config) { c.ProxyAddress = "127.0.0.1:1080" }, nil},
		{
			"valid reference",
			func(c *Config) {
				c.Reference = &model.ReferenceLocation{Name: "home", Radius: 1, Latitude: 47, Longitude: 8}
			},
			nil,
		},
		{
			"reference at zero coordinates",
			func(c *Config) { c.Reference = &model.ReferenceLocation{Name: "null island"} },
			nil,
		},
		{
			"reference without name",
			func(c *Config) { c.Reference = &model.ReferenceLocation{Radius: 1} },
			ErrInvalidReference,
		},
		{
			"reference with negative radius",
			func(c *Config) { c.Reference = &model.ReferenceLocation{Name: "home", Radius: -1} },
			ErrInvalidReference,
		},
		{
			"reference latitude out of range",
			func(c *Config) { c.Reference = &model.ReferenceLocation{Name: "home", Latitude: 91} },
			ErrInvalidReference,
		},
		{
			"reference longitude out of range",
			func(c *Config) { c.Reference = &model.ReferenceLocation{Name: "home", Longitude: -181} },
			ErrInvalidReference,
		},
		{"unknown geocoder", func(c *Config) { c.Geocoder.Provider = "osm" }, ErrInvalidGeocoder},
		{"static geocoder without label", func(c *Config) { c.Geocoder.Provider = GeocoderStatic }, ErrInvalidGeocoder},
		{"bad language tag", func(c *Config) { c.Geocoder.Language = "not a tag!" }, ErrInvalidGeocoder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestCheckCredentials tests the credential presence check.
func TestCheckCredentials(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if !errors.Is(cfg.CheckCredentials(), ErrMissingCredentials) {
		t.Error("expected ErrMissingCredentials without credentials")
	}

	cfg.Credentials = model.Credentials{Username: "a@example.com"}
	if !errors.Is(cfg.CheckCredentials(), ErrMissingCredentials) {
		t.Error("expected ErrMissingCredentials without password")
	}

	cfg.Credentials.Password = "pw"
	if err := cfg.CheckCredentials(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestEffectiveMaxBodySize tests the default fallback.
func TestEffectiveMaxBodySize(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	if cfg.EffectiveMaxBodySize() != DefaultMaxBodySize {
		t.Errorf("got %d", cfg.EffectiveMaxBodySize())
	}
	cfg.MaxBodySize = 10
	if cfg.EffectiveMaxBodySize() != 10 {
		t.Errorf("got %d", cfg.EffectiveMaxBodySize())
	}
}

// TestLoadConfigFile tests YAML loading and overlaying.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".locshare")
		if err := os.WriteFile(path, []byte("account: [unclosed"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})

	t.Run("all sections are applied", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".locshare")
		content := `account:
  username: alice@example.com
reference:
  name: home
  radius: 2.5
  latitude: 47.3769
  longitude: 8.5417
geocoder:
  provider: static
  static_label: Somewhere
  language: de
network:
  timeout: 10s
  proxy: 127.0.0.1:1080
  authuser: 0
history:
  enabled: false
  dir: /tmp/locshare-history
batch_size: 3
endpoints:
  locations: http://127.0.0.1:9999/read
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		cfg.AuthUser = 4
		cf.Apply(cfg)

		if cfg.Credentials.Username != "alice@example.com" || cfg.Credentials.Password != "" {
			t.Errorf("unexpected credentials %+v", cfg.Credentials)
		}
		wantRef := &model.ReferenceLocation{Name: "home", Radius: 2.5, Latitude: 47.3769, Longitude: 8.5417}
		if diff := cmp.Diff(wantRef, cfg.Reference); diff != "" {
			t.Errorf("Reference mismatch (-want +got):\n%s", diff)
		}
		if cfg.Geocoder.Provider != GeocoderStatic || cfg.Geocoder.StaticLabel != "Somewhere" || cfg.Geocoder.Language != "de" {
			t.Errorf("unexpected geocoder %+v", cfg.Geocoder)
		}
		if cfg.Timeout != 10*time.Second {
			t.Errorf("Timeout = %v", cfg.Timeout)
		}
		if cfg.ProxyAddress != "127.0.0.1:1080" {
			t.Errorf("ProxyAddress = %q", cfg.ProxyAddress)
		}
		if cfg.AuthUser != 0 {
			t.Errorf("explicit authuser 0 should override, got %d", cfg.AuthUser)
		}
		if cfg.SaveHistory || cfg.DBDir != "/tmp/locshare-history" {
			t.Errorf("unexpected history settings %v %q", cfg.SaveHistory, cfg.DBDir)
		}
		if cfg.BatchSize != 3 {
			t.Errorf("BatchSize = %d", cfg.BatchSize)
		}
		if cfg.Endpoints.Locations != "http://127.0.0.1:9999/read" {
			t.Errorf("Locations = %q", cfg.Endpoints.Locations)
		}
		if cfg.Endpoints.ServiceLogin != DefaultEndpoints().ServiceLogin {
			t.Errorf("unset endpoints must keep defaults, got %q", cfg.Endpoints.ServiceLogin)
		}
	})
}

// TestFindConfigFile tests explicit path handling.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("batch_size: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if got := FindConfigFile(path); got != path {
		t.Errorf("FindConfigFile(%q) = %q", path, got)
	}
	if got := FindConfigFile(filepath.Join(dir, "missing.yaml")); got != "" {
		t.Errorf("expected empty path for missing explicit file, got %q", got)
	}
}

// TestApplyEnv tests environment overlaying.
func TestApplyEnv(t *testing.T) {
	t.Parallel()

	lookupFrom := func(vars map[string]string) LookupFunc {
		return func(key string) (string, bool) {
			v, ok := vars[key]
			return v, ok
		}
	}

	t.Run("credentials and full reference", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := ApplyEnv(cfg, lookupFrom(map[string]string{
			EnvUsername:       "alice@example.com",
			EnvPassword:       "secret",
			EnvLocationName:   "home",
			EnvLocationRadius: "1.5",
			EnvLocationLat:    "47.3769",
			EnvLocationLong:   "8.5417",
			EnvGeocoderAPIKey: "geo-key",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Credentials != (model.Credentials{Username: "alice@example.com", Password: "secret"}) {
			t.Error("credentials not applied")
		}
		want := &model.ReferenceLocation{Name: "home", Radius: 1.5, Latitude: 47.3769, Longitude: 8.5417}
		if diff := cmp.Diff(want, cfg.Reference); diff != "" {
			t.Errorf("Reference mismatch (-want +got):\n%s", diff)
		}
		if cfg.Geocoder.APIKey != "geo-key" {
			t.Errorf("APIKey = %q", cfg.Geocoder.APIKey)
		}
	})

	t.Run("reference needs both coordinates", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := ApplyEnv(cfg, lookupFrom(map[string]string{
			EnvLocationName: "home",
			EnvLocationLat:  "47.3769",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Reference != nil {
			t.Errorf("expected no reference, got %+v", cfg.Reference)
		}
	})

	t.Run("unparseable coordinate", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := ApplyEnv(cfg, lookupFrom(map[string]string{
			EnvLocationLat:  "north",
			EnvLocationLong: "8.5",
		}))
		if !errors.Is(err, ErrInvalidReference) {
			t.Errorf("expected ErrInvalidReference, got %v", err)
		}
	})

	t.Run("empty values do not clear file settings", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Credentials.Username = "from-file@example.com"
		if err := ApplyEnv(cfg, lookupFrom(map[string]string{EnvUsername: ""})); err != nil {
			t.Fatal(err)
		}
		if cfg.Credentials.Username != "from-file@example.com" {
			t.Errorf("Username = %q", cfg.Credentials.Username)
		}
	})
}

// TestEnvLookup tests reading dotenv files.
func TestEnvLookup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	if err := os.WriteFile(first, []byte("LOCSHARE_TEST_ONLY_A=first\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("LOCSHARE_TEST_ONLY_A=second\nLOCSHARE_TEST_ONLY_B=\"quoted value\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	lookup, err := EnvLookup(first, filepath.Join(dir, "missing.env"), second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, _ := lookup("LOCSHARE_TEST_ONLY_A"); v != "first" {
		t.Errorf("first file should win, got %q", v)
	}
	if v, _ := lookup("LOCSHARE_TEST_ONLY_B"); v != "quoted value" {
		t.Errorf("B = %q", v)
	}
	if _, ok := lookup("LOCSHARE_TEST_ONLY_MISSING"); ok {
		t.Error("unexpected value for missing key")
	}
}

// fakeKeyring is an in-memory Keyring.
type fakeKeyring struct {
	entries map[string]string
	err     error
}

func (f *fakeKeyring) Get(service, user string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.entries[service+"/"+user]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (f *fakeKeyring) Set(service, user, password string) error {
	if f.entries == nil {
		f.entries = make(map[string]string)
	}
	f.entries[service+"/"+user] = password
	return nil
}

func (f *fakeKeyring) Delete(service, user string) error {
	key := service + "/" + user
	if _, ok := f.entries[key]; !ok {
		return keyring.ErrNotFound
	}
	delete(f.entries, key)
	return nil
}

// TestApplyKeyring tests the keyring password fallback.
func TestApplyKeyring(t *testing.T) {
	t.Parallel()

	t.Run("fills missing password", func(t *testing.T) {
		t.Parallel()

		kr := &fakeKeyring{}
		if err := StorePassword(kr, "alice@example.com", "from-keyring"); err != nil {
			t.Fatal(err)
		}

		cfg := NewConfig()
		cfg.Credentials.Username = "alice@example.com"
		if err := ApplyKeyring(cfg, kr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Credentials.Password != "from-keyring" {
			t.Errorf("Password = %q", cfg.Credentials.Password)
		}
	})

	t.Run("explicit password wins", func(t *testing.T) {
		t.Parallel()

		kr := &fakeKeyring{entries: map[string]string{"locshare/alice@example.com": "from-keyring"}}
		cfg := NewConfig()
		cfg.Credentials = model.Credentials{Username: "alice@example.com", Password: "explicit"}
		if err := ApplyKeyring(cfg, kr); err != nil {
			t.Fatal(err)
		}
		if cfg.Credentials.Password != "explicit" {
			t.Errorf("Password = %q", cfg.Credentials.Password)
		}
	})

	t.Run("missing entry is not an error", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Credentials.Username = "bob@example.com"
		if err := ApplyKeyring(cfg, &fakeKeyring{}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if !errors.Is(cfg.CheckCredentials(), ErrMissingCredentials) {
			t.Error("credentials should still be incomplete")
		}
	})

	t.Run("keyring failure is reported", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Credentials.Username = "bob@example.com"
		if err := ApplyKeyring(cfg, &fakeKeyring{err: errors.New("locked")}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("forget is idempotent", func(t *testing.T) {
		t.Parallel()

		kr := &fakeKeyring{}
		if err := ForgetPassword(kr, "nobody@example.com"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("store requires both values", func(t *testing.T) {
		t.Parallel()

		if err := StorePassword(&fakeKeyring{}, "alice@example.com", ""); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

// TestOSKeyring exercises the OS keyring adapter against the library mock.
func TestOSKeyring(t *testing.T) {
	keyring.MockInit()

	kr := OSKeyring()
	if err := StorePassword(kr, "carol@example.com", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := NewConfig()
	cfg.Credentials.Username = "carol@example.com"
	if err := ApplyKeyring(cfg, kr); err != nil {
		t.Fatal(err)
	}
	if cfg.Credentials.Password != "pw" {
		t.Errorf("Password = %q", cfg.Credentials.Password)
	}

	if err := ForgetPassword(kr, "carol@example.com"); err != nil {
		t.Fatal(err)
	}
}
