package main

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/locshare/internal/config"
	"github.com/nao1215/locshare/internal/googletest"
)

const (
	testUsername = "alice@example.com"
	testPassword = "correct horse"
	testLabel    = "Old Town, Bern"
)

// memKeyring is a config.Keyring kept in memory.
type memKeyring struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemKeyring() *memKeyring {
	return &memKeyring{entries: make(map[string]string)}
}

func (k *memKeyring) Get(service, user string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.entries[service+"/"+user]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (k *memKeyring) Set(service, user, password string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.entries[service+"/"+user] = password
	return nil
}

func (k *memKeyring) Delete(service, user string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.entries[service+"/"+user]; !ok {
		return keyring.ErrNotFound
	}
	delete(k.entries, service+"/"+user)
	return nil
}

// clearEnv removes the variables locshare reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvUsername,
		config.EnvPassword,
		config.EnvLocationName,
		config.EnvLocationRadius,
		config.EnvLocationLat,
		config.EnvLocationLong,
		config.EnvGeocoderAPIKey,
	} {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatal(err)
		}
	}
}

// newFake starts a fake Google with Alice and Bob sharing their location.
func newFake(t *testing.T, cfg googletest.Config) *googletest.Server {
	t.Helper()

	if cfg.Username == "" {
		cfg.Username = testUsername
	}
	if cfg.Password == "" {
		cfg.Password = testPassword
	}
	if cfg.Payload == "" {
		cfg.Payload = googletest.Payload(
			googletest.Person{ID: "u1", Name: "Alice Example", Latitude: 46.9480, Longitude: 7.4474},
			googletest.Person{ID: "u2", Name: "Bob Example", Latitude: 47.3769, Longitude: 8.5417},
		)
	}

	srv := googletest.NewServer(cfg)
	t.Cleanup(srv.Close)
	return srv
}

// testFile returns a configuration pointing at srv, with a static
// geocoder and the history in a temporary directory.
func testFile(t *testing.T, srv *googletest.Server) *config.File {
	t.Helper()

	login := srv.Endpoints()
	return &config.File{
		Account: config.AccountSection{Username: testUsername, Password: testPassword},
		Geocoder: config.GeocoderConfig{
			Provider:    config.GeocoderStatic,
			StaticLabel: testLabel,
		},
		History: config.HistorySection{Dir: t.TempDir()},
		Endpoints: config.Endpoints{
			ServiceLogin: login.ServiceLogin,
			Lookup:       login.Lookup,
			Challenge:    login.Challenge,
			Origin:       login.Origin,
			Locations:    srv.LocationsURL(),
		},
	}
}

// writeConfig writes file as YAML and returns its path.
func writeConfig(t *testing.T, file *config.File) string {
	t.Helper()

	data, err := yaml.Marshal(file)
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "locshare.yaml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// missingEnvFile returns a dotenv path that does not exist.
func missingEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.env")
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, kr config.Keyring, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(kr)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
