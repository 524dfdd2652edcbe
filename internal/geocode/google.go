package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/text/language"

	"github.com/nao1215/locshare/internal/transport"
)

// DefaultGoogleEndpoint is the Google Geocoding API endpoint.
const DefaultGoogleEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// maxResponseSize bounds how much of an API answer is read.
const maxResponseSize int64 = 2 << 20

// Google reverse geocodes with the Google Geocoding API.
type Google struct {
	client   *http.Client
	endpoint string
	apiKey   string
	language language.Tag
	logger   *slog.Logger
}

// GoogleOption configures a Google geocoder.
type GoogleOption func(*Google)

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) GoogleOption {
	return func(g *Google) {
		g.endpoint = endpoint
	}
}

// WithLanguage sets the language of returned labels.
func WithLanguage(tag language.Tag) GoogleOption {
	return func(g *Google) {
		g.language = tag
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) GoogleOption {
	return func(g *Google) {
		g.logger = logger
	}
}

// NewGoogle creates a Google geocoder authenticating with apiKey.
func NewGoogle(client *http.Client, apiKey string, opts ...GoogleOption) *Google {
	g := &Google{
		client:   client,
		endpoint: DefaultGoogleEndpoint,
		apiKey:   apiKey,
		language: language.English,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.client == nil {
		g.client = http.DefaultClient
	}
	return g
}

// googleResponse is the subset of the API answer that is used.
type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// Reverse implements ReverseGeocoder.
func (g *Google) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	u, err := url.Parse(g.endpoint)
	if err != nil {
		return Place{}, fmt.Errorf("invalid geocoder endpoint %q: %w", g.endpoint, err)
	}
	q := u.Query()
	q.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("language", g.language.String())
	if g.apiKey != "" {
		q.Set("key", g.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Place{}, fmt.Errorf("failed to create geocoding request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Place{}, transport.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("geocoder returned HTTP status %d", resp.StatusCode)
	}

	var answer googleResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&answer); err != nil {
		return Place{}, fmt.Errorf("failed to decode geocoding response: %w", err)
	}

	switch answer.Status {
	case "OK":
	case "ZERO_RESULTS":
		return Place{}, ErrNoResult
	default:
		return Place{}, fmt.Errorf("geocoder status %s: %s", answer.Status, answer.ErrorMessage)
	}

	for _, result := range answer.Results {
		var place Place
		for _, c := range result.AddressComponents {
			switch {
			case hasType(c.Types, "route") && place.Street == "":
				place.Street = c.LongName
			case (hasType(c.Types, "locality") || hasType(c.Types, "postal_town")) && place.City == "":
				place.City = c.LongName
			case hasType(c.Types, "country") && place.Country == "":
				place.Country = c.LongName
			}
		}
		if place.Label() != "" {
			g.logger.Debug("reverse geocoded position", "results", len(answer.Results))
			return place, nil
		}
	}

	return Place{}, ErrNoResult
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
