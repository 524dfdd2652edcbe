package location

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nao1215/locshare/internal/model"
	"github.com/nao1215/locshare/internal/transport"
)

// DefaultEndpoint is the production data endpoint.
const DefaultEndpoint = "https://www.google.com/maps/preview/locationsharing/read"

// DefaultMaxBodySize bounds how much of the payload is read.
const DefaultMaxBodySize int64 = 8 << 20

// Fetcher reads the people sharing their location with an account.
type Fetcher struct {
	client      *http.Client
	endpoint    string
	authUser    int
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithEndpoint overrides the data endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(f *Fetcher) {
		f.endpoint = endpoint
	}
}

// WithAuthUser selects the signed-in account index (the authuser parameter).
func WithAuthUser(index int) Option {
	return func(f *Fetcher) {
		f.authUser = index
	}
}

// WithMaxBodySize bounds how many bytes of the payload are read.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher. client must not have a cookie jar.
func NewFetcher(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		endpoint:    DefaultEndpoint,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	return f
}

// Fetch calls the data endpoint with cookieHeader and parses the payload.
//
// A non-200 answer is a *FetchError; an unparseable body wraps
// ErrMalformedPayload; no response at all wraps transport.ErrTransport.
func (f *Fetcher) Fetch(ctx context.Context, cookieHeader string) ([]model.UserLocationRecord, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid location endpoint %q: %w", f.endpoint, err)
	}
	q := u.Query()
	q.Set("authuser", strconv.Itoa(f.authUser))
	q.Set("pb", "")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create location request: %w", err)
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, transport.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBodySize))
		return nil, &FetchError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, transport.Wrap(err)
	}

	records, err := ParsePayload(body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("fetched shared locations",
		"records", len(records),
		"bytes", len(body),
	)
	return records, nil
}
