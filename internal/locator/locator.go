package locator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/locshare/internal/config"
	"github.com/nao1215/locshare/internal/disclosure"
	"github.com/nao1215/locshare/internal/geocode"
	"github.com/nao1215/locshare/internal/location"
	"github.com/nao1215/locshare/internal/model"
	"github.com/nao1215/locshare/internal/pipeline"
	"github.com/nao1215/locshare/internal/session"
	"github.com/nao1215/locshare/internal/transport"
)

// Locator resolves names to disclosure answers.
// It is safe for concurrent use; every lookup runs its own login session.
type Locator struct {
	credentials model.Credentials
	client      *http.Client
	sessionOpts []session.Option
	fetcher     *location.Fetcher
	geocoder    geocode.ReverseGeocoder
	policy      *disclosure.Policy
	history     HistoryStore
	concurrency int
	newID       func() string
	logger      *slog.Logger
}

// Option configures a Locator.
type Option func(*Locator)

// WithHTTPClient sets the client used for the login handshake.
// It must not have a cookie jar.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Locator) {
		l.client = client
	}
}

// WithSessionOptions configures every login session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(l *Locator) {
		l.sessionOpts = append(l.sessionOpts, opts...)
	}
}

// WithFetcher sets the location fetcher.
func WithFetcher(fetcher *location.Fetcher) Option {
	return func(l *Locator) {
		l.fetcher = fetcher
	}
}

// WithGeocoder sets the reverse geocoder.
func WithGeocoder(geocoder geocode.ReverseGeocoder) Option {
	return func(l *Locator) {
		l.geocoder = geocoder
	}
}

// WithReference configures the reference location. Nil means none.
func WithReference(reference *model.ReferenceLocation) Option {
	return func(l *Locator) {
		l.policy = disclosure.NewPolicy(reference)
	}
}

// WithHistory records every finished lookup in store.
func WithHistory(store HistoryStore) Option {
	return func(l *Locator) {
		l.history = store
	}
}

// WithConcurrency sets how many names LocateAll resolves at once.
func WithConcurrency(n int) Option {
	return func(l *Locator) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithIDGenerator replaces the random UUID lookup ids.
func WithIDGenerator(newID func() string) Option {
	return func(l *Locator) {
		if newID != nil {
			l.newID = newID
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locator) {
		l.logger = logger
	}
}

// New creates a Locator for the given account.
//
// Without options it talks to the production endpoints through a client
// bounded by config.DefaultTimeout and has no reference location and no
// history.
func New(credentials model.Credentials, opts ...Option) *Locator {
	l := &Locator{
		credentials: credentials,
		policy:      disclosure.NewPolicy(nil),
		concurrency: pipeline.DefaultConcurrency,
		newID:       uuid.NewString,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.client == nil {
		l.client = defaultHTTPClient()
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.fetcher == nil {
		l.fetcher = location.NewFetcher(l.client, location.WithLogger(l.logger))
	}
	if l.geocoder == nil {
		l.geocoder = geocode.NewGoogle(l.client, "", geocode.WithLogger(l.logger))
	}

	return l
}

// FromConfig builds a Locator from cfg. opts are applied after the
// configured values and may override them.
func FromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Locator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tc, err := transport.NewClient(cfg.Timeout,
		transport.WithProxy(cfg.ProxyAddress),
		transport.WithUserAgent(cfg.UserAgent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	client := tc.NewHTTPClient()
	logger.Debug("http client ready",
		"timeout", tc.Timeout(),
		"proxy", tc.ProxyAddress() != "",
	)

	geocoder, err := NewGeocoder(cfg, client, logger)
	if err != nil {
		return nil, err
	}

	maxBody := cfg.EffectiveMaxBodySize()
	base := []Option{
		WithHTTPClient(client),
		WithSessionOptions(
			session.WithEndpoints(cfg.Endpoints.Login()),
			session.WithMaxBodySize(maxBody),
			session.WithLogger(logger),
		),
		WithFetcher(location.NewFetcher(client,
			location.WithEndpoint(cfg.Endpoints.Locations),
			location.WithAuthUser(cfg.AuthUser),
			location.WithMaxBodySize(maxBody),
			location.WithLogger(logger),
		)),
		WithGeocoder(geocoder),
		WithReference(cfg.Reference),
		WithConcurrency(cfg.BatchSize),
		WithLogger(logger),
	}

	return New(cfg.Credentials, append(base, opts...)...), nil
}

// defaultHTTPClient returns a client with the default timeout and browser
// headers.
func defaultHTTPClient() *http.Client {
	tc, err := transport.NewClient(config.DefaultTimeout, transport.WithUserAgent(config.DefaultUserAgent))
	if err != nil {
		// Only a proxy address can fail, and none is set.
		return &http.Client{Timeout: config.DefaultTimeout}
	}
	return tc.NewHTTPClient()
}

// NewGeocoder returns the reverse geocoder selected in cfg.
func NewGeocoder(cfg *config.Config, client *http.Client, logger *slog.Logger) (geocode.ReverseGeocoder, error) {
	switch cfg.Geocoder.Provider {
	case config.GeocoderStatic:
		return geocode.Static{Place: geocode.Place{Street: cfg.Geocoder.StaticLabel}}, nil
	case config.GeocoderGoogle, "":
		tag, err := cfg.GeocoderLanguage()
		if err != nil {
			return nil, err
		}
		return geocode.NewGoogle(client, cfg.Geocoder.APIKey,
			geocode.WithEndpoint(cfg.Endpoints.Geocoder),
			geocode.WithLanguage(tag),
			geocode.WithLogger(logger),
		), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", config.ErrInvalidGeocoder, cfg.Geocoder.Provider)
	}
}

// newPipeline builds the lookup pipeline. Each call yields independent
// steps, so pipelines can run concurrently.
func (l *Locator) newPipeline() *pipeline.Pipeline {
	p := pipeline.New(pipeline.WithLogger(l.logger))
	p.AddSteps(pipeline.LookupSteps{
		Client:         l.client,
		Credentials:    l.credentials,
		SessionOptions: l.sessionOpts,
		Fetcher:        l.fetcher,
		Geocoder:       l.geocoder,
		Policy:         l.policy,
		Logger:         l.logger,
	}.Build()...)
	return p
}

// Locate looks up name. The returned lookup is never nil; on failure its
// Error is set and also returned.
//
// Missing credentials fail with config.ErrMissingCredentials before any
// network call.
func (l *Locator) Locate(ctx context.Context, name string) (*model.Lookup, error) {
	lookup := model.NewLookup(l.newID(), name)

	if !l.credentials.Complete() {
		lookup.Fail(config.ErrMissingCredentials)
		lookup.FinishedAt = time.Now()
		return lookup, lookup.Error
	}

	_ = l.newPipeline().Execute(ctx, lookup) //nolint:errcheck // The error is stored in the lookup
	l.finish(ctx, lookup)

	return lookup, lookup.Error
}

// LocateAll looks up several names concurrently and returns the lookups
// in input order. The error is only set when ctx was cancelled.
func (l *Locator) LocateAll(ctx context.Context, names []string) ([]*model.Lookup, error) {
	if !l.credentials.Complete() {
		lookups := make([]*model.Lookup, len(names))
		for i, name := range names {
			lookups[i], _ = l.Locate(ctx, name) //nolint:errcheck // The error is stored in the lookup
		}
		return lookups, nil
	}

	bp := pipeline.NewBatchProcessor(l.newPipeline,
		pipeline.WithConcurrency(l.concurrency),
		pipeline.WithIDGenerator(l.newID),
		pipeline.WithBatchLogger(l.logger),
	)

	results := make([]*model.Lookup, len(names))
	err := bp.ProcessBatchWithCallback(ctx, names, func(lookup *model.Lookup, index int) {
		l.finish(ctx, lookup)
		results[index] = lookup
	})

	return results, err
}

// Answer looks up name and returns the answer to speak or print.
func (l *Locator) Answer(ctx context.Context, name string) string {
	lookup, _ := l.Locate(ctx, name) //nolint:errcheck // Message covers failures
	return Message(lookup)
}

// finish logs the outcome and records it in the history.
func (l *Locator) finish(ctx context.Context, lookup *model.Lookup) {
	if lookup.Error != nil {
		l.logger.Warn("lookup failed", failureAttrs(lookup)...)
	} else if lookup.Result != nil {
		l.logger.Debug("lookup answered",
			"lookup_id", lookup.ID,
			"outcome", lookup.Result.Kind.String(),
			"duration", lookup.Duration(),
		)
	}

	if l.history == nil {
		return
	}

	record := NewRecord(lookup, l.credentials.Username)
	if err := l.history.SaveLookup(context.WithoutCancel(ctx), &record); err != nil {
		l.logger.Warn("failed to record lookup",
			"lookup_id", lookup.ID,
			"error", err,
		)
	}
}
