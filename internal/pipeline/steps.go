package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nao1215/locshare/internal/disclosure"
	"github.com/nao1215/locshare/internal/geocode"
	"github.com/nao1215/locshare/internal/location"
	"github.com/nao1215/locshare/internal/model"
	"github.com/nao1215/locshare/internal/resolve"
	"github.com/nao1215/locshare/internal/session"
)

// Step names, as recorded in model.Lookup.PerformedSteps.
const (
	StepAuthenticate   = "authenticate"
	StepFetchLocations = "fetch_locations"
	StepResolveUser    = "resolve_user"
	StepReverseGeocode = "reverse_geocode"
	StepDisclose       = "disclose"
)

// AuthenticateStep runs the three-stage login handshake.
// Every Do builds a fresh session, so no cookies carry over between lookups.
type AuthenticateStep struct {
	// client performs the login requests. It must not have a cookie jar.
	client *http.Client

	// credentials are submitted on the login pages.
	credentials model.Credentials

	// sessionOpts configure each session.
	sessionOpts []session.Option
}

// NewAuthenticateStep creates the authentication step.
func NewAuthenticateStep(client *http.Client, credentials model.Credentials, opts ...session.Option) *AuthenticateStep {
	return &AuthenticateStep{
		client:      client,
		credentials: credentials,
		sessionOpts: opts,
	}
}

// Name returns the step name.
func (s *AuthenticateStep) Name() string {
	return StepAuthenticate
}

// Do authenticates and stores the resulting cookie header on the lookup.
func (s *AuthenticateStep) Do(ctx context.Context, lookup *model.Lookup) error {
	sess := session.New(s.client, s.sessionOpts...)

	jar, err := sess.Authenticate(ctx, s.credentials)
	if err != nil {
		return err
	}

	lookup.SessionCookie = jar.Header(sess.CookieDomain())
	return nil
}

// FetchLocationsStep reads the shared locations with the session cookie.
type FetchLocationsStep struct {
	fetcher *location.Fetcher
}

// NewFetchLocationsStep creates the fetch step.
func NewFetchLocationsStep(fetcher *location.Fetcher) *FetchLocationsStep {
	return &FetchLocationsStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchLocationsStep) Name() string {
	return StepFetchLocations
}

// Do fetches and parses the records.
func (s *FetchLocationsStep) Do(ctx context.Context, lookup *model.Lookup) error {
	if lookup.SessionCookie == "" {
		return ErrNotAuthenticated
	}

	records, err := s.fetcher.Fetch(ctx, lookup.SessionCookie)
	if err != nil {
		return err
	}

	lookup.Records = records
	return nil
}

// ResolveUserStep picks the record closest to the queried name.
type ResolveUserStep struct {
	logger *slog.Logger
}

// NewResolveUserStep creates the resolve step.
func NewResolveUserStep(logger *slog.Logger) *ResolveUserStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveUserStep{logger: logger}
}

// Name returns the step name.
func (s *ResolveUserStep) Name() string {
	return StepResolveUser
}

// Do resolves lookup.Query against lookup.Records.
func (s *ResolveUserStep) Do(_ context.Context, lookup *model.Lookup) error {
	resolved, err := resolve.Resolve(lookup.Query, lookup.Records)
	if err != nil {
		return err
	}

	s.logger.Debug("resolved query",
		"lookup_id", lookup.ID,
		"candidates", len(lookup.Records),
		"score", resolved.Score,
	)

	lookup.Resolved = resolved
	return nil
}

// ReverseGeocodeStep turns the position of the resolved person into a
// locality label. It only asks the geocoder when the disclosure outcome
// will reveal a label; a person inside the reference radius is never
// geocoded.
type ReverseGeocodeStep struct {
	geocoder geocode.ReverseGeocoder
	policy   *disclosure.Policy
	logger   *slog.Logger
}

// NewReverseGeocodeStep creates the geocoding step.
func NewReverseGeocodeStep(geocoder geocode.ReverseGeocoder, policy *disclosure.Policy, logger *slog.Logger) *ReverseGeocodeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReverseGeocodeStep{
		geocoder: geocoder,
		policy:   policy,
		logger:   logger,
	}
}

// Name returns the step name.
func (s *ReverseGeocodeStep) Name() string {
	return StepReverseGeocode
}

// Do stores the locality label on the lookup when one is needed.
func (s *ReverseGeocodeStep) Do(ctx context.Context, lookup *model.Lookup) error {
	lat, lon, err := position(lookup)
	if err != nil {
		return err
	}

	if !s.policy.NeedsLabel(lat, lon) {
		s.logger.Debug("geocoding skipped, person is at the reference location",
			"lookup_id", lookup.ID,
		)
		return nil
	}

	place, err := s.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		return err
	}

	label := place.Label()
	if label == "" {
		return geocode.ErrNoResult
	}

	lookup.Label = label
	return nil
}

// DiscloseStep applies the disclosure policy.
type DiscloseStep struct {
	policy *disclosure.Policy
}

// NewDiscloseStep creates the disclosure step.
func NewDiscloseStep(policy *disclosure.Policy) *DiscloseStep {
	return &DiscloseStep{policy: policy}
}

// Name returns the step name.
func (s *DiscloseStep) Name() string {
	return StepDisclose
}

// Do decides what may be revealed about the resolved person.
func (s *DiscloseStep) Do(_ context.Context, lookup *model.Lookup) error {
	lat, lon, err := position(lookup)
	if err != nil {
		return err
	}

	result := s.policy.Decide(lat, lon, lookup.Label)
	if result.NeedsLabel() && result.Label == "" {
		return fmt.Errorf("%w: no locality label for %s outcome", geocode.ErrNoResult, result.Kind)
	}

	lookup.Result = &result
	return nil
}

// position returns the coordinates of the resolved person.
func position(lookup *model.Lookup) (float64, float64, error) {
	if lookup.Resolved == nil {
		return 0, 0, ErrNotResolved
	}
	record := lookup.Resolved.Record
	if !record.HasPosition() {
		return 0, 0, location.ErrNoCoordinates
	}
	return *record.Latitude, *record.Longitude, nil
}

// LookupSteps bundles the collaborators of the default lookup pipeline.
type LookupSteps struct {
	// Client performs every HTTP request. It must not have a cookie jar.
	Client *http.Client

	// Credentials are the Google account credentials.
	Credentials model.Credentials

	// SessionOptions configure the login session.
	SessionOptions []session.Option

	// Fetcher reads the shared locations.
	Fetcher *location.Fetcher

	// Geocoder resolves coordinates into locality labels.
	Geocoder geocode.ReverseGeocoder

	// Policy decides what is disclosed.
	Policy *disclosure.Policy

	// Logger is passed to the steps that log.
	Logger *slog.Logger
}

// Build returns the default lookup steps in execution order:
// authenticate, fetch_locations, resolve_user, reverse_geocode, disclose.
func (ls LookupSteps) Build() []Step {
	return []Step{
		NewAuthenticateStep(ls.Client, ls.Credentials, ls.SessionOptions...),
		NewFetchLocationsStep(ls.Fetcher),
		NewResolveUserStep(ls.Logger),
		NewReverseGeocodeStep(ls.Geocoder, ls.Policy, ls.Logger),
		NewDiscloseStep(ls.Policy),
	}
}
