package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/nao1215/locshare/internal/model"
	"github.com/nao1215/locshare/internal/transport"
)

// DefaultCookieDomain is the key all authentication cookies are stored under.
// The login hosts and the data host share it, so one Cookie header serves both.
const DefaultCookieDomain = "google.com"

// Default form field names of the no-JavaScript login pages.
const (
	DefaultUsernameField = "Email"
	DefaultPasswordField = "Passwd"
)

// DefaultMaxBodySize bounds how much of a login page is read.
const DefaultMaxBodySize int64 = 4 << 20

// Endpoints are the login URLs. Tests point them at local servers.
type Endpoints struct {
	// ServiceLogin is the initial login page.
	ServiceLogin string

	// Lookup receives the username form.
	Lookup string

	// Challenge receives the password form.
	Challenge string

	// Origin is sent as the Origin header of the form posts.
	Origin string
}

// DefaultEndpoints returns the production login URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		ServiceLogin: "https://accounts.google.com/ServiceLogin",
		Lookup:       "https://accounts.google.com/signin/v1/lookup",
		Challenge:    "https://accounts.google.com/signin/challenge/sl/password",
		Origin:       "https://accounts.google.com",
	}
}

// State is the position of a Session in the handshake.
type State int

const (
	// StateInit is a fresh session with an empty cookie store.
	StateInit State = iota

	// StateServiceLoginDone means stage 1 succeeded and the username is set.
	StateServiceLoginDone

	// StateLookupDone means stage 2 succeeded and the password is set.
	StateLookupDone

	// StateAuthenticated means the cookie store can call the data endpoint.
	StateAuthenticated

	// StateFailed is absorbing. Retrying means starting a new Session.
	StateFailed
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateServiceLoginDone:
		return "service_login_done"
	case StateLookupDone:
		return "lookup_done"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session performs one login handshake. It is single-use and not safe for
// concurrent use; concurrent lookups each create their own Session.
type Session struct {
	client        *http.Client
	endpoints     Endpoints
	cookieDomain  string
	usernameField string
	passwordField string
	maxBodySize   int64
	logger        *slog.Logger

	state   State
	failure *StageError
}

// Option configures a Session.
type Option func(*Session)

// WithEndpoints overrides the login URLs.
func WithEndpoints(endpoints Endpoints) Option {
	return func(s *Session) {
		s.endpoints = endpoints
	}
}

// WithMaxBodySize bounds how many bytes of each page are read.
func WithMaxBodySize(n int64) Option {
	return func(s *Session) {
		s.maxBodySize = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New creates a Session in StateInit.
//
// client must not have a cookie jar; cookies are carried explicitly by the
// Session's CookieStore. client is copied per stage, never mutated.
func New(client *http.Client, opts ...Option) *Session {
	s := &Session{
		client:        client,
		endpoints:     DefaultEndpoints(),
		cookieDomain:  DefaultCookieDomain,
		usernameField: DefaultUsernameField,
		passwordField: DefaultPasswordField,
		maxBodySize:   DefaultMaxBodySize,
		logger:        slog.Default(),
		state:         StateInit,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		s.client = &http.Client{}
	}

	return s
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Failure returns the error that moved the session to StateFailed, or nil.
func (s *Session) Failure() *StageError {
	return s.failure
}

// CookieDomain returns the key cookies are stored under.
func (s *Session) CookieDomain() string {
	return s.cookieDomain
}

// Authenticate runs the three stages in order and returns the resulting
// cookie store. Any stage failure moves the session to StateFailed and is
// returned as a *StageError.
func (s *Session) Authenticate(ctx context.Context, creds model.Credentials) (*CookieStore, error) {
	switch s.state {
	case StateInit:
	case StateFailed:
		return nil, ErrSessionFailed
	default:
		return nil, ErrSessionUsed
	}

	jar := NewCookieStore()

	jar, fields, err := s.serviceLogin(ctx, jar)
	if err != nil {
		return nil, s.fail(err)
	}
	fields.Set(s.usernameField, creds.Username)
	s.transition(StateServiceLoginDone)

	jar, fields, err = s.lookup(ctx, jar, fields)
	if err != nil {
		return nil, s.fail(err)
	}
	fields.Set(s.passwordField, creds.Password)
	s.transition(StateLookupDone)

	jar, err = s.challenge(ctx, jar, fields)
	if err != nil {
		return nil, s.fail(err)
	}
	s.transition(StateAuthenticated)

	return jar, nil
}

// serviceLogin is stage 1: fetch the no-JavaScript login page.
func (s *Session) serviceLogin(ctx context.Context, jar *CookieStore) (*CookieStore, FormFields, error) {
	target, err := withQuery(s.endpoints.ServiceLogin, url.Values{
		"rip":          {"1"},
		"nojavascript": {"1"},
		"flowName":     {"GlifWebSignIn"},
		"flowEntry":    {"ServiceLogin"},
	})
	if err != nil {
		return nil, nil, &StageError{Stage: StageServiceLogin, Reason: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, &StageError{Stage: StageServiceLogin, Reason: err.Error(), Err: err}
	}
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	next, page, err := s.exchange(StageServiceLogin, req, jar)
	if err != nil {
		return nil, nil, err
	}

	if _, err := page.Fields.Require(s.usernameField); err != nil {
		return nil, nil, &StageError{Stage: StageServiceLogin, Status: http.StatusOK, Reason: err.Error(), Err: err}
	}

	return next, page.Fields, nil
}

// lookup is stage 2: post the username form.
func (s *Session) lookup(ctx context.Context, jar *CookieStore, fields FormFields) (*CookieStore, FormFields, error) {
	referer := s.endpoints.ServiceLogin + "?rip=1&nojavascript=1"

	req, err := s.newFormRequest(ctx, s.endpoints.Lookup, referer, fields)
	if err != nil {
		return nil, nil, &StageError{Stage: StageLookup, Reason: err.Error(), Err: err}
	}

	next, page, err := s.exchange(StageLookup, req, jar)
	if err != nil {
		return nil, nil, err
	}

	if _, err := page.Fields.Require(s.passwordField); err != nil {
		return nil, nil, &StageError{Stage: StageLookup, Status: http.StatusOK, Reason: err.Error(), Err: err}
	}

	return next, page.Fields, nil
}

// challenge is stage 3: post the password form.
func (s *Session) challenge(ctx context.Context, jar *CookieStore, fields FormFields) (*CookieStore, error) {
	req, err := s.newFormRequest(ctx, s.endpoints.Challenge, s.endpoints.Lookup, fields)
	if err != nil {
		return nil, &StageError{Stage: StageChallenge, Reason: err.Error(), Err: err}
	}

	next, _, err := s.exchange(StageChallenge, req, jar)
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Session) newFormRequest(ctx context.Context, target, referer string, fields FormFields) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(fields.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", referer)
	if s.endpoints.Origin != "" {
		req.Header.Set("Origin", s.endpoints.Origin)
	}
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	return req, nil
}

// exchange sends req with the cookies of jar and applies the stage contract:
// transport success, HTTP 200, at least one Set-Cookie, no error banner.
// It returns a new store with the issued cookies merged in; jar is untouched.
func (s *Session) exchange(stage Stage, req *http.Request, jar *CookieStore) (*CookieStore, *Page, error) {
	next := jar.Clone()
	if header := next.Header(s.cookieDomain); header != "" {
		req.Header.Set("Cookie", header)
	}

	origin := req.URL
	trusted := func(u *url.URL) bool {
		return s.sendsCookies(u, origin)
	}

	recorder := &cookieRecorder{
		base:    s.client.Transport,
		jar:     next,
		domain:  s.cookieDomain,
		trusted: trusted,
	}
	if recorder.base == nil {
		recorder.base = http.DefaultTransport
	}

	client := *s.client
	client.Jar = nil
	client.Transport = recorder
	parentCheck := s.client.CheckRedirect
	client.CheckRedirect = func(r *http.Request, via []*http.Request) error {
		if parentCheck != nil {
			if err := parentCheck(r, via); err != nil {
				return err
			}
		} else if len(via) >= 10 {
			return http.ErrUseLastResponse
		}
		// Only hops on the login hosts get the session cookies.
		r.Header.Del("Cookie")
		if !trusted(r.URL) {
			s.logger.Debug("redirect leaves the login hosts, cookies withheld",
				"stage", stage.String(),
				"host", r.URL.Hostname(),
			)
			return nil
		}
		if header := next.Header(s.cookieDomain); header != "" {
			r.Header.Set("Cookie", header)
		}
		return nil
	}

	s.logger.Debug("sending authentication request",
		"stage", stage.String(),
		"method", req.Method,
		"url", req.URL.Redacted(),
	)

	resp, err := client.Do(req)
	if err != nil {
		err = transport.Wrap(err)
		return nil, nil, &StageError{Stage: stage, Reason: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		err = transport.Wrap(err)
		return nil, nil, &StageError{Stage: stage, Status: resp.StatusCode, Reason: err.Error(), Err: err}
	}

	s.logger.Debug("received authentication response",
		"stage", stage.String(),
		"status", resp.StatusCode,
		"cookies_issued", recorder.issued,
		"bytes", len(body),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &StageError{
			Stage:  stage,
			Status: resp.StatusCode,
			Reason: fmt.Sprintf("HTTP status %d", resp.StatusCode),
			Err:    ErrUnexpectedStatus,
		}
	}

	if recorder.issued == 0 {
		return nil, nil, &StageError{
			Stage:  stage,
			Status: resp.StatusCode,
			Reason: ErrNoSessionCookie.Error(),
			Err:    ErrNoSessionCookie,
		}
	}

	page, err := ExtractForm(bytes.NewReader(body))
	if err != nil {
		return nil, nil, &StageError{Stage: stage, Status: resp.StatusCode, Reason: err.Error(), Err: err}
	}

	if page.Rejected() {
		return nil, nil, &StageError{
			Stage:  stage,
			Status: resp.StatusCode,
			Reason: page.ErrorBanner,
			Err:    ErrLoginRejected,
		}
	}

	return next, page, nil
}

// transition moves to the next state.
func (s *Session) transition(to State) {
	s.logger.Debug("authentication state changed", "from", s.state.String(), "to", to.String())
	s.state = to
}

// fail moves the session to StateFailed and records err.
func (s *Session) fail(err error) error {
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		stageErr = &StageError{Reason: err.Error(), Err: err}
	}
	s.failure = stageErr
	s.transition(StateFailed)
	return stageErr
}

// sendsCookies reports whether the session cookies may go to u: the host
// of the stage request itself, or the cookie domain and its subdomains.
func (s *Session) sendsCookies(u, origin *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if host == strings.ToLower(origin.Hostname()) {
		return true
	}
	domain := strings.ToLower(s.cookieDomain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// cookieRecorder merges Set-Cookie headers of every trusted hop, including
// redirects the client follows on its own, into jar.
type cookieRecorder struct {
	base    http.RoundTripper
	jar     *CookieStore
	domain  string
	trusted func(*url.URL) bool
	issued  int
}

// RoundTrip implements http.RoundTripper.
func (r *cookieRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if !r.trusted(req.URL) {
		return resp, nil
	}
	if values := resp.Header.Values("Set-Cookie"); len(values) > 0 {
		r.jar.Set(r.domain, values)
		r.issued += len(values)
	}
	return resp, nil
}

// withQuery appends query parameters to rawURL.
func withQuery(rawURL string, query url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", rawURL, err)
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
