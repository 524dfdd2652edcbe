package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/nao1215/locshare/internal/googletest"
	"github.com/nao1215/locshare/internal/model"
	"github.com/nao1215/locshare/internal/session"
	"github.com/nao1215/locshare/internal/transport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testCreds = model.Credentials{Username: "alice@example.com", Password: "correct horse"}

func newSession(srv *googletest.Server) *session.Session {
	return session.New(srv.Client(), session.WithEndpoints(srv.Endpoints()))
}

// TestAuthenticate tests the successful three-stage handshake.
func TestAuthenticate(t *testing.T) {
	t.Parallel()

	srv := googletest.NewServer(googletest.Config{Username: testCreds.Username, Password: testCreds.Password})
	defer srv.Close()

	s := newSession(srv)
	jar, err := s.Authenticate(context.Background(), testCreds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.State() != session.StateAuthenticated {
		t.Errorf("State() = %v, want authenticated", s.State())
	}

	wantNames := []string{"GAPS", "GALX", "SID", "HSID", "SSID"}
	if diff := cmp.Diff(wantNames, jar.Names(session.DefaultCookieDomain)); diff != "" {
		t.Errorf("cookie names mismatch (-want +got):\n%s", diff)
	}
	if got := jar.Header(session.DefaultCookieDomain); got != "GAPS=1:stage1; GALX=galx-2; SID=sid-1; HSID=hsid-1; SSID=ssid-1" {
		t.Errorf("Header() = %q", got)
	}

	t.Run("stage 1 uses the no-JavaScript flow", func(t *testing.T) {
		reqs := srv.RequestsTo(googletest.PathServiceLogin)
		if len(reqs) != 1 {
			t.Fatalf("expected 1 service login request, got %d", len(reqs))
		}
		for _, param := range []string{"rip=1", "nojavascript=1", "flowName=GlifWebSignIn", "flowEntry=ServiceLogin"} {
			if !strings.Contains(reqs[0].Query, param) {
				t.Errorf("query %q lacks %q", reqs[0].Query, param)
			}
		}
		if reqs[0].Cookie != "" {
			t.Errorf("first request should carry no cookies, got %q", reqs[0].Cookie)
		}
	})

	t.Run("stage 2 posts the stage 1 form with the username", func(t *testing.T) {
		reqs := srv.RequestsTo(googletest.PathLookup)
		if len(reqs) != 1 {
			t.Fatalf("expected 1 lookup request, got %d", len(reqs))
		}
		req := reqs[0]
		wantForm := map[string]string{
			"GALX":             "galx-1",
			"gxf":              "gxf-1",
			"continue":         "https://www.google.com/",
			"Email":            testCreds.Username,
			"PersistentCookie": "yes",
		}
		if diff := cmp.Diff(wantForm, req.Form); diff != "" {
			t.Errorf("form mismatch (-want +got):\n%s", diff)
		}
		if req.Referer != srv.URL+googletest.PathServiceLogin+"?rip=1&nojavascript=1" {
			t.Errorf("Referer = %q", req.Referer)
		}
		if req.Origin != srv.URL {
			t.Errorf("Origin = %q", req.Origin)
		}
		if req.Cookie != "GAPS=1:stage1" {
			t.Errorf("Cookie = %q", req.Cookie)
		}
	})

	t.Run("stage 3 posts the stage 2 form with the password", func(t *testing.T) {
		reqs := srv.RequestsTo(googletest.PathChallenge)
		if len(reqs) != 1 {
			t.Fatalf("expected 1 challenge request, got %d", len(reqs))
		}
		req := reqs[0]
		if req.Form["Passwd"] != testCreds.Password {
			t.Error("password was not submitted")
		}
		if req.Form["ProfileInformation"] != "profile-blob" {
			t.Errorf("hidden field not carried over: %v", req.Form)
		}
		if req.Referer != srv.URL+googletest.PathLookup {
			t.Errorf("Referer = %q", req.Referer)
		}
		if req.Cookie != "GAPS=1:stage1; GALX=galx-2" {
			t.Errorf("Cookie = %q", req.Cookie)
		}
	})

	t.Run("redirect hop carries cookies issued by the previous hop", func(t *testing.T) {
		reqs := srv.RequestsTo(googletest.PathCheckCookie)
		if len(reqs) != 1 {
			t.Fatalf("expected 1 redirect request, got %d", len(reqs))
		}
		if !strings.Contains(reqs[0].Cookie, "SID=sid-1") {
			t.Errorf("Cookie = %q", reqs[0].Cookie)
		}
	})
}

// TestAuthenticateRedirectOffLoginHost tests that a redirect to another host
// never carries the session cookies.
func TestAuthenticateRedirectOffLoginHost(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		received []string
	)
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		received = append(received, r.Header.Get("Cookie"))
		mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "planted"})
		_, _ = w.Write([]byte("<html><body>elsewhere</body></html>"))
	}))
	defer foreign.Close()

	// Same port, different host name: 127.0.0.1 serves the login page.
	collect := strings.Replace(foreign.URL, "127.0.0.1", "localhost", 1) + "/collect"

	login := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "secret-session", Path: "/"})
		http.Redirect(w, r, collect, http.StatusFound)
	}))
	defer login.Close()

	s := session.New(login.Client(), session.WithEndpoints(session.Endpoints{
		ServiceLogin: login.URL + "/ServiceLogin",
		Lookup:       login.URL + "/lookup",
		Challenge:    login.URL + "/challenge",
		Origin:       login.URL,
	}))

	jar, err := s.Authenticate(context.Background(), testCreds)
	if err == nil {
		t.Fatal("expected the handshake to fail on a foreign page")
	}
	if jar != nil {
		t.Error("expected no cookie store on failure")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("foreign host saw %d requests, want 1", len(received))
	}
	if received[0] != "" {
		t.Errorf("foreign host received Cookie %q, want none", received[0])
	}
}

// TestAuthenticateFailures tests every terminal failure of the handshake.
func TestAuthenticateFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        googletest.Config
		creds      model.Credentials
		wantStage  session.Stage
		wantErr    error
		wantStatus int
		wantReason string
		wantCalls  int
	}{
		{
			name:       "stage 1 server error",
			cfg:        googletest.Config{FailStage: 1, FailStatus: http.StatusServiceUnavailable},
			wantStage:  session.StageServiceLogin,
			wantErr:    session.ErrUnexpectedStatus,
			wantStatus: http.StatusServiceUnavailable,
			wantReason: "HTTP status 503",
			wantCalls:  1,
		},
		{
			name:       "stage 1 without cookies",
			cfg:        googletest.Config{NoCookieStage: 1},
			wantStage:  session.StageServiceLogin,
			wantErr:    session.ErrNoSessionCookie,
			wantStatus: http.StatusOK,
			wantReason: "no session cookie issued",
			wantCalls:  1,
		},
		{
			name:       "stage 1 page without username field",
			cfg:        googletest.Config{OmitUsernameField: true},
			wantStage:  session.StageServiceLogin,
			wantErr:    session.ErrMissingFormField,
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "unknown account",
			cfg:        googletest.Config{Username: "someone-else@example.com", Password: testCreds.Password},
			wantStage:  session.StageLookup,
			wantErr:    session.ErrLoginRejected,
			wantStatus: http.StatusOK,
			wantReason: googletest.BannerUnknownAccount,
			wantCalls:  2,
		},
		{
			name:       "stage 1 banner",
			cfg:        googletest.Config{Username: testCreds.Username, Password: testCreds.Password, BannerStage: 1},
			wantStage:  session.StageServiceLogin,
			wantErr:    session.ErrLoginRejected,
			wantStatus: http.StatusOK,
			wantReason: googletest.BannerServiceUnavailable,
			wantCalls:  1,
		},
		{
			name:       "stage 2 server error",
			cfg:        googletest.Config{Username: testCreds.Username, FailStage: 2, FailStatus: http.StatusInternalServerError},
			wantStage:  session.StageLookup,
			wantErr:    session.ErrUnexpectedStatus,
			wantStatus: http.StatusInternalServerError,
			wantReason: "HTTP status 500",
			wantCalls:  2,
		},
		{
			name:       "stage 2 without cookies",
			cfg:        googletest.Config{Username: testCreds.Username, NoCookieStage: 2},
			wantStage:  session.StageLookup,
			wantErr:    session.ErrNoSessionCookie,
			wantStatus: http.StatusOK,
			wantCalls:  2,
		},
		{
			name:       "stage 2 page without password field",
			cfg:        googletest.Config{Username: testCreds.Username, OmitPasswordField: true},
			wantStage:  session.StageLookup,
			wantErr:    session.ErrMissingFormField,
			wantStatus: http.StatusOK,
			wantCalls:  2,
		},
		{
			name:       "wrong password",
			cfg:        googletest.Config{Username: testCreds.Username, Password: "other"},
			wantStage:  session.StageChallenge,
			wantErr:    session.ErrLoginRejected,
			wantStatus: http.StatusOK,
			wantReason: googletest.BannerWrongPassword,
			wantCalls:  3,
		},
		{
			name:       "stage 3 without cookies",
			cfg:        googletest.Config{Username: testCreds.Username, Password: testCreds.Password, NoCookieStage: 3},
			wantStage:  session.StageChallenge,
			wantErr:    session.ErrUnexpectedStatus,
			wantStatus: http.StatusForbidden,
			wantCalls:  4,
		},
		{
			name:       "stage 3 server error",
			cfg:        googletest.Config{Username: testCreds.Username, Password: testCreds.Password, FailStage: 3, FailStatus: http.StatusBadGateway},
			wantStage:  session.StageChallenge,
			wantErr:    session.ErrUnexpectedStatus,
			wantStatus: http.StatusBadGateway,
			wantCalls:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := googletest.NewServer(tt.cfg)
			defer srv.Close()

			s := newSession(srv)
			creds := tt.creds
			if !creds.Complete() {
				creds = testCreds
			}

			jar, err := s.Authenticate(context.Background(), creds)
			if jar != nil {
				t.Error("expected no cookie store on failure")
			}

			var stageErr *session.StageError
			if !errors.As(err, &stageErr) {
				t.Fatalf("expected *StageError, got %T: %v", err, err)
			}
			if stageErr.Stage != tt.wantStage {
				t.Errorf("Stage = %v, want %v", stageErr.Stage, tt.wantStage)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if stageErr.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", stageErr.Status, tt.wantStatus)
			}
			if tt.wantReason != "" && stageErr.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", stageErr.Reason, tt.wantReason)
			}
			if s.State() != session.StateFailed {
				t.Errorf("State() = %v, want failed", s.State())
			}
			if s.Failure() != stageErr {
				t.Error("Failure() should return the returned error")
			}
			if got := len(srv.Requests()); got != tt.wantCalls {
				t.Errorf("server saw %d requests, want %d (no retries)", got, tt.wantCalls)
			}
			if tt.wantStage == session.StageServiceLogin {
				if got := len(srv.RequestsTo(googletest.PathLookup)); got != 0 {
					t.Errorf("username submitted %d times after stage 1 failed", got)
				}
			}
		})
	}
}

// TestAuthenticateTransportFailure tests that a missing response fails stage 1.
func TestAuthenticateTransportFailure(t *testing.T) {
	t.Parallel()

	srv := googletest.NewServer(googletest.Config{})
	endpoints := srv.Endpoints()
	srv.Close()

	httpTransport := &http.Transport{}
	defer httpTransport.CloseIdleConnections()

	s := session.New(&http.Client{Transport: httpTransport}, session.WithEndpoints(endpoints))
	_, err := s.Authenticate(context.Background(), testCreds)

	var stageErr *session.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *StageError, got %v", err)
	}
	if stageErr.Stage != session.StageServiceLogin {
		t.Errorf("Stage = %v", stageErr.Stage)
	}
	if stageErr.Status != 0 {
		t.Errorf("Status = %d, want 0", stageErr.Status)
	}
	if !errors.Is(err, transport.ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

// TestAuthenticateCanceled tests that a canceled context is a transport failure.
func TestAuthenticateCanceled(t *testing.T) {
	t.Parallel()

	srv := googletest.NewServer(googletest.Config{Username: testCreds.Username, Password: testCreds.Password})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSession(srv).Authenticate(ctx, testCreds)
	if !errors.Is(err, transport.ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

// TestSessionIsSingleUse tests that sessions cannot be resumed or reused.
func TestSessionIsSingleUse(t *testing.T) {
	t.Parallel()

	t.Run("failed session refuses further stages", func(t *testing.T) {
		t.Parallel()

		srv := googletest.NewServer(googletest.Config{Username: testCreds.Username, Password: "other"})
		defer srv.Close()

		s := newSession(srv)
		if _, err := s.Authenticate(context.Background(), testCreds); err == nil {
			t.Fatal("expected first attempt to fail")
		}
		before := len(srv.Requests())

		_, err := s.Authenticate(context.Background(), testCreds)
		if !errors.Is(err, session.ErrSessionFailed) {
			t.Errorf("expected ErrSessionFailed, got %v", err)
		}
		if len(srv.Requests()) != before {
			t.Error("failed session must not contact the server again")
		}
	})

	t.Run("authenticated session cannot run again", func(t *testing.T) {
		t.Parallel()

		srv := googletest.NewServer(googletest.Config{Username: testCreds.Username, Password: testCreds.Password})
		defer srv.Close()

		s := newSession(srv)
		if _, err := s.Authenticate(context.Background(), testCreds); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := s.Authenticate(context.Background(), testCreds); !errors.Is(err, session.ErrSessionUsed) {
			t.Errorf("expected ErrSessionUsed, got %v", err)
		}
	})

	t.Run("fresh sessions do not share cookies", func(t *testing.T) {
		t.Parallel()

		srv := googletest.NewServer(googletest.Config{Username: testCreds.Username, Password: testCreds.Password})
		defer srv.Close()

		for i := range 2 {
			if _, err := newSession(srv).Authenticate(context.Background(), testCreds); err != nil {
				t.Fatalf("attempt %d: %v", i, err)
			}
		}
		for _, req := range srv.RequestsTo(googletest.PathServiceLogin) {
			if req.Cookie != "" {
				t.Errorf("stage 1 of a fresh session sent cookies %q", req.Cookie)
			}
		}
	})
}

// TestStageErrorMessage tests the operator-facing error text.
func TestStageErrorMessage(t *testing.T) {
	t.Parallel()

	err := &session.StageError{Stage: session.StageChallenge, Reason: "Wrong password. Try again.", Err: session.ErrLoginRejected}
	want := "authentication stage 3 (password_challenge) failed: Wrong password. Try again."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
