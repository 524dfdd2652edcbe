// Package googletest provides an in-process fake of the Google login pages
// and the location-sharing data endpoint for tests.
//
// The fake follows the observable contract of the real pages: every stage
// issues cookies, later stages check the cookies and hidden form tokens of
// earlier ones, rejections are rendered as an error banner with status 200,
// and a successful password submission redirects once before the final page.
package googletest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/nao1215/locshare/internal/session"
)

// Paths served by the fake.
const (
	PathServiceLogin = "/ServiceLogin"
	PathLookup       = "/signin/v1/lookup"
	PathChallenge    = "/signin/challenge/sl/password"
	PathCheckCookie  = "/CheckCookie"
	PathLocations    = "/maps/preview/locationsharing/read"
)

// Banner texts rendered on rejection.
const (
	BannerUnknownAccount = "Couldn't find your Google Account"
	BannerWrongPassword  = "Wrong password. Try again."

	BannerServiceUnavailable = "Sign-in is temporarily unavailable. Try again later."
)

// Config controls the fake's behaviour. The zero value accepts nothing;
// set Username and Password.
type Config struct {
	Username string
	Password string

	// Payload is the JSON document served by the data endpoint, without
	// the framing lines. Empty serves an empty person list.
	Payload string

	// RawBody, when set, is served verbatim by the data endpoint.
	RawBody string

	// NoCookieStage suppresses Set-Cookie on the given stage (1-3).
	NoCookieStage int

	// FailStage answers the given stage (1-3) with FailStatus.
	FailStage  int
	FailStatus int

	// LocationsStatus overrides the data endpoint status when non-zero.
	LocationsStatus int

	// BannerStage renders BannerServiceUnavailable, with status 200 and
	// fresh cookies, on the given stage (1-3).
	BannerStage int

	// OmitUsernameField drops the Email input from the first page.
	OmitUsernameField bool

	// OmitPasswordField drops the Passwd input from the second page.
	OmitPasswordField bool
}

// Request is what the fake recorded about one incoming request.
type Request struct {
	Method  string
	Path    string
	Query   string
	Cookie  string
	Referer string
	Origin  string
	Form    map[string]string
}

// Server is a running fake.
type Server struct {
	*httptest.Server

	cfg Config

	mu       sync.Mutex
	requests []Request
}

// NewServer starts a fake. Callers must Close it.
func NewServer(cfg Config) *Server {
	s := &Server{cfg: cfg}

	mux := http.NewServeMux()
	mux.HandleFunc(PathServiceLogin, s.handleServiceLogin)
	mux.HandleFunc(PathLookup, s.handleLookup)
	mux.HandleFunc(PathChallenge, s.handleChallenge)
	mux.HandleFunc(PathCheckCookie, s.handleCheckCookie)
	mux.HandleFunc(PathLocations, s.handleLocations)

	s.Server = httptest.NewServer(mux)
	return s
}

// Endpoints returns login endpoints pointing at the fake.
func (s *Server) Endpoints() session.Endpoints {
	return session.Endpoints{
		ServiceLogin: s.URL + PathServiceLogin,
		Lookup:       s.URL + PathLookup,
		Challenge:    s.URL + PathChallenge,
		Origin:       s.URL,
	}
}

// LocationsURL returns the data endpoint URL.
func (s *Server) LocationsURL() string {
	return s.URL + PathLocations
}

// Requests returns a copy of the recorded requests in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo returns the recorded requests for one path.
func (s *Server) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) record(r *http.Request) {
	_ = r.ParseForm()
	form := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.RawQuery,
		Cookie:  r.Header.Get("Cookie"),
		Referer: r.Header.Get("Referer"),
		Origin:  r.Header.Get("Origin"),
		Form:    form,
	})
}

// stageFailed writes the configured failure status for stage.
func (s *Server) stageFailed(w http.ResponseWriter, stage int) bool {
	if s.cfg.FailStage != stage {
		return false
	}
	status := s.cfg.FailStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	http.SetCookie(w, &http.Cookie{Name: "NID", Value: "failed"})
	w.WriteHeader(status)
	return true
}

func (s *Server) setCookie(w http.ResponseWriter, stage int, name, value string) {
	if s.cfg.NoCookieStage == stage {
		return
	}
	http.SetCookie(w, &http.Cookie{Name: name, Value: value, Path: "/", HttpOnly: true})
}

func (s *Server) handleServiceLogin(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	if s.stageFailed(w, 1) {
		return
	}

	s.setCookie(w, 1, "GAPS", "1:stage1")
	if s.cfg.BannerStage == 1 {
		writePage(w, BannerServiceUnavailable, "")
		return
	}

	emailInput := `<input type="email" name="Email" id="Email" value="">`
	if s.cfg.OmitUsernameField {
		emailInput = ""
	}
	writePage(w, "", fmt.Sprintf(`<form novalidate method="post" action="%s">
<input type="hidden" name="GALX" value="galx-1">
<input type="hidden" name="gxf" value="gxf-1">
<input type="hidden" name="continue" value="https://www.google.com/">
%s
<input type="checkbox" name="PersistentCookie" value="yes" checked>
<input id="next" name="signIn" type="submit" value="Next">
</form>`, PathLookup, emailInput))
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	if s.stageFailed(w, 2) {
		return
	}

	s.setCookie(w, 2, "GALX", "galx-2")
	if s.cfg.BannerStage == 2 {
		writePage(w, BannerServiceUnavailable, "")
		return
	}

	if !hasCookie(r, "GAPS", "1:stage1") || r.PostFormValue("GALX") != "galx-1" {
		writePage(w, "Your browser has cookies disabled.", "")
		return
	}
	if r.PostFormValue("Email") != s.cfg.Username || s.cfg.Username == "" {
		writePage(w, BannerUnknownAccount, `<form><input type="email" name="Email"></form>`)
		return
	}

	passwordInput := `<input type="password" name="Passwd" id="Passwd">`
	if s.cfg.OmitPasswordField {
		passwordInput = ""
	}
	writePage(w, "", fmt.Sprintf(`<form novalidate method="post" action="%s">
<input type="hidden" name="GALX" value="galx-2">
<input type="hidden" name="gxf" value="gxf-2">
<input type="hidden" name="ProfileInformation" value="profile-blob">
<input type="hidden" name="Email" value="%s">
%s
<input id="signIn" name="signIn" type="submit" value="Sign in">
</form>`, PathChallenge, s.cfg.Username, passwordInput))
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	if s.stageFailed(w, 3) {
		return
	}

	if !hasCookie(r, "GAPS", "1:stage1") || !hasCookie(r, "GALX", "galx-2") ||
		r.PostFormValue("ProfileInformation") != "profile-blob" {
		s.setCookie(w, 3, "NID", "retry")
		writePage(w, "Your browser has cookies disabled.", "")
		return
	}
	if r.PostFormValue("Passwd") != s.cfg.Password || s.cfg.Password == "" {
		s.setCookie(w, 3, "NID", "retry")
		writePage(w, BannerWrongPassword, `<form><input type="password" name="Passwd"></form>`)
		return
	}

	if s.cfg.BannerStage == 3 {
		s.setCookie(w, 3, "NID", "retry")
		writePage(w, BannerServiceUnavailable, "")
		return
	}

	s.setCookie(w, 3, "SID", "sid-1")
	s.setCookie(w, 3, "HSID", "hsid-1")
	http.Redirect(w, r, PathCheckCookie, http.StatusFound)
}

func (s *Server) handleCheckCookie(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	if !hasCookie(r, "SID", "sid-1") {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "SSID", Value: "ssid-1", Path: "/"})
	writePage(w, "", "")
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	s.record(r)

	if s.cfg.LocationsStatus != 0 {
		w.WriteHeader(s.cfg.LocationsStatus)
		return
	}
	if !hasCookie(r, "SID", "sid-1") || !hasCookie(r, "SSID", "ssid-1") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if s.cfg.RawBody != "" {
		_, _ = w.Write([]byte(s.cfg.RawBody))
		return
	}
	payload := s.cfg.Payload
	if payload == "" {
		payload = "[[]]"
	}
	_, _ = w.Write([]byte(Frame(payload)))
}

// Frame wraps a JSON document in the anti-hijacking prefix line and the
// trailing line the data endpoint emits.
func Frame(payload string) string {
	return ")]}'\n" + payload + "\n"
}

// Person describes one tracked person for Payload.
type Person struct {
	ID        string
	PhotoURL  string
	Name      string
	Latitude  float64
	Longitude float64

	// NoPosition omits the position block.
	NoPosition bool
}

// Payload renders people in the positional layout of the data endpoint:
// record[0] = [id, photo, _, name], record[1][1] = [_, longitude, latitude].
func Payload(people ...Person) string {
	records := make([]any, 0, len(people))
	for _, p := range people {
		record := []any{[]any{p.ID, p.PhotoURL, nil, p.Name}}
		if !p.NoPosition {
			record = append(record, []any{nil, []any{nil, p.Longitude, p.Latitude}, 1700000000000})
		}
		records = append(records, record)
	}
	data, err := json.Marshal([]any{records, nil, "token"})
	if err != nil {
		panic(err)
	}
	return string(data)
}

func hasCookie(r *http.Request, name, value string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value == value
}

func writePage(w http.ResponseWriter, banner, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	bannerHTML := ""
	if banner != "" {
		bannerHTML = fmt.Sprintf(`<span role="alert" class="error-msg" id="errormsg_0_Passwd">%s</span>`, banner)
	}
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>Sign in</title></head><body>%s%s</body></html>", bannerHTML, body)
}
