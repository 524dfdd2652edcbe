// Package session drives the legacy, JavaScript-free Google web login over
// plain HTTP and produces a cookie set good enough to call the private
// location-sharing endpoint.
//
// # Components
//
//   - CookieStore: domain-scoped name to value map. Set merges, never replaces.
//   - ExtractForm: parses a login page into flat form fields and detects the
//     inline error banner the login pages use instead of HTTP status codes.
//   - Session: the three-stage state machine
//     Init -> ServiceLoginDone -> LookupDone -> Authenticated, with an
//     absorbing Failed state.
//
// # Stages
//
//  1. GET the service-login page (no-JavaScript flow variant).
//  2. POST the username form to the lookup endpoint.
//  3. POST the password form to the password-challenge endpoint.
//
// Each stage requires HTTP 200, at least one Set-Cookie header and no error
// banner. The cookie store is handed from stage to stage: a stage receives
// the store produced by its predecessor and returns a new one with the
// cookies it was issued merged in.
//
// A Session is single-use. Any failure is terminal and a retry means a new
// Session starting from an empty CookieStore; repeating stage 1 alone would
// invalidate cookies the server already associated with a later stage.
//
// # Usage
//
//	s := session.New(httpClient, session.WithLogger(logger))
//	jar, err := s.Authenticate(ctx, creds)
//	if err != nil {
//	    var stageErr *session.StageError
//	    errors.As(err, &stageErr) // which stage failed and why
//	}
//	cookie := jar.Header(session.DefaultCookieDomain)
package session
