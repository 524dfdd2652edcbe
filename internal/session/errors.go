package session

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus indicates a stage answered with a status other than 200.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrNoSessionCookie indicates a stage response carried no Set-Cookie header.
	ErrNoSessionCookie = errors.New("no session cookie issued")

	// ErrLoginRejected indicates the page rendered an error banner.
	ErrLoginRejected = errors.New("login rejected")

	// ErrMissingFormField indicates the page lacked a field the next stage needs.
	ErrMissingFormField = errors.New("missing form field")

	// ErrSessionFailed is returned when a failed session is used again.
	ErrSessionFailed = errors.New("session already failed")

	// ErrSessionUsed is returned when Authenticate is called twice on one session.
	ErrSessionUsed = errors.New("session already used")
)

// Stage identifies one request of the login handshake.
type Stage int

const (
	// StageServiceLogin fetches the initial login page.
	StageServiceLogin Stage = iota + 1

	// StageLookup submits the username.
	StageLookup

	// StageChallenge submits the password.
	StageChallenge
)

// String returns a short name for logs.
func (s Stage) String() string {
	switch s {
	case StageServiceLogin:
		return "service_login"
	case StageLookup:
		return "lookup"
	case StageChallenge:
		return "password_challenge"
	default:
		return "unknown"
	}
}

// StageError reports why a stage of the handshake failed. It is terminal:
// the session that produced it is in the Failed state.
type StageError struct {
	// Stage is the failing stage.
	Stage Stage

	// Status is the HTTP status of the response, 0 when none was received.
	Status int

	// Reason is a human-readable explanation. For rejected logins it is the
	// banner text shown by the server.
	Reason string

	// Err is the sentinel or transport error classifying the failure.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("authentication stage %d (%s) failed: %s", int(e.Stage), e.Stage, e.Reason)
}

// Unwrap returns the classifying error.
func (e *StageError) Unwrap() error {
	return e.Err
}
