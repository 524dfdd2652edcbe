package pipeline

import "errors"

var (
	// ErrNotAuthenticated is returned when a step needs a session cookie
	// that no earlier step produced.
	ErrNotAuthenticated = errors.New("lookup is not authenticated")

	// ErrNotResolved is returned when a step needs the resolved person
	// before the resolve step ran.
	ErrNotResolved = errors.New("lookup has no resolved person")
)
