package location

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPayload indicates the body was not a framed JSON array.
	ErrMalformedPayload = errors.New("malformed location payload")

	// ErrNoCoordinates indicates the matched person has no usable position.
	ErrNoCoordinates = errors.New("person has no coordinates")
)

// FetchError reports a non-200 answer from the data endpoint.
type FetchError struct {
	Status int
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("location endpoint returned HTTP status %d", e.Status)
}
