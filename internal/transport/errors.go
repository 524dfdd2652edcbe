package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks a failure where no HTTP response was received:
	// DNS or dial errors, TLS failures, timeouts and cancellations.
	ErrTransport = errors.New("no response received")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// Wrap marks err as a transport failure while keeping it inspectable with
// errors.Is and errors.As. A nil err stays nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
