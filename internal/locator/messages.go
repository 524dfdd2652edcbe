package locator

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/locshare/internal/config"
	"github.com/nao1215/locshare/internal/geocode"
	"github.com/nao1215/locshare/internal/location"
	"github.com/nao1215/locshare/internal/model"
	"github.com/nao1215/locshare/internal/resolve"
	"github.com/nao1215/locshare/internal/session"
	"github.com/nao1215/locshare/internal/transport"
)

// MissingCredentialsMessage is the answer when no account is configured.
const MissingCredentialsMessage = "I need to authenticate using your Google account to access your shared locations."

// FailureMessage returns the answer for any failed lookup of query.
func FailureMessage(query string) string {
	return fmt.Sprintf("Hmm.. I was not able to get %s's location", query)
}

// Message renders the answer for a finished lookup.
func Message(lookup *model.Lookup) string {
	if errors.Is(lookup.Error, config.ErrMissingCredentials) {
		return MissingCredentialsMessage
	}
	if lookup.Succeeded() {
		return lookup.Sentence()
	}
	return FailureMessage(lookup.Query)
}

// Error classes stored in the history and logged with failures.
const (
	ClassMissingCredentials = "missing_credentials"
	ClassCanceled           = "canceled"
	ClassTransport          = "transport"
	ClassLoginRejected      = "login_rejected"
	ClassUnexpectedStatus   = "unexpected_status"
	ClassNoSessionCookie    = "no_session_cookie"
	ClassMissingFormField   = "missing_form_field"
	ClassFetchStatus        = "fetch_status"
	ClassMalformedPayload   = "malformed_payload"
	ClassNotFound           = "not_found"
	ClassNoCoordinates      = "no_coordinates"
	ClassNoGeocodingResult  = "no_geocoding_result"
	ClassInternal           = "internal"
)

// ErrorClass names the kind of failure behind err, or "" for nil.
func ErrorClass(err error) string {
	var fetchErr *location.FetchError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, config.ErrMissingCredentials):
		return ClassMissingCredentials
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ClassCanceled
	case errors.Is(err, transport.ErrTransport):
		return ClassTransport
	case errors.Is(err, session.ErrLoginRejected):
		return ClassLoginRejected
	case errors.Is(err, session.ErrUnexpectedStatus):
		return ClassUnexpectedStatus
	case errors.Is(err, session.ErrNoSessionCookie):
		return ClassNoSessionCookie
	case errors.Is(err, session.ErrMissingFormField):
		return ClassMissingFormField
	case errors.As(err, &fetchErr):
		return ClassFetchStatus
	case errors.Is(err, location.ErrMalformedPayload):
		return ClassMalformedPayload
	case errors.Is(err, resolve.ErrNotFound):
		return ClassNotFound
	case errors.Is(err, location.ErrNoCoordinates):
		return ClassNoCoordinates
	case errors.Is(err, geocode.ErrNoResult):
		return ClassNoGeocodingResult
	default:
		return ClassInternal
	}
}

// failureAttrs returns the operator diagnostics for a failed lookup.
func failureAttrs(lookup *model.Lookup) []any {
	attrs := []any{
		"lookup_id", lookup.ID,
		"error_class", ErrorClass(lookup.Error),
		"error", lookup.Error,
	}

	var stageErr *session.StageError
	if errors.As(lookup.Error, &stageErr) {
		attrs = append(attrs, "stage", stageErr.Stage.String())
		if stageErr.Status != 0 {
			attrs = append(attrs, "status", stageErr.Status)
		}
		if stageErr.Reason != "" {
			attrs = append(attrs, "reason", stageErr.Reason)
		}
	}

	var fetchErr *location.FetchError
	if errors.As(lookup.Error, &fetchErr) {
		attrs = append(attrs, "status", fetchErr.Status)
	}

	return attrs
}
