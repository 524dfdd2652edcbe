package model

import (
	"time"
)

// Lookup holds the state of one "where is NAME" run.
// It is created per query and threaded through every pipeline step; each
// step reads what earlier steps produced and adds its own output.
//
// Nothing in a Lookup is reused across queries. The authenticated cookie
// header lives here only for the duration of the run and is never serialized.
type Lookup struct {
	// ID correlates log lines and the history row of this lookup.
	ID string `json:"id"`

	// Query is the free-text name as supplied by the caller.
	Query string `json:"query"`

	// StartedAt is when the lookup began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is set by the pipeline once the last step ran or failed.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// SessionCookie is the cookie header produced by a successful
	// authentication, ready to be sent to the data endpoint.
	SessionCookie string `json:"-"`

	// Records are the people returned by the data endpoint.
	Records []UserLocationRecord `json:"records,omitempty"`

	// Resolved is the record that best matches Query.
	Resolved *ResolvedUser `json:"resolved,omitempty"`

	// Label is the reverse-geocoded locality of the resolved person.
	// Empty when geocoding found nothing.
	Label string `json:"label,omitempty"`

	// Result is the disclosure outcome.
	Result *DisclosureResult `json:"result,omitempty"`

	// Error is the error that aborted the lookup, if any.
	Error error `json:"-"`

	// ErrorMessage is Error rendered for operators (JSON reports, history).
	ErrorMessage string `json:"error,omitempty"`

	// PerformedSteps lists the names of the steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`
}

// NewLookup creates a Lookup for query.
func NewLookup(id, query string) *Lookup {
	return &Lookup{
		ID:             id,
		Query:          query,
		StartedAt:      time.Now(),
		PerformedSteps: make([]string, 0),
	}
}

// Fail records err as the reason the lookup stopped.
func (l *Lookup) Fail(err error) {
	l.Error = err
	if err != nil {
		l.ErrorMessage = err.Error()
	}
}

// Succeeded reports whether the lookup produced a disclosure outcome.
func (l *Lookup) Succeeded() bool {
	return l.Error == nil && l.Result != nil
}

// MatchedName returns the display name of the resolved person, or "" when
// resolution has not happened.
func (l *Lookup) MatchedName() string {
	if l.Resolved == nil {
		return ""
	}
	return l.Resolved.Record.DisplayName
}

// Sentence renders the successful outcome using the matched display name.
// It returns "" when the lookup did not succeed.
func (l *Lookup) Sentence() string {
	if !l.Succeeded() {
		return ""
	}
	return l.Result.Sentence(l.MatchedName())
}

// Duration returns how long the lookup took, or zero while it is running.
func (l *Lookup) Duration() time.Duration {
	if l.FinishedAt.IsZero() {
		return 0
	}
	return l.FinishedAt.Sub(l.StartedAt)
}
