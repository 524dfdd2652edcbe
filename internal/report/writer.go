package report

import (
	"io"
	"time"

	"github.com/nao1215/locshare/internal/database"
	"github.com/nao1215/locshare/internal/locator"
	"github.com/nao1215/locshare/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// WriteLookups outputs the outcome of one or more lookups.
	// Returns the number of bytes written and any error encountered.
	WriteLookups(lookups []*model.Lookup) (int, error)

	// WriteHistory outputs stored history records.
	WriteHistory(records []database.LookupRecord) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteLookups outputs the lookups to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) WriteLookups(lookups []*model.Lookup) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteLookups(lookups)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory outputs the records to all configured Writers.
func (m *MultiWriter) WriteHistory(records []database.LookupRecord) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(records)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// Summary is the reportable view of a lookup.
type Summary struct {
	ID          string                  `json:"id"`
	Query       string                  `json:"query"`
	Answer      string                  `json:"answer"`
	MatchedName string                  `json:"matched_name,omitempty"`
	MatchScore  int                     `json:"match_score,omitempty"`
	Result      *model.DisclosureResult `json:"result,omitempty"`
	ErrorClass  string                  `json:"error_class,omitempty"`
	Error       string                  `json:"error,omitempty"`
	Steps       []string                `json:"steps,omitempty"`
	StartedAt   time.Time               `json:"started_at"`
	DurationMs  int64                   `json:"duration_ms"`
}

// NewSummary builds the reportable view of lookup.
func NewSummary(lookup *model.Lookup) Summary {
	s := Summary{
		ID:          lookup.ID,
		Query:       lookup.Query,
		Answer:      locator.Message(lookup),
		MatchedName: lookup.MatchedName(),
		ErrorClass:  locator.ErrorClass(lookup.Error),
		Error:       lookup.ErrorMessage,
		Steps:       lookup.PerformedSteps,
		StartedAt:   lookup.StartedAt,
		DurationMs:  lookup.Duration().Milliseconds(),
	}
	if lookup.Resolved != nil {
		s.MatchScore = lookup.Resolved.Score
	}
	if lookup.Succeeded() {
		s.Result = lookup.Result
	}
	return s
}

// NewSummaries maps NewSummary over lookups, skipping nil entries.
func NewSummaries(lookups []*model.Lookup) []Summary {
	out := make([]Summary, 0, len(lookups))
	for _, l := range lookups {
		if l != nil {
			out = append(out, NewSummary(l))
		}
	}
	return out
}

// dash substitutes "-" for empty table cells.
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// timeFormat is used for timestamps in text and Markdown output.
const timeFormat = "2006-01-02 15:04:05 MST"
