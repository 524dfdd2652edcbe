package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/locshare/internal/database"
	"github.com/nao1215/locshare/internal/model"
)

// SimpleWriter outputs human-readable text.
// Lookups are written as their answers, one per line, which is exactly
// what a voice front end would speak.
type SimpleWriter struct {
	baseWriter

	// verbose adds a detail line below each answer.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteLookups writes one answer per lookup.
func (w *SimpleWriter) WriteLookups(lookups []*model.Lookup) (int, error) {
	var sb strings.Builder

	for _, s := range NewSummaries(lookups) {
		sb.WriteString(s.Answer)
		sb.WriteString("\n")

		if w.verbose {
			w.writeDetails(&sb, s)
		}
	}

	return w.output.Write([]byte(sb.String()))
}

// writeDetails writes the diagnostic line of one lookup.
func (w *SimpleWriter) writeDetails(sb *strings.Builder, s Summary) {
	fmt.Fprintf(sb, "  id=%s duration=%dms", s.ID, s.DurationMs)
	if s.MatchedName != "" {
		fmt.Fprintf(sb, " match=%q score=%d", s.MatchedName, s.MatchScore)
	}
	if s.Result != nil {
		fmt.Fprintf(sb, " outcome=%s", s.Result.Kind)
	}
	if s.ErrorClass != "" {
		fmt.Fprintf(sb, " error_class=%s", s.ErrorClass)
	}
	if len(s.Steps) > 0 {
		fmt.Fprintf(sb, " steps=%s", strings.Join(s.Steps, ","))
	}
	sb.WriteString("\n")
}

// WriteHistory writes the records as an aligned table.
func (w *SimpleWriter) WriteHistory(records []database.LookupRecord) (int, error) {
	var sb strings.Builder

	if len(records) == 0 {
		sb.WriteString("No lookups recorded.\n")
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "%-23s  %-16s  %-20s  %s\n", "TIME", "QUERY", "MATCH", "RESULT")
	sb.WriteString(strings.Repeat("-", 78))
	sb.WriteString("\n")

	for _, r := range records {
		fmt.Fprintf(&sb, "%-23s  %-16s  %-20s  %s\n",
			r.StartedAt.Local().Format(timeFormat),
			truncateString(r.Query, 16),
			truncateString(dash(r.MatchedName), 20),
			historyResult(r),
		)
	}

	return w.output.Write([]byte(sb.String()))
}

// historyResult renders what a stored record disclosed, or its failure.
func historyResult(r database.LookupRecord) string {
	if !r.Succeeded() {
		return "failed (" + dash(r.ErrorClass) + ")"
	}

	kind, err := model.ParseDisclosureKind(r.Outcome)
	if err != nil {
		return r.Outcome
	}

	switch kind {
	case model.AtReferenceLocation:
		return "at " + r.Place
	case model.AwayWithDistance:
		return fmt.Sprintf("on %s, %d km away", r.Place, r.DistanceKm)
	default:
		return "on " + r.Place
	}
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
