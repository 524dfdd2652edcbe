package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/locshare/internal/database"
	"github.com/nao1215/locshare/internal/model"
)

// MarkdownWriter outputs reports in Markdown format, built with
// nao1215/markdown (tables and GitHub-flavored alerts).
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteLookups outputs the lookups as a table followed by a status alert.
func (w *MarkdownWriter) WriteLookups(lookups []*model.Lookup) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summaries := NewSummaries(lookups)

	md.H1("Location Lookup")
	md.PlainText("")

	rows := make([][]string, len(summaries))
	failed := 0
	for i, s := range summaries {
		outcome := "-"
		if s.Result != nil {
			outcome = s.Result.Kind.String()
		}
		if s.ErrorClass != "" {
			failed++
			outcome = "❌ " + s.ErrorClass
		}
		rows[i] = []string{
			s.Query,
			dash(s.MatchedName),
			outcome,
			s.Answer,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Query", "Match", "Outcome", "Answer"},
		Rows:   rows,
	})
	md.PlainText("")

	switch {
	case len(summaries) == 0:
		md.Note("No names were looked up.")
	case failed == 0:
		md.Tip("Every name was located.")
	default:
		md.Warningf("%d of %d lookup(s) failed.", failed, len(summaries))
	}
	md.PlainText("")

	return len(md.String()), md.Build()
}

// WriteHistory outputs the records as a table.
func (w *MarkdownWriter) WriteHistory(records []database.LookupRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Lookup History")
	md.PlainText("")

	if len(records) == 0 {
		md.Note("No lookups recorded.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		distance := "-"
		if r.Outcome == model.AwayWithDistance.String() {
			distance = strconv.Itoa(r.DistanceKm) + " km"
		}
		rows[i] = []string{
			r.StartedAt.Local().Format(timeFormat),
			r.Query,
			dash(r.MatchedName),
			dash(r.Outcome),
			dash(r.Place),
			distance,
			dash(r.ErrorClass),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Time", "Query", "Match", "Outcome", "Place", "Distance", "Error"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}
