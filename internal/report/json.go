package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/locshare/internal/database"
	"github.com/nao1215/locshare/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is stamped into every document.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion stamps version into the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// LookupDocument is the JSON shape of WriteLookups.
type LookupDocument struct {
	Version string    `json:"version,omitempty"`
	Lookups []Summary `json:"lookups"`
}

// HistoryDocument is the JSON shape of WriteHistory.
type HistoryDocument struct {
	Version string                  `json:"version,omitempty"`
	History []database.LookupRecord `json:"history"`
}

// WriteLookups outputs the lookups as a LookupDocument.
func (w *JSONWriter) WriteLookups(lookups []*model.Lookup) (int, error) {
	return w.writeJSON(LookupDocument{
		Version: w.version,
		Lookups: NewSummaries(lookups),
	})
}

// WriteHistory outputs the records as a HistoryDocument.
func (w *JSONWriter) WriteHistory(records []database.LookupRecord) (int, error) {
	if records == nil {
		records = []database.LookupRecord{}
	}
	return w.writeJSON(HistoryDocument{
		Version: w.version,
		History: records,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output.
	data = append(data, '\n')

	return w.output.Write(data)
}
