package locator

import (
	"context"

	"github.com/nao1215/locshare/internal/database"
	"github.com/nao1215/locshare/internal/model"
)

// HistoryStore records finished lookups. *database.HistoryDB implements it.
type HistoryStore interface {
	SaveLookup(ctx context.Context, record *database.LookupRecord) error
}

// NewRecord converts a finished lookup into a history record. Only what
// the answer disclosed is kept: no coordinates, cookies or credentials.
func NewRecord(lookup *model.Lookup, username string) database.LookupRecord {
	record := database.LookupRecord{
		LookupID:   lookup.ID,
		Account:    database.AccountFingerprint(username),
		Query:      lookup.Query,
		ErrorClass: ErrorClass(lookup.Error),
		StartedAt:  lookup.StartedAt,
		Duration:   lookup.Duration(),
	}

	if lookup.Resolved != nil {
		record.MatchedName = lookup.Resolved.Record.DisplayName
		record.MatchScore = lookup.Resolved.Score
	}

	if lookup.Succeeded() {
		record.Outcome = lookup.Result.Kind.String()
		record.Place = lookup.Result.Place()
		record.DistanceKm = lookup.Result.DistanceKm
	}

	return record
}
