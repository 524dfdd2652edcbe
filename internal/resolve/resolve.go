// Package resolve picks the tracked person whose display name is closest
// to a free-text query.
package resolve

import (
	"errors"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/locshare/internal/model"
)

// ErrNotFound is returned when there is nobody to match against.
var ErrNotFound = errors.New("no tracked person to match")

// Resolve returns the record whose display name has the smallest edit
// distance to query, compared case-insensitively. Ties go to the record
// that comes first.
//
// There is no acceptance threshold: any non-empty list yields a match.
func Resolve(query string, records []model.UserLocationRecord) (*model.ResolvedUser, error) {
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	// A Caser keeps state, so one is created per call.
	folder := cases.Lower(language.Und)
	q := folder.String(query)

	best := -1
	bestScore := 0
	for i, r := range records {
		score := levenshtein.ComputeDistance(q, folder.String(r.DisplayName))
		if best < 0 || score < bestScore {
			best = i
			bestScore = score
		}
	}

	return &model.ResolvedUser{Record: records[best], Score: bestScore}, nil
}
