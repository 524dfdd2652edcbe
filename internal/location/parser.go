package location

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nao1215/locshare/internal/model"
)

// ParsePayload parses a data endpoint body.
//
// The body is split on newlines, the first and last elements are dropped
// (an anti-hijacking prefix and a trailer) and the rest is joined and decoded
// as JSON. Element 0 of the top-level array is the person list; per person:
//
//	id          = r[0][0]
//	photoURL    = r[0][1]
//	displayName = r[0][3]
//	latitude    = r[1][1][2]
//	longitude   = r[1][1][1]
//
// Missing or mistyped values yield "" or nil for that field only.
func ParsePayload(body []byte) ([]model.UserLocationRecord, error) {
	lines := strings.Split(string(body), "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("%w: expected at least 3 lines, got %d", ErrMalformedPayload, len(lines))
	}

	joined := strings.Join(lines[1:len(lines)-1], "")

	var doc any
	if err := json.Unmarshal([]byte(joined), &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	top, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an array", ErrMalformedPayload)
	}

	if len(top) == 0 || top[0] == nil {
		return []model.UserLocationRecord{}, nil
	}

	people, ok := top[0].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: person list is not an array", ErrMalformedPayload)
	}

	records := make([]model.UserLocationRecord, 0, len(people))
	for _, p := range people {
		records = append(records, parseRecord(p))
	}
	return records, nil
}

func parseRecord(raw any) model.UserLocationRecord {
	return model.UserLocationRecord{
		ID:          stringAt(raw, 0, 0),
		PhotoURL:    stringAt(raw, 0, 1),
		DisplayName: stringAt(raw, 0, 3),
		Latitude:    numberAt(raw, 1, 1, 2),
		Longitude:   numberAt(raw, 1, 1, 1),
	}
}

// at walks nested arrays by index.
func at(v any, path ...int) (any, bool) {
	for _, i := range path {
		arr, ok := v.([]any)
		if !ok || i < 0 || i >= len(arr) {
			return nil, false
		}
		v = arr[i]
	}
	return v, true
}

func stringAt(v any, path ...int) string {
	x, ok := at(v, path...)
	if !ok {
		return ""
	}
	s, _ := x.(string)
	return s
}

func numberAt(v any, path ...int) *float64 {
	x, ok := at(v, path...)
	if !ok {
		return nil
	}
	f, ok := x.(float64)
	if !ok {
		return nil
	}
	return &f
}
