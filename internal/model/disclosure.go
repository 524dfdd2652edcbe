package model

import (
	"encoding/json"
	"fmt"
)

// DisclosureKind identifies which disclosure outcome was chosen.
type DisclosureKind int

const (
	// AtReferenceLocation means the person is within the reference radius.
	// Only the reference name is revealed.
	AtReferenceLocation DisclosureKind = iota + 1

	// AwayWithDistance means a reference is configured and the person is
	// outside its radius. The locality label and rounded distance are revealed.
	AwayWithDistance

	// AwayNoReference means no reference is configured.
	// Only the locality label is revealed.
	AwayNoReference
)

// String returns the stable identifier used in logs, JSON and history rows.
func (k DisclosureKind) String() string {
	switch k {
	case AtReferenceLocation:
		return "at_reference"
	case AwayWithDistance:
		return "away_with_distance"
	case AwayNoReference:
		return "away_no_reference"
	default:
		return "unknown"
	}
}

// ParseDisclosureKind is the inverse of DisclosureKind.String.
func ParseDisclosureKind(s string) (DisclosureKind, error) {
	switch s {
	case "at_reference":
		return AtReferenceLocation, nil
	case "away_with_distance":
		return AwayWithDistance, nil
	case "away_no_reference":
		return AwayNoReference, nil
	default:
		return 0, fmt.Errorf("unknown disclosure kind %q", s)
	}
}

// MarshalJSON encodes the kind as its string identifier.
func (k DisclosureKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes the string identifier.
func (k *DisclosureKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDisclosureKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// DisclosureResult is the outcome of the disclosure policy.
// Which fields are meaningful depends on Kind:
//   - AtReferenceLocation: ReferenceName
//   - AwayWithDistance: Label, DistanceKm
//   - AwayNoReference: Label
type DisclosureResult struct {
	Kind          DisclosureKind `json:"kind"`
	ReferenceName string         `json:"reference_name,omitempty"`
	Label         string         `json:"label,omitempty"`
	DistanceKm    int            `json:"distance_km,omitempty"`
}

// NeedsLabel reports whether the outcome reveals a locality label.
func (d DisclosureResult) NeedsLabel() bool {
	return d.Kind == AwayWithDistance || d.Kind == AwayNoReference
}

// Place returns what the outcome reveals about where the person is:
// the reference name or the locality label.
func (d DisclosureResult) Place() string {
	if d.Kind == AtReferenceLocation {
		return d.ReferenceName
	}
	return d.Label
}

// Sentence renders the outcome as a natural-language answer about name.
func (d DisclosureResult) Sentence(name string) string {
	switch d.Kind {
	case AtReferenceLocation:
		return fmt.Sprintf("%s is at %s.", name, d.ReferenceName)
	case AwayWithDistance:
		return fmt.Sprintf("%s is on %s, which is %d kilometers away.", name, d.Label, d.DistanceKm)
	case AwayNoReference:
		return fmt.Sprintf("%s is on %s.", name, d.Label)
	default:
		return ""
	}
}
