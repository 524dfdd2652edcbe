// Package disclosure decides how much of a person's position is revealed.
//
// With no reference location configured, only the locality label is
// revealed. With a reference, a person inside its radius is reported as
// being "at" the reference; outside it, the locality label and the rounded
// distance are revealed. Raw coordinates are never part of the outcome.
package disclosure

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/nao1215/locshare/internal/model"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points given in
// degrees.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusKm
}

// Policy applies the proximity rule against an optional reference.
type Policy struct {
	reference *model.ReferenceLocation
}

// NewPolicy creates a Policy. A nil reference means none is configured.
func NewPolicy(reference *model.ReferenceLocation) *Policy {
	return &Policy{reference: reference}
}

// Reference returns the configured reference, or nil.
func (p *Policy) Reference() *model.ReferenceLocation {
	return p.reference
}

// Classify returns the outcome kind for a position and the unrounded
// distance to the reference (0 without a reference).
func (p *Policy) Classify(lat, lon float64) (model.DisclosureKind, float64) {
	if p.reference == nil {
		return model.AwayNoReference, 0
	}

	d := DistanceKm(lat, lon, p.reference.Latitude, p.reference.Longitude)
	if d <= p.reference.Radius {
		return model.AtReferenceLocation, d
	}
	return model.AwayWithDistance, d
}

// NeedsLabel reports whether the outcome for a position reveals a locality
// label, in which case a reverse geocoding result is required.
func (p *Policy) NeedsLabel(lat, lon float64) bool {
	kind, _ := p.Classify(lat, lon)
	return kind != model.AtReferenceLocation
}

// Decide builds the outcome for a position. label is ignored when the
// person is at the reference location.
func (p *Policy) Decide(lat, lon float64, label string) model.DisclosureResult {
	kind, d := p.Classify(lat, lon)
	switch kind {
	case model.AtReferenceLocation:
		return model.DisclosureResult{Kind: kind, ReferenceName: p.reference.Name}
	case model.AwayWithDistance:
		return model.DisclosureResult{Kind: kind, Label: label, DistanceKm: int(math.Round(d))}
	default:
		return model.DisclosureResult{Kind: kind, Label: label}
	}
}
