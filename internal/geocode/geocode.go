// Package geocode turns a position into a human-readable locality label.
package geocode

import (
	"context"
	"errors"
	"strings"
)

// ErrNoResult is returned when the service knows nothing about a position.
var ErrNoResult = errors.New("no reverse geocoding result")

// Place is the part of a reverse geocoding result used in answers.
type Place struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// Label renders the place as "street, city, country", skipping empty parts.
func (p Place) Label() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Street, p.City, p.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// ReverseGeocoder resolves coordinates in degrees to a Place.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (Place, error)
}

// Static always answers with the same Place. It serves offline runs and
// tests. A zero Place answers ErrNoResult.
type Static struct {
	Place Place
}

// Reverse implements ReverseGeocoder.
func (s Static) Reverse(ctx context.Context, _, _ float64) (Place, error) {
	if err := ctx.Err(); err != nil {
		return Place{}, err
	}
	if s.Place.Label() == "" {
		return Place{}, ErrNoResult
	}
	return s.Place, nil
}
