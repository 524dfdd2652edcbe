package config

import (
	"github.com/nao1215/locshare/internal/geocode"
	"github.com/nao1215/locshare/internal/location"
	"github.com/nao1215/locshare/internal/session"
)

// Endpoints holds every remote URL locshare talks to.
// Only tests and unusual deployments change them.
type Endpoints struct {
	ServiceLogin string `yaml:"service_login,omitempty"`
	Lookup       string `yaml:"lookup,omitempty"`
	Challenge    string `yaml:"challenge,omitempty"`
	Origin       string `yaml:"origin,omitempty"`
	Locations    string `yaml:"locations,omitempty"`
	Geocoder     string `yaml:"geocoder,omitempty"`
}

// DefaultEndpoints returns the production URLs.
func DefaultEndpoints() Endpoints {
	login := session.DefaultEndpoints()
	return Endpoints{
		ServiceLogin: login.ServiceLogin,
		Lookup:       login.Lookup,
		Challenge:    login.Challenge,
		Origin:       login.Origin,
		Locations:    location.DefaultEndpoint,
		Geocoder:     geocode.DefaultGoogleEndpoint,
	}
}

// Login returns the login URLs in the form the session package expects.
func (e Endpoints) Login() session.Endpoints {
	return session.Endpoints{
		ServiceLogin: e.ServiceLogin,
		Lookup:       e.Lookup,
		Challenge:    e.Challenge,
		Origin:       e.Origin,
	}
}

// merge overlays the non-empty fields of other.
func (e *Endpoints) merge(other Endpoints) {
	if other.ServiceLogin != "" {
		e.ServiceLogin = other.ServiceLogin
	}
	if other.Lookup != "" {
		e.Lookup = other.Lookup
	}
	if other.Challenge != "" {
		e.Challenge = other.Challenge
	}
	if other.Origin != "" {
		e.Origin = other.Origin
	}
	if other.Locations != "" {
		e.Locations = other.Locations
	}
	if other.Geocoder != "" {
		e.Geocoder = other.Geocoder
	}
}
