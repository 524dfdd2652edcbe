package model

// Credentials are the Google account credentials used for one lookup.
// Both values are opaque and are never logged or stored.
type Credentials struct {
	// Username is the account e-mail address.
	Username string `json:"-"`

	// Password is the account password.
	Password string `json:"-"`
}

// Complete reports whether both username and password are present.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// ReferenceLocation is the configured place against which proximity is judged,
// for example "home". A nil *ReferenceLocation means no reference is configured.
type ReferenceLocation struct {
	// Name is the human-readable place name used in answers.
	Name string `json:"name" yaml:"name"`

	// Radius is the distance in kilometers within which a person is
	// considered to be at the reference location.
	Radius float64 `json:"radius" yaml:"radius"`

	// Latitude of the reference point in degrees.
	Latitude float64 `json:"latitude" yaml:"latitude"`

	// Longitude of the reference point in degrees.
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// UserLocationRecord is one person sharing their location with the account.
// Latitude and Longitude are nil when the record did not carry a position in
// the expected shape.
type UserLocationRecord struct {
	ID          string   `json:"id"`
	PhotoURL    string   `json:"photo_url,omitempty"`
	DisplayName string   `json:"display_name"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// HasPosition reports whether both coordinates are known.
func (r UserLocationRecord) HasPosition() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// ResolvedUser is the record judged closest to a query name.
type ResolvedUser struct {
	Record UserLocationRecord `json:"record"`

	// Score is the edit distance between query and display name.
	// Lower is better; zero is an exact (case-insensitive) match.
	Score int `json:"score"`
}
