// Package location reads the private location-sharing endpoint and turns
// its framed JSON payload into model.UserLocationRecord values.
//
// The payload is positional and undocumented. Parsing is a narrow adapter:
// only the handful of indices listed in ParsePayload are read and any shape
// deviation inside a record degrades that record instead of failing the
// whole fetch.
package location
