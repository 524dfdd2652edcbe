// Package model defines the core data structures used throughout locshare.
//
// This package contains the following main types:
//   - Credentials and ReferenceLocation: per-process configuration values
//   - UserLocationRecord: one tracked person as reported by the data endpoint
//   - ResolvedUser: the record chosen for a query together with its score
//   - DisclosureResult: the tagged outcome of the disclosure policy
//   - Lookup: the state threaded through one lookup pipeline run
//
// Models live in their own package so that session, location, resolve,
// disclosure, pipeline and report can share them without import cycles.
// They are serializable to JSON for report output and history storage.
package model
