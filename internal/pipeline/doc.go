// Package pipeline runs the steps of one location lookup in sequence.
//
// A lookup is processed in stages: authenticating against the login pages,
// fetching the shared locations, resolving the queried name, reverse
// geocoding the match and applying the disclosure policy. Each stage is a
// Step that receives the current model.Lookup and adds its output to it.
//
// The pipeline is fail-fast: the first failing step aborts the lookup and
// no partial answer is produced. Several names can be looked up
// concurrently with BatchProcessor; each name gets its own pipeline and
// therefore its own login session.
package pipeline
