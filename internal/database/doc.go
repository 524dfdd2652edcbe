// Package database provides SQLite-based storage for the lookup history.
//
// Every answered "where is NAME" request can be recorded as one row holding
// what the answer already disclosed: the query, the matched display name,
// the outcome kind, the place label or reference name and the rounded
// distance. Failed lookups keep a short error class instead.
//
// The history never holds passwords, cookies, session state or raw
// coordinates. The account is stored as a SHA3-256 fingerprint of the
// username so rows of different accounts can be told apart without
// revealing the address.
//
// SQLite is provided by modernc.org/sqlite, a CGO-free driver, so the
// binary cross-compiles without a C toolchain.
package database
