// Package main provides the entry point for the locshare CLI.
//
// locshare answers "where is NAME" questions from the locations people
// share with a Google account. It signs in through the no-JavaScript login
// pages, reads the shared locations, picks the person whose name is closest
// to the question and answers with a street, a distance or a named place.
//
// Usage:
//
//	locshare locate <name>
//	locshare history [name]
//
// See --help for all available options.
package main

// main is the entry point for locshare.
func main() {
	Execute()
}
