// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: the plain answers, one per line, for terminals and
//     voice front ends
//   - JSONWriter: structured JSON output for tool integration
//   - MarkdownWriter: tables for sharing
//
// Every writer renders lookups through Summary, which carries only what
// the answer disclosed. Raw coordinates of tracked people never reach a
// report.
package report
