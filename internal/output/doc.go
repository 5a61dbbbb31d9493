// Package output formats review reports for display or machine consumption.
//
// Four formats are supported:
//   - text     — human-readable terminal output (default), colored when
//     writing to a terminal
//   - json     — full structured JSON report
//   - markdown — PR-comment-friendly with collapsible sections per tier
//   - sarif    — SARIF v2.1.0 with column regions and replacement fixes
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*review.Report]. [WriteReport]
// handles destination selection.
package output
