// Lens manages review sessions for an external code analyzer.
//
// It runs the analyzer over a file, places each finding on a precise range of
// the source, and applies single-line suggested fixes after a safety check.
// The same session backs a command line and a language server.
//
// Usage:
//
//	lens review app.py                 # review a file and print diagnostics
//	lens review --staged --fail-on error   # gate staged changes in CI or a hook
//	lens review --watch app.py         # review again on every save
//	lens fix apply app.py --line 3     # apply the suggested fix on line 3
//	lens serve                         # language server on stdin/stdout
//
// See https://github.com/dshills/lens for full documentation.
package main
