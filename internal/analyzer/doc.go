// Package analyzer runs the external code analyzer and decodes its findings.
//
// The analyzer is launched as `[interpreter] <analyzer> <file> --json` with its
// working directory set to the analyzer's own directory. On success it writes a
// JSON array of findings to a fixed sibling file (review.json by default) and
// exits 0; standard output is ignored so large payloads never pass through a
// pipe.
//
// Every run writes the same output file, so runs are serialized in-process and
// guarded by a file lock against other processes. Concurrent requests for the
// same path are coalesced into a single run whose result all callers share.
package analyzer
