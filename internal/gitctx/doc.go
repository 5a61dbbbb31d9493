// Package gitctx answers the few questions lens asks of a git repository:
// where its root and pre-commit hook live, and which files have staged or
// unstaged changes.
//
// It shells out to git, so the git binary must be on PATH.
package gitctx
