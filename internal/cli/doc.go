// Package cli wires together the Cobra command tree for the lens binary.
//
// It defines the root command and all subcommands (review, fix, serve,
// config, cache, hook, version), binds flags, reads configuration, builds the
// review session, and returns deterministic exit codes for CI gating.
package cli
