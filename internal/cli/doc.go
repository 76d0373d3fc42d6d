// Package cli wires together the Cobra command tree for the concord binary.
//
// It defines the root command and all subcommands (review, config, models,
// version), binds flags, reads configuration, drives the pack/review/
// synthesize pipeline, and returns deterministic exit codes for CI use.
package cli
