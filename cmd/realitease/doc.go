// Package main hosts the realitease CLI entrypoint and command graph.
//
// The Cobra-based command tree runs single pipeline stages or a sub-range of
// the pipeline, reports readiness, and maintains the checkpoint and lease
// tables of the state database. It centralizes configuration resolution and
// logging setup so subcommands can focus on user experience instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
