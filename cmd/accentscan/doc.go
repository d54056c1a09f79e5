// Package main hosts the accentscan CLI entrypoint and command graph.
//
// The Cobra-based command tree runs one-off analyses in the terminal, starts
// the single-page UI server, inspects and prunes the analysis history, and
// scaffolds configuration. It centralizes configuration resolution and
// logger setup so subcommands can focus on user experience instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
