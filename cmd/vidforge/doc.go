// Package main hosts the vidforge CLI entrypoint and command graph.
//
// The Cobra-based command tree wires configuration, logging, the provider
// registry and the transcoder into the internal packages: project assembly,
// project scaffolding, standalone batch and extension runs, run history,
// media inspection, and preflight status.
//
// Keep this package lean: behavior lives in internal packages and commands
// here only translate flags and render results.
package main
