// Package config loads, normalizes, and validates vidforge tool configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as GOOGLE_API_KEY and
// SUNO_API_KEY. Provider credentials, poll timing, batch concurrency, and the
// ffmpeg toolchain are all resolved here in one pass.
//
// Per-project assembly settings live in project.json and are handled by the
// project package; this package only covers settings shared by every run.
package config
