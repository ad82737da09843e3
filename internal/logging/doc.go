// Package logging assembles structured slog loggers and formatting helpers used
// across vidforge.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs, stage names, and batch job indexes. Console output goes
// to stderr so stdout stays free for status tables and JSON reports; the
// optional log file always receives JSON.
package logging
