// Package ffprobe wraps ffprobe JSON output.
//
// Inspect returns the full stream and format listing used by `vidforge
// inspect`. Prober condenses it to the Info facts the assembly pipeline
// depends on: duration, which stream types exist, audio channel count, and
// frame size.
package ffprobe
