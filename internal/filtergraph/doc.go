// Package filtergraph builds ffmpeg invocations for vidforge's assembly stages.
//
// Builders are pure: they validate their inputs and return a Graph describing
// inputs, the filter_complex expression, stream maps, and output options. The
// media/ffmpeg package executes graphs.
package filtergraph
