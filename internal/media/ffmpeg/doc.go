// Package ffmpeg executes filtergraph.Graph invocations.
//
// Runner captures stderr so a failed invocation surfaces as a ToolError
// carrying ffmpeg's own diagnostic alongside the exit code.
package ffmpeg
