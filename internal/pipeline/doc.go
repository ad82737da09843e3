// Package pipeline drives a project from prompts to a finished video.
//
// A Controller runs a fixed, strategy-dependent sequence of stages: scene
// generation through the batch scheduler, audio stripping, voiceover and
// music generation, mixing, concatenation and the final merge. Scene,
// strip, concat and merge failures are fatal; voiceover, music and mix
// failures are recorded as warnings and the run continues without them.
//
// Every executed stage appends one StageResult to the Report, which is
// written to work/assembly_report.json and recorded in the history ledger.
// A status table is rendered before and after each stage.
package pipeline
