package pipeline

import (
	"time"

	"vidforge/internal/project"
)

// StageName identifies one pipeline stage.
type StageName string

const (
	StageGenerateScenes    StageName = "generate_scenes"
	StageStripAudio        StageName = "strip_audio"
	StageGenerateVoiceover StageName = "generate_voiceover"
	StageGenerateMusic     StageName = "generate_music"
	StageMixAudio          StageName = "mix_audio"
	StageConcatenate       StageName = "concatenate_videos"
	StageMerge             StageName = "merge_audio_video"
)

// Order is the fixed execution order; a plan is always a subsequence.
var Order = []StageName{
	StageGenerateScenes,
	StageStripAudio,
	StageGenerateVoiceover,
	StageGenerateMusic,
	StageMixAudio,
	StageConcatenate,
	StageMerge,
}

// Fatal reports whether a failure of s aborts the run.
func (s StageName) Fatal() bool {
	switch s {
	case StageGenerateVoiceover, StageGenerateMusic, StageMixAudio:
		return false
	default:
		return true
	}
}

// Generation reports whether s calls a remote provider.
func (s StageName) Generation() bool {
	return s == StageGenerateScenes || s == StageGenerateVoiceover || s == StageGenerateMusic
}

// StageResult records one executed stage.
type StageResult struct {
	Name       StageName     `json:"name"`
	Success    bool          `json:"success"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Output     string        `json:"output,omitempty"`
	Files      []string      `json:"files,omitempty"`
	Error      string        `json:"error,omitempty"`
	Category   string        `json:"category,omitempty"`
	Diagnostic string        `json:"diagnostic,omitempty"` // full stderr of a failed external tool
	Note       string        `json:"note,omitempty"`
	DryRun     bool          `json:"dry_run,omitempty"`
}

// PlannedStage is a stage selected for a run. Skipped stages are shown in
// the status table but never executed or reported.
type PlannedStage struct {
	Name    StageName
	Skipped bool
}

// Plan selects the stages for cfg's strategy, in Order.
func Plan(cfg *project.Config, skipGeneration bool) []PlannedStage {
	include := map[StageName]bool{
		StageGenerateScenes: true,
		StageConcatenate:    true,
	}
	switch cfg.AudioStrategy {
	case project.StrategySilent:
		include[StageStripAudio] = true
	case project.StrategyCustom:
		include[StageStripAudio] = true
		include[StageGenerateVoiceover] = cfg.Voiceover.Enabled
		include[StageGenerateMusic] = cfg.Music.Enabled
		include[StageMixAudio] = true
		include[StageMerge] = true
	}

	plan := make([]PlannedStage, 0, len(Order))
	for _, name := range Order {
		if !include[name] {
			continue
		}
		plan = append(plan, PlannedStage{Name: name, Skipped: skipGeneration && name.Generation()})
	}
	return plan
}
