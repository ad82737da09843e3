package pipeline

import (
	"time"

	"vidforge/internal/history"
)

// Report summarizes one run. It is written as JSON next to the work files.
type Report struct {
	RunID          string        `json:"run_id"`
	Project        string        `json:"project"`
	ProjectDir     string        `json:"project_dir"`
	Strategy       string        `json:"audio_strategy"`
	Success        bool          `json:"success"`
	DryRun         bool          `json:"dry_run,omitempty"`
	SkipGeneration bool          `json:"skip_generation,omitempty"`
	OutputFile     string        `json:"output_file,omitempty"`
	Error          string        `json:"error,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Elapsed        time.Duration `json:"elapsed_ns"`
	TotalSeconds   float64       `json:"total_time"`
	Stages         []StageResult `json:"steps"`
}

// Stage returns the result for name, if it ran.
func (r Report) Stage(name StageName) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageResult{}, false
}

// StageNames lists executed stages in order.
func (r Report) StageNames() []StageName {
	names := make([]StageName, 0, len(r.Stages))
	for _, s := range r.Stages {
		names = append(names, s.Name)
	}
	return names
}

// HistoryRun converts the report into a ledger row.
func (r Report) HistoryRun() history.Run {
	run := history.Run{
		ID:         r.RunID,
		Project:    r.Project,
		ProjectDir: r.ProjectDir,
		Strategy:   r.Strategy,
		Success:    r.Success,
		DryRun:     r.DryRun,
		OutputFile: r.OutputFile,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Elapsed:    r.Elapsed,
	}
	for _, s := range r.Stages {
		run.Stages = append(run.Stages, history.Stage{
			Name:     string(s.Name),
			Success:  s.Success,
			Elapsed:  s.Elapsed,
			Output:   s.Output,
			Error:    s.Error,
			Category: s.Category,
			Note:     s.Note,
		})
	}
	return run
}
