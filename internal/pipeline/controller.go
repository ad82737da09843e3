package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vidforge/internal/batch"
	"vidforge/internal/fileutil"
	"vidforge/internal/history"
	"vidforge/internal/job"
	"vidforge/internal/logging"
	"vidforge/internal/media/ffmpeg"
	"vidforge/internal/media/ffprobe"
	"vidforge/internal/project"
	"vidforge/internal/services"
)

// Prober reports media facts. It is optional; without it the controller
// uses graphs that need no probing.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// Recorder persists finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, run history.Run) error
}

// Deps are the collaborators a Controller uses. Only Transcoder is required
// for a real run; missing providers fail their stage.
type Deps struct {
	Registry   *job.Registry
	Transcoder ffmpeg.Transcoder
	Prober     Prober
	History    Recorder
	// Policies overrides job.DefaultPolicy per kind.
	Policies       map[job.Kind]job.Policy
	Clock          job.Clock
	MaxConcurrency int
	// BatchReporter receives scene generation snapshots.
	BatchReporter batch.Reporter
	Logger        *slog.Logger
	// Status receives the rendered stage table; nil disables it.
	Status io.Writer
	Now    func() time.Time
	NewID  func() string
}

// RunOptions select run variants.
type RunOptions struct {
	SkipGeneration bool
	DryRun         bool
}

// Controller assembles one project.
type Controller struct {
	dir    string
	cfg    *project.Config
	layout project.Layout
	deps   Deps
	logger *slog.Logger
}

// New builds a controller for the project at dir.
func New(dir string, cfg *project.Config, deps Deps) *Controller {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Registry == nil {
		deps.Registry = job.NewRegistry()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	c := &Controller{
		dir:    dir,
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "assemble"),
	}
	if cfg != nil {
		c.layout = project.NewLayout(dir, cfg.Slug())
	}
	return c
}

// Layout returns the project's filesystem layout.
func (c *Controller) Layout() project.Layout { return c.layout }

// Run executes the plan for the project's strategy. The returned report is
// complete even when err is non-nil, except for validation and lock errors,
// which happen before any stage and leave nothing on disk.
func (c *Controller) Run(ctx context.Context, opts RunOptions) (Report, error) {
	started := c.deps.Now()
	report := Report{
		RunID:          c.deps.NewID(),
		ProjectDir:     c.dir,
		DryRun:         opts.DryRun,
		SkipGeneration: opts.SkipGeneration,
		StartedAt:      started,
	}
	if c.cfg == nil {
		return report, services.Wrap(services.ErrValidation, "assemble", "load", "project configuration is missing", nil)
	}
	report.Project = c.cfg.Name
	report.Strategy = string(c.cfg.AudioStrategy)
	if err := c.cfg.Validate(); err != nil {
		report.Error = err.Error()
		return report, err
	}
	if !opts.DryRun && c.deps.Transcoder == nil {
		err := services.Wrap(services.ErrConfiguration, "assemble", "init", "no transcoder configured", nil)
		report.Error = err.Error()
		return report, err
	}
	if err := c.layout.EnsureDirs(); err != nil {
		report.Error = err.Error()
		return report, fmt.Errorf("prepare project directories: %w", err)
	}
	if !opts.DryRun {
		lock, err := project.AcquireLock(c.layout)
		if err != nil {
			report.Error = err.Error()
			return report, err
		}
		defer func() { _ = lock.Release() }()
	}

	ctx = services.WithRunID(ctx, report.RunID)
	ctx = services.WithProject(ctx, c.cfg.Slug())
	logger := logging.WithContext(ctx, c.logger)

	plan := Plan(c.cfg, opts.SkipGeneration)
	r := &run{
		Controller: c,
		board:      newBoard(c.deps.Status, c.cfg, plan),
		dryRun:     opts.DryRun,
	}
	logger.Info("assembly started",
		logging.String("strategy", string(c.cfg.AudioStrategy)),
		logging.Int("scenes", len(c.cfg.Scenes)),
		logging.Int("stages", len(plan)),
		logging.Bool("dry_run", opts.DryRun),
		logging.Bool("skip_generation", opts.SkipGeneration),
	)
	r.board.render()

	var runErr error
	for _, p := range plan {
		if p.Skipped {
			continue
		}
		res, err := r.stage(ctx, p.Name)
		report.Stages = append(report.Stages, res)
		if err != nil && p.Name.Fatal() {
			runErr = fmt.Errorf("%s: %w", p.Name, err)
			break
		}
	}

	finished := c.deps.Now()
	report.FinishedAt = finished
	report.Elapsed = finished.Sub(started)
	report.TotalSeconds = report.Elapsed.Seconds()
	report.Success = runErr == nil
	if runErr != nil {
		report.Error = runErr.Error()
	} else if !opts.DryRun {
		report.OutputFile = c.layout.FinalOutput()
	}
	c.persist(ctx, logger, report)

	if runErr != nil {
		logging.ErrorWithContext(logger, "assembly failed", "assembly_failed",
			logging.Error(runErr),
			logging.Duration("elapsed", report.Elapsed),
			logging.String(logging.FieldErrorHint, "inspect "+c.layout.Report()+" and rerun with --skip-generation once fixed"),
		)
		return report, runErr
	}
	logger.Info("assembly completed",
		logging.String("output", report.OutputFile),
		logging.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (c *Controller) persist(ctx context.Context, logger *slog.Logger, report Report) {
	if err := fileutil.WriteJSON(c.layout.Report(), report); err != nil {
		logging.WarnWithContext(logger, "failed to write assembly report", "report_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "report file missing; history ledger still records the run"),
		)
	}
	if c.deps.History == nil {
		return
	}
	if err := c.deps.History.RecordRun(context.WithoutCancel(ctx), report.HistoryRun()); err != nil {
		logging.WarnWithContext(logger, "failed to record run history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will not appear in vidforge history"),
		)
	}
}

func (c *Controller) policy(kind job.Kind) job.Policy {
	if p, ok := c.deps.Policies[kind]; ok {
		return p
	}
	return job.DefaultPolicy()
}

// run carries per-invocation state.
type run struct {
	*Controller
	board  *board
	dryRun bool
}

// stageOutput is what a stage hands back on success.
type stageOutput struct {
	path  string
	files []string
	note  string
}

func (r *run) stage(ctx context.Context, name StageName) (StageResult, error) {
	ctx = services.WithStage(ctx, string(name))
	logger := logging.WithContext(ctx, r.logger)
	r.board.start(name)
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	started := r.deps.Now()
	var (
		out stageOutput
		err error
	)
	if r.dryRun {
		out = stageOutput{note: "dry run"}
	} else {
		out, err = r.execute(ctx, logger, name)
	}
	res := StageResult{
		Name:    name,
		Success: err == nil,
		Elapsed: r.deps.Now().Sub(started),
		Output:  out.path,
		Files:   out.files,
		Note:    out.note,
		DryRun:  r.dryRun,
	}
	switch {
	case err == nil:
		logger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("elapsed", res.Elapsed),
			logging.String("output", res.Output),
			logging.String("note", res.Note),
		)
	case name.Fatal():
		res.recordFailure(err)
		logging.ErrorWithContext(logger, "stage failed", "stage_failed",
			logging.Error(err),
			logging.String("error_category", res.Category),
			logging.String("diagnostic", res.Diagnostic),
			logging.Duration("elapsed", res.Elapsed),
		)
	default:
		res.recordFailure(err)
		logging.WarnWithContext(logger, "stage failed; continuing without it", "stage_degraded",
			logging.Error(err),
			logging.String("error_category", res.Category),
			logging.String("diagnostic", res.Diagnostic),
			logging.String(logging.FieldImpact, "final video is assembled without this stage's output"),
		)
	}
	r.board.finish(res)
	return res, err
}

func (res *StageResult) recordFailure(err error) {
	res.Error = err.Error()
	res.Category = services.Category(err)
	var toolErr *ffmpeg.ToolError
	if errors.As(err, &toolErr) {
		res.Diagnostic = toolErr.Diagnostic()
	}
}

func (r *run) execute(ctx context.Context, logger *slog.Logger, name StageName) (stageOutput, error) {
	switch name {
	case StageGenerateScenes:
		return r.generateScenes(ctx, logger)
	case StageStripAudio:
		return r.stripAudio(ctx)
	case StageGenerateVoiceover:
		return r.generateVoiceover(ctx, logger)
	case StageGenerateMusic:
		return r.generateMusic(ctx, logger)
	case StageMixAudio:
		return r.mixAudio(ctx, logger)
	case StageConcatenate:
		return r.concatenate(ctx, logger)
	case StageMerge:
		return r.merge(ctx)
	default:
		return stageOutput{}, fmt.Errorf("unknown stage %q", name)
	}
}
