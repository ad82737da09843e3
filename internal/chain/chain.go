// Package chain extends a video by running generation steps in sequence,
// each seeded with the previous step's artifact.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vidforge/internal/job"
	"vidforge/internal/logging"
	"vidforge/internal/media/ffprobe"
	"vidforge/internal/services"
)

const (
	MinSteps = 1
	MaxSteps = 20
	// MaxSourceDuration is the longest seed the provider accepts.
	MaxSourceDuration = 141 * time.Second
	// StepIncrement is roughly how much each step adds.
	StepIncrement = 7 * time.Second
)

// Prober reports media facts for a path.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// StepBuilder produces the spec for step (1-based). The chain overrides the
// spec's seed with the current artifact.
type StepBuilder func(step int, seed string) job.Spec

// Result is the outcome of Extend.
type Result struct {
	Seed string
	// Artifacts lists every completed step's output, in order.
	Artifacts []string
	Status    job.Status
	// FailedStep is the 1-based step that failed, 0 on success.
	FailedStep int
}

// Final returns the last artifact, or the seed when no step completed.
func (r Result) Final() string {
	if len(r.Artifacts) == 0 {
		return r.Seed
	}
	return r.Artifacts[len(r.Artifacts)-1]
}

// Chain runs extension steps through a job.Runner.
type Chain struct {
	runner    job.Runner
	prober    Prober
	outputDir string
	logger    *slog.Logger
}

// New constructs a chain. prober may be nil, in which case Extend reports a
// missing collaborator.
func New(runner job.Runner, prober Prober, outputDir string, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Chain{
		runner:    runner,
		prober:    prober,
		outputDir: outputDir,
		logger:    logging.NewComponentLogger(logger, "chain"),
	}
}

// Validate checks both bounds without submitting anything.
func (c *Chain) Validate(ctx context.Context, seed string, steps int) error {
	if steps < MinSteps || steps > MaxSteps {
		return services.Wrap(services.ErrValidation, "chain", "validate",
			fmt.Sprintf("steps must be between %d and %d, got %d", MinSteps, MaxSteps, steps), nil)
	}
	if _, err := os.Stat(seed); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrValidation, "chain", "validate", "seed video not found: "+seed, nil)
		}
		return fmt.Errorf("stat seed: %w", err)
	}
	if c.prober == nil {
		return services.Wrap(services.ErrMissingCollaborator, "chain", "validate", "no media prober configured", nil)
	}
	info, err := c.prober.Probe(ctx, seed)
	if err != nil {
		return fmt.Errorf("probe seed: %w", err)
	}
	if d := info.DurationValue(); d > MaxSourceDuration {
		return services.Wrap(services.ErrValidation, "chain", "validate",
			fmt.Sprintf("seed is %s; extension requires at most %s", d.Round(time.Second), MaxSourceDuration), nil)
	}
	return nil
}

// Extend runs steps sequentially starting from seed. Bounds are checked before
// the first submission; the returned error is non-nil only for those checks.
// A failed step aborts the chain with earlier artifacts left on disk.
func (c *Chain) Extend(ctx context.Context, seed string, steps int, build StepBuilder) (Result, error) {
	result := Result{Seed: seed}
	if build == nil {
		return result, services.Wrap(services.ErrValidation, "chain", "extend", "step builder is required", nil)
	}
	if err := c.Validate(ctx, seed, steps); err != nil {
		return result, err
	}
	logger := logging.WithContext(ctx, c.logger)
	logger.Info("extension chain started",
		logging.String("seed", seed),
		logging.Int("steps", steps),
		logging.Duration("estimated_added", time.Duration(steps)*StepIncrement),
	)

	current := seed
	for step := 1; step <= steps; step++ {
		spec := build(step, current).WithSeed(current)
		if spec.Kind == "" {
			spec.Kind = job.KindVideo
		}
		dest := filepath.Join(c.outputDir, stepOutputName(spec, step))
		stepCtx := services.WithJobIndex(ctx, step)
		status := c.runner.Run(stepCtx, spec, dest)
		if !status.OK() {
			if !status.Terminal() {
				status = job.Failed(fmt.Sprintf("runner returned non-terminal status %s", status.State))
			}
			result.Status = status
			result.FailedStep = step
			logging.WarnWithContext(logger, "extension step failed; chain aborted", "chain_step_failed",
				logging.Int("step", step),
				logging.String("state", status.State.String()),
				logging.String("reason", status.Reason),
				logging.Int("completed", len(result.Artifacts)),
				logging.String(logging.FieldImpact, "later steps skipped; completed artifacts kept"),
			)
			return result, nil
		}
		result.Artifacts = append(result.Artifacts, status.Path)
		current = status.Path
		logger.Info("extension step complete", logging.Int("step", step), logging.String("path", status.Path))
	}
	result.Status = job.Succeeded(current)
	return result, nil
}

// stepOutputName keeps every step's artifact distinct; a named spec gets the
// step number appended.
func stepOutputName(spec job.Spec, step int) string {
	name := filepath.Base(strings.TrimSpace(spec.OutputName))
	if name == "" || name == "." {
		return fmt.Sprintf("extended_%02d.mp4", step)
	}
	ext := filepath.Ext(name)
	if ext == "" {
		ext = ".mp4"
	}
	return fmt.Sprintf("%s_%02d%s", strings.TrimSuffix(name, filepath.Ext(name)), step, ext)
}
