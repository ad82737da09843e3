package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vidforge/internal/job"
	"vidforge/internal/logging"
	"vidforge/internal/services"
)

// DefaultMaxConcurrency bounds in-flight jobs when callers pass zero.
const DefaultMaxConcurrency = 5

// Result summarizes a finished batch.
type Result struct {
	Entries []Entry
	// Files holds artifact paths in index order, "" for failed entries.
	Files     []string
	Succeeded int
	Failed    int
	Elapsed   time.Duration
	Success   bool
}

// FailedEntries returns the entries that did not succeed.
func (r Result) FailedEntries() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if !e.Status.OK() {
			out = append(out, e)
		}
	}
	return out
}

// Scheduler fans specs out over a job.Runner.
type Scheduler struct {
	runner         job.Runner
	outputDir      string
	reporter       Reporter
	logger         *slog.Logger
	maxConcurrency int
	now            func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithReporter registers a snapshot callback.
func WithReporter(r Reporter) Option {
	return func(s *Scheduler) { s.reporter = r }
}

// WithLogger sets the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxConcurrency sets the default bound used when RunBatch receives 0.
func WithMaxConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// New constructs a scheduler writing artifacts under outputDir.
func New(runner job.Runner, outputDir string, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:         runner,
		outputDir:      outputDir,
		logger:         logging.NewNop(),
		maxConcurrency: DefaultMaxConcurrency,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "batch")
	return s
}

// RunBatch runs specs with at most maxConcurrency in flight. It always
// returns after every job is terminal; a failed job never cancels others.
func (s *Scheduler) RunBatch(ctx context.Context, specs []job.Spec, maxConcurrency int) Result {
	start := s.now()
	if maxConcurrency <= 0 {
		maxConcurrency = s.maxConcurrency
	}
	entries := s.plan(specs)
	tracker := NewTracker(entries, s.reporter)
	sampler := logging.NewProgressSampler(25)
	var samplerMu sync.Mutex

	s.logger.Info("batch started",
		logging.Int("jobs", len(entries)),
		logging.Int("max_concurrency", maxConcurrency),
		logging.String("output_dir", s.outputDir),
	)

	// No WithContext: sibling failures must not cancel the group.
	var g errgroup.Group
	g.SetLimit(maxConcurrency)
	for _, entry := range entries {
		g.Go(func() error {
			jobCtx := services.WithJobIndex(ctx, entry.Index)
			status := s.runOne(jobCtx, tracker, entry)
			tracker.Update(entry.Index, status)
			snap := tracker.Snapshot()
			samplerMu.Lock()
			defer samplerMu.Unlock()
			if sampler.ShouldLog(snap.Percent(), "") {
				s.logger.Info("batch progress",
					logging.Int("succeeded", snap.Succeeded),
					logging.Int("failed", snap.Failed),
					logging.Int("total", snap.Total),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	final := tracker.Entries()
	result := Result{Entries: final, Files: make([]string, len(final)), Elapsed: s.now().Sub(start)}
	for i, e := range final {
		if e.Status.OK() {
			result.Files[i] = e.Status.Path
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	result.Success = result.Failed == 0
	s.logger.Info("batch finished",
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result
}

func (s *Scheduler) runOne(ctx context.Context, tracker *Tracker, entry Entry) (status job.Status) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("batch job panicked", logging.Int(logging.FieldJobIndex, entry.Index), logging.Any("panic", r))
			status = job.Failed(fmt.Sprintf("panic: %v", r))
		}
	}()
	if err := ctx.Err(); err != nil {
		return job.Failed(fmt.Sprintf("cancelled: %v", err))
	}
	tracker.Update(entry.Index, job.Running())
	status = s.runner.Run(ctx, entry.Spec, entry.Path)
	if !status.Terminal() {
		return job.Failed(fmt.Sprintf("runner returned non-terminal status %s", status.State))
	}
	if !status.OK() {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "batch job did not succeed", "batch_job_failed",
			logging.Int(logging.FieldJobIndex, entry.Index),
			logging.String("job", entry.Label),
			logging.String("state", status.State.String()),
			logging.String("reason", status.Reason),
			logging.String(logging.FieldImpact, "entry omitted from batch output"),
		)
	}
	return status
}

// plan assigns every spec a unique destination. Explicit output names are
// kept when unique; duplicates and unnamed specs get an index suffix.
func (s *Scheduler) plan(specs []job.Spec) []Entry {
	entries := make([]Entry, len(specs))
	used := make(map[string]int, len(specs))
	for i, spec := range specs {
		name := OutputName(spec, i)
		key := strings.ToLower(name)
		for suffix := i + 1; ; suffix++ {
			if _, dup := used[key]; !dup {
				break
			}
			ext := filepath.Ext(name)
			name = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(OutputName(spec, i), ext), suffix, ext)
			key = strings.ToLower(name)
		}
		used[key] = i
		entries[i] = Entry{
			Index: i,
			Spec:  spec,
			Label: spec.Label(),
			Path:  filepath.Join(s.outputDir, name),
		}
	}
	return entries
}

// OutputName returns the file name a spec writes to, before deduplication.
func OutputName(spec job.Spec, index int) string {
	name := filepath.Base(strings.TrimSpace(spec.OutputName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fmt.Sprintf("%s_%02d%s", spec.Kind, index+1, spec.Kind.Extension())
	}
	if filepath.Ext(name) == "" {
		name += spec.Kind.Extension()
	}
	return name
}
