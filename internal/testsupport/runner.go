package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vidforge/internal/job"
)

// FakeRunner is a job.Runner that returns scripted statuses keyed by prompt
// and writes a small artifact for every success.
type FakeRunner struct {
	Statuses map[string]job.Status
	// Delay blocks each Run in real time so concurrency can be observed.
	Delay time.Duration

	mu      sync.Mutex
	calls   []job.Spec
	dests   []string
	active  int
	peak    int
	started []string
}

// NewFakeRunner returns a runner whose jobs all succeed.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Statuses: map[string]job.Status{}}
}

func (r *FakeRunner) Run(ctx context.Context, spec job.Spec, dest string) job.Status {
	r.mu.Lock()
	r.calls = append(r.calls, spec)
	r.dests = append(r.dests, dest)
	r.started = append(r.started, spec.Prompt)
	r.active++
	if r.active > r.peak {
		r.peak = r.active
	}
	status, scripted := r.Statuses[spec.Prompt]
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.active--
		r.mu.Unlock()
	}()

	if r.Delay > 0 {
		select {
		case <-ctx.Done():
			return job.Failed(ctx.Err().Error())
		case <-time.After(r.Delay):
		}
	}
	if scripted && !status.OK() {
		return status
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return job.Failed(err.Error())
	}
	if err := os.WriteFile(dest, []byte(spec.Prompt), 0o644); err != nil {
		return job.Failed(err.Error())
	}
	return job.Succeeded(dest)
}

// Calls returns the specs run so far.
func (r *FakeRunner) Calls() []job.Spec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]job.Spec(nil), r.calls...)
}

// Dests returns the destination paths requested so far.
func (r *FakeRunner) Dests() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dests...)
}

// Peak reports the maximum number of concurrent Run calls observed.
func (r *FakeRunner) Peak() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peak
}
