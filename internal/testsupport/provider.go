package testsupport

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"vidforge/internal/job"
	"vidforge/internal/services"
)

// FakeOutcome scripts how a FakeProvider treats one prompt.
type FakeOutcome struct {
	// PollsBeforeDone is the number of Running observations before the
	// terminal one.
	PollsBeforeDone int
	// FailReason makes the terminal observation a provider failure.
	FailReason string
	SubmitErr  error
	// PollErrs are returned, in order, by the first polls.
	PollErrs []error
	FetchErr error
	// Never keeps the job Running forever.
	Never bool
	// Sync answers Submit with the finished result.
	Sync bool
	// Delay makes each Poll block in real time.
	Delay time.Duration
}

// FakeProvider is a scriptable job.Provider keyed by spec prompt.
type FakeProvider struct {
	ProviderName string
	Outcomes     map[string]FakeOutcome
	Default      FakeOutcome

	mu         sync.Mutex
	nextID     int
	submitted  []job.Spec
	ops        map[string]job.Spec
	polls      map[string]int
	running    int
	maxRunning int
}

// NewFakeProvider returns a provider whose jobs succeed on the first poll.
func NewFakeProvider(name string) *FakeProvider {
	return &FakeProvider{
		ProviderName: name,
		Outcomes:     map[string]FakeOutcome{},
		ops:          map[string]job.Spec{},
		polls:        map[string]int{},
	}
}

func (f *FakeProvider) Name() string { return f.ProviderName }

func (f *FakeProvider) outcome(prompt string) FakeOutcome {
	if o, ok := f.Outcomes[prompt]; ok {
		return o
	}
	return f.Default
}

func (f *FakeProvider) Submit(_ context.Context, spec job.Spec) (job.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, spec)
	o := f.outcome(spec.Prompt)
	if o.SubmitErr != nil {
		return job.Handle{}, o.SubmitErr
	}
	f.nextID++
	id := fmt.Sprintf("op-%d", f.nextID)
	f.ops[id] = spec
	handle := job.Handle{ID: id, Provider: f.ProviderName, Kind: spec.Kind}
	if o.Sync {
		obs := f.terminalLocked(spec, o)
		handle.Result = &obs
		return handle, nil
	}
	f.running++
	if f.running > f.maxRunning {
		f.maxRunning = f.running
	}
	return handle, nil
}

func (f *FakeProvider) Poll(ctx context.Context, handle job.Handle) (job.Observation, error) {
	f.mu.Lock()
	spec, ok := f.ops[handle.ID]
	o := f.outcome(spec.Prompt)
	f.mu.Unlock()
	if !ok {
		return job.Observation{}, services.Wrap(services.ErrTerminal, f.ProviderName, "poll", "unknown operation "+handle.ID, nil)
	}
	if o.Delay > 0 {
		select {
		case <-ctx.Done():
			return job.Observation{}, ctx.Err()
		case <-time.After(o.Delay):
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	count := f.polls[handle.ID]
	f.polls[handle.ID] = count + 1
	if count < len(o.PollErrs) {
		return job.Observation{}, o.PollErrs[count]
	}
	count -= len(o.PollErrs)
	if o.Never || count < o.PollsBeforeDone {
		return job.Observation{State: job.StateRunning, Progress: -1}, nil
	}
	f.running--
	return f.terminalLocked(spec, o), nil
}

func (f *FakeProvider) terminalLocked(spec job.Spec, o FakeOutcome) job.Observation {
	if o.FailReason != "" {
		return job.Observation{State: job.StateFailed, Reason: o.FailReason}
	}
	return job.Observation{State: job.StateSucceeded, Data: []byte(f.ProviderName + ":" + spec.Prompt), Progress: 100}
}

func (f *FakeProvider) Fetch(_ context.Context, obs job.Observation, dest string) error {
	f.mu.Lock()
	var fetchErr error
	for prompt, o := range f.Outcomes {
		if o.FetchErr != nil && string(obs.Data) == f.ProviderName+":"+prompt {
			fetchErr = o.FetchErr
		}
	}
	f.mu.Unlock()
	if fetchErr != nil {
		return fetchErr
	}
	return os.WriteFile(dest, obs.Data, 0o644)
}

// Submitted returns every spec passed to Submit, in call order.
func (f *FakeProvider) Submitted() []job.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]job.Spec(nil), f.submitted...)
}

// PollCount returns how many times handle id was polled.
func (f *FakeProvider) PollCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls[id]
}

// MaxConcurrent reports the peak number of in-flight async jobs.
func (f *FakeProvider) MaxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxRunning
}
