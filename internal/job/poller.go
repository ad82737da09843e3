package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"vidforge/internal/logging"
	"vidforge/internal/services"
)

// StatusFunc receives every status the poller observes, including
// intermediate Running updates with provider progress.
type StatusFunc func(Status, Observation)

// Poller drives jobs for a single provider.
type Poller struct {
	provider Provider
	policy   Policy
	clock    Clock
	logger   *slog.Logger
	onStatus StatusFunc
}

// Option customizes a Poller.
type Option func(*Poller)

// WithClock overrides the wall clock (useful for tests).
func WithClock(clock Clock) Option {
	return func(p *Poller) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithLogger sets the poller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithStatusCallback registers a callback invoked after every poll.
func WithStatusCallback(fn StatusFunc) Option {
	return func(p *Poller) {
		p.onStatus = fn
	}
}

// NewPoller constructs a poller for provider governed by policy.
func NewPoller(provider Provider, policy Policy, opts ...Option) *Poller {
	p := &Poller{
		provider: provider,
		policy:   policy,
		clock:    RealClock(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "poller").With(logging.String(logging.FieldProvider, provider.Name()))
	return p
}

// Policy returns the policy in effect.
func (p *Poller) Policy() Policy { return p.policy }

// Submit validates spec and hands it to the provider.
func (p *Poller) Submit(ctx context.Context, spec Spec) (Handle, error) {
	if err := spec.Validate(); err != nil {
		return Handle{}, services.Wrap(services.ErrValidation, "job", "submit", "invalid spec", err)
	}
	handle, err := p.provider.Submit(ctx, spec)
	if err != nil {
		return Handle{}, err
	}
	if handle.Provider == "" {
		handle.Provider = p.provider.Name()
	}
	if handle.Kind == "" {
		handle.Kind = spec.Kind
	}
	return handle, nil
}

// Poll performs a single status check.
func (p *Poller) Poll(ctx context.Context, handle Handle) (Observation, error) {
	if handle.Result != nil {
		return *handle.Result, nil
	}
	return p.provider.Poll(ctx, handle)
}

// Run submits spec and waits for it, returning a terminal status. Submission
// errors become Failed; they are never retried to avoid paying twice.
func (p *Poller) Run(ctx context.Context, spec Spec, dest string) Status {
	logger := logging.WithContext(ctx, p.logger)
	handle, err := p.Submit(ctx, spec)
	if err != nil {
		logger.Warn("job submission failed", logging.String("job", spec.Label()), logging.Error(err))
		return p.finalize(Failed(fmt.Sprintf("submit: %v", err)))
	}
	logger.Info("job submitted",
		logging.String("job", spec.Label()),
		logging.String("operation", handle.ID),
		logging.Bool("synchronous", handle.Synchronous()),
	)
	return p.AwaitCompletion(ctx, handle, dest)
}

// AwaitCompletion polls handle until it is terminal or the policy timeout
// elapses. On success the artifact is written to dest.
func (p *Poller) AwaitCompletion(ctx context.Context, handle Handle, dest string) Status {
	logger := logging.WithContext(ctx, p.logger).With(logging.String("operation", handle.ID))
	start := p.clock.Now()
	transient := 0
	p.emit(Running(), Observation{State: StateRunning, Progress: -1})

	for {
		obs, err := p.Poll(ctx, handle)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return p.finalize(Failed(fmt.Sprintf("cancelled: %v", ctxErr)))
			}
			if isTerminalError(err) {
				logger.Warn("poll returned terminal error", logging.Error(err))
				return p.finalize(Failed(err.Error()))
			}
			transient++
			if transient > p.policy.MaxTransientErrors {
				logger.Warn("poll transient error budget exhausted",
					logging.Int("attempts", transient),
					logging.Error(err),
				)
				return p.finalize(Failed(fmt.Sprintf("poll failed after %d transient errors: %v", transient, err)))
			}
			logger.Debug("transient poll error, will retry", logging.Int("attempt", transient), logging.Error(err))
			obs = Observation{State: StateRunning, Progress: -1}
		} else {
			transient = 0
		}

		elapsed := p.clock.Now().Sub(start)
		switch p.policy.NextAction(elapsed, obs.State) {
		case Done:
			return p.complete(ctx, logger, obs, dest)
		case GiveUp:
			logger.Warn("job wait budget exhausted; remote job may still complete",
				logging.Duration("elapsed", elapsed),
				logging.Duration("timeout", p.policy.Timeout),
			)
			return p.finalize(TimedOut())
		}

		p.emit(Running(), obs)
		if err := p.clock.Sleep(ctx, p.policy.Wait(elapsed)); err != nil {
			return p.finalize(Failed(fmt.Sprintf("cancelled: %v", err)))
		}
	}
}

func (p *Poller) complete(ctx context.Context, logger *slog.Logger, obs Observation, dest string) Status {
	if obs.State != StateSucceeded {
		reason := strings.TrimSpace(obs.Reason)
		if reason == "" {
			reason = "provider reported failure"
		}
		logger.Warn("job failed", logging.String("reason", reason))
		return p.finalize(Failed(reason))
	}
	if strings.TrimSpace(dest) == "" {
		return p.finalize(Failed("no destination path for artifact"))
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return p.finalize(Failed(fmt.Sprintf("create artifact directory: %v", err)))
	}

	var lastErr error
	for attempt := 0; attempt <= p.policy.MaxTransientErrors; attempt++ {
		lastErr = p.provider.Fetch(ctx, obs, dest)
		if lastErr == nil {
			logger.Info("job artifact saved", logging.String("path", dest))
			return p.finalize(Succeeded(dest))
		}
		if ctx.Err() != nil || isTerminalError(lastErr) {
			break
		}
		logger.Debug("transient fetch error, will retry", logging.Int("attempt", attempt+1), logging.Error(lastErr))
		if err := p.clock.Sleep(ctx, p.policy.Interval); err != nil {
			break
		}
	}
	_ = os.Remove(dest)
	return p.finalize(Failed(fmt.Sprintf("fetch artifact: %v", lastErr)))
}

func (p *Poller) finalize(status Status) Status {
	status.At = p.clock.Now()
	p.emit(status, Observation{State: status.State, Reason: status.Reason, Progress: -1})
	return status
}

func (p *Poller) emit(status Status, obs Observation) {
	if p.onStatus != nil {
		p.onStatus(status, obs)
	}
}

func isTerminalError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, services.ErrTerminal) ||
		errors.Is(err, services.ErrValidation) ||
		errors.Is(err, services.ErrConfiguration) ||
		errors.Is(err, services.ErrMissingCollaborator) {
		return true
	}
	return false
}
