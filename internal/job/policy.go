package job

import (
	"context"
	"time"
)

// Action is the decision NextAction returns after each poll.
type Action int

const (
	KeepPolling Action = iota
	GiveUp
	Done
)

func (a Action) String() string {
	switch a {
	case KeepPolling:
		return "keep_polling"
	case GiveUp:
		return "give_up"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Policy bounds how a job is waited on.
type Policy struct {
	Interval time.Duration
	Timeout  time.Duration
	// MaxTransientErrors is the number of consecutive transient poll errors
	// tolerated before the job is failed.
	MaxTransientErrors int
}

// DefaultPolicy matches the typical provider cadence: 5s polls, 10 minutes.
func DefaultPolicy() Policy {
	return Policy{Interval: 5 * time.Second, Timeout: 10 * time.Minute, MaxTransientErrors: 3}
}

// NextAction decides what to do after observing state at elapsed. It is pure:
// terminal states finish, otherwise the timeout decides.
func (p Policy) NextAction(elapsed time.Duration, state State) Action {
	if state.Terminal() {
		return Done
	}
	if elapsed >= p.Timeout {
		return GiveUp
	}
	return KeepPolling
}

// Wait returns how long to sleep before the next poll, never overshooting the
// timeout.
func (p Policy) Wait(elapsed time.Duration) time.Duration {
	wait := p.Interval
	if remaining := p.Timeout - elapsed; remaining < wait {
		wait = remaining
	}
	if wait < 0 {
		return 0
	}
	return wait
}

// Clock abstracts time so poll loops can be tested without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
