package job

import "time"

// State is the tag of a Status.
type State int

const (
	StatePending State = iota
	StateRunning
	StateSucceeded
	StateFailed
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition may follow.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateTimedOut
}

// Status is the tagged job state. Path is set only for Succeeded and Reason
// only for Failed.
type Status struct {
	State  State     `json:"state"`
	Path   string    `json:"path,omitempty"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at,omitempty"`
}

func Pending() Status { return Status{State: StatePending} }

func Running() Status { return Status{State: StateRunning} }

func Succeeded(path string) Status { return Status{State: StateSucceeded, Path: path} }

func Failed(reason string) Status { return Status{State: StateFailed, Reason: reason} }

func TimedOut() Status { return Status{State: StateTimedOut, Reason: "timed out waiting for provider"} }

// Terminal reports whether the status is final.
func (s Status) Terminal() bool { return s.State.Terminal() }

// OK reports whether the job produced an artifact.
func (s Status) OK() bool { return s.State == StateSucceeded }

// Advance applies next to s. Terminal statuses are sticky and state never
// moves backwards; the returned bool is false when next was rejected.
func (s Status) Advance(next Status) (Status, bool) {
	if s.Terminal() {
		return s, false
	}
	if next.State < s.State {
		return s, false
	}
	return next, true
}

func (s Status) String() string {
	switch s.State {
	case StateSucceeded:
		return "succeeded(" + s.Path + ")"
	case StateFailed:
		return "failed(" + s.Reason + ")"
	default:
		return s.State.String()
	}
}
