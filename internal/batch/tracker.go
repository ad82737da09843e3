package batch

import (
	"sync"

	"vidforge/internal/job"
)

// Entry is one job in a batch.
type Entry struct {
	Index  int        `json:"index"`
	Spec   job.Spec   `json:"-"`
	Label  string     `json:"label"`
	Status job.Status `json:"status"`
	// Path is the planned artifact location.
	Path string `json:"path"`
}

// EntryView is the per-entry preview inside a Snapshot.
type EntryView struct {
	Index  int
	Label  string
	State  job.State
	Detail string
}

// Snapshot is a consistent view of a batch at one instant.
type Snapshot struct {
	Pending   int
	Running   int
	Succeeded int
	Failed    int
	Total     int
	Entries   []EntryView
}

// Done reports whether every entry is terminal.
func (s Snapshot) Done() bool {
	return s.Succeeded+s.Failed == s.Total
}

// Percent is the share of terminal entries, 0-100.
func (s Snapshot) Percent() float64 {
	if s.Total == 0 {
		return 100
	}
	return float64(s.Succeeded+s.Failed) * 100 / float64(s.Total)
}

// Reporter receives snapshots. Calls are serialized.
type Reporter func(Snapshot)

// Tracker is the mutex-guarded aggregate behind a running batch.
type Tracker struct {
	mu       sync.Mutex
	entries  []Entry
	reporter Reporter
}

// NewTracker seeds a tracker with pending entries.
func NewTracker(entries []Entry, reporter Reporter) *Tracker {
	seeded := make([]Entry, len(entries))
	copy(seeded, entries)
	for i := range seeded {
		seeded[i].Status = job.Pending()
	}
	return &Tracker{entries: seeded, reporter: reporter}
}

// Update applies status to entry index. Rejected transitions (anything after
// a terminal state) are dropped silently and do not emit a snapshot.
func (t *Tracker) Update(index int, status job.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.entries) {
		return
	}
	next, ok := t.entries[index].Status.Advance(status)
	if !ok {
		return
	}
	t.entries[index].Status = next
	if t.reporter != nil {
		t.reporter(t.snapshotLocked())
	}
}

// Snapshot returns the current view.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Entries returns a copy of every entry.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Entry(nil), t.entries...)
}

func (t *Tracker) snapshotLocked() Snapshot {
	snap := Snapshot{Total: len(t.entries), Entries: make([]EntryView, 0, len(t.entries))}
	for _, e := range t.entries {
		switch e.Status.State {
		case job.StatePending:
			snap.Pending++
		case job.StateRunning:
			snap.Running++
		case job.StateSucceeded:
			snap.Succeeded++
		default:
			snap.Failed++
		}
		detail := e.Status.Reason
		if e.Status.OK() {
			detail = e.Status.Path
		}
		snap.Entries = append(snap.Entries, EntryView{Index: e.Index, Label: e.Label, State: e.Status.State, Detail: detail})
	}
	return snap
}
