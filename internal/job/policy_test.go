package job

import (
	"testing"
	"time"
)

func TestNextAction(t *testing.T) {
	p := Policy{Interval: 5 * time.Second, Timeout: time.Minute}
	tests := []struct {
		name    string
		elapsed time.Duration
		state   State
		want    Action
	}{
		{"running within budget", 10 * time.Second, StateRunning, KeepPolling},
		{"pending within budget", 0, StatePending, KeepPolling},
		{"running at timeout", time.Minute, StateRunning, GiveUp},
		{"succeeded after timeout still done", 2 * time.Minute, StateSucceeded, Done},
		{"failed", time.Second, StateFailed, Done},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.NextAction(tc.elapsed, tc.state); got != tc.want {
				t.Fatalf("NextAction(%s, %s) = %s, want %s", tc.elapsed, tc.state, got, tc.want)
			}
		})
	}
}

func TestNextActionZeroTimeoutGivesUpImmediately(t *testing.T) {
	p := Policy{Interval: time.Second}
	if got := p.NextAction(0, StateRunning); got != GiveUp {
		t.Fatalf("expected give up with zero timeout, got %s", got)
	}
}

func TestWaitNeverOvershootsTimeout(t *testing.T) {
	p := Policy{Interval: 5 * time.Second, Timeout: 12 * time.Second}
	if got := p.Wait(0); got != 5*time.Second {
		t.Fatalf("unexpected wait %s", got)
	}
	if got := p.Wait(10 * time.Second); got != 2*time.Second {
		t.Fatalf("expected wait clipped to remaining budget, got %s", got)
	}
	if got := p.Wait(20 * time.Second); got != 0 {
		t.Fatalf("expected zero wait past timeout, got %s", got)
	}
}

func TestStatusAdvanceIsMonotonic(t *testing.T) {
	s := Pending()
	s, ok := s.Advance(Running())
	if !ok || s.State != StateRunning {
		t.Fatalf("expected pending -> running, got %s ok=%v", s, ok)
	}
	if _, ok := s.Advance(Pending()); ok {
		t.Fatal("running -> pending must be rejected")
	}
	s, ok = s.Advance(Succeeded("/tmp/a.mp4"))
	if !ok || !s.OK() {
		t.Fatalf("expected success, got %s", s)
	}
	for _, next := range []Status{Failed("late"), TimedOut(), Running()} {
		got, ok := s.Advance(next)
		if ok || got.Path != "/tmp/a.mp4" {
			t.Fatalf("terminal status overwritten by %s: %s", next, got)
		}
	}
}

func TestSpecValidate(t *testing.T) {
	if err := (Spec{Kind: KindVideo, Prompt: "a cat"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Spec{Kind: "hologram", Prompt: "x"}).Validate(); err == nil {
		t.Fatal("expected unknown kind error")
	}
	if err := (Spec{Kind: KindMusic, Prompt: "  "}).Validate(); err == nil {
		t.Fatal("expected empty prompt error")
	}
}

func TestSpecWithSeedDoesNotShareParams(t *testing.T) {
	base := Spec{Kind: KindVideo, Prompt: "p", Params: map[string]string{"aspect_ratio": "16:9"}}
	next := base.WithSeed("seed.mp4")
	next.Params["aspect_ratio"] = "9:16"
	if base.Params["aspect_ratio"] != "16:9" {
		t.Fatal("WithSeed must copy params")
	}
	if base.Seed != "" || next.Seed != "seed.mp4" {
		t.Fatalf("unexpected seeds %q %q", base.Seed, next.Seed)
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup(KindMusic); ok {
		t.Fatal("expected empty registry")
	}
	var nilRegistry *Registry
	if _, ok := nilRegistry.Lookup(KindMusic); ok {
		t.Fatal("nil registry must report absent")
	}
}
