package batch_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"vidforge/internal/batch"
	"vidforge/internal/job"
	"vidforge/internal/testsupport"
)

func specs(prompts ...string) []job.Spec {
	out := make([]job.Spec, len(prompts))
	for i, p := range prompts {
		out[i] = job.Spec{Kind: job.KindVideo, Prompt: p, Duration: 6}
	}
	return out
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	runner := testsupport.NewFakeRunner()
	runner.Statuses["b"] = job.Failed("content policy")
	dir := t.TempDir()

	result := batch.New(runner, dir).RunBatch(context.Background(), specs("a", "b", "c"), 2)

	if result.Success {
		t.Fatal("expected batch failure")
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Fatalf("unexpected counts: %d succeeded, %d failed", result.Succeeded, result.Failed)
	}
	want := []string{filepath.Join(dir, "video_01.mp4"), "", filepath.Join(dir, "video_03.mp4")}
	for i := range want {
		if result.Files[i] != want[i] {
			t.Fatalf("Files[%d] = %q, want %q", i, result.Files[i], want[i])
		}
	}
	if got := testsupport.MustRead(t, want[2]); got != "c" {
		t.Fatalf("unexpected artifact %q", got)
	}
	if failed := result.FailedEntries(); len(failed) != 1 || failed[0].Status.Reason != "content policy" {
		t.Fatalf("unexpected failed entries %+v", failed)
	}
}

func TestRunBatchRespectsConcurrencyBound(t *testing.T) {
	runner := testsupport.NewFakeRunner()
	runner.Delay = 20 * time.Millisecond

	result := batch.New(runner, t.TempDir()).RunBatch(context.Background(), specs("1", "2", "3", "4", "5", "6", "7"), 3)
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if peak := runner.Peak(); peak > 3 {
		t.Fatalf("peak concurrency %d exceeds bound", peak)
	}
}

func TestRunBatchClaimsInIndexOrderWhenSerial(t *testing.T) {
	runner := testsupport.NewFakeRunner()
	batch.New(runner, t.TempDir()).RunBatch(context.Background(), specs("first", "second", "third"), 1)
	calls := runner.Calls()
	for i, want := range []string{"first", "second", "third"} {
		if calls[i].Prompt != want {
			t.Fatalf("call %d = %q, want %q", i, calls[i].Prompt, want)
		}
	}
}

func TestRunBatchDisambiguatesDuplicateOutputs(t *testing.T) {
	runner := testsupport.NewFakeRunner()
	in := specs("a", "b", "c")
	for i := range in {
		in[i].OutputName = "scene.mp4"
	}
	dir := t.TempDir()
	result := batch.New(runner, dir).RunBatch(context.Background(), in, 3)

	seen := map[string]bool{}
	for _, f := range result.Files {
		if seen[f] {
			t.Fatalf("duplicate output %s", f)
		}
		seen[f] = true
	}
	if result.Files[0] != filepath.Join(dir, "scene.mp4") || result.Files[1] != filepath.Join(dir, "scene_2.mp4") {
		t.Fatalf("unexpected names %v", result.Files)
	}
}

func TestRunBatchEmitsSnapshotsEndingComplete(t *testing.T) {
	runner := testsupport.NewFakeRunner()
	runner.Statuses["bad"] = job.TimedOut()
	var (
		mu    sync.Mutex
		snaps []batch.Snapshot
	)
	reporter := func(s batch.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		snaps = append(snaps, s)
	}
	batch.New(runner, t.TempDir(), batch.WithReporter(reporter)).RunBatch(context.Background(), specs("ok", "bad"), 2)

	mu.Lock()
	defer mu.Unlock()
	// Two transitions per job: running, then terminal.
	if len(snaps) != 4 {
		t.Fatalf("expected 4 snapshots, got %d", len(snaps))
	}
	last := snaps[len(snaps)-1]
	if !last.Done() || last.Succeeded != 1 || last.Failed != 1 || last.Pending != 0 {
		t.Fatalf("unexpected final snapshot %+v", last)
	}
	for _, s := range snaps {
		if s.Pending+s.Running+s.Succeeded+s.Failed != s.Total {
			t.Fatalf("inconsistent snapshot %+v", s)
		}
	}
}

func TestRunBatchWithPollerAndFakeProvider(t *testing.T) {
	provider := testsupport.NewFakeProvider("veo")
	provider.Default = testsupport.FakeOutcome{PollsBeforeDone: 1}
	provider.Outcomes["broken"] = testsupport.FakeOutcome{FailReason: "safety filter"}
	poller := job.NewPoller(provider, job.Policy{Interval: time.Second, Timeout: time.Minute},
		job.WithClock(testsupport.NewFakeClock()))

	result := batch.New(poller, t.TempDir()).RunBatch(context.Background(), specs("sky", "broken", "sea"), 0)
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if result.Entries[1].Status.Reason != "safety filter" {
		t.Fatalf("unexpected reason %q", result.Entries[1].Status.Reason)
	}
}

func TestRunBatchTimeoutIsolatedAmongFive(t *testing.T) {
	tests := []struct {
		name    string
		runner  func() job.Runner
		content func(prompt string) string
		peak    func(job.Runner) int
	}{
		{
			name: "scripted runner",
			runner: func() job.Runner {
				r := testsupport.NewFakeRunner()
				r.Delay = 10 * time.Millisecond
				r.Statuses["job3"] = job.TimedOut()
				return r
			},
			content: func(prompt string) string { return prompt },
			peak:    func(r job.Runner) int { return r.(*testsupport.FakeRunner).Peak() },
		},
		{
			name: "poller over provider",
			runner: func() job.Runner {
				p := testsupport.NewFakeProvider("veo")
				p.Outcomes["job3"] = testsupport.FakeOutcome{Never: true}
				return job.NewPoller(p, job.Policy{Interval: time.Second, Timeout: time.Minute},
					job.WithClock(testsupport.NewFakeClock()))
			},
			content: func(prompt string) string { return "veo:" + prompt },
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			runner := tc.runner()
			dir := t.TempDir()
			result := batch.New(runner, dir).RunBatch(context.Background(),
				specs("job1", "job2", "job3", "job4", "job5"), 2)

			if result.Success || result.Failed != 1 || result.Succeeded != 4 {
				t.Fatalf("unexpected result: success=%v succeeded=%d failed=%d",
					result.Success, result.Succeeded, result.Failed)
			}
			if st := result.Entries[2].Status; st.State != job.StateTimedOut {
				t.Fatalf("job3 status = %s, want timed out", st)
			}
			for i, f := range result.Files {
				if i == 2 {
					if f != "" {
						t.Fatalf("timed out job has file %q", f)
					}
					continue
				}
				want := filepath.Join(dir, fmt.Sprintf("video_%02d.mp4", i+1))
				if f != want {
					t.Fatalf("Files[%d] = %q, want %q", i, f, want)
				}
				if got := testsupport.MustRead(t, f); got != tc.content(fmt.Sprintf("job%d", i+1)) {
					t.Fatalf("Files[%d] holds %q", i, got)
				}
			}
			if tc.peak != nil {
				if peak := tc.peak(runner); peak > 2 {
					t.Fatalf("peak concurrency %d exceeds 2", peak)
				}
			}
		})
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		spec  job.Spec
		index int
		want  string
	}{
		{job.Spec{Kind: job.KindVideo}, 0, "video_01.mp4"},
		{job.Spec{Kind: job.KindMusic}, 11, "music_12.mp3"},
		{job.Spec{Kind: job.KindVideo, OutputName: "intro"}, 0, "intro.mp4"},
		{job.Spec{Kind: job.KindVideo, OutputName: "../escape/intro.mov"}, 0, "intro.mov"},
	}
	for _, tc := range tests {
		if got := batch.OutputName(tc.spec, tc.index); got != tc.want {
			t.Fatalf("OutputName(%+v) = %q, want %q", tc.spec, got, tc.want)
		}
	}
}
