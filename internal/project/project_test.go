package project_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"vidforge/internal/project"
	"vidforge/internal/services"
)

func fixedNow() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }

func TestInitCreatesLayout(t *testing.T) {
	parent := t.TempDir()
	created, err := project.Init("Product Launch Video", project.InitOptions{ParentDir: parent, Now: fixedNow})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if created.Dir != filepath.Join(parent, "product_launch_video") {
		t.Fatalf("unexpected dir %s", created.Dir)
	}
	for _, sub := range []string{"scenes", "audio", "work", "output"} {
		if info, err := os.Stat(filepath.Join(created.Dir, sub)); err != nil || !info.IsDir() {
			t.Fatalf("missing %s: %v", sub, err)
		}
	}
	gitignore, err := os.ReadFile(filepath.Join(created.Dir, ".gitignore"))
	if err != nil || string(gitignore) != "work/\n*.wav\n*.mp3\n*.mp4\n!output/*.mp4\n" {
		t.Fatalf("unexpected .gitignore %q (%v)", gitignore, err)
	}
	storyboard, err := os.ReadFile(created.Storyboard)
	if err != nil || !strings.HasPrefix(string(storyboard), "# Product Launch Video - Storyboard") {
		t.Fatalf("unexpected storyboard (%v)", err)
	}

	cfg, err := project.Load(created.Dir)
	if err != nil {
		t.Fatalf("generated project must load: %v", err)
	}
	if cfg.AudioStrategy != project.StrategyCustom || cfg.AspectRatio != "16:9" || cfg.Resolution != "720p" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Music.Duration != 35 || cfg.Music.BPM != 100 || cfg.Voiceover.Voice != "Charon" {
		t.Fatalf("unexpected audio defaults %+v %+v", cfg.Music, cfg.Voiceover)
	}
	if cfg.Assembly.Transition != "fade" || cfg.Assembly.MusicVolume != 0.3 || cfg.Assembly.FadeOut != 2 {
		t.Fatalf("unexpected assembly defaults %+v", cfg.Assembly)
	}
	if cfg.Created != "2025-03-01T09:30:00Z" {
		t.Fatalf("unexpected created %q", cfg.Created)
	}
	if len(cfg.Scenes) != 3 || cfg.Scenes[0].Name != "scene1" {
		t.Fatalf("unexpected scenes %+v", cfg.Scenes)
	}
}

func TestInitFailsWhenDirectoryExists(t *testing.T) {
	parent := t.TempDir()
	if err := os.MkdirAll(filepath.Join(parent, "demo"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := project.Init("Demo", project.InitOptions{ParentDir: parent})
	if !errors.Is(err, services.ErrValidation) || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}
}

func TestInitRejectsBadOptions(t *testing.T) {
	parent := t.TempDir()
	cases := []project.InitOptions{
		{ParentDir: parent, AspectRatio: "21:9"},
		{ParentDir: parent, AudioStrategy: "stereo"},
		{ParentDir: parent, Scenes: -1},
	}
	for _, opts := range cases {
		if _, err := project.Init("x", opts); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", opts, err)
		}
	}
}

func TestSplitDurationsSnapsToAcceptedValues(t *testing.T) {
	tests := []struct {
		target, n int
		want      []int
	}{
		{30, 3, []int{8, 8, 8}},
		{18, 3, []int{6, 6, 6}},
		{15, 3, []int{6, 6, 6}},
		{12, 3, []int{4, 4, 4}},
		{20, 4, []int{6, 6, 6, 6}},
		{2, 1, []int{4}},
	}
	for _, tc := range tests {
		if got := project.SplitDurations(tc.target, tc.n); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("SplitDurations(%d, %d) = %v, want %v", tc.target, tc.n, got, tc.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Product Launch Video": "product_launch_video",
		"Café Ünïcode-Demo!":   "cafe_unicode_demo",
		"  spaced  ":           "__spaced__",
		"!!!":                  "",
	}
	for in, want := range tests {
		if got := project.Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayTitle(t *testing.T) {
	if got := project.DisplayTitle("  instagram   reel "); got != "Instagram Reel" {
		t.Fatalf("unexpected title %q", got)
	}
}

func writeProject(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, project.FileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad duration", `{"name":"x","audio_strategy":"custom","scenes":[{"id":1,"name":"a","prompt":"p","duration":5}]}`, "duration 5s"},
		{"unknown strategy", `{"name":"x","audio_strategy":"dolby","scenes":[{"id":1,"name":"a","prompt":"p","duration":6}]}`, "unknown audio strategy"},
		{"no scenes", `{"name":"x","audio_strategy":"silent","scenes":[]}`, "at least one scene"},
		{"bad transition", `{"name":"x","scenes":[{"id":1,"name":"a","prompt":"p","duration":6}],"assembly":{"transition":"spin"}}`, "transition"},
		{"nested scene name", `{"name":"x","scenes":[{"id":1,"name":"act1/opening","prompt":"p","duration":6}]}`, "plain file name"},
		{"parent scene name", `{"name":"x","scenes":[{"id":1,"name":"..","prompt":"p","duration":6}]}`, "plain file name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := project.Load(writeProject(t, tc.body))
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q missing %q", err, tc.want)
			}
		})
	}
}

func TestLoadMissingProject(t *testing.T) {
	if _, err := project.Load(t.TempDir()); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLayoutPaths(t *testing.T) {
	l := project.NewLayout("/p", "demo")
	if l.FinalOutput() != "/p/output/demo_final.mp4" {
		t.Fatalf("unexpected final output %s", l.FinalOutput())
	}
	if l.SilentPath("/p/scenes/scene1.mp4") != "/p/work/silent_scene1.mp4" {
		t.Fatalf("unexpected silent path")
	}
	if l.LockPath() != "/p/work/.assemble.lock" || l.Report() != "/p/work/assembly_report.json" {
		t.Fatalf("unexpected work paths")
	}
}

func TestAcquireLockIsExclusive(t *testing.T) {
	layout := project.NewLayout(t.TempDir(), "demo")
	first, err := project.AcquireLock(layout)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if _, err := project.AcquireLock(layout); err == nil {
		t.Fatal("second lock must fail while the first is held")
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := project.AcquireLock(layout)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	_ = again.Release()
}
