package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vidforge/internal/history"
	"vidforge/internal/services"
	"vidforge/internal/testsupport"
)

type initJSONOut struct {
	Success bool   `json:"success"`
	Dir     string `json:"project_path"`
	File    string `json:"project_file"`
}

func initProject(t *testing.T, env *cliTestEnv, args ...string) initJSONOut {
	t.Helper()
	parent := filepath.Join(env.baseDir, "projects")
	full := append([]string{"init-project", "--name", "Demo Reel", "--output", parent, "--json"}, args...)
	out, _, err := runCLI(t, full, env.configPath)
	if err != nil {
		t.Fatalf("init-project: %v\n%s", err, out)
	}
	var created initJSONOut
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode init output: %v\n%s", err, out)
	}
	if !created.Success {
		t.Fatalf("expected success, got %s", out)
	}
	return created
}

func TestInitProjectPrintsNextSteps(t *testing.T) {
	env := setupCLITestEnv(t)
	parent := filepath.Join(env.baseDir, "projects")

	out, _, err := runCLI(t, []string{"init-project", "-n", "Launch Teaser", "-o", parent, "-s", "3", "-d", "18"}, env.configPath)
	if err != nil {
		t.Fatalf("init-project: %v", err)
	}
	requireContains(t, out, `Created project "Launch Teaser"`)
	requireContains(t, out, "Scenes: 3 (18s total")
	requireContains(t, out, "vidforge assemble --project")
}

func TestInitProjectRejectsExisting(t *testing.T) {
	env := setupCLITestEnv(t)
	initProject(t, env)

	parent := filepath.Join(env.baseDir, "projects")
	out, _, err := runCLI(t, []string{"init-project", "--name", "Demo Reel", "--output", parent, "--json"}, env.configPath)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported failure, got %v", err)
	}
	var failure jsonFailure
	if err := json.Unmarshal([]byte(out), &failure); err != nil {
		t.Fatalf("decode failure: %v\n%s", err, out)
	}
	if failure.Success || failure.Category != "validation" {
		t.Fatalf("unexpected failure payload: %+v", failure)
	}
}

func TestAssembleDryRunJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	created := initProject(t, env)

	out, _, err := runCLI(t, []string{"assemble", "--project", created.Dir, "--dry-run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("assemble: %v\n%s", err, out)
	}
	var report struct {
		RunID   string `json:"run_id"`
		Success bool   `json:"success"`
		DryRun  bool   `json:"dry_run"`
		Steps   []struct {
			Name string `json:"name"`
		} `json:"steps"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if !report.Success || !report.DryRun || report.RunID == "" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Steps) == 0 || report.Steps[0].Name != "generate_scenes" {
		t.Fatalf("expected planned stages, got %+v", report.Steps)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Demo Reel")
	requireContains(t, out, "dry run")

	out, _, err = runCLI(t, []string{"history", "show", report.RunID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, report.RunID)
	requireContains(t, out, "generate_scenes")
}

func TestAssembleDryRunTable(t *testing.T) {
	env := setupCLITestEnv(t)
	created := initProject(t, env, "--audio-strategy", "silent")

	out, _, err := runCLI(t, []string{"assemble", "-p", created.Dir, "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("assemble: %v\n%s", err, out)
	}
	requireContains(t, out, "strip_audio")
	requireContains(t, out, "Dry run complete")
	requireContains(t, out, "Run ID:")
}

func TestAssembleInvalidDurationFails(t *testing.T) {
	env := setupCLITestEnv(t)
	created := initProject(t, env)

	data, err := os.ReadFile(created.File)
	if err != nil {
		t.Fatalf("read project: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	scenes := raw["scenes"].([]any)
	scenes[0].(map[string]any)["duration"] = 5
	data, err = json.Marshal(raw)
	if err != nil {
		t.Fatalf("encode project: %v", err)
	}
	if err := os.WriteFile(created.File, data, 0o644); err != nil {
		t.Fatalf("write project: %v", err)
	}

	_, _, err = runCLI(t, []string{"assemble", "--project", created.Dir, "--dry-run"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(created.Dir, "work", "assembly_report.json")); !os.IsNotExist(statErr) {
		t.Fatalf("expected no report for rejected project, stat err %v", statErr)
	}
}

func TestAssembleMissingProject(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"assemble", "--project", filepath.Join(env.baseDir, "nope")}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded yet")

	_, _, err = runCLI(t, []string{"history", "show", "deadbeef"}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHistoryShowRejectsAmbiguousPrefix(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenHistory(t, env.cfg)
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	testsupport.SeedRuns(t, store,
		history.Run{ID: "abc-111", Project: "One", StartedAt: started, Success: true},
		history.Run{ID: "abc-222", Project: "Two", StartedAt: started.Add(time.Minute)},
	)
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, _, err := runCLI(t, []string{"history", "show", "abc"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ambiguous prefix error, got %v", err)
	}
	out, _, err := runCLI(t, []string{"history", "show", "abc-2", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, `"project": "Two"`)
}
