package ffmpeg

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"vidforge/internal/filtergraph"
	"vidforge/internal/services"
)

func TestToolErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &ToolError{Tool: "ffmpeg", ExitCode: 1, Stderr: "frame=0\nInvalid argument\n\n", Err: cause}
	if got := err.Error(); got != "ffmpeg exited with status 1: Invalid argument" {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(err, services.ErrExternalTool) || !errors.Is(err, cause) {
		t.Fatal("expected both the tool marker and the cause to match")
	}
	if services.Category(err) != "tool_execution" {
		t.Fatalf("unexpected category %s", services.Category(err))
	}
	if err.Diagnostic() != "frame=0\nInvalid argument\n\n" {
		t.Fatal("diagnostic must be verbatim")
	}
}

func stubCommand(t *testing.T, script string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ffmpeg-stub")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	original := commandContext
	commandContext = func(ctx context.Context, _ string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, path, args...)
	}
	t.Cleanup(func() { commandContext = original })
}

func TestRunReportsExitCodeAndStderr(t *testing.T) {
	stubCommand(t, "echo 'No such filter: xfadez' >&2\nexit 8")
	out := filepath.Join(t.TempDir(), "nested", "out.mp4")
	err := NewRunner("", nil).Run(context.Background(), filtergraph.StripAudio("in.mp4", out))
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if toolErr.ExitCode != 8 {
		t.Fatalf("unexpected exit code %d", toolErr.ExitCode)
	}
	if !strings.Contains(toolErr.Stderr, "No such filter") {
		t.Fatalf("stderr not captured: %q", toolErr.Stderr)
	}
	if _, statErr := os.Stat(filepath.Dir(out)); statErr != nil {
		t.Fatalf("output directory not created: %v", statErr)
	}
}

func TestRunPassesGraphArgs(t *testing.T) {
	record := filepath.Join(t.TempDir(), "args.txt")
	stubCommand(t, `printf '%s\n' "$@" > `+record+`
for a; do last=$a; done
echo rendered > "$last"`)
	out := filepath.Join(t.TempDir(), "out.mp4")
	if err := NewRunner("ffmpeg", nil).Run(context.Background(), filtergraph.StripAudio("in.mp4", out)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(record)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	got := strings.Fields(string(data))
	if got[len(got)-1] != PartialPath(out) || got[0] != "-hide_banner" {
		t.Fatalf("unexpected argv %v", got)
	}
	if body, err := os.ReadFile(out); err != nil || string(body) != "rendered\n" {
		t.Fatalf("output not published: %q %v", body, err)
	}
	if _, err := os.Stat(PartialPath(out)); !os.IsNotExist(err) {
		t.Fatalf("partial file left behind: %v", err)
	}
}

func TestRunFailureLeavesNoOutput(t *testing.T) {
	stubCommand(t, `for a; do last=$a; done
echo half-written > "$last"
echo 'Conversion failed!' >&2
exit 1`)
	out := filepath.Join(t.TempDir(), "final.mp4")
	err := NewRunner("ffmpeg", nil).Run(context.Background(), filtergraph.StripAudio("in.mp4", out))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected tool error, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output exists after failed run: %v", err)
	}
	if _, err := os.Stat(PartialPath(out)); !os.IsNotExist(err) {
		t.Fatalf("partial file left behind: %v", err)
	}
}

func TestRunFailureKeepsPreviousOutput(t *testing.T) {
	stubCommand(t, `for a; do last=$a; done
echo half-written > "$last"
exit 1`)
	out := filepath.Join(t.TempDir(), "final.mp4")
	if err := os.WriteFile(out, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewRunner("ffmpeg", nil).Run(context.Background(), filtergraph.StripAudio("in.mp4", out)); err == nil {
		t.Fatal("expected error")
	}
	if body, _ := os.ReadFile(out); string(body) != "previous" {
		t.Fatalf("previous output clobbered: %q", body)
	}
}

func TestRunRejectsMissingOutput(t *testing.T) {
	err := NewRunner("ffmpeg", nil).Run(context.Background(), filtergraph.Graph{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
