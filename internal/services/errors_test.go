package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"vidforge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "concatenate_videos", "ffmpeg", "xfade failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"concatenate_videos", "ffmpeg", "xfade failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err)
	}
}

func TestIsRetryable(t *testing.T) {
	transient := services.Wrap(services.ErrTransient, "veo", "poll", "http 503", nil)
	terminal := services.Wrap(services.ErrTerminal, "veo", "poll", "blocked", nil)
	both := fmt.Errorf("%w: %w", services.ErrTransient, terminal)

	if !services.IsRetryable(transient) {
		t.Fatal("expected transient error to be retryable")
	}
	if services.IsRetryable(terminal) {
		t.Fatal("expected terminal error not to be retryable")
	}
	if services.IsRetryable(both) {
		t.Fatal("terminal marker should win over transient")
	}
	if services.IsRetryable(nil) || services.IsRetryable(errors.New("plain")) {
		t.Fatal("nil and unmarked errors are not retryable")
	}
}

func TestCategory(t *testing.T) {
	cases := map[error]string{
		services.Wrap(services.ErrValidation, "", "", "x", nil):          "validation",
		services.Wrap(services.ErrMissingCollaborator, "", "", "x", nil): "missing_collaborator",
		services.Wrap(services.ErrExternalTool, "", "", "x", nil):        "tool_execution",
		services.Wrap(services.ErrTimeout, "", "", "x", nil):             "timeout",
		errors.New("other"): "internal",
	}
	for err, want := range cases {
		if got := services.Category(err); got != want {
			t.Fatalf("Category(%v) = %q, want %q", err, got, want)
		}
	}
	if services.Category(nil) != "" {
		t.Fatal("expected empty category for nil")
	}
}
