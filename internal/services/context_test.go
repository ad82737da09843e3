package services

import (
	"context"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id on empty context")
	}
	if _, ok := JobIndexFromContext(ctx); ok {
		t.Fatal("expected no job index on empty context")
	}

	ctx = WithRunID(ctx, "abc")
	ctx = WithProject(ctx, "launch_video")
	ctx = WithStage(ctx, "mix_audio")
	ctx = WithJobIndex(ctx, 0)

	if v, ok := RunIDFromContext(ctx); !ok || v != "abc" {
		t.Fatalf("unexpected run id %q %v", v, ok)
	}
	if v, ok := ProjectFromContext(ctx); !ok || v != "launch_video" {
		t.Fatalf("unexpected project %q %v", v, ok)
	}
	if v, ok := StageFromContext(ctx); !ok || v != "mix_audio" {
		t.Fatalf("unexpected stage %q %v", v, ok)
	}
	if v, ok := JobIndexFromContext(ctx); !ok || v != 0 {
		t.Fatalf("unexpected job index %d %v", v, ok)
	}
	if WithStage(ctx, "") != ctx {
		t.Fatal("empty stage should return the same context")
	}
}
