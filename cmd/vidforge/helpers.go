package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"vidforge/internal/config"
	"vidforge/internal/services"
)

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func resultLabel(success, dryRun bool) string {
	switch {
	case success && dryRun:
		return "dry run"
	case success:
		return "ok"
	default:
		return "failed"
	}
}

// resolveExisting expands path and requires it to exist with the given kind.
func resolveExisting(flag, path string, wantDir bool) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", services.Wrap(services.ErrValidation, "cli", flag, "--"+flag+" is required", nil)
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve --%s: %w", flag, err)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "cli", flag, expanded, err)
	}
	if info.IsDir() != wantDir {
		kind := "file"
		if wantDir {
			kind = "directory"
		}
		return "", services.Wrap(services.ErrValidation, "cli", flag, expanded+" is not a "+kind, nil)
	}
	return expanded, nil
}
