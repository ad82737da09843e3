package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"vidforge/internal/filtergraph"
	"vidforge/internal/logging"
	"vidforge/internal/services"
)

var commandContext = exec.CommandContext

// Transcoder runs a graph to completion.
type Transcoder interface {
	Run(ctx context.Context, g filtergraph.Graph) error
}

// ToolError reports a failed external tool invocation.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if line := lastLine(e.Stderr); line != "" {
		msg += ": " + line
	}
	return msg
}

// Unwrap exposes both the tool marker and the underlying exec error.
func (e *ToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrExternalTool}
	}
	return []error{services.ErrExternalTool, e.Err}
}

// Diagnostic returns the verbatim stderr output.
func (e *ToolError) Diagnostic() string { return e.Stderr }

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// Runner invokes the ffmpeg binary.
type Runner struct {
	binary string
	logger *slog.Logger
}

// NewRunner builds a runner for binary ("ffmpeg" when empty).
func NewRunner(binary string, logger *slog.Logger) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{binary: binary, logger: logging.NewComponentLogger(logger, "ffmpeg")}
}

// Binary returns the configured executable.
func (r *Runner) Binary() string { return r.binary }

// Run executes g. ffmpeg renders into a partial file beside g.Output, which
// replaces g.Output only when the tool exits cleanly.
func (r *Runner) Run(ctx context.Context, g filtergraph.Graph) error {
	if strings.TrimSpace(g.Output) == "" {
		return services.Wrap(services.ErrValidation, "ffmpeg", "run", "graph has no output path", nil)
	}
	if err := os.MkdirAll(filepath.Dir(g.Output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	staged := g
	staged.Output = PartialPath(g.Output)
	args := staged.Args()
	logger := logging.WithContext(ctx, r.logger)
	logger.Debug("running ffmpeg",
		logging.String("graph", g.Description),
		logging.String("command", g.String()),
	)

	start := time.Now()
	cmd := commandContext(ctx, r.binary, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		if err := os.Rename(staged.Output, g.Output); err != nil {
			_ = os.Remove(staged.Output)
			return fmt.Errorf("publish %s: %w", g.Output, err)
		}
		logger.Debug("ffmpeg finished",
			logging.String("graph", g.Description),
			logging.Duration("elapsed", time.Since(start)),
		)
		return nil
	}

	if rmErr := os.Remove(staged.Output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		logger.Debug("remove partial output failed", logging.Error(rmErr))
	}
	toolErr := &ToolError{Tool: filepath.Base(r.binary), Args: args, ExitCode: -1, Stderr: stderr.String(), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
	}
	logger.Debug("ffmpeg failed",
		logging.String("graph", g.Description),
		logging.Int("exit_code", toolErr.ExitCode),
		logging.String("diagnostic", lastLine(toolErr.Stderr)),
	)
	return toolErr
}

// PartialPath is where Run stages output for path. The extension is kept so
// ffmpeg still infers the container.
func PartialPath(path string) string {
	return filepath.Join(filepath.Dir(path), ".partial-"+filepath.Base(path))
}
