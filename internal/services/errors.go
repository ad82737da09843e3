package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad configuration caught before any remote call.
	ErrValidation = errors.New("validation error")
	// ErrTransient marks a retryable provider or network failure.
	ErrTransient = errors.New("transient failure")
	// ErrTerminal marks a well-formed provider failure that must not be retried.
	ErrTerminal = errors.New("terminal provider failure")
	// ErrTimeout marks a job that was abandoned after its wait budget elapsed.
	ErrTimeout = errors.New("timeout")
	// ErrExternalTool marks a non-zero exit from ffmpeg or ffprobe.
	ErrExternalTool = errors.New("external tool error")
	// ErrMissingCollaborator marks an optional helper that is not configured.
	ErrMissingCollaborator = errors.New("missing collaborator")
	// ErrConfiguration marks unusable tool configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing project, file, or record.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether err should be retried by a poll loop. Terminal
// markers win over transient ones when both are present in the chain.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTerminal) || errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration) {
		return false
	}
	return errors.Is(err, ErrTransient)
}

// Category returns a short machine-readable label for err, used in reports.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrMissingCollaborator):
		return "missing_collaborator"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrExternalTool):
		return "tool_execution"
	case errors.Is(err, ErrTerminal):
		return "terminal_provider"
	case errors.Is(err, ErrTransient):
		return "transient_provider"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
