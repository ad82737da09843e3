package preflight

import (
	"context"

	"vidforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// Options select which checks RunAll performs.
type Options struct {
	// Online adds a live request against the Google API.
	Online bool
	// NeedGoogle and NeedSuno mark provider keys as required rather than
	// informational.
	NeedGoogle bool
	NeedSuno   bool
}

// RunAll executes the applicable preflight checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckFreeSpace("Free space", cfg.Paths.StateDir, MinFreeBytes))

	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Detail:   binaryDetail(status.Available, status.Path, status.Detail),
			Optional: status.Optional,
		})
	}

	google := CheckAPIKey("Google API key", cfg.Google.APIKey)
	google.Optional = !opts.NeedGoogle
	results = append(results, google)
	suno := CheckAPIKey("Suno API key", cfg.Suno.APIKey)
	suno.Optional = !opts.NeedSuno
	results = append(results, suno)

	if opts.Online && cfg.Google.APIKey != "" {
		results = append(results, CheckGoogleAPI(ctx, cfg.Google.BaseURL, cfg.Google.APIKey))
	}
	return results
}

// Failures returns the non-optional results that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

func binaryDetail(ok bool, path, detail string) string {
	if ok {
		return path
	}
	return detail
}
