package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Provider credentials are not
// required here; missing keys surface later as unavailable collaborators.
func (c *Config) Validate() error {
	if err := c.validateJobs(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateJobs() error {
	if err := ensurePositiveMap(map[string]int{
		"jobs.poll_interval_seconds": c.Jobs.PollIntervalSeconds,
		"jobs.video_timeout_seconds": c.Jobs.VideoTimeoutSeconds,
		"jobs.audio_timeout_seconds": c.Jobs.AudioTimeoutSeconds,
		"jobs.http_timeout_seconds":  c.Jobs.HTTPTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Jobs.MaxTransientErrors < 0 {
		return errors.New("jobs.max_transient_errors must be >= 0")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.MaxConcurrency < 1 || c.Batch.MaxConcurrency > 32 {
		return errors.New("batch.max_concurrency must be between 1 and 32")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
