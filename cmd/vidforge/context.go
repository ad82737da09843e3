package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"vidforge/internal/config"
	"vidforge/internal/deps"
	"vidforge/internal/history"
	"vidforge/internal/logging"
	"vidforge/internal/media/ffmpeg"
	"vidforge/internal/media/ffprobe"
	"vidforge/internal/services"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger builds the command logger; console records go to stderr so stdout
// stays clean for tables and JSON.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg, cmd.ErrOrStderr())
}

func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.HistoryPath())
}

// transcoder returns the ffmpeg runner, failing when the binary is missing.
func (c *commandContext) transcoder(logger *slog.Logger) (ffmpeg.Transcoder, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	status := deps.FFmpeg(cfg.FFmpeg.Binary)
	if !status.Available {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "ffmpeg",
			fmt.Sprintf("%s: %s", status.Name, status.Detail), nil)
	}
	return ffmpeg.NewRunner(status.Path, logger), nil
}

// prober returns an ffprobe prober, or ok=false when ffprobe is unavailable.
func (c *commandContext) prober() (*ffprobe.Prober, bool) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, false
	}
	probe := deps.FFprobe(cfg.FFmpeg.FFprobeBinary)
	if !probe.Available {
		return nil, false
	}
	return ffprobe.NewProber(probe.Path), true
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
