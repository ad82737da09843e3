package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGoogle()
	c.normalizeSuno()
	c.normalizeFFmpeg()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGoogle() {
	c.Google.APIKey = strings.TrimSpace(c.Google.APIKey)
	if c.Google.APIKey == "" {
		c.Google.APIKey = firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY")
	}
	c.Google.BaseURL = strings.TrimRight(strings.TrimSpace(c.Google.BaseURL), "/")
	if c.Google.BaseURL == "" {
		c.Google.BaseURL = defaultGoogleBaseURL
	}
	c.Google.VideoModel = strings.TrimSpace(c.Google.VideoModel)
	if c.Google.VideoModel == "" {
		c.Google.VideoModel = defaultVideoModel
	}
	c.Google.TTSModel = strings.TrimSpace(c.Google.TTSModel)
	if c.Google.TTSModel == "" {
		c.Google.TTSModel = defaultTTSModel
	}
}

func (c *Config) normalizeSuno() {
	c.Suno.APIKey = strings.TrimSpace(c.Suno.APIKey)
	if c.Suno.APIKey == "" {
		c.Suno.APIKey = firstEnv("SUNO_API_KEY")
	}
	c.Suno.BaseURL = strings.TrimRight(strings.TrimSpace(c.Suno.BaseURL), "/")
	if c.Suno.BaseURL == "" {
		c.Suno.BaseURL = defaultSunoBaseURL
	}
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
