package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state and log directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Google contains credentials and model names for the Gemini API family
// (Veo video generation and Gemini text-to-speech).
type Google struct {
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	VideoModel string `toml:"video_model"`
	TTSModel   string `toml:"tts_model"`
}

// Suno contains configuration for the music generation API.
type Suno struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// Jobs contains poll timing for remote generation jobs.
type Jobs struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	VideoTimeoutSeconds int `toml:"video_timeout_seconds"`
	AudioTimeoutSeconds int `toml:"audio_timeout_seconds"`
	MaxTransientErrors  int `toml:"max_transient_errors"`
	HTTPTimeoutSeconds  int `toml:"http_timeout_seconds"`
}

// Batch contains worker pool settings for scene fan-out.
type Batch struct {
	MaxConcurrency int `toml:"max_concurrency"`
}

// FFmpeg names the transcoder and probe executables.
type FFmpeg struct {
	Binary        string `toml:"binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	ToFile bool   `toml:"to_file"`
}

// Config encapsulates all tool-level configuration values.
//
// Configuration sections by subsystem:
//   - Paths: history database and log directories
//   - Google: Veo video and Gemini TTS credentials
//   - Suno: music generation credentials
//   - Jobs: poll interval, timeouts, and transient error budget
//   - Batch: scene generation concurrency
//   - FFmpeg: transcoder and probe binaries
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Google  Google  `toml:"google"`
	Suno    Suno    `toml:"suno"`
	Jobs    Jobs    `toml:"jobs"`
	Batch   Batch   `toml:"batch"`
	FFmpeg  FFmpeg  `toml:"ffmpeg"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	localPath, err := filepath.Abs("vidforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(localPath); err == nil && !info.IsDir() {
		return localPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the location of the run history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// PollInterval returns the configured poll cadence for generation jobs.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Jobs.PollIntervalSeconds) * time.Second
}

// VideoTimeout bounds how long a single video job is waited on.
func (c *Config) VideoTimeout() time.Duration {
	return time.Duration(c.Jobs.VideoTimeoutSeconds) * time.Second
}

// AudioTimeout bounds how long a voiceover or music job is waited on.
func (c *Config) AudioTimeout() time.Duration {
	return time.Duration(c.Jobs.AudioTimeoutSeconds) * time.Second
}

// HTTPTimeout returns the per-request timeout used by provider clients.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Jobs.HTTPTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Redacted returns a copy with credentials masked, suitable for display.
func (c Config) Redacted() Config {
	c.Google.APIKey = maskSecret(c.Google.APIKey)
	c.Suno.APIKey = maskSecret(c.Suno.APIKey)
	return c
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
