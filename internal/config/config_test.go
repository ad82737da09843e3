package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vidforge/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeysAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("GOOGLE_API_KEY", "google-env")
	t.Setenv("SUNO_API_KEY", "suno-env")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "vidforge")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Google.APIKey != "google-env" {
		t.Fatalf("expected google key from env, got %q", cfg.Google.APIKey)
	}
	if cfg.Suno.APIKey != "suno-env" {
		t.Fatalf("expected suno key from env, got %q", cfg.Suno.APIKey)
	}
	if cfg.Batch.MaxConcurrency != 5 {
		t.Fatalf("expected default concurrency 5, got %d", cfg.Batch.MaxConcurrency)
	}
	if cfg.PollInterval().Seconds() != 5 {
		t.Fatalf("unexpected poll interval %s", cfg.PollInterval())
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestGeminiKeyFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-env")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Google.APIKey != "gemini-env" {
		t.Fatalf("expected GEMINI_API_KEY fallback, got %q", cfg.Google.APIKey)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "vidforge.toml")

	type payload struct {
		Google struct {
			APIKey     string `toml:"api_key"`
			VideoModel string `toml:"video_model"`
		} `toml:"google"`
		Batch struct {
			MaxConcurrency int `toml:"max_concurrency"`
		} `toml:"batch"`
		Jobs struct {
			PollIntervalSeconds int `toml:"poll_interval_seconds"`
		} `toml:"jobs"`
	}
	custom := payload{}
	custom.Google.APIKey = "file-key"
	custom.Google.VideoModel = "veo-test"
	custom.Batch.MaxConcurrency = 2
	custom.Jobs.PollIntervalSeconds = 3
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Google.APIKey != "file-key" {
		t.Fatalf("expected key from file, got %q", cfg.Google.APIKey)
	}
	if cfg.Google.VideoModel != "veo-test" {
		t.Fatalf("expected video model override, got %q", cfg.Google.VideoModel)
	}
	if cfg.Google.TTSModel != config.Default().Google.TTSModel {
		t.Fatalf("expected default tts model, got %q", cfg.Google.TTSModel)
	}
	if cfg.Batch.MaxConcurrency != 2 {
		t.Fatalf("expected concurrency 2, got %d", cfg.Batch.MaxConcurrency)
	}
	if cfg.Jobs.PollIntervalSeconds != 3 {
		t.Fatalf("expected poll interval 3, got %d", cfg.Jobs.PollIntervalSeconds)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero concurrency", func(c *config.Config) { c.Batch.MaxConcurrency = 0 }, "batch.max_concurrency"},
		{"zero poll interval", func(c *config.Config) { c.Jobs.PollIntervalSeconds = 0 }, "jobs.poll_interval_seconds"},
		{"negative transient budget", func(c *config.Config) { c.Jobs.MaxTransientErrors = -1 }, "jobs.max_transient_errors"},
		{"unknown log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.FFmpeg.Binary != "ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary %q", cfg.FFmpeg.Binary)
	}
}

func TestRedactedMasksKeys(t *testing.T) {
	cfg := config.Default()
	cfg.Google.APIKey = "abcdefgh1234"
	red := cfg.Redacted()
	if red.Google.APIKey != "****1234" {
		t.Fatalf("unexpected mask %q", red.Google.APIKey)
	}
	if cfg.Google.APIKey != "abcdefgh1234" {
		t.Fatal("Redacted mutated the receiver")
	}
}
