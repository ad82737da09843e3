package config

const (
	defaultConfigPath          = "~/.config/vidforge/config.toml"
	defaultStateDir            = "~/.local/share/vidforge"
	defaultLogDir              = "~/.local/share/vidforge/logs"
	defaultGoogleBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	defaultVideoModel          = "veo-3.1-generate-preview"
	defaultTTSModel            = "gemini-2.5-flash-preview-tts"
	defaultSunoBaseURL         = "https://api.suno.ai"
	defaultPollInterval        = 5
	defaultVideoTimeout        = 600
	defaultAudioTimeout        = 300
	defaultMaxTransientErrors  = 3
	defaultHTTPTimeout         = 60
	defaultBatchMaxConcurrency = 5
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Google: Google{
			BaseURL:    defaultGoogleBaseURL,
			VideoModel: defaultVideoModel,
			TTSModel:   defaultTTSModel,
		},
		Suno: Suno{
			BaseURL: defaultSunoBaseURL,
		},
		Jobs: Jobs{
			PollIntervalSeconds: defaultPollInterval,
			VideoTimeoutSeconds: defaultVideoTimeout,
			AudioTimeoutSeconds: defaultAudioTimeout,
			MaxTransientErrors:  defaultMaxTransientErrors,
			HTTPTimeoutSeconds:  defaultHTTPTimeout,
		},
		Batch: Batch{
			MaxConcurrency: defaultBatchMaxConcurrency,
		},
		FFmpeg: FFmpeg{
			Binary:        defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			ToFile: true,
		},
	}
}
