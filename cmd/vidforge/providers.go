package main

import (
	"vidforge/internal/config"
	"vidforge/internal/job"
	"vidforge/internal/services/geminitts"
	"vidforge/internal/services/httpapi"
	"vidforge/internal/services/suno"
	"vidforge/internal/services/veo"
)

// newRegistry is swapped out by tests to run commands against fake providers.
var newRegistry = buildRegistry

// buildRegistry registers a provider for every kind whose credentials are
// configured. Kinds without credentials stay unregistered so the pipeline
// reports them as missing collaborators.
func buildRegistry(cfg *config.Config) *job.Registry {
	registry := job.NewRegistry()
	opts := []httpapi.Option{httpapi.WithTimeout(cfg.HTTPTimeout())}
	if cfg.Google.APIKey != "" {
		registry.Register(job.KindVideo, veo.NewClient(veo.Config{
			APIKey:  cfg.Google.APIKey,
			BaseURL: cfg.Google.BaseURL,
			Model:   cfg.Google.VideoModel,
		}, opts...))
		registry.Register(job.KindVoiceover, geminitts.NewClient(geminitts.Config{
			APIKey:  cfg.Google.APIKey,
			BaseURL: cfg.Google.BaseURL,
			Model:   cfg.Google.TTSModel,
		}, opts...))
	}
	if cfg.Suno.APIKey != "" {
		registry.Register(job.KindMusic, suno.NewClient(suno.Config{
			APIKey:  cfg.Suno.APIKey,
			BaseURL: cfg.Suno.BaseURL,
		}, opts...))
	}
	return registry
}

func jobPolicies(cfg *config.Config) map[job.Kind]job.Policy {
	video := job.Policy{
		Interval:           cfg.PollInterval(),
		Timeout:            cfg.VideoTimeout(),
		MaxTransientErrors: cfg.Jobs.MaxTransientErrors,
	}
	audio := video
	audio.Timeout = cfg.AudioTimeout()
	return map[job.Kind]job.Policy{
		job.KindVideo:     video,
		job.KindVoiceover: audio,
		job.KindMusic:     audio,
	}
}
