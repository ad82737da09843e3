package suno

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"vidforge/internal/job"
	"vidforge/internal/services"
	"vidforge/internal/services/httpapi"
)

const providerName = "suno"

// Params understood in job.Spec.Params.
const (
	ParamTitle        = "title"
	ParamInstrumental = "instrumental"
	ParamLyrics       = "lyrics"
	ParamBPM          = "bpm"
	ParamBrightness   = "brightness"
)

// Config captures the settings needed to reach Suno.
type Config struct {
	APIKey  string
	BaseURL string
}

// Client generates background music.
type Client struct {
	cfg  Config
	http *httpapi.Client
}

// NewClient constructs a Suno client.
func NewClient(cfg Config, opts ...httpapi.Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	opts = append([]httpapi.Option{httpapi.WithBearerToken(cfg.APIKey)}, opts...)
	return &Client{cfg: cfg, http: httpapi.New(providerName, cfg.BaseURL, opts...)}
}

func (c *Client) Name() string { return providerName }

type generationRequest struct {
	Prompt           string `json:"prompt"`
	Title            string `json:"title,omitempty"`
	Lyrics           string `json:"lyrics,omitempty"`
	MakeInstrumental bool   `json:"make_instrumental"`
	Duration         int    `json:"duration,omitempty"`
	WaitAudio        bool   `json:"wait_audio"`
}

type generation struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	AudioURL string  `json:"audio_url"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Error    string  `json:"error"`
}

// Submit creates a generation. The API answers with one object or a list;
// the first generation is tracked.
func (c *Client) Submit(ctx context.Context, spec job.Spec) (job.Handle, error) {
	if c.cfg.APIKey == "" {
		return job.Handle{}, services.Wrap(services.ErrConfiguration, providerName, "submit", "suno api key not configured", nil)
	}
	instrumental := true
	if raw := spec.Param(ParamInstrumental, ""); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return job.Handle{}, services.Wrap(services.ErrValidation, providerName, "submit", "instrumental must be a boolean", err)
		}
		instrumental = parsed
	}
	req := generationRequest{
		Prompt:           Prompt(spec),
		Title:            spec.Param(ParamTitle, ""),
		MakeInstrumental: instrumental,
		Duration:         spec.Duration,
	}
	if !instrumental {
		req.Lyrics = spec.Param(ParamLyrics, "")
	}

	var raw json.RawMessage
	if err := c.http.DoJSON(ctx, http.MethodPost, "v1/generations", req, &raw); err != nil {
		return job.Handle{}, err
	}
	gen, err := firstGeneration(raw)
	if err != nil {
		return job.Handle{}, err
	}
	return job.Handle{ID: gen.ID, Provider: providerName, Kind: spec.Kind}, nil
}

// Poll reads one generation's status.
func (c *Client) Poll(ctx context.Context, handle job.Handle) (job.Observation, error) {
	var gen generation
	if err := c.http.DoJSON(ctx, http.MethodGet, "v1/generations/"+url.PathEscape(handle.ID), nil, &gen); err != nil {
		return job.Observation{}, err
	}
	switch strings.ToLower(gen.Status) {
	case "complete":
		if gen.AudioURL == "" {
			return job.Observation{State: job.StateFailed, Reason: "generation complete without audio_url"}, nil
		}
		return job.Observation{State: job.StateSucceeded, URI: gen.AudioURL, MimeType: "audio/mpeg", Progress: 100}, nil
	case "failed", "error":
		reason := gen.Error
		if reason == "" {
			reason = "unknown error"
		}
		return job.Observation{State: job.StateFailed, Reason: "generation failed: " + reason}, nil
	default:
		return job.Observation{State: job.StateRunning, Progress: -1}, nil
	}
}

// Fetch downloads the finished track.
func (c *Client) Fetch(ctx context.Context, obs job.Observation, dest string) error {
	if obs.URI == "" {
		return services.Wrap(services.ErrTerminal, providerName, "fetch", "observation carries no audio url", nil)
	}
	return c.http.Download(ctx, obs.URI, dest)
}

// Prompt folds tempo and brightness hints into the text prompt, since the
// API has no dedicated fields for them.
func Prompt(spec job.Spec) string {
	prompt := strings.TrimSpace(spec.Prompt)
	var hints []string
	if bpm := spec.Param(ParamBPM, ""); bpm != "" {
		hints = append(hints, bpm+" BPM")
	}
	if raw := spec.Param(ParamBrightness, ""); raw != "" {
		if b, err := strconv.ParseFloat(raw, 64); err == nil {
			switch {
			case b >= 0.7:
				hints = append(hints, "bright tone")
			case b <= 0.3:
				hints = append(hints, "dark tone")
			}
		}
	}
	if len(hints) == 0 {
		return prompt
	}
	return prompt + " (" + strings.Join(hints, ", ") + ")"
}

func firstGeneration(raw json.RawMessage) (generation, error) {
	var list []generation
	if err := json.Unmarshal(raw, &list); err != nil {
		var single generation
		if err := json.Unmarshal(raw, &single); err != nil {
			return generation{}, services.Wrap(services.ErrTerminal, providerName, "submit", "unexpected response shape", err)
		}
		list = []generation{single}
	}
	if len(list) == 0 || list[0].ID == "" {
		return generation{}, services.Wrap(services.ErrTerminal, providerName, "submit", "no generation id returned", nil)
	}
	return list[0], nil
}
