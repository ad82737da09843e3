package veo

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"vidforge/internal/job"
	"vidforge/internal/services"
	"vidforge/internal/services/httpapi"
)

const providerName = "veo"

// Params understood in job.Spec.Params.
const (
	ParamAspectRatio    = "aspect_ratio"
	ParamResolution     = "resolution"
	ParamNegativePrompt = "negative_prompt"
)

// Config captures the settings needed to reach the Veo API.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client talks to the Veo long-running prediction API.
type Client struct {
	cfg  Config
	http *httpapi.Client
}

// NewClient constructs a Veo client. Extra options are passed to the
// underlying transport.
func NewClient(cfg Config, opts ...httpapi.Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	opts = append([]httpapi.Option{httpapi.WithHeader("x-goog-api-key", cfg.APIKey)}, opts...)
	return &Client{cfg: cfg, http: httpapi.New(providerName, cfg.BaseURL, opts...)}
}

func (c *Client) Name() string { return providerName }

type media struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
	MimeType           string `json:"mimeType,omitempty"`
	URI                string `json:"uri,omitempty"`
}

type instance struct {
	Prompt string `json:"prompt"`
	Image  *media `json:"image,omitempty"`
	Video  *media `json:"video,omitempty"`
}

type parameters struct {
	AspectRatio     string `json:"aspectRatio,omitempty"`
	Resolution      string `json:"resolution,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	NegativePrompt  string `json:"negativePrompt,omitempty"`
	SampleCount     int    `json:"sampleCount"`
}

type predictRequest struct {
	Instances  []instance `json:"instances"`
	Parameters parameters `json:"parameters"`
}

type operation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Metadata struct {
		ProgressPercent float64 `json:"progressPercent"`
	} `json:"metadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []generated `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
		GeneratedVideos []generated `json:"generatedVideos"`
	} `json:"response"`
}

type generated struct {
	URI   string `json:"uri"`
	Video media  `json:"video"`
}

// Submit starts a prediction. A seed image or video is inlined as base64.
func (c *Client) Submit(ctx context.Context, spec job.Spec) (job.Handle, error) {
	if c.cfg.APIKey == "" {
		return job.Handle{}, services.Wrap(services.ErrConfiguration, providerName, "submit", "google api key not configured", nil)
	}
	inst := instance{Prompt: spec.Prompt}
	if spec.Seed != "" {
		seed, isVideo, err := loadSeed(spec.Seed)
		if err != nil {
			return job.Handle{}, err
		}
		if isVideo {
			inst.Video = seed
		} else {
			inst.Image = seed
		}
	}
	req := predictRequest{
		Instances: []instance{inst},
		Parameters: parameters{
			AspectRatio:     spec.Param(ParamAspectRatio, ""),
			Resolution:      spec.Param(ParamResolution, ""),
			DurationSeconds: spec.Duration,
			NegativePrompt:  spec.Param(ParamNegativePrompt, ""),
			SampleCount:     1,
		},
	}
	var op operation
	path := fmt.Sprintf("models/%s:predictLongRunning", c.cfg.Model)
	if err := c.http.DoJSON(ctx, http.MethodPost, path, req, &op); err != nil {
		return job.Handle{}, err
	}
	handle := job.Handle{ID: op.Name, Provider: providerName, Kind: spec.Kind}
	if op.Done {
		obs := observe(op)
		handle.Result = &obs
		return handle, nil
	}
	if op.Name == "" {
		return job.Handle{}, services.Wrap(services.ErrTerminal, providerName, "submit", "response carried no operation name", nil)
	}
	return handle, nil
}

// Poll reads the operation state.
func (c *Client) Poll(ctx context.Context, handle job.Handle) (job.Observation, error) {
	if handle.Result != nil {
		return *handle.Result, nil
	}
	var op operation
	if err := c.http.DoJSON(ctx, http.MethodGet, handle.ID, nil, &op); err != nil {
		return job.Observation{}, err
	}
	return observe(op), nil
}

// Fetch writes the generated video to dest.
func (c *Client) Fetch(ctx context.Context, obs job.Observation, dest string) error {
	switch {
	case obs.URI != "":
		return c.http.Download(ctx, obs.URI, dest)
	case len(obs.Data) > 0:
		return httpapi.WriteAtomic(dest, bytes.NewReader(obs.Data))
	default:
		return services.Wrap(services.ErrTerminal, providerName, "fetch", "observation carries no video", nil)
	}
}

func observe(op operation) job.Observation {
	if !op.Done {
		progress := -1.0
		if op.Metadata.ProgressPercent > 0 {
			progress = op.Metadata.ProgressPercent
		}
		return job.Observation{State: job.StateRunning, Progress: progress}
	}
	if op.Error != nil {
		return job.Observation{State: job.StateFailed, Reason: fmt.Sprintf("veo error %d: %s", op.Error.Code, op.Error.Message)}
	}
	var samples []generated
	if op.Response != nil {
		samples = op.Response.GenerateVideoResponse.GeneratedSamples
		if len(samples) == 0 {
			samples = op.Response.GeneratedVideos
		}
	}
	if len(samples) == 0 {
		return job.Observation{State: job.StateFailed, Reason: "no videos generated"}
	}
	sample := samples[0]
	obs := job.Observation{State: job.StateSucceeded, Progress: 100, MimeType: "video/mp4"}
	switch {
	case sample.URI != "":
		obs.URI = sample.URI
	case sample.Video.URI != "":
		obs.URI = sample.Video.URI
	case sample.Video.BytesBase64Encoded != "":
		data, err := base64.StdEncoding.DecodeString(sample.Video.BytesBase64Encoded)
		if err != nil {
			return job.Observation{State: job.StateFailed, Reason: "undecodable inline video: " + err.Error()}
		}
		obs.Data = data
	default:
		return job.Observation{State: job.StateFailed, Reason: "no video data in response"}
	}
	return obs
}

func loadSeed(path string) (*media, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, services.Wrap(services.ErrValidation, providerName, "submit", "read seed "+path, err)
	}
	mime, isVideo := seedMime(path)
	return &media{BytesBase64Encoded: base64.StdEncoding.EncodeToString(data), MimeType: mime}, isVideo, nil
}

func seedMime(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4":
		return "video/mp4", true
	case ".mov":
		return "video/quicktime", true
	case ".webm":
		return "video/webm", true
	case ".jpg", ".jpeg":
		return "image/jpeg", false
	case ".webp":
		return "image/webp", false
	default:
		return "image/png", false
	}
}
