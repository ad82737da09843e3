package geminitts

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"vidforge/internal/job"
	"vidforge/internal/services"
	"vidforge/internal/services/httpapi"
)

const providerName = "gemini-tts"

// Params understood in job.Spec.Params.
const (
	ParamVoice = "voice"
	ParamStyle = "style"
)

// Config captures the settings needed to reach the Gemini API.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client synthesizes speech with a Gemini TTS model.
type Client struct {
	cfg  Config
	http *httpapi.Client
}

// NewClient constructs a TTS client.
func NewClient(cfg Config, opts ...httpapi.Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	opts = append([]httpapi.Option{httpapi.WithHeader("x-goog-api-key", cfg.APIKey)}, opts...)
	return &Client{cfg: cfg, http: httpapi.New(providerName, cfg.BaseURL, opts...)}
}

func (c *Client) Name() string { return providerName }

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	SpeechConfig       speechConfig `json:"speechConfig"`
}

type speechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Submit synthesizes the prompt. The returned handle is synchronous.
func (c *Client) Submit(ctx context.Context, spec job.Spec) (job.Handle, error) {
	if c.cfg.APIKey == "" {
		return job.Handle{}, services.Wrap(services.ErrConfiguration, providerName, "submit", "google api key not configured", nil)
	}
	voice := spec.Param(ParamVoice, DefaultVoice)
	if !ValidVoice(voice) {
		return job.Handle{}, services.Wrap(services.ErrValidation, providerName, "submit", fmt.Sprintf("unknown voice %q", voice), nil)
	}
	text := spec.Prompt
	if style := spec.Param(ParamStyle, ""); style != "" {
		text = style + "\n\n" + text
	}
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	req.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = voice

	var resp generateResponse
	path := fmt.Sprintf("models/%s:generateContent", c.cfg.Model)
	if err := c.http.DoJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return job.Handle{}, err
	}
	obs := observe(resp)
	return job.Handle{ID: "sync", Provider: providerName, Kind: spec.Kind, Result: &obs}, nil
}

// Poll returns the result carried by the synchronous handle.
func (c *Client) Poll(_ context.Context, handle job.Handle) (job.Observation, error) {
	if handle.Result == nil {
		return job.Observation{}, services.Wrap(services.ErrTerminal, providerName, "poll", "handle carries no result", nil)
	}
	return *handle.Result, nil
}

// Fetch writes the PCM payload to dest as a WAV file.
func (c *Client) Fetch(_ context.Context, obs job.Observation, dest string) error {
	if len(obs.Data) == 0 {
		return services.Wrap(services.ErrTerminal, providerName, "fetch", "observation carries no audio", nil)
	}
	wav := EncodeWAV(obs.Data, sampleRateFromMime(obs.MimeType), pcmChannels)
	return httpapi.WriteAtomic(dest, bytes.NewReader(wav))
}

func observe(resp generateResponse) job.Observation {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return job.Observation{State: job.StateFailed, Reason: "prompt blocked: " + resp.PromptFeedback.BlockReason}
	}
	for _, candidate := range resp.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return job.Observation{State: job.StateFailed, Reason: "undecodable audio: " + err.Error()}
			}
			return job.Observation{State: job.StateSucceeded, Data: data, MimeType: p.InlineData.MimeType, Progress: 100}
		}
	}
	return job.Observation{State: job.StateFailed, Reason: "no audio data in response"}
}
