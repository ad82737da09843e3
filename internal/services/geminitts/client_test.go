package geminitts

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidforge/internal/job"
	"vidforge/internal/services"
)

func TestSubmitReturnsSynchronousHandle(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/tts-model:generateContent" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got := req.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; got != "Charon" {
			t.Fatalf("unexpected voice %q", got)
		}
		if text := req.Contents[0].Parts[0].Text; !strings.HasPrefix(text, "Warm\n\n") {
			t.Fatalf("style not prefixed: %q", text)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{
					"inlineData": map[string]any{"mimeType": "audio/L16;codec=pcm;rate=24000", "data": base64.StdEncoding.EncodeToString(pcm)},
				}}},
			}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "tts-model"})
	spec := job.Spec{Kind: job.KindVoiceover, Prompt: "Hello there", Params: map[string]string{ParamVoice: "Charon", ParamStyle: "Warm"}}
	handle, err := client.Submit(context.Background(), spec)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !handle.Synchronous() || handle.Result.State != job.StateSucceeded {
		t.Fatalf("expected synchronous success, got %+v", handle)
	}

	dest := filepath.Join(t.TempDir(), "voiceover.wav")
	if err := client.Fetch(context.Background(), *handle.Result, dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 44+len(pcm) || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("bad wav header: %q", data[:12])
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 24000 {
		t.Fatalf("unexpected sample rate %d", rate)
	}
}

func TestSubmitUnknownVoice(t *testing.T) {
	client := NewClient(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1", Model: "m"})
	spec := job.Spec{Kind: job.KindVoiceover, Prompt: "x", Params: map[string]string{ParamVoice: "Nobody"}}
	if _, err := client.Submit(context.Background(), spec); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBlockedPromptIsProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	handle, err := client.Submit(context.Background(), job.Spec{Kind: job.KindVoiceover, Prompt: "x"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if handle.Result.State != job.StateFailed || !strings.Contains(handle.Result.Reason, "SAFETY") {
		t.Fatalf("unexpected result %+v", handle.Result)
	}
}

func TestSampleRateFromMime(t *testing.T) {
	if got := sampleRateFromMime("audio/L16;rate=16000"); got != 16000 {
		t.Fatalf("got %d", got)
	}
	if got := sampleRateFromMime("audio/L16"); got != defaultSampleRate {
		t.Fatalf("got %d", got)
	}
}

func TestVoiceNamesSorted(t *testing.T) {
	names := VoiceNames()
	if len(names) != len(Voices) || names[0] != "Achernar" {
		t.Fatalf("unexpected names %v", names[:3])
	}
}
