package veo_test

import (
	"context"
	"encoding/base64"
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
	"vidforge/internal/services/veo"
)

func TestSubmitPollFetchByURI(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "key" {
			t.Fatalf("missing api key header")
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/models/veo-test:predictLongRunning":
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			params := body["parameters"].(map[string]any)
			if params["aspectRatio"] != "9:16" || params["durationSeconds"].(float64) != 8 {
				t.Fatalf("unexpected parameters %v", params)
			}
			_, _ = w.Write([]byte(`{"name":"operations/op-1"}`))
		case r.URL.Path == "/operations/op-1":
			_, _ = w.Write([]byte(`{"name":"operations/op-1","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"` + server.URL + `/files/v.mp4"}}]}}}`))
		case r.URL.Path == "/files/v.mp4":
			_, _ = w.Write([]byte("mp4-bytes"))
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := veo.NewClient(veo.Config{APIKey: "key", BaseURL: server.URL, Model: "veo-test"})
	spec := job.Spec{Kind: job.KindVideo, Prompt: "sunrise", Duration: 8, Params: map[string]string{veo.ParamAspectRatio: "9:16"}}
	ctx := context.Background()

	handle, err := client.Submit(ctx, spec)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if handle.ID != "operations/op-1" || handle.Synchronous() {
		t.Fatalf("unexpected handle %+v", handle)
	}
	obs, err := client.Poll(ctx, handle)
	if err != nil || obs.State != job.StateSucceeded {
		t.Fatalf("Poll: %+v %v", obs, err)
	}
	dest := filepath.Join(t.TempDir(), "scene.mp4")
	if err := client.Fetch(ctx, obs, dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if data, _ := os.ReadFile(dest); string(data) != "mp4-bytes" {
		t.Fatalf("unexpected artifact %q", data)
	}
}

func TestPollRunningAndInlineBytes(t *testing.T) {
	polls := 0
	encoded := base64.StdEncoding.EncodeToString([]byte("inline-video"))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		polls++
		if polls == 1 {
			_, _ = w.Write([]byte(`{"name":"operations/x","done":false,"metadata":{"progressPercent":40}}`))
			return
		}
		_, _ = w.Write([]byte(`{"done":true,"response":{"generatedVideos":[{"video":{"bytesBase64Encoded":"` + encoded + `"}}]}}`))
	}))
	defer server.Close()

	client := veo.NewClient(veo.Config{APIKey: "key", BaseURL: server.URL, Model: "m"})
	handle := job.Handle{ID: "operations/x"}
	obs, err := client.Poll(context.Background(), handle)
	if err != nil || obs.State != job.StateRunning || obs.Progress != 40 {
		t.Fatalf("first poll: %+v %v", obs, err)
	}
	obs, err = client.Poll(context.Background(), handle)
	if err != nil || obs.State != job.StateSucceeded || string(obs.Data) != "inline-video" {
		t.Fatalf("second poll: %+v %v", obs, err)
	}
	dest := filepath.Join(t.TempDir(), "out.mp4")
	if err := client.Fetch(context.Background(), obs, dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestOperationErrorIsProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"done":true,"error":{"code":3,"message":"prompt rejected"}}`))
	}))
	defer server.Close()

	client := veo.NewClient(veo.Config{APIKey: "key", BaseURL: server.URL, Model: "m"})
	obs, err := client.Poll(context.Background(), job.Handle{ID: "operations/y"})
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if obs.State != job.StateFailed || !strings.Contains(obs.Reason, "prompt rejected") {
		t.Fatalf("unexpected observation %+v", obs)
	}
}

func TestSubmitSeedVideoInlined(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.mp4")
	if err := os.WriteFile(seed, []byte("seed"), 0o644); err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Instances []struct {
				Video *struct {
					MimeType string `json:"mimeType"`
				} `json:"video"`
				Image any `json:"image"`
			} `json:"instances"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Instances[0].Video == nil || body.Instances[0].Video.MimeType != "video/mp4" || body.Instances[0].Image != nil {
			t.Fatalf("seed not sent as video: %+v", body)
		}
		_, _ = w.Write([]byte(`{"name":"operations/z"}`))
	}))
	defer server.Close()

	client := veo.NewClient(veo.Config{APIKey: "key", BaseURL: server.URL, Model: "m"})
	spec := job.Spec{Kind: job.KindVideo, Prompt: "continue"}.WithSeed(seed)
	if _, err := client.Submit(context.Background(), spec); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestSubmitWithoutKeyIsConfigurationError(t *testing.T) {
	client := veo.NewClient(veo.Config{BaseURL: "http://127.0.0.1:1", Model: "m"})
	_, err := client.Submit(context.Background(), job.Spec{Kind: job.KindVideo, Prompt: "x"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSubmitRejectedIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := veo.NewClient(veo.Config{APIKey: "key", BaseURL: server.URL, Model: "m"})
	_, err := client.Submit(context.Background(), job.Spec{Kind: job.KindVideo, Prompt: "x"})
	if !errors.Is(err, services.ErrTerminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}
}
