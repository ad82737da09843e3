package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vidforge/internal/services"
)

func TestDoJSONSendsHeadersAndDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/things" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Fatalf("unexpected content type %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))
	defer server.Close()

	client := New("demo", server.URL+"/", WithBearerToken("secret"))
	var out struct {
		ID string `json:"id"`
	}
	if err := client.DoJSON(context.Background(), http.MethodPost, "v1/things", map[string]string{"a": "b"}, &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.ID != "abc" {
		t.Fatalf("unexpected id %q", out.ID)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusRequestTimeout, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		}))
		err := New("demo", server.URL).DoJSON(context.Background(), http.MethodGet, "x", nil, nil)
		server.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := errors.Is(err, services.ErrTransient); got != tc.transient {
			t.Fatalf("status %d: transient=%v, want %v (%v)", tc.status, got, tc.transient, err)
		}
		if got := errors.Is(err, services.ErrTerminal); got == tc.transient {
			t.Fatalf("status %d: terminal marker mismatch (%v)", tc.status, err)
		}
		statusErr, ok := AsStatusError(err)
		if !ok || statusErr.StatusCode != tc.status || statusErr.RetryAfter != 7*time.Second {
			t.Fatalf("status %d: unexpected status error %+v", tc.status, statusErr)
		}
	}
}

func TestNetworkErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	err := New("demo", url).DoJSON(context.Background(), http.MethodGet, "x", nil, nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient, got %v", err)
	}
}

func TestCancelledContextIsNotTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer server.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New("demo", server.URL).DoJSON(ctx, http.MethodGet, "x", nil, nil)
	if !errors.Is(err, context.Canceled) || errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected bare cancellation, got %v", err)
	}
}

func TestMalformedBodyIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	var out map[string]any
	err := New("demo", server.URL).DoJSON(context.Background(), http.MethodGet, "x", nil, &out)
	if !errors.Is(err, services.ErrTerminal) {
		t.Fatalf("expected terminal, got %v", err)
	}
}

func TestDownloadWritesArtifact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("video-bytes"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "nested", "clip.mp4")
	if err := New("demo", "http://unused").Download(context.Background(), server.URL+"/file", dest); err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "video-bytes" {
		t.Fatalf("unexpected artifact %q (%v)", data, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(dest))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestDownloadFailureLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	err := New("demo", "").Download(context.Background(), server.URL, dest)
	if err == nil || !strings.Contains(err.Error(), "http 403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatalf("dest should not exist: %v", statErr)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := ParseRetryAfter("3"); !ok || d != 3*time.Second {
		t.Fatalf("seconds: %v %v", d, ok)
	}
	if _, ok := ParseRetryAfter("-1"); ok {
		t.Fatal("negative should be rejected")
	}
	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	if d, ok := ParseRetryAfter(future); !ok || d <= 0 {
		t.Fatalf("date: %v %v", d, ok)
	}
}
