package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"vidforge/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || result.Detail == "" {
		t.Fatalf("expected failure with detail, got %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected pass with 1 byte minimum: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, ^uint64(0)); result.Passed {
		t.Fatal("expected failure with impossible minimum")
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckAPIKey(t *testing.T) {
	if CheckAPIKey("k", " ").Passed {
		t.Fatal("blank key should fail")
	}
	result := CheckAPIKey("k", "secret-value")
	if !result.Passed || result.Detail != "configured" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckGoogleAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "good" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckGoogleAPI(context.Background(), srv.URL, "good"); !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
	if result := CheckGoogleAPI(context.Background(), srv.URL, "bad"); result.Passed {
		t.Fatal("expected auth failure")
	}
	if result := CheckGoogleAPI(context.Background(), "", "good"); result.Passed {
		t.Fatal("expected failure for missing url")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_KeysOptionalUnlessNeeded(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.FFmpeg.Binary = "sh"
	cfg.FFmpeg.FFprobeBinary = "definitely-missing-ffprobe"

	results := RunAll(context.Background(), &cfg, Options{})
	if failures := Failures(results); len(failures) != 0 {
		t.Fatalf("unexpected failures %+v", failures)
	}

	results = RunAll(context.Background(), &cfg, Options{NeedGoogle: true})
	failures := Failures(results)
	if len(failures) != 1 || failures[0].Name != "Google API key" {
		t.Fatalf("expected google key failure, got %+v", failures)
	}
}
