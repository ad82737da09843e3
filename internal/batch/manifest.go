package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"vidforge/internal/fileutil"
	"vidforge/internal/job"
	"vidforge/internal/services"
)

// ManifestEntry is one job in a manifest file.
type ManifestEntry struct {
	Prompt   string `json:"prompt"`
	Duration int    `json:"duration,omitempty"`
	Output   string `json:"output,omitempty"`
	// Image seeds image-to-video generation.
	Image string `json:"image,omitempty"`
}

// LoadManifest reads a JSON array of entries from path.
func LoadManifest(path string) ([]ManifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "batch", "load manifest", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, services.Wrap(services.ErrValidation, "batch", "load manifest", "parse "+path, err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Prompt) == "" {
			return nil, services.Wrap(services.ErrValidation, "batch", "load manifest",
				fmt.Sprintf("entry %d has no prompt", i+1), nil)
		}
	}
	return entries, nil
}

// SaveManifest writes entries as indented JSON, creating parent directories.
func SaveManifest(path string, entries []ManifestEntry) error {
	if entries == nil {
		entries = []ManifestEntry{}
	}
	if err := fileutil.WriteJSON(path, entries); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// SpecsFromManifest turns entries into specs of kind, merging params into
// every spec.
func SpecsFromManifest(entries []ManifestEntry, kind job.Kind, params map[string]string) []job.Spec {
	specs := make([]job.Spec, 0, len(entries))
	for _, e := range entries {
		p := make(map[string]string, len(params)+1)
		for k, v := range params {
			p[k] = v
		}
		if e.Duration > 0 {
			p["duration_seconds"] = strconv.Itoa(e.Duration)
		}
		specs = append(specs, job.Spec{
			Kind:       kind,
			Prompt:     e.Prompt,
			Duration:   e.Duration,
			Seed:       e.Image,
			OutputName: e.Output,
			Params:     p,
		})
	}
	return specs
}
