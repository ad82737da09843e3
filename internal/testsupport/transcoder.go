package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"vidforge/internal/filtergraph"
	"vidforge/internal/media/ffmpeg"
	"vidforge/internal/media/ffprobe"
)

// FakeTranscoder records graphs instead of running ffmpeg and touches each
// graph's output file on success.
type FakeTranscoder struct {
	// FailWhen, when it returns true, makes Run fail with a ToolError.
	FailWhen func(filtergraph.Graph) bool
	// Stderr overrides the captured stderr of failed runs.
	Stderr string

	mu     sync.Mutex
	graphs []filtergraph.Graph
}

func (f *FakeTranscoder) Run(_ context.Context, g filtergraph.Graph) error {
	f.mu.Lock()
	f.graphs = append(f.graphs, g)
	f.mu.Unlock()
	if f.FailWhen != nil && f.FailWhen(g) {
		stderr := f.Stderr
		if stderr == "" {
			stderr = "Error initializing complex filters.\nInvalid argument\n"
		}
		return &ffmpeg.ToolError{
			Tool:     "ffmpeg",
			Args:     g.Args(),
			ExitCode: 1,
			Stderr:   stderr,
		}
	}
	if err := os.MkdirAll(filepath.Dir(g.Output), 0o755); err != nil {
		return err
	}
	return os.WriteFile(g.Output, []byte(strings.Join(g.Args(), " ")), 0o644)
}

// Graphs returns every graph passed to Run, in order.
func (f *FakeTranscoder) Graphs() []filtergraph.Graph {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]filtergraph.Graph(nil), f.graphs...)
}

// FakeProber answers media probes from a table, defaulting to a 6 second
// stereo clip with audio and video.
type FakeProber struct {
	Infos   map[string]ffprobe.Info
	Default ffprobe.Info
}

// NewFakeProber returns a prober with a sensible default.
func NewFakeProber() *FakeProber {
	return &FakeProber{
		Infos:   map[string]ffprobe.Info{},
		Default: ffprobe.Info{Duration: 6, HasVideo: true, HasAudio: true, AudioChannels: 2, Width: 1280, Height: 720},
	}
}

func (p *FakeProber) Probe(_ context.Context, path string) (ffprobe.Info, error) {
	if info, ok := p.Infos[path]; ok {
		return info, nil
	}
	if info, ok := p.Infos[filepath.Base(path)]; ok {
		return info, nil
	}
	return p.Default, nil
}
