package project

import (
	"os"
	"path/filepath"
)

// Layout resolves the files inside a project directory.
type Layout struct {
	Root string
	Slug string
}

// NewLayout returns the layout for a project rooted at dir.
func NewLayout(dir, slug string) Layout {
	return Layout{Root: dir, Slug: slug}
}

func (l Layout) ScenesDir() string { return filepath.Join(l.Root, "scenes") }
func (l Layout) AudioDir() string { return filepath.Join(l.Root, "audio") }
func (l Layout) WorkDir() string { return filepath.Join(l.Root, "work") }
func (l Layout) OutputDir() string { return filepath.Join(l.Root, "output") }

// Dirs lists every directory assembly expects to exist.
func (l Layout) Dirs() []string {
	return []string{l.ScenesDir(), l.AudioDir(), l.WorkDir(), l.OutputDir()}
}

// EnsureDirs creates the project subdirectories.
func (l Layout) EnsureDirs() error {
	for _, d := range l.Dirs() {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func (l Layout) BatchManifest() string { return filepath.Join(l.WorkDir(), "scenes_batch.json") }
func (l Layout) ConcatList() string { return filepath.Join(l.WorkDir(), "concat_list.txt") }
func (l Layout) Concatenated() string { return filepath.Join(l.WorkDir(), "video_concatenated.mp4") }
func (l Layout) Report() string { return filepath.Join(l.WorkDir(), "assembly_report.json") }
func (l Layout) LockPath() string { return filepath.Join(l.WorkDir(), ".assemble.lock") }
func (l Layout) Voiceover() string { return filepath.Join(l.AudioDir(), "voiceover.wav") }
func (l Layout) Music() string { return filepath.Join(l.AudioDir(), "background_music.mp3") }
func (l Layout) FinalMix() string { return filepath.Join(l.AudioDir(), "final_mix.mp3") }
func (l Layout) FinalOutput() string { return filepath.Join(l.OutputDir(), l.Slug+"_final.mp4") }
func (l Layout) ScenePath(s Scene) string { return filepath.Join(l.ScenesDir(), s.FileName()) }

// SilentPath is the audio-stripped copy of a scene clip.
func (l Layout) SilentPath(scenePath string) string {
	return filepath.Join(l.WorkDir(), "silent_"+filepath.Base(scenePath))
}
