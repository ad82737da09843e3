package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"vidforge/internal/services"
)

const (
	DefaultDurationTarget     = 30
	DefaultAspectRatio        = "16:9"
	DefaultResolution         = "720p"
	DefaultSceneCount         = 3
	DefaultSceneDuration      = 6
	DefaultVoice              = "Charon"
	DefaultVoiceStyle         = "Professional, warm, engaging"
	DefaultMusicBPM           = 100
	DefaultMusicBrightness    = 0.5
	DefaultTransition         = "fade"
	DefaultTransitionDuration = 0.5
	DefaultMusicVolume        = 0.3
	DefaultFadeIn             = 1.0
	DefaultFadeOut            = 2.0
	// musicTail pads the music bed past the target so the fade out has room.
	musicTail = 5
)

// AspectRatios lists the ratios init-project accepts.
var AspectRatios = []string{"16:9", "9:16", "1:1", "4:3"}

const gitignoreContents = "work/\n*.wav\n*.mp3\n*.mp4\n!output/*.mp4\n"

// InitOptions configures Init.
type InitOptions struct {
	// ParentDir holds the new project directory; defaults to the working dir.
	ParentDir      string
	DurationTarget int
	AspectRatio    string
	AudioStrategy  AudioStrategy
	Scenes         int
	Now            func() time.Time
}

// Initialized describes a freshly created project.
type Initialized struct {
	Dir        string  `json:"project_path"`
	ConfigPath string  `json:"project_file"`
	Storyboard string  `json:"storyboard_file"`
	Title      string  `json:"title"`
	Config     *Config `json:"-"`
}

// Init scaffolds a new project named name. It fails if the directory exists.
func Init(name string, opts InitOptions) (Initialized, error) {
	name = strings.TrimSpace(name)
	slug := Slugify(name)
	if slug == "" {
		return Initialized{}, services.Wrap(services.ErrValidation, "project", "init", fmt.Sprintf("name %q has no usable characters", name), nil)
	}
	opts = opts.withDefaults()
	if !slices.Contains(AspectRatios, opts.AspectRatio) {
		return Initialized{}, services.Wrap(services.ErrValidation, "project", "init",
			fmt.Sprintf("aspect ratio %q must be one of %s", opts.AspectRatio, strings.Join(AspectRatios, ", ")), nil)
	}
	if !opts.AudioStrategy.Valid() {
		return Initialized{}, services.Wrap(services.ErrValidation, "project", "init",
			fmt.Sprintf("unknown audio strategy %q", opts.AudioStrategy), nil)
	}
	if opts.Scenes < 1 {
		return Initialized{}, services.Wrap(services.ErrValidation, "project", "init", "scene count must be >= 1", nil)
	}
	if opts.DurationTarget < 1 {
		return Initialized{}, services.Wrap(services.ErrValidation, "project", "init", "duration must be >= 1", nil)
	}

	dir := filepath.Join(opts.ParentDir, slug)
	if _, err := os.Stat(dir); err == nil {
		return Initialized{}, services.Wrap(services.ErrValidation, "project", "init", "project already exists: "+dir, nil)
	} else if !errors.Is(err, os.ErrNotExist) {
		return Initialized{}, fmt.Errorf("stat project dir: %w", err)
	}

	layout := NewLayout(dir, slug)
	for _, d := range layout.Dirs() {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return Initialized{}, fmt.Errorf("create %s: %w", d, err)
		}
	}

	cfg := newConfig(name, opts)
	if err := cfg.Save(dir); err != nil {
		return Initialized{}, err
	}
	title := DisplayTitle(name)
	storyboard := filepath.Join(dir, "storyboard.md")
	if err := os.WriteFile(storyboard, []byte(renderStoryboard(title, cfg)), 0o644); err != nil {
		return Initialized{}, fmt.Errorf("write storyboard: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignoreContents), 0o644); err != nil {
		return Initialized{}, fmt.Errorf("write .gitignore: %w", err)
	}
	return Initialized{
		Dir:        dir,
		ConfigPath: filepath.Join(dir, FileName),
		Storyboard: storyboard,
		Title:      title,
		Config:     cfg,
	}, nil
}

func (o InitOptions) withDefaults() InitOptions {
	if o.ParentDir == "" {
		o.ParentDir = "."
	}
	if o.DurationTarget == 0 {
		o.DurationTarget = DefaultDurationTarget
	}
	if strings.TrimSpace(o.AspectRatio) == "" {
		o.AspectRatio = DefaultAspectRatio
	}
	if o.AudioStrategy == "" {
		o.AudioStrategy = StrategyCustom
	}
	if o.Scenes == 0 {
		o.Scenes = DefaultSceneCount
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func newConfig(name string, opts InitOptions) *Config {
	durations := SplitDurations(opts.DurationTarget, opts.Scenes)
	scenes := make([]Scene, len(durations))
	for i, d := range durations {
		scenes[i] = Scene{
			ID:       i + 1,
			Name:     fmt.Sprintf("scene%d", i+1),
			Prompt:   fmt.Sprintf("Describe scene %d visual...", i+1),
			Duration: d,
		}
	}
	return &Config{
		Name:           name,
		Created:        opts.Now().Format(time.RFC3339),
		DurationTarget: opts.DurationTarget,
		AspectRatio:    opts.AspectRatio,
		Resolution:     DefaultResolution,
		AudioStrategy:  opts.AudioStrategy,
		Scenes:         scenes,
		Voiceover: Voiceover{
			Enabled: true,
			Text:    "Write the voiceover script here...",
			Voice:   DefaultVoice,
			Style:   DefaultVoiceStyle,
		},
		Music: Music{
			Enabled:    true,
			Prompt:     "Describe the music style...",
			Duration:   opts.DurationTarget + musicTail,
			BPM:        DefaultMusicBPM,
			Brightness: DefaultMusicBrightness,
		},
		Assembly: Assembly{
			Transition:         DefaultTransition,
			TransitionDuration: DefaultTransitionDuration,
			MusicVolume:        DefaultMusicVolume,
			FadeIn:             DefaultFadeIn,
			FadeOut:            DefaultFadeOut,
		},
	}
}

// SplitDurations divides target seconds across n scenes, snapping each share
// to the nearest accepted scene duration so the generated project loads.
func SplitDurations(target, n int) []int {
	if n < 1 {
		return nil
	}
	share := target / n
	last := target - share*(n-1)
	out := make([]int, n)
	for i := range out {
		d := share
		if i == n-1 {
			d = last
		}
		out[i] = snapDuration(d)
	}
	return out
}

func snapDuration(d int) int {
	best := SceneDurations[0]
	for _, allowed := range SceneDurations[1:] {
		if abs(allowed-d) < abs(best-d) || (abs(allowed-d) == abs(best-d) && allowed > best) {
			best = allowed
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases name, folds accents, turns spaces and dashes into
// underscores, and keeps only [a-z0-9_].
func Slugify(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r == ' ' || r == '-':
			b.WriteByte('_')
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DisplayTitle returns the NFC-normalized, title-cased project name.
func DisplayTitle(name string) string {
	cleaned := strings.Join(strings.Fields(norm.NFC.String(name)), " ")
	if cleaned == "" {
		return "Untitled Project"
	}
	return cases.Title(language.Und, cases.NoLower).String(cleaned)
}

func renderStoryboard(title string, cfg *Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Storyboard\n\n", title)
	b.WriteString("## Overview\n")
	fmt.Fprintf(&b, "**Duration Target:** %ds\n", cfg.DurationTarget)
	fmt.Fprintf(&b, "**Aspect Ratio:** %s\n", cfg.AspectRatio)
	b.WriteString("**Style:** [Describe the overall style]\n\n---\n\n## Scene Breakdown\n\n")
	start := 0
	for _, s := range cfg.Scenes {
		fmt.Fprintf(&b, "### Scene %d: [Title] (%d-%ds)\n", s.ID, start, start+s.Duration)
		b.WriteString("**Visual:** [Describe what we see]\n")
		b.WriteString("**Audio:** [Music only / Voiceover: \"...\"]\n")
		b.WriteString("**Notes:** []\n\n")
		start += s.Duration
	}
	b.WriteString("---\n\n## Voiceover Script\n\n")
	b.WriteString("> [Write the complete voiceover script here.\n> This will be used for TTS generation.]\n\n")
	b.WriteString("---\n\n## Music Direction\n\n")
	b.WriteString("- **Style:** [e.g., Modern electronic, cinematic, upbeat]\n")
	b.WriteString("- **Energy:** [Low / Medium / High]\n")
	b.WriteString("- **Key moments:** [e.g., \"Build at 15s, resolve at end\"]\n\n")
	b.WriteString("---\n\n## Technical Notes\n\n")
	fmt.Fprintf(&b, "- [ ] Audio strategy: %s\n", cfg.AudioStrategy)
	fmt.Fprintf(&b, "- [ ] Transitions: %s (%gs)\n", cfg.Assembly.Transition, cfg.Assembly.TransitionDuration)
	fmt.Fprintf(&b, "- [ ] Resolution: %s\n", cfg.Resolution)
	return b.String()
}
