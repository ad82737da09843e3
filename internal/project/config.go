package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"vidforge/internal/fileutil"
	"vidforge/internal/filtergraph"
	"vidforge/internal/services"
)

// FileName is the project configuration file inside a project directory.
const FileName = "project.json"

// AudioStrategy selects how the final soundtrack is produced.
type AudioStrategy string

const (
	// StrategyVeoAudio keeps the audio generated with each scene.
	StrategyVeoAudio AudioStrategy = "veo_audio"
	// StrategySilent strips scene audio and adds nothing.
	StrategySilent AudioStrategy = "silent"
	// StrategyCustom strips scene audio and lays voiceover and music.
	StrategyCustom AudioStrategy = "custom"
)

// Strategies lists the accepted strategies.
var Strategies = []AudioStrategy{StrategyCustom, StrategyVeoAudio, StrategySilent}

// Valid reports whether s is a known strategy.
func (s AudioStrategy) Valid() bool {
	return slices.Contains(Strategies, s)
}

// Label is the display name used in the status table.
func (s AudioStrategy) Label() string {
	switch s {
	case StrategyVeoAudio:
		return "UseGeneratedAudio"
	case StrategySilent:
		return "Silent"
	case StrategyCustom:
		return "CustomAudioTrack"
	default:
		return string(s)
	}
}

// UnmarshalJSON rejects unknown strategies at load time.
func (s *AudioStrategy) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStrategy(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStrategy parses a strategy name.
func ParseStrategy(raw string) (AudioStrategy, error) {
	s := AudioStrategy(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown audio strategy %q (want custom, veo_audio, or silent)", raw)
	}
	return s, nil
}

// SceneDurations are the clip lengths the video provider accepts.
var SceneDurations = []int{4, 6, 8}

// Scene is one generated clip.
type Scene struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Prompt   string `json:"prompt"`
	Duration int    `json:"duration"`
	Notes    string `json:"notes"`
}

// FileName is the clip file the scene is generated into under scenes/.
func (s Scene) FileName() string { return s.Name + ".mp4" }

// validName reports whether name can be used verbatim as a file name stem.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// Voiceover configures narration.
type Voiceover struct {
	Enabled bool   `json:"enabled"`
	Text    string `json:"text"`
	Voice   string `json:"voice"`
	Style   string `json:"style"`
}

// Music configures the background bed.
type Music struct {
	Enabled    bool    `json:"enabled"`
	Prompt     string  `json:"prompt"`
	Duration   int     `json:"duration"`
	BPM        int     `json:"bpm"`
	Brightness float64 `json:"brightness"`
}

// Assembly configures transitions and mixing.
type Assembly struct {
	Transition         string  `json:"transition"`
	TransitionDuration float64 `json:"transition_duration"`
	MusicVolume        float64 `json:"music_volume"`
	FadeIn             float64 `json:"fade_in"`
	FadeOut            float64 `json:"fade_out"`
}

// Config is the typed project.json document.
type Config struct {
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Created        string        `json:"created"`
	DurationTarget int           `json:"duration_target"`
	AspectRatio    string        `json:"aspect_ratio"`
	Resolution     string        `json:"resolution"`
	AudioStrategy  AudioStrategy `json:"audio_strategy"`
	Scenes         []Scene       `json:"scenes"`
	Voiceover      Voiceover     `json:"voiceover"`
	Music          Music         `json:"music"`
	Assembly       Assembly      `json:"assembly"`
}

// Load reads and validates dir/project.json.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "project", "load", FileName+" not found in "+dir, err)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg := &Config{AudioStrategy: StrategyCustom}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, services.Wrap(services.ErrValidation, "project", "load", "parse "+path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to dir/project.json.
func (c *Config) Save(dir string) error {
	if err := fileutil.WriteJSON(filepath.Join(dir, FileName), c); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Name = strings.TrimSpace(c.Name)
	if strings.TrimSpace(c.AspectRatio) == "" {
		c.AspectRatio = DefaultAspectRatio
	}
	if strings.TrimSpace(c.Resolution) == "" {
		c.Resolution = DefaultResolution
	}
	for i := range c.Scenes {
		if c.Scenes[i].Duration == 0 {
			c.Scenes[i].Duration = DefaultSceneDuration
		}
		if strings.TrimSpace(c.Scenes[i].Name) == "" {
			c.Scenes[i].Name = fmt.Sprintf("scene%d", i+1)
		}
	}
}

// Validate checks everything that must hold before any provider call.
func (c *Config) Validate() error {
	var problems []string
	if c.Name == "" {
		problems = append(problems, "name is required")
	}
	if !c.AudioStrategy.Valid() {
		problems = append(problems, fmt.Sprintf("audio_strategy %q is not one of custom, veo_audio, silent", c.AudioStrategy))
	}
	if len(c.Scenes) == 0 {
		problems = append(problems, "at least one scene is required")
	}
	seen := make(map[string]int, len(c.Scenes))
	for i, s := range c.Scenes {
		label := fmt.Sprintf("scene %d", i+1)
		if s.ID != 0 {
			label = fmt.Sprintf("scene %d", s.ID)
		}
		if !slices.Contains(SceneDurations, s.Duration) {
			problems = append(problems, fmt.Sprintf("%s: duration %ds must be 4, 6, or 8", label, s.Duration))
		}
		if strings.TrimSpace(s.Prompt) == "" {
			problems = append(problems, label+": prompt is required")
		}
		if !validName(s.Name) {
			problems = append(problems, fmt.Sprintf("%s: name %q must be a plain file name", label, s.Name))
		}
		key := strings.ToLower(s.Name)
		if prev, dup := seen[key]; dup {
			problems = append(problems, fmt.Sprintf("%s: name %q repeats scene %d", label, s.Name, prev+1))
		}
		seen[key] = i
	}
	if _, _, err := filtergraph.Dimensions(c.Resolution, c.AspectRatio); err != nil {
		problems = append(problems, err.Error())
	}
	if t := strings.TrimSpace(c.Assembly.Transition); t != "" && !filtergraph.ValidTransition(t) {
		problems = append(problems, fmt.Sprintf("assembly.transition %q is not supported", t))
	}
	if c.Assembly.TransitionDuration < 0 {
		problems = append(problems, "assembly.transition_duration must be >= 0")
	}
	if c.Assembly.MusicVolume < 0 {
		problems = append(problems, "assembly.music_volume must be >= 0")
	}
	if len(problems) > 0 {
		return services.Wrap(services.ErrValidation, "project", "validate", strings.Join(problems, "; "), nil)
	}
	return nil
}

// Slug returns the filesystem-safe project name.
func (c *Config) Slug() string {
	return Slugify(c.Name)
}

// TotalDuration sums scene durations in seconds.
func (c *Config) TotalDuration() int {
	total := 0
	for _, s := range c.Scenes {
		total += s.Duration
	}
	return total
}
