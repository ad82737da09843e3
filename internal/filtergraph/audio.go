package filtergraph

import (
	"fmt"
	"path/filepath"
	"strings"
)

// StripAudio drops every audio stream and copies video untouched.
func StripAudio(input, output string) Graph {
	return Graph{
		Inputs:      inputs(input),
		Maps:        []string{"0:v"},
		OutputArgs:  []string{"-an", "-c:v", "copy"},
		Output:      output,
		Description: "strip audio",
	}
}

// Track is an audio input with the facts mixing decisions depend on.
// Channels and Duration are zero when unknown.
type Track struct {
	Path     string
	Channels int
	Duration float64
	// Gain applies to MixTracks; zero means unity.
	Gain float64
}

// MixOptions shape the music bed under a voice track.
type MixOptions struct {
	MusicVolume float64
	FadeIn      float64
	FadeOut     float64
	// Duck lowers the music under speech with sidechaincompress.
	Duck      bool
	Normalize bool
}

const (
	duckFilter      = "sidechaincompress=threshold=0.05:ratio=8:attack=20:release=400"
	loudnormFilter  = "loudnorm=I=-16:TP=-1.5:LRA=11"
	voiceFormat     = "aformat=sample_rates=48000:channel_layouts=stereo"
	mixDropout      = "amix=inputs=2:duration=longest:dropout_transition=2"
	defaultMixLabel = "[out]"
)

// Mix lays music under voice. Ducking is only attempted when both tracks
// report the same non-zero channel count; otherwise the graph falls back to a
// plain gain mix and is marked Degraded so callers can log it.
func Mix(voice, music Track, opts MixOptions, output string) (Graph, error) {
	if strings.TrimSpace(voice.Path) == "" || strings.TrimSpace(music.Path) == "" {
		return Graph{}, invalid("mix", "voice and music tracks are required")
	}
	if opts.MusicVolume < 0 {
		return Graph{}, invalid("mix", "music volume must be >= 0")
	}
	musicChain := musicFilters(opts, voice.Duration)
	canDuck := voice.Channels > 0 && voice.Channels == music.Channels

	g := Graph{
		Inputs: inputs(voice.Path, music.Path),
		Output: output,
	}
	var parts []string
	switch {
	case opts.Duck && canDuck:
		parts = []string{
			"[0:a]" + voiceFormat + ",asplit=2[voice][sc]",
			"[1:a]" + musicChain + "[music]",
			"[music][sc]" + duckFilter + "[ducked]",
			"[voice][ducked]" + mixDropout + "[mix]",
		}
		g.Description = "voice and music with ducking"
	default:
		parts = []string{
			"[0:a]" + voiceFormat + "[voice]",
			"[1:a]" + musicChain + "[music]",
			"[voice][music]" + mixDropout + "[mix]",
		}
		g.Description = "voice and music"
		if opts.Duck {
			g.Degraded = true
			g.Description = "voice and music without ducking"
		}
	}
	parts = append(parts, finalAudio("[mix]", opts.Normalize))
	g.Filter = strings.Join(parts, ";")
	g.Maps = []string{defaultMixLabel}
	g.OutputArgs = audioCodecFor(output)
	return g, nil
}

// FallbackMix is the last-resort voice and music mix: formatted voice, gained
// music, plain amix.
func FallbackMix(voicePath, musicPath string, musicVolume float64, output string) Graph {
	return Graph{
		Inputs: inputs(voicePath, musicPath),
		Filter: fmt.Sprintf("[0:a]%s[v];[1:a]%s[m];[v][m]amix=inputs=2:duration=longest%s",
			voiceFormat, Volume(musicVolume), defaultMixLabel),
		Maps:        []string{defaultMixLabel},
		OutputArgs:  audioCodecFor(output),
		Output:      output,
		Degraded:    true,
		Description: "fallback voice and music",
	}
}

// MixTracks mixes any number of tracks, each with its own gain.
func MixTracks(tracks []Track, normalize bool, output string) (Graph, error) {
	if len(tracks) == 0 {
		return Graph{}, invalid("mix", "no tracks to mix")
	}
	g := Graph{Output: output, Description: fmt.Sprintf("mix %d tracks", len(tracks))}
	parts := make([]string, 0, len(tracks)+2)
	var labels strings.Builder
	for i, t := range tracks {
		if strings.TrimSpace(t.Path) == "" {
			return Graph{}, invalid("mix", fmt.Sprintf("track %d has no path", i+1))
		}
		gain := t.Gain
		if gain == 0 {
			gain = 1
		}
		if gain < 0 {
			return Graph{}, invalid("mix", fmt.Sprintf("track %d gain must be >= 0", i+1))
		}
		g.Inputs = append(g.Inputs, Input{Path: t.Path})
		parts = append(parts, fmt.Sprintf("[%d:a]%s[a%d]", i, Volume(gain), i))
		fmt.Fprintf(&labels, "[a%d]", i)
	}
	parts = append(parts, fmt.Sprintf("%samix=inputs=%d:duration=longest[mix]", labels.String(), len(tracks)))
	parts = append(parts, finalAudio("[mix]", normalize))
	g.Filter = strings.Join(parts, ";")
	g.Maps = []string{defaultMixLabel}
	g.OutputArgs = audioCodecFor(output)
	return g, nil
}

// MergeOptions control how audio is fitted to the video.
type MergeOptions struct {
	// LoopAudio repeats the audio until VideoDuration, for short music beds.
	LoopAudio     bool
	VideoDuration float64
}

// Merge replaces the video's audio with audio. Video is stream-copied and
// the output ends with the shorter stream.
func Merge(video, audio string, opts MergeOptions, output string) (Graph, error) {
	if strings.TrimSpace(video) == "" || strings.TrimSpace(audio) == "" {
		return Graph{}, invalid("merge", "video and audio inputs are required")
	}
	g := Graph{
		Inputs:      inputs(video, audio),
		Output:      output,
		Description: "merge audio and video",
	}
	if opts.LoopAudio {
		if opts.VideoDuration <= 0 {
			return Graph{}, invalid("merge", "looping audio requires the video duration")
		}
		g.Filter = "[1:a]" + join(Loop(), Trim(opts.VideoDuration)) + "[aout]"
		g.Maps = []string{"0:v:0", "[aout]"}
		g.Description = "merge looped audio and video"
	} else {
		g.Maps = []string{"0:v:0", "1:a:0"}
	}
	g.OutputArgs = append([]string{"-c:v", "copy"}, audioEncodeArgs...)
	g.OutputArgs = append(g.OutputArgs, "-shortest")
	return g, nil
}

func musicFilters(opts MixOptions, voiceDuration float64) string {
	filters := []string{Volume(opts.MusicVolume)}
	if opts.FadeIn > 0 {
		filters = append(filters, FadeIn(opts.FadeIn))
	}
	if opts.FadeOut > 0 && voiceDuration > 0 {
		filters = append(filters, FadeOut(opts.FadeOut, voiceDuration))
	}
	return join(filters...)
}

func finalAudio(label string, normalize bool) string {
	if normalize {
		return label + loudnormFilter + defaultMixLabel
	}
	return label + "anull" + defaultMixLabel
}

func audioCodecFor(output string) []string {
	if strings.EqualFold(filepath.Ext(output), ".mp3") {
		return []string{"-c:a", "libmp3lame", "-q:a", "2"}
	}
	return append([]string(nil), audioEncodeArgs...)
}
