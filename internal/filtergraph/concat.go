package filtergraph

import (
	"fmt"
	"math"
	"os"
	"strings"

	"vidforge/internal/services"
)

// Clip is one concat input.
type Clip struct {
	Path     string
	Duration float64
	HasAudio bool
}

// ConcatOptions control normalization and transitions.
type ConcatOptions struct {
	// Transition is an xfade transition name; empty joins clips back to back.
	Transition         string
	TransitionDuration float64
	// Resolution is one of 480p, 720p, 1080p, 4k; empty keeps the source size.
	Resolution  string
	AspectRatio string
	FPS         int
	// IncludeAudio carries clip audio into the output.
	IncludeAudio bool
}

var transitions = map[string]struct{}{
	"fade":       {},
	"dissolve":   {},
	"wipeleft":   {},
	"wiperight":  {},
	"slideup":    {},
	"slidedown":  {},
	"circlecrop": {},
	"fadeblack":  {},
	"fadewhite":  {},
}

// ValidTransition reports whether name is an accepted xfade transition.
func ValidTransition(name string) bool {
	_, ok := transitions[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

var shortSides = map[string]int{
	"480p":  480,
	"720p":  720,
	"1080p": 1080,
	"4k":    2160,
	"2160p": 2160,
}

// Dimensions returns the output frame size for resolution and aspect ratio.
// The resolution names the short side; the long side is rounded to even.
func Dimensions(resolution, aspectRatio string) (int, int, error) {
	short, ok := shortSides[strings.ToLower(strings.TrimSpace(resolution))]
	if !ok {
		return 0, 0, fmt.Errorf("unsupported resolution %q", resolution)
	}
	w, h, err := parseRatio(aspectRatio)
	if err != nil {
		return 0, 0, err
	}
	if w >= h {
		long := evenRound(float64(short) * float64(w) / float64(h))
		return long, short, nil
	}
	long := evenRound(float64(short) * float64(h) / float64(w))
	return short, long, nil
}

func parseRatio(ratio string) (int, int, error) {
	ratio = strings.TrimSpace(ratio)
	if ratio == "" {
		return 16, 9, nil
	}
	var w, h int
	if _, err := fmt.Sscanf(ratio, "%d:%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid aspect ratio %q", ratio)
	}
	return w, h, nil
}

func evenRound(v float64) int {
	n := int(math.Round(v))
	if n%2 != 0 {
		n++
	}
	return n
}

// Concat joins clips into output. A single clip is stream-copied.
func Concat(clips []Clip, opts ConcatOptions, output string) (Graph, error) {
	if len(clips) == 0 {
		return Graph{}, invalid("concat", "no clips to concatenate")
	}
	if strings.TrimSpace(output) == "" {
		return Graph{}, invalid("concat", "output path is required")
	}
	if len(clips) == 1 {
		return Graph{
			Inputs:      inputs(clips[0].Path),
			OutputArgs:  []string{"-c", "copy"},
			Output:      output,
			Description: "single clip copy",
		}, nil
	}

	normalize, err := normalizeChain(opts)
	if err != nil {
		return Graph{}, invalid("concat", err.Error())
	}
	transition := strings.ToLower(strings.TrimSpace(opts.Transition))
	if transition != "" {
		if !ValidTransition(transition) {
			return Graph{}, invalid("concat", fmt.Sprintf("unknown transition %q", opts.Transition))
		}
		if opts.TransitionDuration <= 0 {
			return Graph{}, invalid("concat", "transition duration must be > 0")
		}
		for i := 0; i+1 < len(clips); i++ {
			if opts.TransitionDuration >= clips[i].Duration || opts.TransitionDuration >= clips[i+1].Duration {
				return Graph{}, invalid("concat", fmt.Sprintf(
					"transition of %ss is not shorter than clips %d and %d",
					formatNumber(opts.TransitionDuration), i+1, i+2,
				))
			}
		}
	}
	withAudio := opts.IncludeAudio
	if withAudio {
		for _, c := range clips {
			if !c.HasAudio {
				withAudio = false
				break
			}
		}
	}

	g := Graph{Output: output}
	for _, c := range clips {
		g.Inputs = append(g.Inputs, Input{Path: c.Path})
	}
	parts := make([]string, 0, len(clips)*2)
	for i := range clips {
		parts = append(parts, fmt.Sprintf("[%d:v]%s[v%d]", i, normalize, i))
	}

	if transition != "" {
		parts = append(parts, xfadeChain(clips, transition, opts.TransitionDuration)...)
		if withAudio {
			parts = append(parts, acrossfadeChain(len(clips), opts.TransitionDuration)...)
		}
		g.Description = fmt.Sprintf("concat %d clips with %s", len(clips), transition)
	} else {
		var v strings.Builder
		for i := range clips {
			fmt.Fprintf(&v, "[v%d]", i)
		}
		parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[outv]", v.String(), len(clips)))
		if withAudio {
			var a strings.Builder
			for i := range clips {
				fmt.Fprintf(&a, "[%d:a]", i)
			}
			parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=0:a=1[outa]", a.String(), len(clips)))
		}
		g.Description = fmt.Sprintf("concat %d clips", len(clips))
	}

	g.Filter = strings.Join(parts, ";")
	g.Maps = []string{"[outv]"}
	g.OutputArgs = append(g.OutputArgs, videoEncodeArgs...)
	if withAudio {
		g.Maps = append(g.Maps, "[outa]")
		g.OutputArgs = append(g.OutputArgs, audioEncodeArgs...)
	} else {
		g.OutputArgs = append(g.OutputArgs, "-an")
	}
	g.OutputArgs = append(g.OutputArgs, faststartArgs...)
	return g, nil
}

// XfadeOffsets returns the xfade offset for each join: the k-th transition
// starts at sum(d[0..k]) - (k+1)*t.
func XfadeOffsets(durations []float64, t float64) []float64 {
	if len(durations) < 2 {
		return nil
	}
	offsets := make([]float64, 0, len(durations)-1)
	sum := 0.0
	for k := 0; k+1 < len(durations); k++ {
		sum += durations[k]
		offsets = append(offsets, sum-float64(k+1)*t)
	}
	return offsets
}

func xfadeChain(clips []Clip, transition string, t float64) []string {
	durations := make([]float64, len(clips))
	for i, c := range clips {
		durations[i] = c.Duration
	}
	offsets := XfadeOffsets(durations, t)
	parts := make([]string, 0, len(offsets))
	current := "[v0]"
	for k, offset := range offsets {
		out := fmt.Sprintf("[xf%d]", k+1)
		if k == len(offsets)-1 {
			out = "[outv]"
		}
		parts = append(parts, fmt.Sprintf("%s[v%d]xfade=transition=%s:duration=%s:offset=%s%s",
			current, k+1, transition, formatNumber(t), formatNumber(offset), out))
		current = out
	}
	return parts
}

func acrossfadeChain(n int, t float64) []string {
	parts := make([]string, 0, n-1)
	current := "[0:a]"
	for i := 1; i < n; i++ {
		out := fmt.Sprintf("[xa%d]", i)
		if i == n-1 {
			out = "[outa]"
		}
		parts = append(parts, fmt.Sprintf("%s[%d:a]acrossfade=d=%s%s", current, i, formatNumber(t), out))
		current = out
	}
	return parts
}

func normalizeChain(opts ConcatOptions) (string, error) {
	var filters []string
	if strings.TrimSpace(opts.Resolution) != "" {
		w, h, err := Dimensions(opts.Resolution, opts.AspectRatio)
		if err != nil {
			return "", err
		}
		filters = append(filters,
			fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", w, h),
			fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", w, h),
			"setsar=1",
		)
	}
	if opts.FPS > 0 {
		filters = append(filters, fmt.Sprintf("fps=%d", opts.FPS))
	}
	filters = append(filters, "format=yuv420p")
	return join(filters...), nil
}

// ConcatList builds the concat-demuxer stream copy over a list file written
// by WriteConcatList. It needs no probing and tolerates no format mismatch.
func ConcatList(listPath, output string) Graph {
	return Graph{
		Inputs:      []Input{{Path: listPath, Options: []string{"-f", "concat", "-safe", "0"}}},
		OutputArgs:  []string{"-c", "copy"},
		Output:      output,
		Degraded:    true,
		Description: "concat demuxer stream copy",
	}
}

// WriteConcatList writes a concat-demuxer list for paths.
func WriteConcatList(listPath string, paths []string) error {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

func invalid(op, msg string) error {
	return services.Wrap(services.ErrValidation, "filtergraph", op, msg, nil)
}
