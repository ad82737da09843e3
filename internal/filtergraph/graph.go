package filtergraph

import (
	"strconv"
	"strings"
)

// Input is one ffmpeg input with options that precede its -i flag.
type Input struct {
	Path    string
	Options []string
}

// Graph is a complete ffmpeg invocation.
type Graph struct {
	Inputs     []Input
	Filter     string
	Maps       []string
	OutputArgs []string
	Output     string
	// Degraded marks a graph built as a fallback for the requested one.
	Degraded bool
	// Description names the graph in logs and status output.
	Description string
}

// Args renders the ffmpeg argv, excluding the binary.
func (g Graph) Args() []string {
	args := []string{"-hide_banner", "-y"}
	for _, in := range g.Inputs {
		args = append(args, in.Options...)
		args = append(args, "-i", in.Path)
	}
	if g.Filter != "" {
		args = append(args, "-filter_complex", g.Filter)
	}
	for _, m := range g.Maps {
		args = append(args, "-map", m)
	}
	args = append(args, g.OutputArgs...)
	args = append(args, g.Output)
	return args
}

// String renders the command line for logs.
func (g Graph) String() string {
	parts := append([]string{"ffmpeg"}, g.Args()...)
	for i, p := range parts {
		if strings.ContainsAny(p, " ;[]'") {
			parts[i] = strconv.Quote(p)
		}
	}
	return strings.Join(parts, " ")
}

func inputs(paths ...string) []Input {
	out := make([]Input, 0, len(paths))
	for _, p := range paths {
		out = append(out, Input{Path: p})
	}
	return out
}

// formatNumber renders a float with at most three decimals and no trailing
// zeros, matching how ffmpeg filter arguments are usually written.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

var (
	videoEncodeArgs = []string{"-c:v", "libx264", "-preset", "medium", "-crf", "23", "-pix_fmt", "yuv420p"}
	audioEncodeArgs = []string{"-c:a", "aac", "-b:a", "192k"}
	faststartArgs   = []string{"-movflags", "+faststart"}
)
