package ffprobe

import (
	"context"
	"math"
	"time"
)

// Info is the subset of probe output assembly decisions depend on.
type Info struct {
	Duration      float64
	HasVideo      bool
	HasAudio      bool
	AudioChannels int
	Width         int
	Height        int
}

// DurationValue returns Duration as a time.Duration.
func (i Info) DurationValue() time.Duration {
	return time.Duration(i.Duration * float64(time.Second))
}

// Summarize condenses a Result into Info.
func Summarize(r Result) Info {
	info := Info{
		HasVideo: r.VideoStreamCount() > 0,
		HasAudio: r.AudioStreamCount() > 0,
	}
	if d := r.DurationSeconds(); !math.IsNaN(d) && d > 0 {
		info.Duration = d
	}
	if v, ok := r.FirstOf("video"); ok {
		info.Width, info.Height = v.Width, v.Height
	}
	if a, ok := r.FirstOf("audio"); ok {
		info.AudioChannels = a.Channels
	}
	return info
}

// Prober runs ffprobe through a configured binary.
type Prober struct {
	binary string
}

// NewProber returns a prober for binary ("ffprobe" when empty).
func NewProber(binary string) *Prober {
	return &Prober{binary: binary}
}

// Probe inspects path and summarizes it.
func (p *Prober) Probe(ctx context.Context, path string) (Info, error) {
	result, err := Inspect(ctx, p.binary, path)
	if err != nil {
		return Info{}, err
	}
	return Summarize(result), nil
}

// Duration returns the media duration of path.
func (p *Prober) Duration(ctx context.Context, path string) (time.Duration, error) {
	info, err := p.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return info.DurationValue(), nil
}
