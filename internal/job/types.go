package job

import (
	"fmt"
	"strings"
)

// Kind identifies the category of generated media.
type Kind string

const (
	KindVideo     Kind = "video"
	KindVoiceover Kind = "voiceover"
	KindMusic     Kind = "music"
)

// Extension returns the default file extension for artifacts of this kind.
func (k Kind) Extension() string {
	switch k {
	case KindVideo:
		return ".mp4"
	case KindVoiceover:
		return ".wav"
	case KindMusic:
		return ".mp3"
	default:
		return ""
	}
}

// Spec is an immutable description of requested work. Callers build it
// before submission and never mutate it afterwards; use With* helpers to
// derive variants.
type Spec struct {
	Kind     Kind
	Prompt   string
	Duration int
	// Seed is an optional image or video path used as the starting point.
	Seed       string
	OutputName string
	Params     map[string]string
}

// Param returns a provider-specific parameter or fallback when unset.
func (s Spec) Param(key, fallback string) string {
	if v, ok := s.Params[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// WithSeed returns a copy of s with a different seed artifact.
func (s Spec) WithSeed(seed string) Spec {
	s.Params = cloneParams(s.Params)
	s.Seed = seed
	return s
}

// Validate checks fields every provider depends on.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindVideo, KindVoiceover, KindMusic:
	default:
		return fmt.Errorf("unknown job kind %q", s.Kind)
	}
	if strings.TrimSpace(s.Prompt) == "" {
		return fmt.Errorf("%s job requires a prompt", s.Kind)
	}
	if s.Duration < 0 {
		return fmt.Errorf("%s job duration must be >= 0", s.Kind)
	}
	return nil
}

// Label returns a short display name for tables and logs.
func (s Spec) Label() string {
	if name := strings.TrimSpace(s.OutputName); name != "" {
		return name
	}
	prompt := strings.Join(strings.Fields(s.Prompt), " ")
	if len(prompt) > 40 {
		prompt = prompt[:37] + "..."
	}
	return prompt
}

func cloneParams(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Handle references a submitted job. It carries either a provider operation
// ID or, for providers that answer synchronously, the finished Observation.
type Handle struct {
	ID       string
	Provider string
	Kind     Kind
	Result   *Observation
}

// Synchronous reports whether the provider already returned the result.
func (h Handle) Synchronous() bool {
	return h.Result != nil
}

// Observation is one normalized answer from Provider.Poll.
type Observation struct {
	State  State
	Reason string
	// URI locates the artifact for Fetch when the provider hosts it.
	URI string
	// Data holds an inline artifact payload when the provider returns bytes.
	Data     []byte
	MimeType string
	// Progress is 0-100, or negative when the provider does not report it.
	Progress float64
}
