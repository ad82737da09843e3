package deps

import "strings"

const (
	FFmpegName  = "FFmpeg"
	FFprobeName = "FFprobe"
)

// MediaRequirements lists the transcoder and probe binaries. ffprobe is
// optional: without it assembly falls back to the concat demuxer and a plain
// mix.
func MediaRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{
			Name:        FFmpegName,
			Command:     ResolveBinary(ffmpegBinary, "ffmpeg"),
			Description: "Required for stripping, mixing, concatenation and merging",
		},
		{
			Name:        FFprobeName,
			Command:     ResolveBinary(ffprobeBinary, "ffprobe"),
			Description: "Enables transition-aware concat, ducking and chain bounds",
			Optional:    true,
		},
	}
}

// FFmpeg resolves the configured transcoder.
func FFmpeg(configured string) Status {
	return Check(MediaRequirements(configured, "")[0])
}

// FFprobe resolves the configured probe binary.
func FFprobe(configured string) Status {
	return Check(MediaRequirements("", configured)[1])
}

// ResolveBinary returns configured, or fallback when configured is blank.
func ResolveBinary(configured, fallback string) string {
	if trimmed := strings.TrimSpace(configured); trimmed != "" {
		return trimmed
	}
	return fallback
}
