package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vidforge/internal/deps"
	"vidforge/internal/media/ffprobe"
	"vidforge/internal/services/drapto"
)

// newCropDetector is swapped in tests; the library shells out to ffmpeg.
var newCropDetector = func() drapto.CropDetector { return drapto.NewLibrary() }

type inspectJSON struct {
	Path      string             `json:"path"`
	Format    string             `json:"format"`
	Duration  float64            `json:"duration_seconds"`
	SizeBytes int64              `json:"size_bytes"`
	BitRate   int64              `json:"bit_rate"`
	Streams   []ffprobe.Stream   `json:"streams"`
	Crop      *drapto.CropReport `json:"crop,omitempty"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var (
		detectCrop bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Report stream information for a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := resolveExisting("file", args[0], false)
			if err != nil {
				return err
			}
			binary := deps.ResolveBinary(cfg.FFmpeg.FFprobeBinary, "ffprobe")
			result, err := ffprobe.Inspect(cmd.Context(), binary, path)
			if err != nil {
				return err
			}

			var crop *drapto.CropReport
			if detectCrop {
				report, err := newCropDetector().DetectCrop(cmd.Context(), path)
				if err != nil {
					return err
				}
				crop = &report
			}

			if jsonOut {
				return writeJSON(cmd, inspectJSON{
					Path:      path,
					Format:    result.Format.FormatName,
					Duration:  result.DurationSeconds(),
					SizeBytes: result.SizeBytes(),
					BitRate:   result.BitRate(),
					Streams:   result.Streams,
					Crop:      crop,
				})
			}
			out := cmd.OutOrStdout()
			printProbe(out, path, result)
			if crop != nil {
				printCrop(out, *crop)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&detectCrop, "crop", false, "Also sample frames for letterbox detection")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	return cmd
}

func printProbe(out io.Writer, path string, result ffprobe.Result) {
	w := newStatusWriter(out)
	w.section(path)
	w.line("Container", statusInfo, result.Format.FormatName)
	w.line("Duration", statusInfo, fmt.Sprintf("%.2fs", result.DurationSeconds()))
	w.line("Size", statusInfo, humanize.IBytes(uint64(result.SizeBytes())))
	if rate := result.BitRate(); rate > 0 {
		w.line("Bit rate", statusInfo, humanize.SI(float64(rate), "bit/s"))
	}

	rows := make([][]string, 0, len(result.Streams))
	for _, s := range result.Streams {
		rows = append(rows, []string{strconv.Itoa(s.Index), s.CodecType, s.CodecName, streamDetail(s), s.Duration})
	}
	fmt.Fprintln(out, renderTable("Streams", []column{
		colRight("#"), col("Type"), col("Codec"), col("Detail"), colRight("Duration"),
	}, rows))
}

func streamDetail(s ffprobe.Stream) string {
	switch s.CodecType {
	case "video":
		parts := []string{fmt.Sprintf("%dx%d", s.Width, s.Height)}
		if fps := s.FrameRate(); fps > 0 {
			parts = append(parts, strconv.FormatFloat(fps, 'f', -1, 64)+" fps")
		}
		if s.PixFmt != "" {
			parts = append(parts, s.PixFmt)
		}
		return strings.Join(parts, ", ")
	case "audio":
		detail := fmt.Sprintf("%d ch", s.Channels)
		if s.ChannelLayout != "" {
			detail += " (" + s.ChannelLayout + ")"
		}
		if s.SampleRate != "" {
			detail += ", " + s.SampleRate + " Hz"
		}
		return detail
	default:
		return ""
	}
}

func printCrop(out io.Writer, report drapto.CropReport) {
	w := newStatusWriter(out)
	insight := drapto.BuildInsight(report)
	fmt.Fprintln(out)
	w.section("Crop detection")
	w.line("Dynamic range", statusInfo, fmt.Sprintf("%s (threshold %d)", insight.DynamicRange, insight.Threshold))
	w.line("Samples", statusInfo, strconv.Itoa(report.TotalSamples))
	if insight.Letterboxed {
		w.line("Letterbox", statusWarn, report.CropFilter)
		if insight.OutputDimensions != "" {
			w.line("Cropped size", statusInfo, insight.OutputDimensions+" at "+insight.OutputAspectRatio)
		}
	} else {
		w.line("Letterbox", statusOK, "none")
	}
	if insight.Suggestion != "" {
		w.line("Suggestion", statusWarn, insight.Suggestion)
	}
	if len(report.Candidates) > 1 {
		rows := make([][]string, 0, len(report.Candidates))
		for _, c := range report.Candidates {
			rows = append(rows, []string{c.Crop, strconv.Itoa(c.Count), fmt.Sprintf("%.1f%%", c.Percent)})
		}
		fmt.Fprintln(out, renderTable("Crop candidates", []column{col("Crop"), colRight("Frames"), colRight("Share")}, rows))
	}
}
