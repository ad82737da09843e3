package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vidforge/internal/batch"
	"vidforge/internal/config"
	"vidforge/internal/job"
	"vidforge/internal/services"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var (
		manifestPath string
		outputDir    string
		concurrency  int
		kind         string
		aspectRatio  string
		resolution   string
		jsonOut      bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a manifest of generation jobs with bounded concurrency",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			manifest, err := resolveExisting("manifest", manifestPath, false)
			if err != nil {
				return err
			}
			entries, err := batch.LoadManifest(manifest)
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(outputDir)
			if err != nil {
				return fmt.Errorf("resolve --output-dir: %w", err)
			}
			jobKind := job.Kind(strings.ToLower(strings.TrimSpace(kind)))
			provider, ok := newRegistry(cfg).Lookup(jobKind)
			if !ok {
				return services.Wrap(services.ErrMissingCollaborator, "batch", "lookup",
					fmt.Sprintf("no %s provider configured; set the API key in the config", jobKind), nil)
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			params := map[string]string{}
			if jobKind == job.KindVideo {
				params["aspect_ratio"] = aspectRatio
				params["resolution"] = resolution
			}
			specs := batch.SpecsFromManifest(entries, jobKind, params)
			poller := job.NewPoller(provider, jobPolicies(cfg)[jobKind], job.WithLogger(logger))
			opts := []batch.Option{batch.WithLogger(logger), batch.WithMaxConcurrency(cfg.Batch.MaxConcurrency)}
			if !jsonOut {
				opts = append(opts, batch.WithReporter(newProgressReporter(cmd.OutOrStdout())))
			}
			result := batch.New(poller, dir, opts...).RunBatch(cmd.Context(), specs, concurrency)

			if jsonOut {
				if err := writeJSON(cmd, batchJSON(result)); err != nil {
					return err
				}
			} else {
				printBatchResult(cmd.OutOrStdout(), result)
			}
			if !result.Success {
				if jsonOut {
					return errReported
				}
				return fmt.Errorf("%d of %d jobs failed", result.Failed, len(result.Entries))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "JSON manifest of {prompt, duration, output, image} entries")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory for generated files")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Maximum jobs in flight (default from config)")
	cmd.Flags().StringVar(&kind, "kind", string(job.KindVideo), "Job kind (video, voiceover, music)")
	cmd.Flags().StringVar(&aspectRatio, "aspect-ratio", "16:9", "Video aspect ratio")
	cmd.Flags().StringVar(&resolution, "resolution", "720p", "Video resolution")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the batch result as JSON")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

// newProgressReporter prints one line per transition. On a terminal the
// line is redrawn in place.
func newProgressReporter(out io.Writer) batch.Reporter {
	inPlace := shouldColorize(out)
	return func(s batch.Snapshot) {
		line := fmt.Sprintf("[%3.0f%%] %d/%d done · %d running · %d pending · %d failed",
			s.Percent(), s.Succeeded+s.Failed, s.Total, s.Running, s.Pending, s.Failed)
		switch {
		case inPlace && s.Done():
			fmt.Fprintf(out, "\r%s\n", line)
		case inPlace:
			fmt.Fprintf(out, "\r%s", line)
		default:
			fmt.Fprintln(out, line)
		}
	}
}

func printBatchResult(out io.Writer, result batch.Result) {
	rows := make([][]string, 0, len(result.Entries))
	for _, e := range result.Entries {
		detail := e.Status.Path
		if !e.Status.OK() {
			detail = e.Status.Reason
		}
		rows = append(rows, []string{strconv.Itoa(e.Index + 1), e.Label, e.Status.State.String(), detail})
	}
	fmt.Fprintln(out, renderTable("Batch results",
		[]column{colRight("#"), col("Prompt"), col("Status"), col("Output / reason")}, rows))
	fmt.Fprintf(out, "%d succeeded, %d failed in %s\n", result.Succeeded, result.Failed, formatElapsed(result.Elapsed))
}

type batchEntryJSON struct {
	Index  int    `json:"index"`
	Label  string `json:"label"`
	State  string `json:"state"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type batchResultJSON struct {
	Success    bool             `json:"success"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	ElapsedSec float64          `json:"elapsed_seconds"`
	Files      []string         `json:"files"`
	Entries    []batchEntryJSON `json:"entries"`
}

func batchJSON(result batch.Result) batchResultJSON {
	out := batchResultJSON{
		Success:    result.Success,
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
		ElapsedSec: result.Elapsed.Seconds(),
		Files:      result.Files,
	}
	for _, e := range result.Entries {
		out.Entries = append(out.Entries, batchEntryJSON{
			Index:  e.Index,
			Label:  e.Label,
			State:  e.Status.State.String(),
			Path:   e.Status.Path,
			Reason: e.Status.Reason,
		})
	}
	return out
}
