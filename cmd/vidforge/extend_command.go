package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"vidforge/internal/chain"
	"vidforge/internal/config"
	"vidforge/internal/job"
	"vidforge/internal/services"
)

func newExtendCommand(ctx *commandContext) *cobra.Command {
	var (
		videoPath   string
		steps       int
		prompt      string
		outputDir   string
		aspectRatio string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "extend",
		Short: "Extend a clip step by step, seeding each step with the previous output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			seed, err := resolveExisting("video", videoPath, false)
			if err != nil {
				return err
			}
			if strings.TrimSpace(prompt) == "" {
				return services.Wrap(services.ErrValidation, "extend", "flags", "--prompt is required", nil)
			}
			dir, err := config.ExpandPath(outputDir)
			if err != nil {
				return fmt.Errorf("resolve --output-dir: %w", err)
			}
			provider, ok := newRegistry(cfg).Lookup(job.KindVideo)
			if !ok {
				return services.Wrap(services.ErrMissingCollaborator, "extend", "lookup",
					"no video provider configured; set google.api_key", nil)
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			var prober chain.Prober
			if p, ok := ctx.prober(); ok {
				prober = p
			}

			poller := job.NewPoller(provider, jobPolicies(cfg)[job.KindVideo], job.WithLogger(logger))
			c := chain.New(poller, prober, dir, logger)
			result, err := c.Extend(cmd.Context(), seed, steps, func(step int, current string) job.Spec {
				return job.Spec{
					Kind:   job.KindVideo,
					Prompt: prompt,
					Params: map[string]string{"aspect_ratio": aspectRatio},
				}
			})
			if err != nil {
				if jsonOut {
					return writeJSONFailure(cmd, err)
				}
				return err
			}

			if jsonOut {
				if err := writeJSON(cmd, extendJSON(result)); err != nil {
					return err
				}
			} else {
				printExtendResult(cmd.OutOrStdout(), result, steps)
			}
			if result.FailedStep > 0 {
				if jsonOut {
					return errReported
				}
				return fmt.Errorf("extension failed at step %d of %d: %s", result.FailedStep, steps, result.Status.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&videoPath, "video", "v", "", "Seed video to extend")
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of extension steps (1-20)")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt for every extension step")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory for step outputs")
	cmd.Flags().StringVar(&aspectRatio, "aspect-ratio", "16:9", "Video aspect ratio")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the chain result as JSON")
	_ = cmd.MarkFlagRequired("video")
	return cmd
}

func printExtendResult(out io.Writer, result chain.Result, steps int) {
	rows := make([][]string, 0, steps)
	for i := 1; i <= steps; i++ {
		switch {
		case i <= len(result.Artifacts):
			rows = append(rows, []string{fmt.Sprint(i), "done", result.Artifacts[i-1]})
		case i == result.FailedStep:
			rows = append(rows, []string{fmt.Sprint(i), result.Status.State.String(), result.Status.Reason})
		default:
			rows = append(rows, []string{fmt.Sprint(i), "not run", ""})
		}
	}
	fmt.Fprintln(out, renderTable("Extension chain", []column{colRight("Step"), col("Status"), col("Output / reason")}, rows))
	fmt.Fprintf(out, "Final: %s\n", result.Final())
}

type extendResultJSON struct {
	Success    bool     `json:"success"`
	Seed       string   `json:"seed"`
	Artifacts  []string `json:"artifacts"`
	Final      string   `json:"final"`
	FailedStep int      `json:"failed_step,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

func extendJSON(result chain.Result) extendResultJSON {
	out := extendResultJSON{
		Success:    result.Status.OK(),
		Seed:       result.Seed,
		Artifacts:  result.Artifacts,
		Final:      result.Final(),
		FailedStep: result.FailedStep,
	}
	if !result.Status.OK() {
		out.Reason = result.Status.Reason
	}
	return out
}
