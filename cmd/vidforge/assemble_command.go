package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vidforge/internal/logging"
	"vidforge/internal/pipeline"
	"vidforge/internal/project"
)

func newAssembleCommand(ctx *commandContext) *cobra.Command {
	var (
		projectDir     string
		skipGeneration bool
		dryRun         bool
		jsonOut        bool
	)

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Generate a project's scenes and audio and assemble the final video",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runAssemble(cmd, ctx, projectDir, pipeline.RunOptions{
				SkipGeneration: skipGeneration,
				DryRun:         dryRun,
			}, !jsonOut)
			if jsonOut {
				if report == nil {
					return writeJSONFailure(cmd, err)
				}
				if encErr := writeJSON(cmd, report); encErr != nil {
					return encErr
				}
				if err != nil {
					return errReported
				}
				return nil
			}
			if report != nil {
				printAssembleSummary(cmd.OutOrStdout(), *report, err)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", "", "Project directory containing project.json")
	cmd.Flags().BoolVar(&skipGeneration, "skip-generation", false, "Reuse existing scenes and audio instead of calling providers")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and plan without calling providers or ffmpeg")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run report as JSON")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// runAssemble returns a nil report when the run never started.
func runAssemble(cmd *cobra.Command, ctx *commandContext, projectDir string, opts pipeline.RunOptions, showTable bool) (*pipeline.Report, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	dir, err := resolveExisting("project", projectDir, true)
	if err != nil {
		return nil, err
	}
	proj, err := project.Load(dir)
	if err != nil {
		return nil, err
	}
	logger, err := ctx.logger(cmd)
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{
		Registry:       newRegistry(cfg),
		Policies:       jobPolicies(cfg),
		MaxConcurrency: cfg.Batch.MaxConcurrency,
		Logger:         logger,
	}
	if showTable {
		deps.Status = cmd.OutOrStdout()
	}
	if !opts.DryRun {
		transcoder, err := ctx.transcoder(logger)
		if err != nil {
			return nil, err
		}
		deps.Transcoder = transcoder
		if prober, ok := ctx.prober(); ok {
			deps.Prober = prober
		} else {
			logging.WarnWithContext(logger, "ffprobe not found; using simple concat and mix", "ffprobe_missing",
				logging.String(logging.FieldImpact, "no transitions, normalization or ducking"),
				logging.String(logging.FieldErrorHint, "install ffprobe or set ffmpeg.ffprobe_binary"),
			)
		}
	}
	store, err := ctx.openHistory()
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable; run will not be recorded", "history_open_failed",
			logging.Error(err),
		)
	} else {
		defer store.Close()
		deps.History = store
	}

	report, err := pipeline.New(dir, proj, deps).Run(cmd.Context(), opts)
	if err != nil && len(report.Stages) == 0 {
		return nil, err
	}
	return &report, err
}

func printAssembleSummary(out io.Writer, report pipeline.Report, runErr error) {
	rows := make([][]string, 0, len(report.Stages))
	for _, s := range report.Stages {
		detail := s.Note
		if !s.Success {
			detail = s.Error
		}
		status := "ok"
		switch {
		case !s.Success && s.Name.Fatal():
			status = "failed"
		case !s.Success:
			status = "warning"
		}
		rows = append(rows, []string{string(s.Name), status, formatElapsed(s.Elapsed), detail})
	}
	fmt.Fprintln(out, renderTable("Assembly report · "+report.Project,
		[]column{col("Stage"), col("Status"), colRight("Elapsed"), col("Detail")}, rows))
	switch {
	case runErr != nil:
		fmt.Fprintf(out, "Assembly failed after %s: %v\n", formatElapsed(report.Elapsed), runErr)
	case report.DryRun:
		fmt.Fprintf(out, "Dry run complete: %d stages planned\n", len(report.Stages))
	default:
		fmt.Fprintf(out, "Final video: %s\n", report.OutputFile)
		fmt.Fprintf(out, "Total time: %s\n", formatElapsed(report.Elapsed))
	}
	fmt.Fprintf(out, "Run ID: %s\n", report.RunID)
}
