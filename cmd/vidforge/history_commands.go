package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vidforge/internal/history"
	"vidforge/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past assembly runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					shortID(r.ID),
					r.Project,
					r.Strategy,
					resultLabel(r.Success, r.DryRun),
					formatWhen(r.StartedAt),
					formatElapsed(r.Elapsed),
				})
			}
			fmt.Fprintln(out, renderTable("", []column{
				col("Run"), col("Project"), col("Strategy"), col("Result"), col("Started"), colRight("Elapsed"),
			}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print runs as JSON")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show the stages of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := findRun(cmd, store, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, run)
			}

			out := cmd.OutOrStdout()
			w := newStatusWriter(out)
			w.section("Run " + run.ID)
			w.line("Project", statusInfo, run.Project+" ("+run.ProjectDir+")")
			w.line("Strategy", statusInfo, run.Strategy)
			w.line("Dry run", statusInfo, yesNo(run.DryRun))
			w.line("Started", statusInfo,
				run.StartedAt.Local().Format("2006-01-02 15:04:05")+" ("+formatWhen(run.StartedAt)+")")
			w.line("Elapsed", statusInfo, formatElapsed(run.Elapsed))
			if run.Success {
				w.line("Result", statusOK, run.OutputFile)
			} else {
				w.line("Result", statusError, run.Error)
			}

			rows := make([][]string, 0, len(run.Stages))
			for i, s := range run.Stages {
				detail := s.Note
				if !s.Success {
					detail = strings.TrimSpace(s.Category + ": " + s.Error)
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), s.Name, resultLabel(s.Success, false), formatElapsed(s.Elapsed), detail})
			}
			fmt.Fprintln(out, renderTable("", []column{
				colRight("#"), col("Stage"), col("Result"), colRight("Elapsed"), col("Detail"),
			}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run as JSON")
	return cmd
}

// findRun resolves an exact run ID, or a unique prefix of one as printed by
// the history listing.
func findRun(cmd *cobra.Command, store *history.Store, id string) (*history.Run, error) {
	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if run != nil {
		return run, nil
	}
	runs, err := store.ListRuns(cmd.Context(), 0)
	if err != nil {
		return nil, err
	}
	var matches []string
	for _, r := range runs {
		if strings.HasPrefix(r.ID, id) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return nil, services.Wrap(services.ErrNotFound, "history", "show", "no run "+id, nil)
	case 1:
		return store.GetRun(cmd.Context(), matches[0])
	default:
		return nil, services.Wrap(services.ErrValidation, "history", "show",
			fmt.Sprintf("run prefix %q is ambiguous (%d matches)", id, len(matches)), nil)
	}
}
