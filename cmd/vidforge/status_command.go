package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidforge/internal/preflight"
	"vidforge/internal/services"
)

type checkJSON struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional"`
	Detail   string `json:"detail,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var (
		online     bool
		needGoogle bool
		needSuno   bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check binaries, directories, and provider credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{
				Online:     online,
				NeedGoogle: needGoogle,
				NeedSuno:   needSuno,
			})
			failures := preflight.Failures(results)

			if jsonOut {
				checks := make([]checkJSON, 0, len(results))
				for _, r := range results {
					checks = append(checks, checkJSON{Name: r.Name, Passed: r.Passed, Optional: r.Optional, Detail: r.Detail})
				}
				if err := writeJSON(cmd, map[string]any{
					"ready":  len(failures) == 0,
					"checks": checks,
				}); err != nil {
					return err
				}
				if len(failures) > 0 {
					return errReported
				}
				return nil
			}

			out := cmd.OutOrStdout()
			w := newStatusWriter(out)
			w.section("Environment")
			for _, r := range results {
				w.line(r.Name, checkKind(r.Passed, r.Optional), r.Detail)
			}
			if len(failures) > 0 {
				return services.Wrap(services.ErrConfiguration, "status", "preflight",
					fmt.Sprintf("%d required check(s) failed", len(failures)), nil)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Ready.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&online, "online", false, "Also send a live request to the Google API")
	cmd.Flags().BoolVar(&needGoogle, "require-google", false, "Treat a missing Google API key as a failure")
	cmd.Flags().BoolVar(&needSuno, "require-suno", false, "Treat a missing Suno API key as a failure")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print check results as JSON")
	return cmd
}
