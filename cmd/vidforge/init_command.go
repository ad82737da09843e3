package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidforge/internal/config"
	"vidforge/internal/project"
)

func newInitProjectCommand() *cobra.Command {
	var (
		name        string
		output      string
		duration    int
		aspectRatio string
		strategy    string
		scenes      int
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:         "init-project",
		Short:       "Scaffold a new video project",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			audio, err := project.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			parent := output
			if parent != "" {
				if parent, err = config.ExpandPath(parent); err != nil {
					return fmt.Errorf("resolve --output: %w", err)
				}
			}
			created, err := project.Init(name, project.InitOptions{
				ParentDir:      parent,
				DurationTarget: duration,
				AspectRatio:    aspectRatio,
				AudioStrategy:  audio,
				Scenes:         scenes,
			})
			if err != nil {
				if jsonOut {
					return writeJSONFailure(cmd, err)
				}
				return err
			}
			if jsonOut {
				return writeJSON(cmd, struct {
					Success bool `json:"success"`
					project.Initialized
				}{true, created})
			}

			out := cmd.OutOrStdout()
			cfg := created.Config
			fmt.Fprintf(out, "Created project %q at %s\n", created.Title, created.Dir)
			fmt.Fprintf(out, "  Scenes: %d (%ds total, %s, %s)\n",
				len(cfg.Scenes), cfg.TotalDuration(), cfg.AspectRatio, cfg.AudioStrategy.Label())
			fmt.Fprintf(out, "  Config: %s\n", created.ConfigPath)
			fmt.Fprintf(out, "  Storyboard: %s\n", created.Storyboard)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  1. Write scene prompts, voiceover text and music prompt in project.json")
			fmt.Fprintf(out, "  2. vidforge assemble --project %s\n", created.Dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Parent directory for the project (default: current directory)")
	cmd.Flags().IntVarP(&duration, "duration", "d", project.DefaultDurationTarget, "Target duration in seconds")
	cmd.Flags().StringVarP(&aspectRatio, "aspect-ratio", "a", project.DefaultAspectRatio, "Aspect ratio (16:9, 9:16, 1:1, 4:3)")
	cmd.Flags().StringVar(&strategy, "audio-strategy", string(project.StrategyCustom), "Audio strategy (custom, veo_audio, silent)")
	cmd.Flags().IntVarP(&scenes, "scenes", "s", project.DefaultSceneCount, "Number of scenes")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the created paths as JSON")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
