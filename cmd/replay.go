package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/job-seeker/internal/pipeline"
)

var replayCmd = &cobra.Command{
	Use:   "replay [run-id] [stage]",
	Short: "Resume a recorded run from a stage",
	Long: fmt.Sprintf(`Resume a recorded run from the given stage (default %q), reusing the
checkpoint saved by the stage before it. Without arguments the recorded runs are listed.

Stages: %s`, pipeline.StageEvaluate, strings.Join(pipeline.StageNames, ", ")),
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		if len(args) == 0 {
			config, err := getConfig()
			if err != nil {
				return fmt.Errorf("getting a config: %w", err)
			}
			runs, err := pipeline.NewRecorder(config.RunsDir).Runs()
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no runs recorded in %s\n", config.RunsDir)
				return nil
			}
			for _, id := range runs {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		}

		stage := pipeline.StageEvaluate
		if len(args) == 2 {
			stage = args[1]
		}
		if pipeline.StageIndex(stage) < 0 {
			return fmt.Errorf("unknown stage %q, expected one of: %s", stage, strings.Join(pipeline.StageNames, ", "))
		}

		ctx := commandContext(cmd)
		app, err := setup(ctx, logger, overrides{})
		if err != nil {
			return err
		}
		defer app.Close()

		state, err := app.pipeline.Replay(ctx, app.recorder, args[0], stage)
		if err != nil {
			return fmt.Errorf("replaying run %s: %w", args[0], err)
		}

		logRunSummary(logger, state)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
