package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/pipeline"
	"github.com/spigell/job-seeker/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline repeatedly on a cron schedule",
	Long: `Run the pipeline on the configured schedule (default "@every 24h") until interrupted.
Any standard cron expression or descriptor is accepted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		ctx := commandContext(cmd)
		app, err := setup(ctx, logger, overrides{})
		if err != nil {
			return err
		}
		defer app.Close()

		spec := app.config.Schedule
		if flag, _ := cmd.Flags().GetString("spec"); flag != "" {
			spec = flag
		}

		query := defaultQuery(app.config, app.profile)
		sites := app.config.sites(nil)

		s, err := scheduler.New(spec, func(ctx context.Context) error {
			state, err := app.pipeline.Run(ctx, pipeline.NewState(query, sites, time.Now()))
			if err != nil {
				return err
			}
			logRunSummary(logger, state)
			return nil
		}, logger)
		if err != nil {
			return err
		}

		immediately, _ := cmd.Flags().GetBool("now")
		logger.Debug("starting the scheduler", zap.String("query", query), zap.Strings("sites", sites))

		return s.Run(ctx, immediately)
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().String("spec", "", "cron spec overriding the configured schedule")
	scheduleCmd.Flags().Bool("now", false, "run once immediately before waiting for the schedule")
}
