package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/pipeline"
)

const (
	defaultIterations   = 1
	defaultTrainingFile = "training_results.json"
	// trainingSites keeps training runs short.
	trainingSites = 3
)

var trainCmd = &cobra.Command{
	Use:   "train [iterations] [file]",
	Short: "Run the pipeline several times on a reduced site list",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := iterations(args)
		if err != nil {
			return err
		}
		file := defaultTrainingFile
		if len(args) == 2 {
			file = args[1]
		}

		logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		app, err := setup(commandContext(cmd), logger, overrides{})
		if err != nil {
			return err
		}
		defer app.Close()

		summaries, runErr := app.pipeline.Train(commandContext(cmd), n, defaultQuery(app.config, app.profile), reducedSites(app.config))
		if err := pipeline.WriteSummaries(file, summaries); err != nil {
			return fmt.Errorf("writing training results: %w", err)
		}
		logger.Info("training results written", zap.String("file", file), zap.Int("iterations", len(summaries)))

		return runErr
	},
}

var testCmd = &cobra.Command{
	Use:   "test [iterations] [model]",
	Short: "Run the pipeline against a temporary database and check its guarantees",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := iterations(args)
		if err != nil {
			return err
		}
		var model string
		if len(args) == 2 {
			model = args[1]
		}

		logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		dir, err := os.MkdirTemp("", "job-seeker-test-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		app, err := setup(commandContext(cmd), logger, overrides{
			database:     filepath.Join(dir, "test.db"),
			reportFile:   filepath.Join(dir, "report.md"),
			strategyFile: filepath.Join(dir, "strategy.md"),
			runsDir:      filepath.Join(dir, "runs"),
			model:        model,
		})
		if err != nil {
			return err
		}
		defer app.Close()

		summaries, err := app.pipeline.Verify(commandContext(cmd), n, defaultQuery(app.config, app.profile), reducedSites(app.config))
		for _, summary := range summaries {
			logger.Info("iteration checked",
				zap.Int("iteration", summary.Iteration),
				zap.Int("evaluated", summary.Evaluated),
				zap.Int("qualified", summary.Qualified),
				zap.Float64("top_score", summary.TopScore),
				zap.Bool("strategy_generated", summary.Generated),
			)
		}
		if err != nil {
			return err
		}

		logger.Info("all iterations passed", zap.Int("iterations", len(summaries)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(testCmd)
}

func iterations(args []string) (int, error) {
	if len(args) == 0 {
		return defaultIterations, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("iterations must be a positive number, got %q", args[0])
	}
	return n, nil
}

func reducedSites(config *Config) []string {
	sites := config.sites(nil)
	if len(sites) > trainingSites {
		sites = sites[:trainingSites]
	}
	return sites
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
