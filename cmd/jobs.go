package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/jobs"
	"github.com/spigell/job-seeker/internal/store"
	"github.com/spigell/job-seeker/internal/utils"
)

const titleWidth = 60

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and manage stored postings",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored postings, best match first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter := store.Filter{}
		if cmd.Flags().Changed("min-score") {
			minScore, _ := cmd.Flags().GetFloat64("min-score")
			filter.MinScore = store.MinScore(minScore)
		}
		filter.Limit, _ = cmd.Flags().GetInt("limit")

		return withStore(cmd, func(app *application) error {
			postings, err := app.store.Retrieve(commandContext(cmd), filter)
			if err != nil {
				return err
			}
			return printPostings(cmd.OutOrStdout(), postings)
		})
	},
}

var jobsApplyCmd = &cobra.Command{
	Use:   "apply [id]",
	Short: "Mark a stored posting as applied",
	Long:  "Mark a stored posting as applied. Without an id, pick one of the qualified postings interactively.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(app *application) error {
			if len(args) == 0 {
				return chooseAndApply(commandContext(cmd), app)
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return markApplied(commandContext(cmd), app, id)
		})
	},
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored posting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withStore(cmd, func(app *application) error {
			if err := app.store.Delete(commandContext(cmd), id); err != nil {
				return err
			}
			app.logger.Info("posting deleted", zap.Uint("id", id))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd, jobsApplyCmd, jobsDeleteCmd)

	jobsListCmd.Flags().Float64("min-score", 0, "only postings scored at least this high")
	jobsListCmd.Flags().Int("limit", 0, "maximum number of postings (0 means no limit)")
}

// withStore opens only the database, so these commands work without a profile.
func withStore(cmd *cobra.Command, fn func(app *application) error) error {
	logger := newLogger()
	defer logger.Sync() //nolint:errcheck

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	db, err := store.Open(config.Database, logger)
	if err != nil {
		return fmt.Errorf("opening database %q: %w", config.Database, err)
	}
	app := &application{logger: logger, config: config, store: db}
	defer app.Close()

	return fn(app)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid posting id %q", raw)
	}
	return uint(id), nil
}

func printPostings(w io.Writer, postings *jobs.Postings) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCORE\tAPPLIED\tSITE\tCOMPANY\tTITLE")
	for _, posting := range postings.Items {
		score := "-"
		if posting.MatchScore != nil {
			score = fmt.Sprintf("%.1f", *posting.MatchScore)
		}
		applied := ""
		if posting.Applied {
			applied = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			posting.ID, score, applied, posting.Site, posting.Company, utils.Truncate(posting.Title, titleWidth))
	}
	return tw.Flush()
}
