package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/jobs"
	"github.com/spigell/job-seeker/internal/logger"
	"github.com/spigell/job-seeker/internal/pipeline"
	"github.com/spigell/job-seeker/internal/profile"
	"github.com/spigell/job-seeker/internal/report"
	"github.com/spigell/job-seeker/internal/store"
)

const (
	PromptYes            = "Yes"
	PromptNo             = "No"
	PromptExit           = "Exit"
	PromptReportBySite   = "Report by site"
	PromptMarkApplied    = "Mark a posting as applied"
	PromptPostingsToFile = "Dump postings to file"
)

var errExit = errors.New("exit requested")

var confirmPrompt = promptui.Select{
	Label: "Start the search?",
	Items: []string{PromptYes, PromptNo},
}

var actionPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptReportBySite, PromptMarkApplied, PromptPostingsToFile, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run [sites-json]",
	Short: "Search, score, store and report job postings",
	Long: `Run the whole pipeline once. Sites can be overridden with a JSON list,
either as the only argument or with --sites:

  job-seeker run '["remote.co", "weworkremotely.com"]'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("sites")
		if len(args) == 1 {
			raw = args[0]
		}
		sites, err := parseSites(raw)
		if err != nil {
			return err
		}

		query, _ := cmd.Flags().GetString("query")
		autoApprove, _ := cmd.Flags().GetBool("auto-approve")

		return run(cmd, runOptions{sites: sites, query: query, autoApprove: autoApprove})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("sites", "", "JSON list of job sites to search instead of the configured ones")
	runCmd.Flags().StringP("query", "q", "", "search query (default is the current role and the first skill of the profile)")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before and after the run")
}

type runOptions struct {
	sites       []string
	query       string
	maxResults  int
	autoApprove bool
}

// run is the main command for the cli.
func run(cmd *cobra.Command, opts runOptions) error {
	ctx := commandContext(cmd)

	logger := newLogger()
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting the job-seeker", zap.String("version", version))

	app, err := setup(ctx, logger, overrides{maxResults: opts.maxResults})
	if err != nil {
		return err
	}
	defer app.Close()

	query := strings.TrimSpace(opts.query)
	if query == "" {
		query = defaultQuery(app.config, app.profile)
	}
	sites := app.config.sites(opts.sites)

	printProfileSummary(cmd.OutOrStdout(), app.profile)
	logger.Info("starting the search", zap.String("query", query), zap.Strings("sites", sites))

	if !opts.autoApprove {
		_, answer, err := confirmPrompt.Run()
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
		if answer != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return nil
		}
	}

	state, err := app.pipeline.Run(ctx, pipeline.NewState(query, sites, time.Now()))
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	logRunSummary(app.logger, state)

	if opts.autoApprove {
		return nil
	}

	for {
		_, action, err := actionPrompt.Run()
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}

		if err := handleAction(ctx, action, app, state.Evaluated); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

func handleAction(ctx context.Context, action string, app *application, postings *jobs.Postings) error {
	switch action {
	case PromptExit:
		app.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReportBySite:
		pretty, _ := json.MarshalIndent(postings.ReportBySite(), "", "  ")
		app.logger.Info(string(pretty), zap.Int("postings count", postings.Len()))
		return nil
	case PromptMarkApplied:
		return chooseAndApply(ctx, app)
	case PromptPostingsToFile:
		filename, err := postings.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump postings to file: %w", err)
		}
		app.logger.Info("dumping postings to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// chooseAndApply lets the user pick a stored qualified posting and marks it applied.
func chooseAndApply(ctx context.Context, app *application) error {
	candidates, err := app.store.Retrieve(ctx, store.Filter{MinScore: store.MinScore(report.Threshold), Limit: report.MaxPostings})
	if err != nil {
		return fmt.Errorf("retrieving postings: %w", err)
	}

	open := jobs.New()
	for _, posting := range candidates.Items {
		if !posting.Applied {
			open.Items = append(open.Items, posting)
		}
	}
	if open.Len() == 0 {
		app.logger.Info("nothing to apply to", zap.Float64("min score", report.Threshold))
		return nil
	}

	items := make([]string, 0, open.Len()+1)
	for _, posting := range open.Items {
		items = append(items, fmt.Sprintf("#%d %.1f %s (%s)", posting.ID, posting.Score(), posting.Title, posting.Company))
	}
	items = append(items, PromptExit)

	choose := promptui.Select{Label: "Applied to", Items: items, Size: len(items)}
	idx, _, err := choose.Run()
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	if idx == open.Len() {
		return nil
	}

	return markApplied(ctx, app, open.Items[idx].ID)
}

func markApplied(ctx context.Context, app *application, id uint) error {
	if err := app.store.MarkApplied(ctx, id, time.Now()); err != nil {
		return fmt.Errorf("marking posting %d as applied: %w", id, err)
	}
	app.logger.Info("posting marked as applied", zap.Uint("id", id))
	return nil
}

func printProfileSummary(w io.Writer, p *profile.UserProfile) {
	fmt.Fprintf(w, "Profile: %s\n", p.DisplayName())
	fmt.Fprintf(w, "  Role:            %s\n", p.CurrentRole)
	fmt.Fprintf(w, "  Experience:      %d years\n", p.YearsExperience)
	fmt.Fprintf(w, "  Expected salary: %s\n", report.FormatSalary(p.ExpectedSalary))
	fmt.Fprintf(w, "  Skills:          %s\n", strings.Join(p.TopSkills(5), ", "))
}

func logRunSummary(log *zap.Logger, state *pipeline.State) {
	log = logger.WithFields(log, zap.String(logger.FieldRunID, state.RunID))

	if len(state.SearchFailures) > 0 {
		log.Warn("some sites failed and were replaced with placeholders", zap.Strings("failures", state.SearchFailures))
	}

	log.Info("run finished",
		zap.Int("found", state.Found.Len()),
		zap.Int("evaluated", state.Evaluated.Len()),
		zap.Int("stored", state.Stored),
		zap.Int("qualified", report.Select(state.Evaluated).Len()),
		zap.Strings("stages", state.Completed),
	)
}
