package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/profile"
)

var profileFields = []string{
	"name",
	"current_role",
	"years_experience",
	"skills",
	"preferred_locations",
	"expected_salary",
	"preferred_company_type",
}

var updateProfileCmd = &cobra.Command{
	Use:   "update-profile",
	Short: "Show where the profile lives and check it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()

		config, err := getConfig()
		if err != nil {
			return fmt.Errorf("getting a config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Edit your profile at %s\n", config.Profile)
		fmt.Fprintln(out, "Fields:")
		for _, field := range profileFields {
			fmt.Fprintf(out, "  - %s\n", field)
		}

		p, err := profile.Load(config.Profile)
		if err != nil {
			var invalid *profile.ValidationError
			if errors.As(err, &invalid) || errors.Is(err, profile.ErrEmptyProfile) {
				logger.Warn("profile needs attention", zap.Error(err))
				return nil
			}
			return err
		}

		printProfileSummary(out, p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateProfileCmd)
}
