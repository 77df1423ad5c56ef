package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/job-seeker/internal/tools"
)

var dbCmd = &cobra.Command{
	Use:   "db <store|retrieve|update|delete> [json]",
	Short: "Run a database action with a JSON payload and print the JSON result",
	Long: `Run a database action through the same boundary the pipeline uses:

  job-seeker db retrieve '{"min_score": 70, "limit": 5}'
  job-seeker db update '{"id": 3, "updates": {"applied": true}}'
  job-seeker db delete 3`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var payload string
		if len(args) == 2 {
			payload = args[1]
		}

		return withStore(cmd, func(app *application) error {
			result := tools.NewDatabaseTool(app.store, app.logger).Execute(commandContext(cmd), args[0], payload)
			fmt.Fprintln(cmd.OutOrStdout(), result.JSON())
			return result.Err()
		})
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
}
