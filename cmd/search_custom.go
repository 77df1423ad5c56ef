package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// customSearch is the argument of search-custom.
type customSearch struct {
	Sites      []string `json:"job_sites"`
	Query      string   `json:"search_query"`
	MaxResults int      `json:"max_results"`
}

func parseCustomSearch(raw string) (*customSearch, error) {
	var search customSearch
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&search); err != nil {
		return nil, fmt.Errorf("parsing custom search: %w", err)
	}
	if search.MaxResults < 0 {
		return nil, fmt.Errorf("max_results must not be negative, got %d", search.MaxResults)
	}
	return &search, nil
}

var searchCustomCmd = &cobra.Command{
	Use:   "search-custom <json>",
	Short: "Run the pipeline with custom sites and query",
	Long: `Run the pipeline once with the given parameters:

  job-seeker search-custom '{"job_sites": ["remote.co"], "search_query": "Go developer", "max_results": 10}'

Missing fields fall back to the configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		search, err := parseCustomSearch(args[0])
		if err != nil {
			return err
		}
		autoApprove, _ := cmd.Flags().GetBool("auto-approve")
		return run(cmd, runOptions{
			sites:       search.Sites,
			query:       search.Query,
			maxResults:  search.MaxResults,
			autoApprove: autoApprove,
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCustomCmd)

	searchCustomCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before and after the run")
}
