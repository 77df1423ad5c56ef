package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const previewLines = 20

var viewResultsCmd = &cobra.Command{
	Use:   "view-results",
	Short: "Show which artifacts exist and preview the report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, err := getConfig()
		if err != nil {
			return fmt.Errorf("getting a config: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, artifact := range []struct{ name, path string }{
			{"report", config.ReportFile},
			{"strategy", config.StrategyFile},
			{"database", config.Database},
		} {
			status := "missing"
			if info, err := os.Stat(artifact.path); err == nil {
				status = fmt.Sprintf("%d bytes, modified %s", info.Size(), info.ModTime().Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(out, "%-9s %s: %s\n", artifact.name, artifact.path, status)
		}

		return preview(out, config.ReportFile, previewLines)
	},
}

func init() {
	rootCmd.AddCommand(viewResultsCmd)
}

// preview copies the first n lines of the file to w. A missing file is not an error.
func preview(w io.Writer, path string, n int) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	fmt.Fprintf(w, "\n--- %s (first %d lines) ---\n", path, n)
	scanner := bufio.NewScanner(file)
	for i := 0; i < n && scanner.Scan(); i++ {
		fmt.Fprintln(w, scanner.Text())
	}
	return scanner.Err()
}
