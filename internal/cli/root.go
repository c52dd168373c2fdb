package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bqrun",
	Short: "Run labeled BigQuery queries with retries",
	Long: `bqrun submits SQL to BigQuery as labeled jobs, waits for them, and reports
how long each took and how many megabytes were billed.

Every job carries your base labels plus a query label derived from the
statement's name, so costs can be attributed per query in the billing export
and INFORMATION_SCHEMA.JOBS.

Internal errors, rate limiting and service unavailability are retried on a
fixed schedule (30s, 60s, 90s by default). Anything else fails immediately.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or labels
  11 - BigQuery client could not be created
  13 - Query failed
  15 - Query still failing after all retries`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
