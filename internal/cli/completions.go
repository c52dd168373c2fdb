package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/bqrun/internal/output"
)

// formats contains valid --format values for shell completion.
var formats = []string{string(output.FormatAuto), string(output.FormatTable), string(output.FormatJSON)}

// locations lists common BigQuery locations. Other regions are still accepted.
var locations = []string{
	"US", "EU",
	"us-central1", "us-east1", "us-east4", "us-west1", "us-west2",
	"europe-west1", "europe-west2", "europe-west3", "europe-west4", "europe-north1",
	"asia-east1", "asia-northeast1", "asia-south1", "asia-southeast1",
	"australia-southeast1", "northamerica-northeast1", "southamerica-east1",
}

func completeFromList(values []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(toComplete)) {
			matches = append(matches, v)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats provides shell completion for --format.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFromList(formats, toComplete)
}

// completeLocations provides shell completion for --location.
func completeLocations(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFromList(locations, toComplete)
}

// completeSQLPaths lets the shell offer .sql files and directories.
func completeSQLPaths(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"sql"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	// Let the shell handle directory completion
	return nil, cobra.ShellCompDirectiveFilterDirs
}
