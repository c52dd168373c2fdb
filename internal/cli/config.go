package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/bqrun/internal/config"
	"github.com/vvka-141/bqrun/internal/params"
	"github.com/vvka-141/bqrun/pkg/bqrun"
)

var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "Create a bqrun.yaml configuration",
	Long: `Writes a bqrun.yaml with the given project, location and labels plus the
default retry schedule and timeout, ready to edit.

An existing bqrun.yaml is only replaced with --force.

Examples:
  # Create config in current directory
  bqrun config --project my-project --location US

  # Create config in a specific directory with cost labels
  bqrun config ./reports --project my-project --labels team=variants`,
	Args:              cobra.MaximumNArgs(1),
	RunE:              runConfig,
	ValidArgsFunction: completeDirectories,
}

type configFlagValues struct {
	project, location, labelKey string
	labels                      []string
	force                       bool
}

var configFlags configFlagValues

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().StringVar(&configFlags.project, "project", "", "Google Cloud project")
	configCmd.Flags().StringVar(&configFlags.location, "location", "", "BigQuery location, e.g. US or EU")
	configCmd.Flags().StringVar(&configFlags.labelKey, "label-key", bqrun.DefaultLabelKey,
		"Job label key that receives the query label")
	configCmd.Flags().StringSliceVar(&configFlags.labels, "labels", nil,
		"Base job labels as key=value pairs (can be specified multiple times)")
	configCmd.Flags().BoolVar(&configFlags.force, "force", false, "Overwrite an existing bqrun.yaml")

	_ = configCmd.RegisterFlagCompletionFunc("location", completeLocations)
}

func runConfig(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	cfg, err := newProjectConfig(configFlags)
	if err != nil {
		return err
	}

	configPath, err := writeProjectConfig(targetDir, cfg, configFlags.force)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", configPath)
	return nil
}

// newProjectConfig builds a validated config from flags with default retry
// and timeout settings spelled out.
func newProjectConfig(flags configFlagValues) (*config.ProjectConfig, error) {
	lbls, err := params.ParseKeyValuePairs(flags.labels)
	if err != nil {
		return nil, fmt.Errorf("invalid labels: %w: %w", bqrun.ErrInvalidConfig, err)
	}

	schedule := bqrun.DefaultRetrySchedule()
	scheduleStrings := make([]string, len(schedule))
	for i, d := range schedule {
		scheduleStrings[i] = d.String()
	}

	cfg := &config.ProjectConfig{
		Project:  flags.project,
		Location: flags.location,
		LabelKey: flags.labelKey,
		Retry: config.RetryConfig{
			Strategy: config.StrategySchedule,
			Schedule: scheduleStrings,
		},
		Timeout: bqrun.DefaultTimeout.String(),
	}
	if len(lbls) > 0 {
		cfg.Labels = lbls
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// writeProjectConfig saves cfg as bqrun.yaml in dir and returns the path.
func writeProjectConfig(dir string, cfg *config.ProjectConfig, force bool) (string, error) {
	configPath := filepath.Join(dir, config.ConfigFileName)

	if _, err := os.Stat(configPath); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite): %w", configPath, bqrun.ErrInvalidConfig)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to check %s: %w", configPath, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return configPath, nil
}
