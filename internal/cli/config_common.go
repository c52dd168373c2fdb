package cli

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/bqrun/internal/config"
	"github.com/vvka-141/bqrun/internal/labels"
	"github.com/vvka-141/bqrun/internal/params"
	"github.com/vvka-141/bqrun/internal/retry"
	"github.com/vvka-141/bqrun/pkg/bqrun"
)

// Environment variables consulted when the matching flag is not set.
const (
	envProject       = "BQRUN_PROJECT"
	envGoogleProject = "GOOGLE_CLOUD_PROJECT"
	envLocation      = "BQRUN_LOCATION"
)

// loadProjectConfig loads bqrun.yaml. An explicit path must exist; without
// one, a missing bqrun.yaml in the working directory returns nil config.
func loadProjectConfig(path string) (*config.ProjectConfig, error) {
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("config file %s: %w: %w", path, bqrun.ErrInvalidConfig, err)
			}
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(".")
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil // Config file not found is not an error
		}
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}
	return cfg, nil
}

// resolveRunConfig merges flags, environment and bqrun.yaml into a RunConfig.
// Precedence (highest to lowest): flags > environment > bqrun.yaml > defaults.
func resolveRunConfig(
	cmd *cobra.Command,
	flags runFlagValues,
	projectCfg *config.ProjectConfig,
	getenv func(string) string,
) (*bqrun.RunConfig, error) {
	if projectCfg == nil {
		projectCfg = &config.ProjectConfig{}
	}

	cfg := &bqrun.RunConfig{
		ProjectID:       firstNonEmpty(flags.project, getenv(envProject), getenv(envGoogleProject), projectCfg.Project),
		Location:        firstNonEmpty(flags.location, getenv(envLocation), projectCfg.Location),
		CredentialsFile: firstNonEmpty(flags.credentials, projectCfg.CredentialsFile),
		LabelKey:        firstNonEmpty(flags.labelKey, projectCfg.LabelKey, bqrun.DefaultLabelKey),
		Verbose:         getVerboseFlag(cmd),
	}

	if err := labels.ValidateKey(cfg.LabelKey); err != nil {
		return nil, fmt.Errorf("label key: %w: %w", bqrun.ErrInvalidConfig, err)
	}

	baseLabels, err := mergeLabels(projectCfg.Labels, flags.labelsFiles, flags.labels)
	if err != nil {
		return nil, err
	}
	cfg.Labels = baseLabels

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, flags.timeout)
	if err != nil {
		return nil, err
	}
	cfg.Timeout = timeout

	if err := resolveRetry(cmd, flags, projectCfg.Retry, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeLabels layers base labels.
// Priority (highest to lowest): --labels > --labels-file > bqrun.yaml
func mergeLabels(fromConfig map[string]string, files, pairs []string) (map[string]string, error) {
	result := labels.Clone(fromConfig)

	fromFlags, err := params.Resolve(files, pairs)
	if err != nil {
		return nil, fmt.Errorf("invalid labels: %w: %w", bqrun.ErrInvalidConfig, err)
	}
	maps.Copy(result, fromFlags)

	if err := labels.Validate(result); err != nil {
		return nil, fmt.Errorf("invalid labels: %w: %w", bqrun.ErrInvalidConfig, err)
	}
	return result, nil
}

// resolveEffectiveTimeout returns the --timeout value when set, then the
// bqrun.yaml timeout, then the flag default.
func resolveEffectiveTimeout(
	cmd *cobra.Command,
	projectCfg *config.ProjectConfig,
	flagTimeout time.Duration,
) (time.Duration, error) {
	if projectCfg != nil && projectCfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
		return projectCfg.TimeoutDuration()
	}
	return flagTimeout, nil
}

// resolveRetry fills RetrySchedule or Backoff. --retry-schedule always
// selects the schedule strategy.
func resolveRetry(cmd *cobra.Command, flags runFlagValues, rc config.RetryConfig, cfg *bqrun.RunConfig) error {
	if cmd.Flags().Changed("retry-schedule") {
		cfg.RetrySchedule = append([]time.Duration(nil), flags.retrySchedule...)
		return nil
	}

	switch rc.StrategyName() {
	case config.StrategyExponential:
		s, err := rc.ParseExponential()
		if err != nil {
			return err
		}
		cfg.Backoff = retry.NewExponentialBackoff(s.MaxAttempts,
			retry.WithInitialDelay(s.InitialDelay),
			retry.WithMaxDelay(s.MaxDelay),
		)
	default:
		schedule, err := rc.ParseSchedule()
		if err != nil {
			return err
		}
		cfg.RetrySchedule = schedule
	}
	return nil
}

// backoffFor returns the strategy the run config asks for.
func backoffFor(cfg *bqrun.RunConfig) bqrun.BackoffStrategy {
	if cfg.Backoff != nil {
		return cfg.Backoff
	}
	return retry.NewScheduleBackoff(cfg.RetrySchedule...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
