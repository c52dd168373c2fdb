package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/bqrun/internal/config"
	"github.com/vvka-141/bqrun/internal/retry"
	"github.com/vvka-141/bqrun/pkg/bqrun"
)

// newTestCmd registers the flags resolveRunConfig inspects.
func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("verbose", false, "")
	cmd.Flags().Duration("timeout", bqrun.DefaultTimeout, "")
	cmd.Flags().DurationSlice("retry-schedule", nil, "")
	return cmd
}

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func defaultFlags() runFlagValues {
	return runFlagValues{timeout: bqrun.DefaultTimeout}
}

func TestResolveRunConfig_Defaults(t *testing.T) {
	cfg, err := resolveRunConfig(newTestCmd(), defaultFlags(), nil, envMap(map[string]string{
		envProject: "env-project",
	}))
	require.NoError(t, err)

	assert.Equal(t, "env-project", cfg.ProjectID)
	assert.Empty(t, cfg.Location)
	assert.Equal(t, bqrun.DefaultLabelKey, cfg.LabelKey)
	assert.Equal(t, bqrun.DefaultRetrySchedule(), cfg.RetrySchedule)
	assert.Nil(t, cfg.Backoff)
	assert.Equal(t, bqrun.DefaultTimeout, cfg.Timeout)
	assert.NotNil(t, cfg.Labels)
	assert.Empty(t, cfg.Labels)
}

func TestResolveRunConfig_ProjectPrecedence(t *testing.T) {
	yamlCfg := &config.ProjectConfig{Project: "yaml-project", Location: "EU"}

	tests := []struct {
		name        string
		flag        string
		env         map[string]string
		wantProject string
	}{
		{"yaml only", "", nil, "yaml-project"},
		{"google env over yaml", "", map[string]string{envGoogleProject: "gcp-env"}, "gcp-env"},
		{"bqrun env over google env", "", map[string]string{envGoogleProject: "gcp-env", envProject: "bqrun-env"}, "bqrun-env"},
		{"flag over everything", "flag-project", map[string]string{envProject: "bqrun-env"}, "flag-project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := defaultFlags()
			flags.project = tt.flag

			cfg, err := resolveRunConfig(newTestCmd(), flags, yamlCfg, envMap(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.wantProject, cfg.ProjectID)
			assert.Equal(t, "EU", cfg.Location)
		})
	}
}

func TestResolveRunConfig_LocationFromEnv(t *testing.T) {
	yamlCfg := &config.ProjectConfig{Project: "p", Location: "EU"}

	cfg, err := resolveRunConfig(newTestCmd(), defaultFlags(), yamlCfg, envMap(map[string]string{envLocation: "US"}))
	require.NoError(t, err)
	assert.Equal(t, "US", cfg.Location)
}

func TestResolveRunConfig_LabelLayers(t *testing.T) {
	labelsFile := filepath.Join(t.TempDir(), "labels.env")
	require.NoError(t, os.WriteFile(labelsFile, []byte("env=staging\ncohort=ukbb\n"), 0644))

	yamlCfg := &config.ProjectConfig{
		Project:  "p",
		LabelKey: "gvs_query_name",
		Labels:   map[string]string{"team": "variants", "env": "dev"},
	}
	flags := defaultFlags()
	flags.labelsFiles = []string{labelsFile}
	flags.labels = []string{"env=prod"}

	cfg, err := resolveRunConfig(newTestCmd(), flags, yamlCfg, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "gvs_query_name", cfg.LabelKey)
	assert.Equal(t, map[string]string{"team": "variants", "env": "prod", "cohort": "ukbb"}, cfg.Labels)
	assert.Equal(t, map[string]string{"team": "variants", "env": "dev"}, yamlCfg.Labels, "config labels must not be mutated")
}

func TestResolveRunConfig_InvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*runFlagValues)
	}{
		{"label key with spaces", func(f *runFlagValues) { f.labelKey = "Query Name" }},
		{"uppercase label value", func(f *runFlagValues) { f.labels = []string{"team=Variants"} }},
		{"malformed label pair", func(f *runFlagValues) { f.labels = []string{"team"} }},
		{"missing labels file", func(f *runFlagValues) { f.labelsFiles = []string{"/nonexistent/labels.env"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := defaultFlags()
			flags.project = "p"
			tt.mutate(&flags)

			_, err := resolveRunConfig(newTestCmd(), flags, nil, envMap(nil))
			require.Error(t, err)
			assert.ErrorIs(t, err, bqrun.ErrInvalidConfig)
		})
	}
}

func TestResolveRunConfig_Timeout(t *testing.T) {
	yamlCfg := &config.ProjectConfig{Project: "p", Timeout: "45m"}

	cfg, err := resolveRunConfig(newTestCmd(), defaultFlags(), yamlCfg, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, cfg.Timeout, "yaml timeout applies when flag unset")

	cmd := newTestCmd()
	require.NoError(t, cmd.Flags().Set("timeout", "5m"))
	flags := defaultFlags()
	flags.timeout = 5 * time.Minute

	cfg, err = resolveRunConfig(cmd, flags, yamlCfg, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Timeout, "explicit flag wins")
}

func TestResolveRunConfig_ExponentialStrategy(t *testing.T) {
	yamlCfg := &config.ProjectConfig{
		Project: "p",
		Retry:   config.RetryConfig{Strategy: config.StrategyExponential, InitialDelay: "1s", MaxDelay: "4s"},
	}

	cfg, err := resolveRunConfig(newTestCmd(), defaultFlags(), yamlCfg, envMap(nil))
	require.NoError(t, err)

	require.NotNil(t, cfg.Backoff)
	assert.Equal(t, bqrun.MaxRetries, cfg.Backoff.MaxAttempts())
	assert.Same(t, cfg.Backoff, backoffFor(cfg))

	exp, ok := cfg.Backoff.(*retry.ExponentialBackoff)
	require.True(t, ok)
	assert.Equal(t, time.Second, exp.InitialDelay())
	assert.Equal(t, 4*time.Second, exp.MaxDelay())
}

func TestResolveRunConfig_RetryScheduleFlag(t *testing.T) {
	yamlCfg := &config.ProjectConfig{
		Project: "p",
		Retry:   config.RetryConfig{Strategy: config.StrategyExponential},
	}

	cmd := newTestCmd()
	require.NoError(t, cmd.Flags().Set("retry-schedule", "1s,2s"))
	flags := defaultFlags()
	flags.retrySchedule = []time.Duration{time.Second, 2 * time.Second}

	cfg, err := resolveRunConfig(cmd, flags, yamlCfg, envMap(nil))
	require.NoError(t, err)
	assert.Nil(t, cfg.Backoff)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, cfg.RetrySchedule)

	sched, ok := backoffFor(cfg).(*retry.ScheduleBackoff)
	require.True(t, ok)
	assert.Equal(t, 2, sched.MaxAttempts())
}

func TestResolveRunConfig_RetryScheduleTooLong(t *testing.T) {
	cmd := newTestCmd()
	require.NoError(t, cmd.Flags().Set("retry-schedule", "1s,1s,1s,1s"))
	flags := defaultFlags()
	flags.project = "p"
	flags.retrySchedule = []time.Duration{time.Second, time.Second, time.Second, time.Second}

	_, err := resolveRunConfig(cmd, flags, nil, envMap(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, bqrun.ErrInvalidConfig)
}

func TestLoadProjectConfig(t *testing.T) {
	t.Run("missing default file is not an error", func(t *testing.T) {
		chdir(t, t.TempDir())
		cfg, err := loadProjectConfig("")
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("default file in working directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("project: from-yaml\n"), 0644))
		chdir(t, dir)

		cfg, err := loadProjectConfig("")
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "from-yaml", cfg.Project)
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		_, err := loadProjectConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, bqrun.ErrInvalidConfig)
		assert.ErrorIs(t, err, config.ErrConfigNotFound)
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("retry:\n  schedule: [1s, 1s, 1s, 1s]\n"), 0644))

		_, err := loadProjectConfig(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, bqrun.ErrInvalidConfig)
	})
}
