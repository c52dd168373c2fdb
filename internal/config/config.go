package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/bqrun/internal/labels"
	"github.com/vvka-141/bqrun/pkg/bqrun"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// Retry strategies accepted in retry.strategy.
const (
	StrategySchedule    = "schedule"
	StrategyExponential = "exponential"
)

type RetryConfig struct {
	Strategy     string   `yaml:"strategy,omitempty"`
	Schedule     []string `yaml:"schedule,omitempty"`
	InitialDelay string   `yaml:"initial_delay,omitempty"`
	MaxDelay     string   `yaml:"max_delay,omitempty"`
	MaxAttempts  *int     `yaml:"max_attempts,omitempty"`
}

type ProjectConfig struct {
	Project         string            `yaml:"project"`
	Location        string            `yaml:"location,omitempty"`
	CredentialsFile string            `yaml:"credentials_file,omitempty"`
	LabelKey        string            `yaml:"label_key,omitempty"`
	Labels          map[string]string `yaml:"labels,omitempty"`
	Retry           RetryConfig       `yaml:"retry,omitempty"`
	Timeout         string            `yaml:"timeout,omitempty"`
}

const ConfigFileName = "bqrun.yaml"

// Load reads ConfigFileName from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads and validates the config file at path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w: %w", path, bqrun.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks values that do not depend on flags or the environment.
// It returns a multi-error if multiple validation failures occur.
func (c *ProjectConfig) Validate() error {
	var errs []error

	if c.LabelKey != "" {
		if err := labels.ValidateKey(c.LabelKey); err != nil {
			errs = append(errs, fmt.Errorf("label_key: %w: %w", bqrun.ErrInvalidConfig, err))
		}
	}

	if err := labels.Validate(c.Labels); err != nil {
		errs = append(errs, fmt.Errorf("labels: %w: %w", bqrun.ErrInvalidConfig, err))
	}

	if _, err := c.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}

	if err := c.Retry.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// TimeoutDuration parses Timeout. An empty value returns zero.
func (c *ProjectConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w: %w", c.Timeout, bqrun.ErrInvalidConfig, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout cannot be negative: %w", bqrun.ErrInvalidConfig)
	}
	return d, nil
}

// StrategyName returns the configured strategy, defaulting to StrategySchedule.
func (r RetryConfig) StrategyName() string {
	if r.Strategy == "" {
		return StrategySchedule
	}
	return r.Strategy
}

// Validate checks the retry settings.
func (r RetryConfig) Validate() error {
	switch r.StrategyName() {
	case StrategySchedule:
		_, err := r.ParseSchedule()
		return err
	case StrategyExponential:
		_, err := r.ParseExponential()
		return err
	default:
		return fmt.Errorf("retry.strategy %q must be %q or %q: %w",
			r.Strategy, StrategySchedule, StrategyExponential, bqrun.ErrInvalidConfig)
	}
}

// ParseSchedule returns the configured waits, or bqrun.DefaultRetrySchedule when
// none are set. An explicit empty list is not distinguishable from an absent one;
// use "schedule: [0s]" style entries to shorten waits instead.
func (r RetryConfig) ParseSchedule() ([]time.Duration, error) {
	if len(r.Schedule) == 0 {
		return bqrun.DefaultRetrySchedule(), nil
	}
	if len(r.Schedule) > bqrun.MaxRetries {
		return nil, fmt.Errorf("retry.schedule has %d entries, at most %d allowed: %w",
			len(r.Schedule), bqrun.MaxRetries, bqrun.ErrInvalidConfig)
	}

	schedule := make([]time.Duration, 0, len(r.Schedule))
	for i, s := range r.Schedule {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("retry.schedule[%d] %q: %w: %w", i, s, bqrun.ErrInvalidConfig, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("retry.schedule[%d] is negative: %w", i, bqrun.ErrInvalidConfig)
		}
		schedule = append(schedule, d)
	}
	return schedule, nil
}

// ExponentialSettings are the parsed exponential backoff parameters.
type ExponentialSettings struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// ParseExponential returns the exponential backoff parameters. Unset values
// default to 30s initial delay, 90s cap and bqrun.MaxRetries attempts.
func (r RetryConfig) ParseExponential() (ExponentialSettings, error) {
	s := ExponentialSettings{
		InitialDelay: 30 * time.Second,
		MaxDelay:     90 * time.Second,
		MaxAttempts:  bqrun.MaxRetries,
	}

	if r.InitialDelay != "" {
		d, err := time.ParseDuration(r.InitialDelay)
		if err != nil || d < 0 {
			return s, fmt.Errorf("invalid retry.initial_delay %q: %w", r.InitialDelay, bqrun.ErrInvalidConfig)
		}
		s.InitialDelay = d
	}
	if r.MaxDelay != "" {
		d, err := time.ParseDuration(r.MaxDelay)
		if err != nil || d < 0 {
			return s, fmt.Errorf("invalid retry.max_delay %q: %w", r.MaxDelay, bqrun.ErrInvalidConfig)
		}
		s.MaxDelay = d
	}
	if r.MaxAttempts != nil {
		if *r.MaxAttempts < 0 || *r.MaxAttempts > bqrun.MaxRetries {
			return s, fmt.Errorf("retry.max_attempts must be between 0 and %d: %w", bqrun.MaxRetries, bqrun.ErrInvalidConfig)
		}
		s.MaxAttempts = *r.MaxAttempts
	}
	return s, nil
}
