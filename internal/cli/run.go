package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/bqrun/internal/bq"
	"github.com/vvka-141/bqrun/internal/logging"
	"github.com/vvka-141/bqrun/internal/output"
	"github.com/vvka-141/bqrun/internal/query"
	"github.com/vvka-141/bqrun/internal/retry"
	"github.com/vvka-141/bqrun/internal/sqlfiles"
	"github.com/vvka-141/bqrun/pkg/bqrun"
)

var runCmd = &cobra.Command{
	Use:   "run [paths...]",
	Short: "Run SQL files or an inline query as labeled BigQuery jobs",
	Long: `Run submits each statement as a BigQuery job labeled with its name and waits
for it to finish. Statements run one after another; the first failure stops
the run.

Arguments:
  paths    .sql files, or directories whose .sql files run in name order.
           A file's label is its base name without the extension.

Configuration:
  Settings come from flags, then environment variables, then bqrun.yaml in the
  working directory (or --config), then defaults. A .env file in the working
  directory is loaded first.

  Project:   --project > $BQRUN_PROJECT > $GOOGLE_CLOUD_PROJECT > bqrun.yaml
  Location:  --location > $BQRUN_LOCATION > bqrun.yaml
  Labels:    --labels > --labels-file > bqrun.yaml

Credentials:
  Application Default Credentials are used unless --credentials names a
  service account key file. Run 'gcloud auth application-default login' for
  local use.

Examples:
  # Run every .sql file in a directory
  bqrun run ./queries --project my-project

  # Run an inline query with cost attribution labels
  bqrun run --sql "SELECT COUNT(*) FROM dataset.samples" --label "Count Samples" \
    --labels team=variants --labels env=prod

  # Pipe rows as JSON lines
  bqrun run ./report.sql --format json | jq .`,
	RunE:              runRun,
	ValidArgsFunction: completeSQLPaths,
}

type runFlagValues struct {
	sql, label                     string
	project, location, credentials string
	configFile, labelKey           string
	labels, labelsFiles            []string
	format                         string
	maxRows                        int
	timeout                        time.Duration
	retrySchedule                  []time.Duration
}

var runFlags runFlagValues

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.sql, "sql", "",
		"Inline SQL to run instead of files (requires --label)")
	runCmd.Flags().StringVar(&runFlags.label, "label", "",
		"Label for --sql, normalized to lowercase with spaces as hyphens")

	runCmd.Flags().StringVar(&runFlags.project, "project", "",
		"Google Cloud project that runs and pays for the jobs\n"+
			"Precedence: --project > $BQRUN_PROJECT > $GOOGLE_CLOUD_PROJECT > bqrun.yaml")
	runCmd.Flags().StringVar(&runFlags.location, "location", "",
		"BigQuery location, e.g. US or EU (default: $BQRUN_LOCATION or bqrun.yaml)")
	runCmd.Flags().StringVar(&runFlags.credentials, "credentials", "",
		"Service account key file (default: Application Default Credentials)")
	runCmd.Flags().StringVar(&runFlags.configFile, "config", "",
		"Path to a config file (default: ./bqrun.yaml if present)")

	runCmd.Flags().StringVar(&runFlags.labelKey, "label-key", "",
		"Job label key that receives the query label (default: query_name)")
	runCmd.Flags().StringSliceVar(&runFlags.labels, "labels", nil,
		"Base job labels as key=value pairs (can be specified multiple times)")
	runCmd.Flags().StringSliceVar(&runFlags.labelsFiles, "labels-file", nil,
		"Load base labels from .env format files (can be specified multiple times)\n"+
			"Later files override earlier ones; --labels overrides all files")

	runCmd.Flags().StringVar(&runFlags.format, "format", string(output.FormatAuto),
		"Result format: auto|table|json (auto: table on a terminal, JSON lines otherwise)")
	runCmd.Flags().IntVar(&runFlags.maxRows, "max-rows", bqrun.DefaultMaxDisplayRows,
		"Maximum rows written per query (0 = all)")

	runCmd.Flags().DurationVar(&runFlags.timeout, "timeout", bqrun.DefaultTimeout,
		"Maximum time for the whole run, including retry waits (0 = no limit)\n"+
			"Examples: 30s, 10m, 6h")
	runCmd.Flags().DurationSliceVar(&runFlags.retrySchedule, "retry-schedule", nil,
		"Waits between attempts for transient errors, at most 3 (default: 30s,60s,90s)")

	_ = runCmd.RegisterFlagCompletionFunc("format", completeFormats)
	_ = runCmd.RegisterFlagCompletionFunc("location", completeLocations)
}

// resetRunFlags resets all run flags to their default values.
// This is primarily used in tests to ensure clean state between test runs.
func resetRunFlags() {
	runFlags = runFlagValues{
		format:  string(output.FormatAuto),
		maxRows: bqrun.DefaultMaxDisplayRows,
		timeout: bqrun.DefaultTimeout,
	}
	for _, name := range []string{"timeout", "retry-schedule"} {
		if f := runCmd.Flags().Lookup(name); f != nil {
			f.Changed = false
		}
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose)

	statements, err := resolveStatements(runFlags, args)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(runFlags.format)
	if err != nil {
		return fmt.Errorf("%w: %w", bqrun.ErrInvalidConfig, err)
	}
	if runFlags.maxRows < 0 {
		return fmt.Errorf("--max-rows cannot be negative: %w", bqrun.ErrInvalidConfig)
	}

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	projectCfg, err := loadProjectConfig(runFlags.configFile)
	if err != nil {
		return err
	}

	cfg, err := resolveRunConfig(cmd, runFlags, projectCfg, os.Getenv)
	if err != nil {
		return err
	}

	if verbose {
		logRunConfigVerbose(logger, cfg, len(statements))
	}

	ctx, cancel := runContext(cfg.Timeout)
	defer cancel()

	// Handle interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling run...")
			cancel()
		case <-ctx.Done():
		}
	}()

	client, err := bq.NewClient(ctx, bq.Options{
		ProjectID:       cfg.ProjectID,
		Location:        cfg.Location,
		CredentialsFile: cfg.CredentialsFile,
		UserAgent:       userAgent(),
	})
	if err != nil {
		return err
	}
	defer client.Close()

	runner := newStatementRunner(client, cfg, logger, cmd.OutOrStdout(), format, runFlags.maxRows)
	return runner.run(ctx, statements)
}

func runContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

// resolveStatements returns the inline statement or the statements found in
// paths. Exactly one of the two sources must be given.
func resolveStatements(flags runFlagValues, paths []string) ([]sqlfiles.Statement, error) {
	if flags.sql != "" {
		if len(paths) > 0 {
			return nil, fmt.Errorf("--sql cannot be combined with file paths: %w", bqrun.ErrInvalidConfig)
		}
		if flags.label == "" {
			return nil, fmt.Errorf("--label is required with --sql: %w", bqrun.ErrInvalidConfig)
		}
		return []sqlfiles.Statement{{Label: flags.label, SQL: flags.sql}}, nil
	}

	if flags.label != "" {
		return nil, fmt.Errorf("--label is only valid with --sql: %w", bqrun.ErrInvalidConfig)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("provide .sql paths or --sql: %w", bqrun.ErrNoStatements)
	}
	return sqlfiles.NewOSLoader().Load(paths...)
}

func logRunConfigVerbose(logger bqrun.Logger, cfg *bqrun.RunConfig, statements int) {
	logger.Verbose("Run configuration resolved:")
	logger.Verbose("  Project: %s", cfg.ProjectID)
	if cfg.Location != "" {
		logger.Verbose("  Location: %s", cfg.Location)
	}
	if cfg.CredentialsFile != "" {
		logger.Verbose("  Credentials: %s", cfg.CredentialsFile)
	}
	logger.Verbose("  Label key: %s", cfg.LabelKey)
	logger.Verbose("  Base labels: %v", cfg.Labels)
	if exp, ok := cfg.Backoff.(*retry.ExponentialBackoff); ok {
		logger.Verbose("  Retry: exponential, %d retries, %s initial, %s max, x%.1f, %.0f%% jitter",
			exp.MaxAttempts(), exp.InitialDelay(), exp.MaxDelay(), exp.Multiplier(), exp.Jitter()*100)
	} else if cfg.Backoff != nil {
		logger.Verbose("  Retry: %d retries", cfg.Backoff.MaxAttempts())
	} else {
		logger.Verbose("  Retry schedule: %v", cfg.RetrySchedule)
	}
	logger.Verbose("  Timeout: %s", cfg.Timeout)
	logger.Verbose("  Statements: %d", statements)
}

// statementRunner runs statements one after another through a single query
// executor and writes each result set.
type statementRunner struct {
	exec       *query.Executor
	classifier bqrun.ErrorClassifier
	logger     bqrun.Logger
	out        io.Writer
	format     output.Format
	maxRows    int
}

func newStatementRunner(
	client bqrun.QueryClient,
	cfg *bqrun.RunConfig,
	logger bqrun.Logger,
	out io.Writer,
	format output.Format,
	maxRows int,
) *statementRunner {
	classifier := retry.NewBigQueryErrorClassifier()
	exec := query.NewExecutor(client,
		query.WithLogger(logger),
		query.WithLabelKey(cfg.LabelKey),
		query.WithBaseLabels(cfg.Labels),
		query.WithRetryExecutor(retry.NewExecutor(classifier, backoffFor(cfg))),
	)
	return &statementRunner{
		exec:       exec,
		classifier: classifier,
		logger:     logger,
		out:        out,
		format:     format,
		maxRows:    maxRows,
	}
}

func (r *statementRunner) run(ctx context.Context, statements []sqlfiles.Statement) error {
	for i, stmt := range statements {
		r.logger.Verbose("Running %d/%d: %s", i+1, len(statements), stmt.Label)

		result, err := r.exec.ExecuteWithRetry(ctx, stmt.Label, stmt.SQL)
		if err != nil {
			return r.wrapQueryError(stmt.Label, err)
		}

		summary, err := output.WriteRows(r.out, r.format, result.Rows, r.maxRows)
		if err != nil {
			return fmt.Errorf("writing results of %s: %w", stmt.Label, err)
		}
		if summary.Truncated {
			r.logger.Verbose("%s: output limited to %d rows (--max-rows)", stmt.Label, summary.Written)
		}
	}
	return nil
}

// wrapQueryError attaches the sentinel that selects the exit code. The
// original error stays in the chain.
func (r *statementRunner) wrapQueryError(label string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("query %s interrupted: %w", label, err)
	case r.classifier.IsTransient(err):
		return fmt.Errorf("query %s: %w: %w", label, bqrun.ErrRetriesExhausted, err)
	default:
		return fmt.Errorf("query %s: %w: %w", label, bqrun.ErrQueryFailed, err)
	}
}
