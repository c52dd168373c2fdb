package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/vvka-141/bqrun/pkg/bqrun"
)

func clearProjectEnv(t *testing.T) {
	t.Helper()
	for _, envVar := range []string{envProject, envGoogleProject, envLocation} {
		t.Setenv(envVar, "")
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	want := map[string]bool{"run": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRunCmd_NoInput(t *testing.T) {
	resetRunFlags()

	err := runRun(runCmd, nil)
	if !errors.Is(err, bqrun.ErrNoStatements) {
		t.Fatalf("expected ErrNoStatements, got: %v", err)
	}
	if code := bqrun.ExitCodeForError(err); code != bqrun.ExitConfigError {
		t.Errorf("expected exit code %d, got %d", bqrun.ExitConfigError, code)
	}
}

func TestRunCmd_SQLWithoutLabel(t *testing.T) {
	resetRunFlags()
	runFlags.sql = "SELECT 1"

	err := runRun(runCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "--label") {
		t.Fatalf("expected error about --label, got: %v", err)
	}
}

func TestRunCmd_NonexistentPath(t *testing.T) {
	resetRunFlags()

	err := runRun(runCmd, []string{"/nonexistent/path/abc123.sql"})
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}
}

func TestRunCmd_InvalidFormat(t *testing.T) {
	resetRunFlags()
	runFlags.sql = "SELECT 1"
	runFlags.label = "one"
	runFlags.format = "csv"

	err := runRun(runCmd, nil)
	if !errors.Is(err, bqrun.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got: %v", err)
	}
}

func TestRunCmd_NegativeMaxRows(t *testing.T) {
	resetRunFlags()
	runFlags.sql = "SELECT 1"
	runFlags.label = "one"
	runFlags.maxRows = -1

	err := runRun(runCmd, nil)
	if !errors.Is(err, bqrun.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got: %v", err)
	}
}

func TestRunCmd_MissingProject(t *testing.T) {
	resetRunFlags()
	clearProjectEnv(t)
	chdir(t, t.TempDir())
	runFlags.sql = "SELECT 1"
	runFlags.label = "one"

	err := runRun(runCmd, nil)
	if !errors.Is(err, bqrun.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got: %v", err)
	}
	if !strings.Contains(err.Error(), "ProjectID") {
		t.Errorf("expected error to mention ProjectID, got: %v", err)
	}
}

func TestRunCmd_MissingExplicitConfig(t *testing.T) {
	resetRunFlags()
	runFlags.sql = "SELECT 1"
	runFlags.label = "one"
	runFlags.configFile = "/nonexistent/bqrun.yaml"

	err := runRun(runCmd, nil)
	if code := bqrun.ExitCodeForError(err); code != bqrun.ExitConfigError {
		t.Errorf("expected exit code %d, got %d for: %v", bqrun.ExitConfigError, code, err)
	}
}
