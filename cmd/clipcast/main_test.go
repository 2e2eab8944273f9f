package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	content := fmt.Sprintf(
		"[paths]\nstaging_dir = %q\nclips_dir = %q\nstate_dir = %q\nlog_dir = %q\n",
		filepath.Join(base, "staging"),
		filepath.Join(base, "clips"),
		filepath.Join(base, "state"),
		filepath.Join(base, "logs"),
	)
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// A second init without --overwrite refuses to clobber the file.
	if _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestCursorResetAndShow(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "cursor", "reset", "3")
	if err != nil {
		t.Fatalf("cursor reset: %v", err)
	}
	requireContains(t, out, "Rotation cursor set to 3")

	out, err = runCLI(t, configPath, "cursor", "show")
	if err != nil {
		t.Fatalf("cursor show: %v", err)
	}
	requireContains(t, out, "Next rotation index: 3")
}

func TestLedgerListEmpty(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "ledger", "list")
	if err != nil {
		t.Fatalf("ledger list: %v", err)
	}
	requireContains(t, out, "Ledger is empty")
}

func TestRunRequiresRelayConfig(t *testing.T) {
	configPath := writeTestConfig(t)

	// No folder, account, or token configured.
	if _, err := runCLI(t, configPath, "run"); err == nil {
		t.Fatal("expected validation error for incomplete relay config")
	}
}

func TestCursorResetRejectsNonNumericIndex(t *testing.T) {
	configPath := writeTestConfig(t)

	if _, err := runCLI(t, configPath, "cursor", "reset", "abc"); err == nil {
		t.Fatal("expected error for non-numeric index")
	}
}
