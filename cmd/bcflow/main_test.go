package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/bcflow/domain"
	"github.com/ludo-technologies/bcflow/internal/config"
	"github.com/ludo-technologies/bcflow/internal/version"
)

func fixture(name string) string {
	return filepath.Join("..", "..", "testdata", "methods", name)
}

func runStructure(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewStructureCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-cache", "--quiet"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	if version.Short() == "" {
		t.Error("version should not be empty")
	}

	cmd := NewVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != version.Short() {
		t.Errorf("Expected %q, got %q", version.Short(), out.String())
	}
}

func TestVersionFull(t *testing.T) {
	cmd := NewVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out.String(), "Commit: ") {
		t.Errorf("Expected build details, got %q", out.String())
	}

	cmd = NewVersionCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"extra"})
	if err := cmd.Execute(); err == nil {
		t.Error("Expected an error for unexpected arguments")
	}
}

func TestStructureCommandText(t *testing.T) {
	out, _, err := runStructure(t, fixture("Basic.yaml"))
	if err != nil {
		t.Fatalf("structure failed: %v", err)
	}
	if !strings.Contains(out, "demo.Basic.seq  [structured]") {
		t.Errorf("Expected seq to be structured, got:\n%s", out)
	}
	if !strings.Contains(out, "var local_1 = 1;") {
		t.Errorf("Expected the dump with declarations, got:\n%s", out)
	}
}

func TestStructureCommandJSON(t *testing.T) {
	out, _, err := runStructure(t, "--json", "--dump=false", fixture("Locks.yaml"))
	if err != nil {
		t.Fatalf("structure failed: %v", err)
	}

	var resp domain.StructureResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("Expected JSON output: %v\n%s", err, out)
	}
	if resp.Summary.TotalMethods != 2 {
		t.Errorf("Expected 2 methods, got %d", resp.Summary.TotalMethods)
	}
	for _, m := range resp.Methods {
		if m.Dump != "" {
			t.Errorf("Expected no dump for %s with --dump=false", m.Method)
		}
	}
}

func TestStructureCommandFailuresExitCode(t *testing.T) {
	_, _, err := runStructure(t, fixture("Overlap.json"))
	if err == nil {
		t.Fatal("Expected an error for a failed method")
	}
	if code := exitCode(err); code != exitFailures {
		t.Errorf("Expected exit code %d, got %d", exitFailures, code)
	}

	_, _, err = runStructure(t, "--allow-failures", fixture("Overlap.json"))
	if err != nil {
		t.Errorf("Expected --allow-failures to succeed, got %v", err)
	}
}

func TestStructureCommandInvalidFormat(t *testing.T) {
	_, stderr, err := runStructure(t, "--format", "html", fixture("Basic.yaml"))
	if exitCode(err) != exitError {
		t.Fatalf("Expected exit code %d, got %v", exitError, err)
	}
	if !strings.Contains(stderr, string(domain.ErrorCategoryConfig)) {
		t.Errorf("Expected a configuration error report, got:\n%s", stderr)
	}
}

func TestStructureCommandConflictingFormats(t *testing.T) {
	_, _, err := runStructure(t, "--json", "--yaml", fixture("Basic.yaml"))
	if err == nil {
		t.Fatal("Expected an error for --json with --yaml")
	}
}

func TestStructureCommandOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report")
	_, stderr, err := runStructure(t, "--yaml", "-o", out, fixture("Basic.yaml"))
	if err != nil {
		t.Fatalf("structure failed: %v", err)
	}

	data, err := os.ReadFile(out + ".yaml")
	if err != nil {
		t.Fatalf("Expected report with the format extension: %v", err)
	}
	if !strings.Contains(string(data), "demo.Basic.loop") {
		t.Errorf("Expected the report to list demo.Basic.loop")
	}
	if !strings.Contains(stderr, "YAML report generated") {
		t.Errorf("Expected a status line, got %q", stderr)
	}
}

func TestStructureCommandNoMethodFiles(t *testing.T) {
	_, _, err := runStructure(t, t.TempDir())
	if exitCode(err) != exitError {
		t.Fatalf("Expected exit code %d, got %v", exitError, err)
	}
	code, ok := domain.ErrorCode(err)
	if !ok || code != domain.ErrCodeInvalidInput {
		t.Errorf("Expected %s, got %v", domain.ErrCodeInvalidInput, err)
	}
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", config.ConfigFileName)

	cmd := NewInitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	loaded, err := config.NewTomlConfigLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("Expected a loadable config: %v", err)
	}
	if loaded.Engine.MaxSteps != config.DefaultMaxSteps {
		t.Errorf("Expected default max steps, got %d", loaded.Engine.MaxSteps)
	}

	again := NewInitCmd()
	again.SetOut(&out)
	again.SetErr(&out)
	again.SetArgs([]string{"--config", path})
	if err := again.Execute(); err == nil {
		t.Error("Expected an error when the file exists")
	}

	again = NewInitCmd()
	again.SetOut(&out)
	again.SetErr(&out)
	again.SetArgs([]string{"--config", path, "--force"})
	if err := again.Execute(); err != nil {
		t.Errorf("Expected --force to overwrite, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	if exitCode(nil) != exitOK {
		t.Error("Expected 0 for nil")
	}
	if exitCode(errors.New("x")) != exitError {
		t.Error("Expected 1 for plain errors")
	}
	if exitCode(&ExitError{Code: exitFailures, Err: errors.New("x")}) != exitFailures {
		t.Error("Expected the carried code")
	}
}
