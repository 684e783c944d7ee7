package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// buildBcflowBinary builds the CLI from the project root into a temp dir.
func buildBcflowBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "bcflow")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/bcflow")

	projectRoot, err := filepath.Abs("..")
	if err != nil {
		t.Fatalf("Failed to get project root: %v", err)
	}
	cmd.Dir = projectRoot

	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build bcflow binary: %v\n%s", err, out)
	}
	return binaryPath
}

// methodsFixture returns the absolute path of a file under testdata/methods.
func methodsFixture(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "testdata", "methods", name))
	if err != nil {
		t.Fatalf("Failed to resolve fixture %s: %v", name, err)
	}
	return path
}

// createTestMethodFile writes a method file into dir.
func createTestMethodFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", filename, err)
	}
	return filePath
}

// createTestConfigFile writes a .bcflow.toml into dir.
func createTestConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	configFile := filepath.Join(dir, ".bcflow.toml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
}
