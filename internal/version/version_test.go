package version_test

import (
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/ludo-technologies/bcflow/internal/version"
)

func TestShort(t *testing.T) {
	if version.Short() == "" {
		t.Error("Short() should return non-empty string")
	}
}

func TestInfo(t *testing.T) {
	info := version.Info()

	if !strings.Contains(info, version.Name) {
		t.Errorf("Info() should contain %q", version.Name)
	}

	// Verify Go version is included
	if !strings.Contains(info, runtime.Version()) {
		t.Errorf("Info() should contain Go version %s", runtime.Version())
	}

	expectedArch := runtime.GOOS + "/" + runtime.GOARCH
	if !strings.Contains(info, expectedArch) {
		t.Errorf("Info() should contain OS/Arch %s", expectedArch)
	}
}

func TestInfoFormat(t *testing.T) {
	lines := strings.Split(version.Info(), "\n")

	expectedPrefixes := []string{"bcflow ", "Commit:", "Built:", "Built by:", "Go:", "OS/Arch:"}
	if len(lines) != len(expectedPrefixes) {
		t.Fatalf("Info() should contain %d lines, got %d", len(expectedPrefixes), len(lines))
	}

	for i, prefix := range expectedPrefixes {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d should start with %q, got %q", i+1, prefix, lines[i])
		}
	}
}

func TestInfoIncludesBuildMetadata(t *testing.T) {
	info := version.Info()

	expected := []string{
		fmt.Sprintf("bcflow %s", version.Version),
		fmt.Sprintf("Commit: %s", version.Commit),
		fmt.Sprintf("Built: %s", version.Date),
	}
	for _, want := range expected {
		if !strings.Contains(info, want) {
			t.Errorf("Info() output missing %q", want)
		}
	}
}

func TestUserAgent(t *testing.T) {
	if got := version.UserAgent(); got != "bcflow/"+version.Version {
		t.Errorf("unexpected user agent %q", got)
	}
}
