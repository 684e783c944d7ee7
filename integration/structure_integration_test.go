package integration

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ludo-technologies/bcflow/app"
	"github.com/ludo-technologies/bcflow/domain"
	"github.com/ludo-technologies/bcflow/internal/config"
	"github.com/ludo-technologies/bcflow/service"
)

func methodsDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("..", "testdata", "methods"))
	if err != nil {
		t.Fatalf("Failed to resolve testdata: %v", err)
	}
	return dir
}

func newUseCase(t *testing.T, cache domain.ResultCache) *app.StructureUseCase {
	t.Helper()
	fileReader := service.NewMethodFileReader()
	structureService := service.NewStructureService(fileReader, nil)
	if cache != nil {
		structureService.SetCache(cache)
	}
	structureService.SetExecutor(service.NewParallelExecutor())

	useCase, err := app.NewStructureUseCaseBuilder().
		WithService(structureService).
		WithFileReader(fileReader).
		WithFormatter(service.NewOutputFormatter()).
		WithConfigLoader(service.NewConfigurationLoader()).
		Build()
	if err != nil {
		t.Fatalf("Failed to build use case: %v", err)
	}
	return useCase
}

func defaultRequest(t *testing.T, w *bytes.Buffer) domain.StructureRequest {
	t.Helper()
	req := *service.RequestFromConfig(config.DefaultConfig())
	req.Paths = []string{methodsDir(t)}
	req.OutputWriter = w
	return req
}

// TestStructureDirectory structures every fixture through the full stack
func TestStructureDirectory(t *testing.T) {
	var out bytes.Buffer
	resp, err := newUseCase(t, nil).Execute(context.Background(), defaultRequest(t, &out))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if resp.Summary.FilesProcessed != 3 {
		t.Errorf("Expected 3 files, got %d", resp.Summary.FilesProcessed)
	}
	if resp.Summary.TotalMethods != 6 {
		t.Errorf("Expected 6 methods, got %d", resp.Summary.TotalMethods)
	}
	if resp.Summary.StructuredMethods != 5 {
		t.Errorf("Expected 5 structured methods, got %d", resp.Summary.StructuredMethods)
	}

	cross, ok := resp.Find("demo.Overlap.cross")
	if !ok {
		t.Fatal("Expected demo.Overlap.cross in the response")
	}
	if cross.ErrorCode != domain.ErrCodeStructuralInconsistency {
		t.Errorf("Expected %s, got %s", domain.ErrCodeStructuralInconsistency, cross.ErrorCode)
	}

	text := out.String()
	for _, want := range []string{"Control Flow Structuring Report", "synchronized (local_1) {", "SUMMARY"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected report to contain %q", want)
		}
	}
}

// TestStructureCancellation checks a cancelled context surfaces context.Canceled
func TestStructureCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := newUseCase(t, nil).Execute(ctx, defaultRequest(t, &out))
	if err == nil {
		t.Fatal("Expected an error for a cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in error chain, got: %v", err)
	}
}

// TestStructureCacheAcrossRuns checks an on-disk cache serves a second run
func TestStructureCacheAcrossRuns(t *testing.T) {
	cacheDir := t.TempDir()

	var first bytes.Buffer
	resp, err := newUseCase(t, service.NewResultCache(cacheDir)).Execute(context.Background(), defaultRequest(t, &first))
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	if resp.Summary.CachedMethods != 0 {
		t.Errorf("Expected a cold cache, got %d cached", resp.Summary.CachedMethods)
	}

	// A fresh cache instance only sees what the first run wrote to disk
	var second bytes.Buffer
	resp, err = newUseCase(t, service.NewResultCache(cacheDir)).Execute(context.Background(), defaultRequest(t, &second))
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if resp.Summary.CachedMethods != 6 {
		t.Errorf("Expected 6 cached methods, got %d", resp.Summary.CachedMethods)
	}
	if resp.Summary.FailedMethods != 1 {
		t.Errorf("Expected the cached failure to persist, got %d", resp.Summary.FailedMethods)
	}
}

// TestStructureWithConfigFile checks a YAML config file drives the engine
func TestStructureWithConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bcflow.yaml")
	content := "output:\n  format: json\n  show_dump: false\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	var out bytes.Buffer
	req := defaultRequest(t, &out)
	req.ConfigPath = configPath

	if _, err := newUseCase(t, nil).Execute(context.Background(), req); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out.String()), "{") {
		t.Errorf("Expected JSON output from the config file, got:\n%s", out.String())
	}
	if strings.Contains(out.String(), "\"dump\"") {
		t.Error("Expected dumps to be dropped")
	}
}

// TestStructureTimeout checks a tiny timeout does not hang
func TestStructureTimeout(t *testing.T) {
	var out bytes.Buffer
	req := defaultRequest(t, &out)
	req.Timeout = time.Nanosecond
	useCase := newUseCase(t, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = useCase.Execute(context.Background(), req)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Execute did not return after the timeout")
	}
}
