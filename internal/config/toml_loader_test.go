package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadFromBcflowToml(t *testing.T) {
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, `[engine]
max_steps = 500
combine_conditions = false

[output]
format = "yaml"
show_stats = true

[performance]
max_goroutines = 8
`)

	config, err := NewTomlConfigLoader().LoadConfig(tempDir)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Engine.MaxSteps != 500 {
		t.Errorf("Expected max_steps 500, got %d", config.Engine.MaxSteps)
	}
	if config.Engine.CombineConditions {
		t.Error("Expected combine_conditions false")
	}
	if !config.Engine.NegateConditions {
		t.Error("Expected unset negate_conditions to keep its default")
	}
	if config.Output.Format != "yaml" {
		t.Errorf("Expected format yaml, got %s", config.Output.Format)
	}
	if !config.Output.ShowStats {
		t.Error("Expected show_stats true")
	}
	if config.Performance.MaxGoroutines != 8 {
		t.Errorf("Expected max_goroutines 8, got %d", config.Performance.MaxGoroutines)
	}
	if config.Performance.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("Expected default timeout, got %d", config.Performance.TimeoutSeconds)
	}
}

func TestLoadFromParentDirectory(t *testing.T) {
	root := t.TempDir()
	writeConfigFile(t, root, "[engine]\ncheck_every_step = true\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("Failed to create nested dir: %v", err)
	}

	config, err := NewTomlConfigLoader().LoadConfig(nested)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if !config.Engine.CheckEveryStep {
		t.Error("Expected the parent .bcflow.toml to be used")
	}
}

func TestLoadWithoutConfigFile(t *testing.T) {
	config, err := NewTomlConfigLoader().LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("Expected defaults without error, got %v", err)
	}
	if config.Engine.MaxSteps != DefaultMaxSteps {
		t.Errorf("Expected default max steps, got %d", config.Engine.MaxSteps)
	}
}

func TestLoadInvalidToml(t *testing.T) {
	tempDir := t.TempDir()
	path := writeConfigFile(t, tempDir, "[engine\nmax_steps = ")

	if _, err := NewTomlConfigLoader().LoadFile(path); err == nil {
		t.Error("Expected a parse error")
	}
}

func TestLoadTomlRejectsInvalidFormat(t *testing.T) {
	if _, err := NewTomlConfigLoader().Parse([]byte("[output]\nformat = \"csv\"\n")); err == nil {
		t.Error("Expected a validation error")
	}
}

func TestDefaultConfigTemplateMatchesDefaults(t *testing.T) {
	text, err := GenerateDefaultConfigTOML()
	if err != nil {
		t.Fatalf("Failed to render template: %v", err)
	}
	if len(text) == 0 {
		t.Fatal("Expected rendered template")
	}

	fromTemplate, err := LoadDefaultConfigFromTOML()
	if err != nil {
		t.Fatalf("Failed to parse rendered template: %v", err)
	}
	defaults := DefaultConfig()
	if fromTemplate.Engine != defaults.Engine {
		t.Errorf("Engine defaults differ: %+v vs %+v", fromTemplate.Engine, defaults.Engine)
	}
	if fromTemplate.Output != defaults.Output {
		t.Errorf("Output defaults differ: %+v vs %+v", fromTemplate.Output, defaults.Output)
	}
	if fromTemplate.Performance != defaults.Performance {
		t.Errorf("Performance defaults differ: %+v vs %+v", fromTemplate.Performance, defaults.Performance)
	}
	if fromTemplate.Cache != defaults.Cache {
		t.Errorf("Cache defaults differ: %+v vs %+v", fromTemplate.Cache, defaults.Cache)
	}
	if !reflect.DeepEqual(fromTemplate.Input.IncludePatterns, defaults.Input.IncludePatterns) {
		t.Errorf("Include patterns differ: %v vs %v", fromTemplate.Input.IncludePatterns, defaults.Input.IncludePatterns)
	}
	if len(fromTemplate.Input.ExcludePatterns) != 0 {
		t.Errorf("Expected no exclude patterns, got %v", fromTemplate.Input.ExcludePatterns)
	}
}
