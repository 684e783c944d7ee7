package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Engine.MaxSteps != DefaultMaxSteps {
		t.Errorf("Expected max steps %d, got %d", DefaultMaxSteps, config.Engine.MaxSteps)
	}
	if config.Engine.CheckEveryStep {
		t.Error("Expected check_every_step to be false by default")
	}
	if !config.Engine.NegateConditions || !config.Engine.CombineConditions ||
		!config.Engine.CreateForLoops || !config.Engine.RemoveStackOps {
		t.Error("Expected every rewrite to be enabled by default")
	}

	if config.Output.Format != "text" {
		t.Errorf("Expected format 'text', got %s", config.Output.Format)
	}
	if !config.Output.ShowDeclarations {
		t.Error("Expected show_declarations to be true by default")
	}
	if !config.Input.Recursive {
		t.Error("Expected recursive to be true by default")
	}
	if len(config.Input.IncludePatterns) != 3 {
		t.Errorf("Expected 3 include patterns, got %v", config.Input.IncludePatterns)
	}
	if !config.Cache.Enabled {
		t.Error("Expected cache to be enabled by default")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name        string
		modify      func(*Config)
		expectError bool
	}{
		{
			name:        "default is valid",
			modify:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "negative max steps",
			modify:      func(c *Config) { c.Engine.MaxSteps = -1 },
			expectError: true,
		},
		{
			name:        "zero max steps disables the guard",
			modify:      func(c *Config) { c.Engine.MaxSteps = 0 },
			expectError: false,
		},
		{
			name:        "unknown format",
			modify:      func(c *Config) { c.Output.Format = "html" },
			expectError: true,
		},
		{
			name:        "yaml format",
			modify:      func(c *Config) { c.Output.Format = "yaml" },
			expectError: false,
		},
		{
			name:        "empty include patterns",
			modify:      func(c *Config) { c.Input.IncludePatterns = nil },
			expectError: true,
		},
		{
			name:        "negative goroutines",
			modify:      func(c *Config) { c.Performance.MaxGoroutines = -2 },
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.modify(config)

			err := config.Validate()
			if tc.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tc.expectError && err != nil {
				t.Errorf("Expected no validation error, got %v", err)
			}
		})
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "bcflow.yaml")
	content := `engine:
  max_steps: 50
  create_for_loops: false
output:
  format: json
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Engine.MaxSteps != 50 {
		t.Errorf("Expected max steps 50, got %d", config.Engine.MaxSteps)
	}
	if config.Engine.CreateForLoops {
		t.Error("Expected create_for_loops to be false")
	}
	if !config.Engine.CombineConditions {
		t.Error("Expected unspecified combine_conditions to keep its default")
	}
	if config.Output.Format != "json" {
		t.Errorf("Expected format json, got %s", config.Output.Format)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "bcflow.yaml")
	if err := os.WriteFile(configPath, []byte("output:\n  format: xml\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("Expected an error for an unsupported format")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	config := DefaultConfig()
	config.Engine.MaxSteps = 42
	config.Output.ShowStats = true

	if err := SaveConfig(config, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if loaded.Engine.MaxSteps != 42 {
		t.Errorf("Expected max steps 42, got %d", loaded.Engine.MaxSteps)
	}
	if !loaded.Output.ShowStats {
		t.Error("Expected show_stats to survive the round trip")
	}
}

func TestCachePath(t *testing.T) {
	c := CacheConfig{Dir: "/tmp/custom"}
	if c.CachePath() != "/tmp/custom" {
		t.Errorf("Expected explicit dir, got %s", c.CachePath())
	}

	c.Dir = ""
	if filepath.Base(c.CachePath()) != DefaultCacheDir {
		t.Errorf("Expected default cache dir name, got %s", c.CachePath())
	}
}
