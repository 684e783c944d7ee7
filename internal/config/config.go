package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Default engine settings
const (
	// DefaultMaxSteps bounds the reduction attempts per method
	DefaultMaxSteps = 100000

	// DefaultMaxGoroutines is the number of methods structured concurrently
	DefaultMaxGoroutines = 4

	// DefaultTimeoutSeconds is the budget for one structure run
	DefaultTimeoutSeconds = 300

	// DefaultCacheDir holds cached results relative to the user cache directory
	DefaultCacheDir = "bcflow"
)

// Config represents the main configuration structure
type Config struct {
	// Engine holds the structuring engine switches
	Engine EngineConfig `mapstructure:"engine" yaml:"engine" toml:"engine"`

	// Output holds output formatting configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" toml:"output"`

	// Input holds method file discovery configuration
	Input InputConfig `mapstructure:"input" yaml:"input" toml:"input"`

	// Performance holds concurrency limits
	Performance PerformanceConfig `mapstructure:"performance" yaml:"performance" toml:"performance"`

	// Cache holds result cache configuration
	Cache CacheConfig `mapstructure:"cache" yaml:"cache" toml:"cache"`
}

// EngineConfig mirrors the options of the structuring engine
type EngineConfig struct {
	// MaxSteps bounds the T1/T2 attempts per method; 0 disables the guard
	MaxSteps int `mapstructure:"max_steps" yaml:"max_steps" toml:"max_steps"`

	// CheckEveryStep verifies tree invariants after every reduction
	CheckEveryStep bool `mapstructure:"check_every_step" yaml:"check_every_step" toml:"check_every_step"`

	NegateConditions  bool `mapstructure:"negate_conditions" yaml:"negate_conditions" toml:"negate_conditions"`
	CombineConditions bool `mapstructure:"combine_conditions" yaml:"combine_conditions" toml:"combine_conditions"`
	CreateForLoops    bool `mapstructure:"create_for_loops" yaml:"create_for_loops" toml:"create_for_loops"`
	RemoveStackOps    bool `mapstructure:"remove_stack_ops" yaml:"remove_stack_ops" toml:"remove_stack_ops"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format is one of text, json, yaml
	Format string `mapstructure:"format" yaml:"format" toml:"format"`

	// ShowDeclarations prints variable declarations in the dump
	ShowDeclarations bool `mapstructure:"show_declarations" yaml:"show_declarations" toml:"show_declarations"`

	// Color highlights keywords and diagnostics in text output
	Color bool `mapstructure:"color" yaml:"color" toml:"color"`

	// ShowStats adds reduction statistics per method
	ShowStats bool `mapstructure:"show_stats" yaml:"show_stats" toml:"show_stats"`

	// ShowDump includes the structural dump in the output
	ShowDump bool `mapstructure:"show_dump" yaml:"show_dump" toml:"show_dump"`
}

// InputConfig holds configuration for collecting method files
type InputConfig struct {
	IncludePatterns []string `mapstructure:"include_patterns" yaml:"include_patterns" toml:"include_patterns"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns" toml:"exclude_patterns"`
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" toml:"recursive"`
}

// PerformanceConfig holds concurrency configuration
type PerformanceConfig struct {
	MaxGoroutines  int `mapstructure:"max_goroutines" yaml:"max_goroutines" toml:"max_goroutines"`
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// CacheConfig holds result cache configuration
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir" toml:"dir"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxSteps:          DefaultMaxSteps,
			CheckEveryStep:    false,
			NegateConditions:  true,
			CombineConditions: true,
			CreateForLoops:    true,
			RemoveStackOps:    true,
		},
		Output: OutputConfig{
			Format:           "text",
			ShowDeclarations: true,
			Color:            false,
			ShowStats:        false,
			ShowDump:         true,
		},
		Input: InputConfig{
			IncludePatterns: []string{"**/*.yaml", "**/*.yml", "**/*.json"},
			ExcludePatterns: []string{},
			Recursive:       true,
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  DefaultMaxGoroutines,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "",
		},
	}
}

// LoadConfig loads configuration from file or returns default config.
// An empty path looks for .bcflow.toml from the working directory upwards.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return DefaultConfig(), nil
		}
		return NewTomlConfigLoader().LoadConfig(wd)
	}

	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		return NewTomlConfigLoader().LoadFile(configPath)
	}

	config := DefaultConfig()
	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Engine.MaxSteps < 0 {
		return fmt.Errorf("engine.max_steps must be >= 0, got %d", c.Engine.MaxSteps)
	}

	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml", c.Output.Format)
	}

	if len(c.Input.IncludePatterns) == 0 {
		return fmt.Errorf("input.include_patterns cannot be empty")
	}

	if c.Performance.MaxGoroutines < 0 {
		return fmt.Errorf("performance.max_goroutines must be >= 0, got %d", c.Performance.MaxGoroutines)
	}
	if c.Performance.TimeoutSeconds < 0 {
		return fmt.Errorf("performance.timeout_seconds must be >= 0, got %d", c.Performance.TimeoutSeconds)
	}

	return nil
}

// CachePath returns the directory for cached results.
func (c *CacheConfig) CachePath() string {
	if c.Dir != "" {
		return c.Dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, DefaultCacheDir)
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("engine", config.Engine)
	v.Set("output", config.Output)
	v.Set("input", config.Input)
	v.Set("performance", config.Performance)
	v.Set("cache", config.Cache)

	return v.WriteConfig()
}
