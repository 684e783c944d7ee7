package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the dedicated configuration file looked up by the loader
const ConfigFileName = ".bcflow.toml"

// BcflowTomlConfig represents the structure of .bcflow.toml. Booleans are
// pointers so that unset keys keep their defaults.
type BcflowTomlConfig struct {
	Engine      EngineTomlConfig      `toml:"engine"`
	Output      OutputTomlConfig      `toml:"output"`
	Input       InputTomlConfig       `toml:"input"`
	Performance PerformanceTomlConfig `toml:"performance"`
	Cache       CacheTomlConfig       `toml:"cache"`
}

// EngineTomlConfig represents the [engine] section
type EngineTomlConfig struct {
	MaxSteps          *int  `toml:"max_steps"`
	CheckEveryStep    *bool `toml:"check_every_step"`
	NegateConditions  *bool `toml:"negate_conditions"`
	CombineConditions *bool `toml:"combine_conditions"`
	CreateForLoops    *bool `toml:"create_for_loops"`
	RemoveStackOps    *bool `toml:"remove_stack_ops"`
}

// OutputTomlConfig represents the [output] section
type OutputTomlConfig struct {
	Format           string `toml:"format"`
	ShowDeclarations *bool  `toml:"show_declarations"`
	Color            *bool  `toml:"color"`
	ShowStats        *bool  `toml:"show_stats"`
	ShowDump         *bool  `toml:"show_dump"`
}

// InputTomlConfig represents the [input] section
type InputTomlConfig struct {
	IncludePatterns []string `toml:"include_patterns"`
	ExcludePatterns []string `toml:"exclude_patterns"`
	Recursive       *bool    `toml:"recursive"`
}

// PerformanceTomlConfig represents the [performance] section
type PerformanceTomlConfig struct {
	MaxGoroutines  int `toml:"max_goroutines"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// CacheTomlConfig represents the [cache] section
type CacheTomlConfig struct {
	Enabled *bool  `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// TomlConfigLoader handles TOML configuration loading
type TomlConfigLoader struct{}

// NewTomlConfigLoader creates a new TOML configuration loader
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// LoadConfig finds .bcflow.toml in startDir or one of its parents and merges
// it over the defaults. Without a config file the defaults are returned.
func (l *TomlConfigLoader) LoadConfig(startDir string) (*Config, error) {
	configPath, err := l.FindConfigFile(startDir)
	if err != nil {
		return DefaultConfig(), nil
	}
	return l.LoadFile(configPath)
}

// LoadFile parses the TOML file at path and merges it over the defaults.
func (l *TomlConfigLoader) LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return l.Parse(data)
}

// Parse decodes TOML content and merges it over the defaults.
func (l *TomlConfigLoader) Parse(data []byte) (*Config, error) {
	var tomlCfg BcflowTomlConfig
	if err := toml.Unmarshal(data, &tomlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse toml config: %w", err)
	}

	config := DefaultConfig()
	l.merge(config, &tomlCfg)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// FindConfigFile walks up the directory tree to find .bcflow.toml
func (l *TomlConfigLoader) FindConfigFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = startDir
	}
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}

func (l *TomlConfigLoader) merge(config *Config, t *BcflowTomlConfig) {
	// Engine
	if t.Engine.MaxSteps != nil {
		config.Engine.MaxSteps = *t.Engine.MaxSteps
	}
	mergeBool(&config.Engine.CheckEveryStep, t.Engine.CheckEveryStep)
	mergeBool(&config.Engine.NegateConditions, t.Engine.NegateConditions)
	mergeBool(&config.Engine.CombineConditions, t.Engine.CombineConditions)
	mergeBool(&config.Engine.CreateForLoops, t.Engine.CreateForLoops)
	mergeBool(&config.Engine.RemoveStackOps, t.Engine.RemoveStackOps)

	// Output
	if t.Output.Format != "" {
		config.Output.Format = t.Output.Format
	}
	mergeBool(&config.Output.ShowDeclarations, t.Output.ShowDeclarations)
	mergeBool(&config.Output.Color, t.Output.Color)
	mergeBool(&config.Output.ShowStats, t.Output.ShowStats)
	mergeBool(&config.Output.ShowDump, t.Output.ShowDump)

	// Input
	if len(t.Input.IncludePatterns) > 0 {
		config.Input.IncludePatterns = t.Input.IncludePatterns
	}
	if t.Input.ExcludePatterns != nil {
		config.Input.ExcludePatterns = t.Input.ExcludePatterns
	}
	mergeBool(&config.Input.Recursive, t.Input.Recursive)

	// Performance
	if t.Performance.MaxGoroutines > 0 {
		config.Performance.MaxGoroutines = t.Performance.MaxGoroutines
	}
	if t.Performance.TimeoutSeconds > 0 {
		config.Performance.TimeoutSeconds = t.Performance.TimeoutSeconds
	}

	// Cache
	mergeBool(&config.Cache.Enabled, t.Cache.Enabled)
	if t.Cache.Dir != "" {
		config.Cache.Dir = t.Cache.Dir
	}
}

func mergeBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
