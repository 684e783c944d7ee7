package service

import (
	"os"
	"time"

	"github.com/ludo-technologies/bcflow/domain"
	"github.com/ludo-technologies/bcflow/internal/config"
)

// ConfigurationLoaderImpl implements the ConfigurationLoader interface
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*domain.StructureRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	req := RequestFromConfig(cfg)
	req.ConfigPath = path
	return req, nil
}

// LoadDefaultConfig loads .bcflow.toml from the working directory upwards and
// falls back to the built-in defaults.
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *domain.StructureRequest {
	cfg, err := config.LoadConfig("")
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return RequestFromConfig(cfg)
}

// RequestFromConfig converts the loaded configuration into a request without
// paths.
func RequestFromConfig(cfg *config.Config) *domain.StructureRequest {
	format, err := domain.ParseOutputFormat(cfg.Output.Format)
	if err != nil {
		format = domain.OutputFormatText
	}

	return &domain.StructureRequest{
		OutputFormat:    format,
		OutputWriter:    os.Stdout,
		ShowDump:        cfg.Output.ShowDump,
		ShowStats:       cfg.Output.ShowStats,
		Color:           cfg.Output.Color,
		Recursive:       cfg.Input.Recursive,
		IncludePatterns: cfg.Input.IncludePatterns,
		ExcludePatterns: cfg.Input.ExcludePatterns,
		Engine: domain.EngineOptions{
			MaxSteps:          cfg.Engine.MaxSteps,
			CheckEveryStep:    cfg.Engine.CheckEveryStep,
			NegateConditions:  cfg.Engine.NegateConditions,
			CombineConditions: cfg.Engine.CombineConditions,
			CreateForLoops:    cfg.Engine.CreateForLoops,
			RemoveStackOps:    cfg.Engine.RemoveStackOps,
			Declarations:      cfg.Output.ShowDeclarations,
			Color:             cfg.Output.Color && format == domain.OutputFormatText,
		},
		MaxGoroutines: cfg.Performance.MaxGoroutines,
		Timeout:       time.Duration(cfg.Performance.TimeoutSeconds) * time.Second,
		UseCache:      cfg.Cache.Enabled,
		CacheDir:      cfg.Cache.CachePath(),
	}
}
