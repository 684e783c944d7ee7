package mcp

import (
	"go.uber.org/zap"

	"github.com/ludo-technologies/bcflow/app"
	"github.com/ludo-technologies/bcflow/domain"
	"github.com/ludo-technologies/bcflow/internal/config"
	"github.com/ludo-technologies/bcflow/internal/logging"
	"github.com/ludo-technologies/bcflow/service"
)

// Dependencies aggregates the shared services required by MCP handlers.
type Dependencies struct {
	fileReader domain.MethodFileReader
	cache      domain.ResultCache
	config     *config.Config
	configPath string
	logger     *zap.SugaredLogger
}

// NewDependencies constructs the dependency set with sane defaults.
// The result cache is kept in memory for the lifetime of the server.
func NewDependencies(cfg *config.Config, configPath string, logger *zap.SugaredLogger) *Dependencies {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}

	var cache domain.ResultCache
	if cfg.Cache.Enabled {
		cache = service.NewResultCache("")
	}

	return &Dependencies{
		fileReader: service.NewMethodFileReader(),
		cache:      cache,
		config:     cfg,
		configPath: configPath,
		logger:     logger,
	}
}

// Config exposes the loaded configuration snapshot.
func (d *Dependencies) Config() *config.Config {
	return d.config
}

// ConfigPath returns the configured config file path (may be empty to trigger discovery).
func (d *Dependencies) ConfigPath() string {
	return d.configPath
}

// FileReader returns the shared method file reader.
func (d *Dependencies) FileReader() domain.MethodFileReader {
	return d.fileReader
}

// BuildStructureUseCase assembles a StructureUseCase over the shared reader
// and cache.
func (d *Dependencies) BuildStructureUseCase() (*app.StructureUseCase, error) {
	svc := service.NewStructureService(d.fileReader, d.logger)
	if d.cache != nil {
		svc.SetCache(d.cache)
	}

	return app.NewStructureUseCaseBuilder().
		WithService(svc).
		WithFileReader(d.fileReader).
		WithFormatter(service.NewOutputFormatter()).
		Build()
}
