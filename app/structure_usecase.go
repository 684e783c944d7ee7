package app

import (
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/bcflow/domain"
	svc "github.com/ludo-technologies/bcflow/service"
)

// StructureUseCase orchestrates the structuring workflow
type StructureUseCase struct {
	service      domain.StructureService
	fileReader   domain.MethodFileReader
	formatter    domain.OutputFormatter
	configLoader domain.ConfigurationLoader
	output       domain.ReportWriter
}

// NewStructureUseCase creates a new structure use case
func NewStructureUseCase(
	service domain.StructureService,
	fileReader domain.MethodFileReader,
	formatter domain.OutputFormatter,
	configLoader domain.ConfigurationLoader,
) *StructureUseCase {
	return &StructureUseCase{
		service:      service,
		fileReader:   fileReader,
		formatter:    formatter,
		configLoader: configLoader,
		output:       svc.NewFileOutputWriter(nil),
	}
}

// prepare validates the request, applies a config file if one is named and
// resolves the method files to structure.
func (uc *StructureUseCase) prepare(req domain.StructureRequest) (domain.StructureRequest, error) {
	if err := uc.validateRequest(req); err != nil {
		return req, domain.NewInvalidInputError("invalid request", err)
	}

	finalReq, err := uc.loadConfig(req)
	if err != nil {
		return req, domain.NewConfigError("failed to load configuration", err)
	}

	files, err := ResolveFilePaths(
		uc.fileReader,
		finalReq.Paths,
		finalReq.Recursive,
		finalReq.IncludePatterns,
		finalReq.ExcludePatterns,
		true,
	)
	if err != nil {
		return req, domain.NewFileNotFoundError("failed to collect files", err)
	}
	if len(files) == 0 {
		return req, domain.NewInvalidInputError("no method files found in the specified paths", nil)
	}

	finalReq.Paths = files
	return finalReq, nil
}

// Execute structures every method file under req.Paths and writes the report.
// Methods that fail to structure are part of the response, not an error.
func (uc *StructureUseCase) Execute(ctx context.Context, req domain.StructureRequest) (*domain.StructureResponse, error) {
	finalReq, err := uc.prepare(req)
	if err != nil {
		return nil, err
	}

	response, err := uc.service.Structure(ctx, finalReq)
	if err != nil {
		return nil, domain.NewAnalysisError("structuring failed", err)
	}

	if err := uc.write(response, finalReq); err != nil {
		return response, err
	}
	return response, nil
}

// StructureFile structures a single method file
func (uc *StructureUseCase) StructureFile(ctx context.Context, filePath string, req domain.StructureRequest) (*domain.StructureResponse, error) {
	if !uc.fileReader.IsMethodFile(filePath) {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("not a method file: %s", filePath), nil)
	}
	exists, err := uc.fileReader.FileExists(filePath)
	if err != nil || !exists {
		return nil, domain.NewFileNotFoundError(filePath, err)
	}

	req.Paths = []string{filePath}
	return uc.Execute(ctx, req)
}

func (uc *StructureUseCase) write(response *domain.StructureResponse, req domain.StructureRequest) error {
	opts := domain.FormatOptions{
		Format:    req.OutputFormat,
		ShowDump:  req.ShowDump,
		ShowStats: req.ShowStats,
		Color:     req.Color && req.OutputPath == "",
	}

	var out io.Writer
	if req.OutputPath == "" {
		out = req.OutputWriter
	}
	if err := uc.output.Write(out, req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return uc.formatter.Write(response, opts, w)
	}); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}
	return nil
}

func (uc *StructureUseCase) validateRequest(req domain.StructureRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("no input paths specified")
	}
	if req.OutputWriter == nil && req.OutputPath == "" {
		return fmt.Errorf("output writer or output path is required")
	}
	if _, err := domain.ParseOutputFormat(string(req.OutputFormat)); err != nil {
		return fmt.Errorf("unsupported output format: %s", req.OutputFormat)
	}
	if req.Engine.MaxSteps < 0 {
		return fmt.Errorf("max steps cannot be negative")
	}
	if req.MaxGoroutines < 0 {
		return fmt.Errorf("max goroutines cannot be negative")
	}
	return nil
}

// loadConfig replaces the engine and input settings of req with those of the
// named config file. Paths and output destination always come from req.
func (uc *StructureUseCase) loadConfig(req domain.StructureRequest) (domain.StructureRequest, error) {
	if uc.configLoader == nil || req.ConfigPath == "" {
		return req, nil
	}

	configReq, err := uc.configLoader.LoadConfig(req.ConfigPath)
	if err != nil {
		return req, fmt.Errorf("failed to load config from %s: %w", req.ConfigPath, err)
	}
	if configReq == nil {
		return req, nil
	}

	merged := *configReq
	merged.Paths = req.Paths
	merged.OutputWriter = req.OutputWriter
	merged.OutputPath = req.OutputPath
	merged.ConfigPath = req.ConfigPath
	return merged, nil
}

// StructureUseCaseBuilder provides a builder pattern for creating StructureUseCase
type StructureUseCaseBuilder struct {
	service      domain.StructureService
	fileReader   domain.MethodFileReader
	formatter    domain.OutputFormatter
	configLoader domain.ConfigurationLoader
	output       domain.ReportWriter
}

// NewStructureUseCaseBuilder creates a new builder
func NewStructureUseCaseBuilder() *StructureUseCaseBuilder {
	return &StructureUseCaseBuilder{}
}

// WithService sets the structure service
func (b *StructureUseCaseBuilder) WithService(service domain.StructureService) *StructureUseCaseBuilder {
	b.service = service
	return b
}

// WithFileReader sets the file reader
func (b *StructureUseCaseBuilder) WithFileReader(fileReader domain.MethodFileReader) *StructureUseCaseBuilder {
	b.fileReader = fileReader
	return b
}

// WithFormatter sets the output formatter
func (b *StructureUseCaseBuilder) WithFormatter(formatter domain.OutputFormatter) *StructureUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithConfigLoader sets the configuration loader
func (b *StructureUseCaseBuilder) WithConfigLoader(configLoader domain.ConfigurationLoader) *StructureUseCaseBuilder {
	b.configLoader = configLoader
	return b
}

// WithOutputWriter sets the report writer
func (b *StructureUseCaseBuilder) WithOutputWriter(output domain.ReportWriter) *StructureUseCaseBuilder {
	b.output = output
	return b
}

// Build creates the StructureUseCase with the configured dependencies
func (b *StructureUseCaseBuilder) Build() (*StructureUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("structure service is required")
	}
	if b.fileReader == nil {
		return nil, fmt.Errorf("file reader is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}

	uc := NewStructureUseCase(b.service, b.fileReader, b.formatter, b.configLoader)
	if b.output != nil {
		uc.output = b.output
	}
	return uc, nil
}

// BuildWithDefaults creates the StructureUseCase, filling the required
// dependencies with the service layer implementations.
func (b *StructureUseCaseBuilder) BuildWithDefaults() (*StructureUseCase, error) {
	if b.fileReader == nil {
		b.fileReader = svc.NewMethodFileReader()
	}
	if b.service == nil {
		b.service = svc.NewStructureService(b.fileReader, nil)
	}
	if b.formatter == nil {
		b.formatter = svc.NewOutputFormatter()
	}
	if b.configLoader == nil {
		b.configLoader = svc.NewConfigurationLoader()
	}
	return b.Build()
}
