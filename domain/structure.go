package domain

import (
	"context"
	"fmt"
	"io"
	"time"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat converts a user supplied format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	case "":
		return OutputFormatText, nil
	default:
		return "", NewUnsupportedFormatError(s)
	}
}

// MethodStatus is the outcome of structuring one method
type MethodStatus string

const (
	// StatusStructured means the method was reduced to a single region
	// without diagnostics.
	StatusStructured MethodStatus = "structured"
	// StatusPartial means the method was structured but the engine fell back
	// for some idiom or edge.
	StatusPartial MethodStatus = "partial"
	// StatusFailed means structuring aborted; Dump holds the partial tree.
	StatusFailed MethodStatus = "failed"
)

// EngineOptions mirrors the engine switches. It is part of the cache key.
type EngineOptions struct {
	MaxSteps          int  `json:"max_steps" yaml:"max_steps" msgpack:"max_steps"`
	CheckEveryStep    bool `json:"check_every_step" yaml:"check_every_step" msgpack:"check_every_step"`
	NegateConditions  bool `json:"negate_conditions" yaml:"negate_conditions" msgpack:"negate_conditions"`
	CombineConditions bool `json:"combine_conditions" yaml:"combine_conditions" msgpack:"combine_conditions"`
	CreateForLoops    bool `json:"create_for_loops" yaml:"create_for_loops" msgpack:"create_for_loops"`
	RemoveStackOps    bool `json:"remove_stack_ops" yaml:"remove_stack_ops" msgpack:"remove_stack_ops"`

	// Dump rendering
	Declarations bool `json:"declarations" yaml:"declarations" msgpack:"declarations"`
	Color        bool `json:"color" yaml:"color" msgpack:"color"`
}

// StructureRequest represents a request to structure method files
type StructureRequest struct {
	// Input files or directories
	Paths []string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string
	ShowDump     bool
	ShowStats    bool
	Color        bool

	// Configuration
	ConfigPath string

	// Input options
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Engine switches
	Engine EngineOptions

	// Execution
	MaxGoroutines int
	Timeout       time.Duration
	UseCache      bool
	CacheDir      string
}

// Diagnostic is a non-fatal engine finding
type Diagnostic struct {
	Kind    string `json:"kind" yaml:"kind" msgpack:"kind"`
	Addr    int    `json:"addr" yaml:"addr" msgpack:"addr"`
	Message string `json:"message" yaml:"message" msgpack:"message"`
}

// MethodStats counts the reductions performed on a method
type MethodStats struct {
	Regions     int `json:"regions" yaml:"regions" msgpack:"regions"`
	T1          int `json:"t1" yaml:"t1" msgpack:"t1"`
	T2          int `json:"t2" yaml:"t2" msgpack:"t2"`
	Steps       int `json:"steps" yaml:"steps" msgpack:"steps"`
	Breaks      int `json:"breaks" yaml:"breaks" msgpack:"breaks"`
	Continues   int `json:"continues" yaml:"continues" msgpack:"continues"`
	Trampolines int `json:"trampolines" yaml:"trampolines" msgpack:"trampolines"`
	Handlers    int `json:"handlers" yaml:"handlers" msgpack:"handlers"`
}

// MethodResult is the structuring result for a single method
type MethodResult struct {
	File        string       `json:"file" yaml:"file" msgpack:"file"`
	Method      string       `json:"method" yaml:"method" msgpack:"method"`
	Status      MethodStatus `json:"status" yaml:"status" msgpack:"status"`
	Dump        string       `json:"dump,omitempty" yaml:"dump,omitempty" msgpack:"dump"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" msgpack:"diagnostics"`
	Stats       MethodStats  `json:"stats" yaml:"stats" msgpack:"stats"`
	ErrorCode   string       `json:"error_code,omitempty" yaml:"error_code,omitempty" msgpack:"error_code"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error"`
	Cached      bool         `json:"cached,omitempty" yaml:"cached,omitempty" msgpack:"-"`
}

// StructureSummary represents aggregate statistics
type StructureSummary struct {
	FilesProcessed    int `json:"files_processed" yaml:"files_processed"`
	TotalMethods      int `json:"total_methods" yaml:"total_methods"`
	StructuredMethods int `json:"structured_methods" yaml:"structured_methods"`
	PartialMethods    int `json:"partial_methods" yaml:"partial_methods"`
	FailedMethods     int `json:"failed_methods" yaml:"failed_methods"`
	CachedMethods     int `json:"cached_methods" yaml:"cached_methods"`
	TotalDiagnostics  int `json:"total_diagnostics" yaml:"total_diagnostics"`
	TotalRegions      int `json:"total_regions" yaml:"total_regions"`
	TotalSteps        int `json:"total_steps" yaml:"total_steps"`
}

// Add accounts one method result.
func (s *StructureSummary) Add(r MethodResult) {
	s.TotalMethods++
	switch r.Status {
	case StatusStructured:
		s.StructuredMethods++
	case StatusPartial:
		s.PartialMethods++
	case StatusFailed:
		s.FailedMethods++
	}
	if r.Cached {
		s.CachedMethods++
	}
	s.TotalDiagnostics += len(r.Diagnostics)
	s.TotalRegions += r.Stats.Regions
	s.TotalSteps += r.Stats.Steps
}

// SuccessRate is the share of methods that did not fail.
func (s StructureSummary) SuccessRate() float64 {
	if s.TotalMethods == 0 {
		return 0
	}
	return float64(s.TotalMethods-s.FailedMethods) / float64(s.TotalMethods)
}

// StructureResponse represents the complete structuring result
type StructureResponse struct {
	Methods []MethodResult   `json:"methods" yaml:"methods"`
	Summary StructureSummary `json:"summary" yaml:"summary"`

	// Warnings and issues
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Metadata
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	Version     string `json:"version" yaml:"version"`
}

// HasFailures reports whether any method or file failed.
func (r *StructureResponse) HasFailures() bool {
	return r.Summary.FailedMethods > 0 || len(r.Errors) > 0
}

// Find returns the result for a qualified method name.
func (r *StructureResponse) Find(method string) (MethodResult, bool) {
	for _, m := range r.Methods {
		if m.Method == method {
			return m, true
		}
	}
	return MethodResult{}, false
}

// String identifies a method result in logs and text output.
func (r MethodResult) String() string {
	return fmt.Sprintf("%s (%s)", r.Method, r.File)
}

// StructureService defines the core business logic for structuring methods
type StructureService interface {
	// Structure structures every method of every file in req.Paths
	Structure(ctx context.Context, req StructureRequest) (*StructureResponse, error)

	// StructureFile structures the methods of a single method file
	StructureFile(ctx context.Context, filePath string, req StructureRequest) ([]MethodResult, error)
}

// MethodFileReader defines the interface for reading and collecting method files
type MethodFileReader interface {
	// CollectMethodFiles finds all method files in the given paths
	CollectMethodFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)

	// ReadFile reads the content of a file
	ReadFile(path string) ([]byte, error)

	// IsMethodFile checks if a file has a method file extension
	IsMethodFile(path string) bool

	// FileExists checks if a file exists and returns an error if not
	FileExists(path string) (bool, error)
}

// FormatOptions selects what the formatter prints.
type FormatOptions struct {
	Format    OutputFormat
	ShowDump  bool
	ShowStats bool
	Color     bool
}

// OutputFormatter defines the interface for formatting structuring results
type OutputFormatter interface {
	// Format formats the response according to the options
	Format(response *StructureResponse, opts FormatOptions) (string, error)

	// Write writes the formatted output to the writer
	Write(response *StructureResponse, opts FormatOptions, writer io.Writer) error
}

// ResultCache stores structuring results keyed by file content and engine
// options.
type ResultCache interface {
	// Key derives the cache key for a file
	Key(content []byte, opts EngineOptions) string

	// Get returns the cached results for key
	Get(key string) ([]MethodResult, bool)

	// Put stores results under key
	Put(key string, results []MethodResult) error
}

// ConfigurationLoader defines the interface for loading configuration
type ConfigurationLoader interface {
	// LoadConfig loads configuration from the specified path
	LoadConfig(path string) (*StructureRequest, error)

	// LoadDefaultConfig loads .bcflow.toml from the working directory or the defaults
	LoadDefaultConfig() *StructureRequest
}
