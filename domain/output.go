package domain

import (
	"context"
	"io"
	"time"
)

// ReportWriter delivers a structure report. writeFunc renders the report
// into the writer it is given: a file created at outputPath when that is set,
// the writer argument otherwise.
type ReportWriter interface {
	Write(writer io.Writer, outputPath string, format OutputFormat, writeFunc func(io.Writer) error) error
}

// ProgressManager shows how many method files of a run have been structured.
// It stays silent unless stderr is a terminal.
type ProgressManager interface {
	// Initialize sizes the bar to the number of method files
	Initialize(maxValue int)
	Start()
	// Complete finishes the bar; success is false when the run was cut short
	Complete(success bool)
	Update(processed, total int)
	SetWriter(writer io.Writer)
	IsInteractive() bool
	Close()
}

// ParallelExecutor structures method files concurrently. A file is the unit
// of work; the methods inside one file run in order on one goroutine.
type ParallelExecutor interface {
	// Execute runs the enabled tasks and returns their failures joined, after
	// every started task has returned
	Execute(ctx context.Context, tasks []ExecutableTask) error

	// SetMaxConcurrency bounds the goroutines; zero means no bound
	SetMaxConcurrency(max int)

	// SetTimeout bounds the whole run
	SetTimeout(timeout time.Duration)
}

// ExecutableTask is one unit of work for the ParallelExecutor, typically the
// structuring of a single method file.
type ExecutableTask interface {
	Name() string
	Execute(ctx context.Context) (interface{}, error)
	IsEnabled() bool
}

// ErrorCategory groups failures by what the user can do about them.
type ErrorCategory string

const (
	// ErrorCategoryInput covers missing paths and unreadable method files
	ErrorCategoryInput ErrorCategory = "Input Error"
	// ErrorCategoryConfig covers bad flags and .bcflow.toml problems
	ErrorCategoryConfig ErrorCategory = "Configuration Error"
	// ErrorCategoryProcessing covers runs the engine could not complete
	ErrorCategoryProcessing ErrorCategory = "Processing Error"
	// ErrorCategoryStructure covers methods the engine could not structure
	ErrorCategoryStructure ErrorCategory = "Structuring Error"
	ErrorCategoryOutput    ErrorCategory = "Output Error"
	ErrorCategoryTimeout   ErrorCategory = "Timeout Error"
	ErrorCategoryUnknown   ErrorCategory = "Unknown Error"
)

// CategorizedError is an error tagged with its ErrorCategory for the CLI.
type CategorizedError struct {
	Category ErrorCategory
	Message  string
	Original error
}

func (e *CategorizedError) Error() string {
	if e.Original != nil {
		return e.Original.Error()
	}
	return e.Message
}

// ErrorCategorizer maps errors to categories and hints printed by bcflow.
type ErrorCategorizer interface {
	Categorize(err error) *CategorizedError
	GetRecoverySuggestions(category ErrorCategory) []string
}
