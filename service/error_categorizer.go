package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ludo-technologies/bcflow/domain"
)

type categoryPatterns struct {
	category domain.ErrorCategory
	patterns []string
}

// ErrorCategorizerImpl implements the ErrorCategorizer interface
type ErrorCategorizerImpl struct {
	codes    map[string]domain.ErrorCategory
	patterns []categoryPatterns
}

// NewErrorCategorizer creates a new error categorizer
func NewErrorCategorizer() *ErrorCategorizerImpl {
	return &ErrorCategorizerImpl{
		codes:    initializeErrorCodes(),
		patterns: initializeErrorPatterns(),
	}
}

func initializeErrorCodes() map[string]domain.ErrorCategory {
	return map[string]domain.ErrorCategory{
		domain.ErrCodeInvalidInput:            domain.ErrorCategoryInput,
		domain.ErrCodeFileNotFound:            domain.ErrorCategoryInput,
		domain.ErrCodeParseError:              domain.ErrorCategoryInput,
		domain.ErrCodeConfigError:             domain.ErrorCategoryConfig,
		domain.ErrCodeUnsupportedFormat:       domain.ErrorCategoryConfig,
		domain.ErrCodeOutputError:             domain.ErrorCategoryOutput,
		domain.ErrCodeAnalysisError:           domain.ErrorCategoryProcessing,
		domain.ErrCodeStructuralInconsistency: domain.ErrorCategoryStructure,
		domain.ErrCodeUnrecognizedIdiom:       domain.ErrorCategoryStructure,
		domain.ErrCodeIllegalEdgeTopology:     domain.ErrorCategoryStructure,
	}
}

// initializeErrorPatterns lists message fragments per category. Order
// matters: the first matching category wins.
func initializeErrorPatterns() []categoryPatterns {
	return []categoryPatterns{
		{domain.ErrorCategoryTimeout, []string{
			"timeout",
			"timed out",
			"deadline",
			"context canceled",
		}},
		{domain.ErrorCategoryStructure, []string{
			"structuralinconsistency",
			"unrecognizedidiom",
			"illegaledgetopology",
			"not reducible",
			"step limit",
		}},
		{domain.ErrorCategoryConfig, []string{
			"config",
			"toml",
			"unsupported format",
			"invalid settings",
		}},
		{domain.ErrorCategoryInput, []string{
			"invalid input",
			"no method files",
			"file not found",
			"no such file",
			"cannot access",
			"permission denied",
			"decode method file",
		}},
		{domain.ErrorCategoryOutput, []string{
			"write",
			"output",
			"cannot create",
		}},
		{domain.ErrorCategoryProcessing, []string{
			"structure",
			"process",
		}},
	}
}

// Categorize determines the category of an error. Domain error codes take
// precedence over message patterns.
func (ec *ErrorCategorizerImpl) Categorize(err error) *domain.CategorizedError {
	if err == nil {
		return nil
	}

	category := domain.ErrorCategoryUnknown
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		category = domain.ErrorCategoryTimeout
	} else if code, ok := domain.ErrorCode(err); ok {
		if c, known := ec.codes[code]; known {
			category = c
		}
	}

	if category == domain.ErrorCategoryUnknown {
		errMsg := strings.ToLower(err.Error())
		for _, cp := range ec.patterns {
			if containsAnyPattern(errMsg, cp.patterns) {
				category = cp.category
				break
			}
		}
	}

	if category == domain.ErrorCategoryUnknown {
		return &domain.CategorizedError{
			Category: category,
			Message:  err.Error(),
			Original: err,
		}
	}
	return &domain.CategorizedError{
		Category: category,
		Message:  ec.getCategoryMessage(category),
		Original: err,
	}
}

// GetRecoverySuggestions returns recovery suggestions for an error category
func (ec *ErrorCategorizerImpl) GetRecoverySuggestions(category domain.ErrorCategory) []string {
	suggestions := map[domain.ErrorCategory][]string{
		domain.ErrorCategoryInput: {
			"Check that the paths exist and contain .yaml, .yml or .json method files",
			"Try: bcflow structure . --verbose to see file discovery",
			"Validate the method file: every jump target must be a block address",
		},
		domain.ErrorCategoryConfig: {
			"Verify configuration file format and values",
			"Try: bcflow init to generate a valid .bcflow.toml",
			"Supported output formats are text, json and yaml",
		},
		domain.ErrorCategoryStructure: {
			"Run with --check to verify the tree after every reduction step",
			"Irreducible control flow cannot be structured; inspect the partial dump with --dump",
			"Raise engine.max_steps if the step limit was reached on a large method",
		},
		domain.ErrorCategoryTimeout: {
			"Increase performance.timeout_seconds or pass --timeout",
			"Structure fewer files at once",
		},
		domain.ErrorCategoryOutput: {
			"Check write permissions for the output path",
			"Ensure the output directory exists",
		},
		domain.ErrorCategoryProcessing: {
			"Run with --verbose for the engine trace",
			"Try structuring the failing file on its own",
		},
		domain.ErrorCategoryUnknown: {
			"Run with --verbose for detailed error information",
			"Report the issue with the method file attached if it persists",
		},
	}

	if sug, ok := suggestions[category]; ok {
		return sug
	}
	return []string{"Check the error message for more details"}
}

func (ec *ErrorCategorizerImpl) getCategoryMessage(category domain.ErrorCategory) string {
	messages := map[domain.ErrorCategory]string{
		domain.ErrorCategoryInput:      "Failed to read input method files",
		domain.ErrorCategoryConfig:     "Configuration file or settings error",
		domain.ErrorCategoryStructure:  "Control flow could not be structured",
		domain.ErrorCategoryTimeout:    "Structuring timed out",
		domain.ErrorCategoryOutput:     "Failed to write output",
		domain.ErrorCategoryProcessing: "Error while processing method files",
	}

	if msg, ok := messages[category]; ok {
		return msg
	}
	return "An error occurred"
}

// containsAnyPattern checks if a string contains any of the given patterns
func containsAnyPattern(str string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(str, pattern) {
			return true
		}
	}
	return false
}
