package service

import (
	"fmt"

	"github.com/ludo-technologies/bcflow/domain"
)

// OutputFormatResolver resolves the output format from --format and the
// --json/--yaml shortcuts.
type OutputFormatResolver struct{}

func NewOutputFormatResolver() *OutputFormatResolver { return &OutputFormatResolver{} }

// Determine returns the selected format and the matching file extension.
// At most one shortcut may be set and it must not contradict format.
func (r *OutputFormatResolver) Determine(format string, json, yaml bool) (domain.OutputFormat, string, error) {
	if json && yaml {
		return "", "", fmt.Errorf("only one output format flag can be specified")
	}

	selected, err := domain.ParseOutputFormat(format)
	if err != nil {
		return "", "", err
	}

	shortcut := domain.OutputFormat("")
	switch {
	case json:
		shortcut = domain.OutputFormatJSON
	case yaml:
		shortcut = domain.OutputFormatYAML
	}
	if shortcut != "" {
		if format != "" && selected != domain.OutputFormatText && selected != shortcut {
			return "", "", fmt.Errorf("--%s conflicts with --format %s", shortcut, format)
		}
		selected = shortcut
	}

	switch selected {
	case domain.OutputFormatJSON:
		return selected, "json", nil
	case domain.OutputFormatYAML:
		return selected, "yaml", nil
	default:
		return domain.OutputFormatText, "txt", nil
	}
}
