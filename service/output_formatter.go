package service

import (
	"fmt"
	"io"
	"strings"

	"github.com/ludo-technologies/bcflow/domain"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct{}

// NewOutputFormatter creates a new output formatter service
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// Format formats the structuring response according to the options
func (f *OutputFormatterImpl) Format(response *domain.StructureResponse, opts domain.FormatOptions) (string, error) {
	if response == nil {
		return "", domain.NewOutputError("no response to format", nil)
	}
	switch opts.Format {
	case domain.OutputFormatText, "":
		return f.formatText(response, opts), nil
	case domain.OutputFormatJSON:
		return EncodeJSON(f.project(response, opts))
	case domain.OutputFormatYAML:
		return EncodeYAML(f.project(response, opts))
	default:
		return "", domain.NewUnsupportedFormatError(string(opts.Format))
	}
}

// Write writes the formatted output to the writer
func (f *OutputFormatterImpl) Write(response *domain.StructureResponse, opts domain.FormatOptions, writer io.Writer) error {
	output, err := f.Format(response, opts)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(writer, output); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}
	return nil
}

// project drops the parts the options turn off from machine readable output.
func (f *OutputFormatterImpl) project(response *domain.StructureResponse, opts domain.FormatOptions) *domain.StructureResponse {
	if opts.ShowDump {
		return response
	}
	out := *response
	out.Methods = make([]domain.MethodResult, len(response.Methods))
	for i, m := range response.Methods {
		m.Dump = ""
		out.Methods[i] = m
	}
	return &out
}

// formatText formats the response as human-readable text
func (f *OutputFormatterImpl) formatText(response *domain.StructureResponse, opts domain.FormatOptions) string {
	var builder strings.Builder
	utils := NewFormatUtils(opts.Color)

	builder.WriteString(utils.FormatMainHeader("Control Flow Structuring Report"))

	for _, m := range response.Methods {
		header := fmt.Sprintf("%s  [%s]", m.Method, utils.FormatStatus(m.Status))
		if m.Cached {
			header += " (cached)"
		}
		builder.WriteString(header + "\n")
		builder.WriteString(utils.Indent(m.File, SectionPadding) + "\n")

		if m.Error != "" {
			builder.WriteString(utils.Indent("error: "+m.Error, SectionPadding) + "\n")
		}
		for _, d := range m.Diagnostics {
			builder.WriteString(utils.Indent(utils.FormatDiagnostic(d), SectionPadding) + "\n")
		}
		if opts.ShowStats {
			builder.WriteString(utils.Indent(fmt.Sprintf(
				"regions=%d t1=%d t2=%d steps=%d breaks=%d continues=%d trampolines=%d handlers=%d",
				m.Stats.Regions, m.Stats.T1, m.Stats.T2, m.Stats.Steps,
				m.Stats.Breaks, m.Stats.Continues, m.Stats.Trampolines, m.Stats.Handlers,
			), SectionPadding) + "\n")
		}
		if opts.ShowDump && m.Dump != "" {
			builder.WriteString("\n")
			builder.WriteString(utils.Indent(m.Dump, ItemPadding))
		}
		builder.WriteString("\n")
	}

	s := response.Summary
	builder.WriteString(utils.FormatStats("Summary", []Stat{
		{"Files", s.FilesProcessed},
		{"Methods", s.TotalMethods},
		{"Structured", s.StructuredMethods},
		{"Partial", s.PartialMethods},
		{"Failed", s.FailedMethods},
		{"Cached", s.CachedMethods},
		{"Diagnostics", s.TotalDiagnostics},
		{"Success rate", utils.FormatPercentage(s.SuccessRate())},
	}))

	builder.WriteString(utils.FormatListSection("Warnings", response.Warnings))
	builder.WriteString(utils.FormatListSection("Errors", response.Errors))

	return builder.String()
}
