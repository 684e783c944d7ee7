package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/bcflow/domain"
)

// EncodeJSON returns an indented JSON string for the given value.
func EncodeJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", domain.NewOutputError("failed to marshal JSON", err)
	}
	return string(data) + "\n", nil
}

// WriteJSON writes indented JSON for the given value to the writer.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode JSON", err)
	}
	return nil
}

// EncodeYAML returns a YAML string for the given value.
func EncodeYAML(v interface{}) (string, error) {
	var b strings.Builder
	if err := WriteYAML(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

// WriteYAML writes YAML for the given value to the writer.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode YAML", err)
	}
	if err := enc.Close(); err != nil {
		return domain.NewOutputError("failed to encode YAML", err)
	}
	return nil
}

// Standard formatting constants
const (
	HeaderWidth    = 40
	LabelWidth     = 20
	SectionPadding = 2
	ItemPadding    = 4
)

// Stat is one labelled value in a summary section.
type Stat struct {
	Label string
	Value interface{}
}

// FormatUtils provides shared text formatting
type FormatUtils struct {
	red, yellow, green, cyan, bold *color.Color
}

// NewFormatUtils creates format utilities. Colors are emitted only when
// useColor is set, regardless of the terminal.
func NewFormatUtils(useColor bool) *FormatUtils {
	f := &FormatUtils{
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		green:  color.New(color.FgGreen),
		cyan:   color.New(color.FgCyan),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{f.red, f.yellow, f.green, f.cyan, f.bold} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

// FormatMainHeader creates a standardized main header
func (f *FormatUtils) FormatMainHeader(title string) string {
	var builder strings.Builder
	builder.WriteString(f.bold.Sprint(title) + "\n")
	builder.WriteString(strings.Repeat("=", HeaderWidth) + "\n\n")
	return builder.String()
}

// FormatSectionHeader creates a standardized section header
func (f *FormatUtils) FormatSectionHeader(title string) string {
	var builder strings.Builder
	builder.WriteString(f.bold.Sprint(strings.ToUpper(title)) + "\n")
	builder.WriteString(strings.Repeat("-", len(title)) + "\n")
	return builder.String()
}

// FormatLabelWithIndent creates a formatted label with specific indentation
func (f *FormatUtils) FormatLabelWithIndent(indent int, label string, value interface{}) string {
	return fmt.Sprintf("%s%-*s %v\n", strings.Repeat(" ", indent), LabelWidth, label+":", value)
}

// FormatPercentage formats a ratio in [0,1] as a percentage
func (f *FormatUtils) FormatPercentage(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatStats renders a section of labelled values in order
func (f *FormatUtils) FormatStats(title string, stats []Stat) string {
	var builder strings.Builder
	builder.WriteString(f.FormatSectionHeader(title))
	for _, s := range stats {
		builder.WriteString(f.FormatLabelWithIndent(SectionPadding, s.Label, s.Value))
	}
	builder.WriteString("\n")
	return builder.String()
}

// FormatListSection renders a titled list; empty lists render nothing
func (f *FormatUtils) FormatListSection(title string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	var builder strings.Builder
	builder.WriteString(f.FormatSectionHeader(title))
	for _, item := range items {
		builder.WriteString(strings.Repeat(" ", SectionPadding) + "- " + item + "\n")
	}
	builder.WriteString("\n")
	return builder.String()
}

// FormatStatus colors a method status
func (f *FormatUtils) FormatStatus(status domain.MethodStatus) string {
	switch status {
	case domain.StatusStructured:
		return f.green.Sprint(string(status))
	case domain.StatusPartial:
		return f.yellow.Sprint(string(status))
	case domain.StatusFailed:
		return f.red.Sprint(string(status))
	default:
		return string(status)
	}
}

// FormatDiagnostic renders one diagnostic line
func (f *FormatUtils) FormatDiagnostic(d domain.Diagnostic) string {
	return fmt.Sprintf("%s at %d: %s", f.cyan.Sprint(d.Kind), d.Addr, d.Message)
}

// Indent prefixes every non-empty line of text
func (f *FormatUtils) Indent(text string, n int) string {
	prefix := strings.Repeat(" ", n)
	lines := strings.SplitAfter(text, "\n")
	var builder strings.Builder
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			builder.WriteString(prefix)
		}
		builder.WriteString(line)
	}
	return builder.String()
}
