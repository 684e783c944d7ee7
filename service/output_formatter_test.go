package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/bcflow/domain"
)

func sampleResponse() *domain.StructureResponse {
	resp := &domain.StructureResponse{
		Methods: []domain.MethodResult{
			{
				File:   "Basic.yaml",
				Method: "demo.Basic.seq",
				Status: domain.StatusStructured,
				Dump:   "foo();\nreturn;\n",
				Stats:  domain.MethodStats{Regions: 2, T1: 1, Steps: 1},
				Cached: true,
			},
			{
				File:        "Basic.yaml",
				Method:      "demo.Basic.odd",
				Status:      domain.StatusPartial,
				Dump:        "goto L4;\n",
				Diagnostics: []domain.Diagnostic{{Kind: "UnrecognizedIdiom", Addr: 4, Message: "kept as goto"}},
			},
			{
				File:      "Overlap.json",
				Method:    "demo.Overlap.cross",
				Status:    domain.StatusFailed,
				ErrorCode: domain.ErrCodeStructuralInconsistency,
				Error:     "overlapping handlers",
			},
		},
		Warnings:    []string{"[Empty.yaml] no methods found"},
		GeneratedAt: "2024-01-01T00:00:00Z",
		Version:     "test",
	}
	for _, m := range resp.Methods {
		resp.Summary.Add(m)
	}
	resp.Summary.FilesProcessed = 2
	return resp
}

func TestOutputFormatter_Text(t *testing.T) {
	f := NewOutputFormatter()

	out, err := f.Format(sampleResponse(), domain.FormatOptions{Format: domain.OutputFormatText, ShowDump: true, ShowStats: true})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Control Flow Structuring Report\n"))
	assert.Contains(t, out, "demo.Basic.seq  [structured] (cached)\n")
	assert.Contains(t, out, "demo.Overlap.cross  [failed]\n")
	assert.Contains(t, out, "  error: overlapping handlers\n")
	assert.Contains(t, out, "  UnrecognizedIdiom at 4: kept as goto\n")
	assert.Contains(t, out, "regions=2 t1=1 t2=0 steps=1")
	assert.Contains(t, out, "    foo();\n    return;\n")
	assert.Contains(t, out, "SUMMARY\n")
	assert.Contains(t, out, "66.7%")
	assert.Contains(t, out, "WARNINGS\n")
	assert.NotContains(t, out, "ERRORS\n")
}

func TestOutputFormatter_TextHidesDumpAndStats(t *testing.T) {
	out, err := NewOutputFormatter().Format(sampleResponse(), domain.FormatOptions{})
	require.NoError(t, err)

	assert.NotContains(t, out, "foo();")
	assert.NotContains(t, out, "regions=")
}

func TestOutputFormatter_JSON(t *testing.T) {
	tests := []struct {
		name     string
		showDump bool
	}{
		{"with dump", true},
		{"without dump", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewOutputFormatter().Format(sampleResponse(), domain.FormatOptions{Format: domain.OutputFormatJSON, ShowDump: tt.showDump})
			require.NoError(t, err)

			var decoded domain.StructureResponse
			require.NoError(t, json.Unmarshal([]byte(out), &decoded))
			require.Len(t, decoded.Methods, 3)
			assert.Equal(t, domain.StatusFailed, decoded.Methods[2].Status)
			assert.Equal(t, domain.ErrCodeStructuralInconsistency, decoded.Methods[2].ErrorCode)
			assert.Equal(t, 1, decoded.Summary.FailedMethods)
			if tt.showDump {
				assert.Equal(t, "foo();\nreturn;\n", decoded.Methods[0].Dump)
			} else {
				assert.Empty(t, decoded.Methods[0].Dump)
			}
		})
	}
}

func TestOutputFormatter_ProjectionKeepsInput(t *testing.T) {
	resp := sampleResponse()
	_, err := NewOutputFormatter().Format(resp, domain.FormatOptions{Format: domain.OutputFormatJSON})
	require.NoError(t, err)
	assert.Equal(t, "foo();\nreturn;\n", resp.Methods[0].Dump)
}

func TestOutputFormatter_YAML(t *testing.T) {
	var buf bytes.Buffer
	err := NewOutputFormatter().Write(sampleResponse(), domain.FormatOptions{Format: domain.OutputFormatYAML, ShowDump: true}, &buf)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "test", decoded["version"])
	methods, ok := decoded["methods"].([]interface{})
	require.True(t, ok)
	assert.Len(t, methods, 3)
}

func TestOutputFormatter_Errors(t *testing.T) {
	f := NewOutputFormatter()

	_, err := f.Format(nil, domain.FormatOptions{})
	code, ok := domain.ErrorCode(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeOutputError, code)

	_, err = f.Format(sampleResponse(), domain.FormatOptions{Format: "html"})
	code, ok = domain.ErrorCode(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeUnsupportedFormat, code)
}
