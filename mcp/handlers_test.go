package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/bcflow/internal/config"
	"github.com/ludo-technologies/bcflow/mcp"
	"github.com/ludo-technologies/bcflow/service"
)

func methodsDir(t *testing.T) string {
	t.Helper()
	rootDir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Join(filepath.Dir(rootDir), "testdata", "methods")
}

func callTool(
	t *testing.T,
	arguments interface{},
	handlerFunc func(*mcp.HandlerSet, context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error),
) *mcplib.CallToolResult {
	t.Helper()
	deps := mcp.NewTestDependencies(service.NewMethodFileReader(), config.DefaultConfig(), "")
	h := mcp.NewHandlerSet(deps)

	req := mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Arguments: arguments,
		},
	}
	res, err := handlerFunc(h, context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcplib.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcplib.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestHandleStructureMethod(t *testing.T) {
	tests := []struct {
		name      string
		arguments interface{}
		wantError bool
		check     func(t *testing.T, payload map[string]interface{})
	}{
		{
			name:      "invalid arguments",
			arguments: "not a map",
			wantError: true,
		},
		{
			name:      "missing path",
			arguments: map[string]interface{}{},
			wantError: true,
		},
		{
			name:      "path does not exist",
			arguments: map[string]interface{}{"path": "/nonexistent/Foo.yaml"},
			wantError: true,
		},
		{
			name:      "negative max steps",
			arguments: map[string]interface{}{"path": "", "max_steps": float64(-1)},
			wantError: true,
		},
		{
			name:      "unknown method",
			arguments: map[string]interface{}{"path": "", "method": "demo.Basic.nope"},
			wantError: true,
		},
		{
			name:      "summary of a directory",
			arguments: map[string]interface{}{"path": ""},
			check: func(t *testing.T, payload map[string]interface{}) {
				summary := payload["summary"].(map[string]interface{})
				assert.Equal(t, float64(6), summary["total_methods"])
				assert.Equal(t, float64(1), summary["failed_methods"])
				assert.Len(t, payload["methods"], 6)
			},
		},
		{
			name:      "single method",
			arguments: map[string]interface{}{"path": "", "method": "demo.Basic.seq"},
			check: func(t *testing.T, payload map[string]interface{}) {
				methods := payload["methods"].([]interface{})
				require.Len(t, methods, 1)
				m := methods[0].(map[string]interface{})
				assert.Equal(t, "structured", m["status"])
				assert.Equal(t, "var local_1 = 1;\nfoo(local_1);\nreturn;\n", m["dump"])
			},
		},
		{
			name:      "failed method carries its code",
			arguments: map[string]interface{}{"path": "", "method": "demo.Overlap.cross"},
			check: func(t *testing.T, payload map[string]interface{}) {
				m := payload["methods"].([]interface{})[0].(map[string]interface{})
				assert.Equal(t, "failed", m["status"])
				assert.Equal(t, "STRUCTURAL_INCONSISTENCY", m["error_code"])
			},
		},
		{
			name:      "full output",
			arguments: map[string]interface{}{"path": "", "output_mode": "full", "declarations": false},
			check: func(t *testing.T, payload map[string]interface{}) {
				assert.Contains(t, payload, "generated_at")
				summary := payload["summary"].(map[string]interface{})
				assert.Equal(t, float64(3), summary["files_processed"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if m, ok := tt.arguments.(map[string]interface{}); ok {
				if p, ok := m["path"].(string); ok && p == "" {
					m["path"] = methodsDir(t)
				}
			}

			res := callTool(t, tt.arguments, (*mcp.HandlerSet).HandleStructureMethod)
			if tt.wantError {
				assert.True(t, res.IsError)
				return
			}
			require.False(t, res.IsError, resultText(t, res))

			var payload map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
			tt.check(t, payload)
		})
	}
}

func TestHandleListMethods(t *testing.T) {
	res := callTool(t, map[string]interface{}{"path": methodsDir(t)}, (*mcp.HandlerSet).HandleListMethods)
	require.False(t, res.IsError)

	var payload struct {
		Files   int `json:"files"`
		Methods []struct {
			Method   string `json:"method"`
			Handlers int    `json:"handlers"`
		} `json:"methods"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, 3, payload.Files)
	assert.Len(t, payload.Methods, 6)

	var cross int
	for _, m := range payload.Methods {
		if m.Method == "demo.Overlap.cross" {
			cross = m.Handlers
		}
	}
	assert.Equal(t, 2, cross)
}

func TestHandleListMethods_MissingPath(t *testing.T) {
	res := callTool(t, map[string]interface{}{"path": filepath.Join(t.TempDir(), "missing")}, (*mcp.HandlerSet).HandleListMethods)
	assert.True(t, res.IsError)
}
