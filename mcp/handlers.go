package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ludo-technologies/bcflow/app"
	"github.com/ludo-technologies/bcflow/domain"
	"github.com/ludo-technologies/bcflow/internal/bytecode"
	"github.com/ludo-technologies/bcflow/service"
)

// HandlerSet exposes MCP tool handlers with shared dependencies.
type HandlerSet struct {
	deps *Dependencies
}

// NewHandlerSet constructs a handler set.
func NewHandlerSet(deps *Dependencies) *HandlerSet {
	if deps == nil {
		deps = NewDependencies(nil, "", nil)
	}
	return &HandlerSet{deps: deps}
}

// HandleStructureMethod handles the structure_method tool
func (h *HandlerSet) HandleStructureMethod(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path)), nil
	}

	req := *service.RequestFromConfig(h.deps.Config())
	req.Paths = []string{path}
	req.OutputFormat = domain.OutputFormatJSON
	req.OutputWriter = io.Discard
	req.OutputPath = ""
	req.Color = false
	req.Engine.Color = false

	if v, ok := args["declarations"].(bool); ok {
		req.Engine.Declarations = v
	}
	if v, ok := args["check_every_step"].(bool); ok {
		req.Engine.CheckEveryStep = v
	}
	if v, ok := args["max_steps"].(float64); ok {
		if v < 0 {
			return mcp.NewToolResultError("max_steps cannot be negative"), nil
		}
		req.Engine.MaxSteps = int(v)
	}

	useCase, err := h.deps.BuildStructureUseCase()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create use case: %v", err)), nil
	}

	result, err := useCase.Execute(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("structuring failed: %v", err)), nil
	}

	if name, ok := args["method"].(string); ok && name != "" {
		m, found := result.Find(name)
		if !found {
			return mcp.NewToolResultError(fmt.Sprintf("method not found: %s", name)), nil
		}
		result.Methods = []domain.MethodResult{m}
	}

	outputMode := "summary"
	if om, ok := args["output_mode"].(string); ok {
		outputMode = om
	}

	var responseData interface{}
	switch outputMode {
	case "full":
		responseData = result
	default:
		responseData = formatStructureSummary(result)
	}

	jsonData, err := json.Marshal(responseData)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// HandleListMethods handles the list_methods tool
func (h *HandlerSet) HandleListMethods(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path)), nil
	}

	cfg := h.deps.Config()
	reader := h.deps.FileReader()
	files, err := app.ResolveFilePaths(reader, []string{path}, cfg.Input.Recursive,
		cfg.Input.IncludePatterns, cfg.Input.ExcludePatterns, true)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to collect files: %v", err)), nil
	}

	type methodInfo struct {
		Method   string `json:"method"`
		File     string `json:"file"`
		Blocks   int    `json:"blocks"`
		Handlers int    `json:"handlers"`
	}
	methods := []methodInfo{}
	var errs []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cancelled: %v", err)), nil
		}
		content, err := reader.ReadFile(f)
		if err != nil {
			errs = append(errs, fmt.Sprintf("[%s] %v", f, err))
			continue
		}
		decoded, err := bytecode.DecodeBytes(content)
		if err != nil {
			errs = append(errs, fmt.Sprintf("[%s] %v", f, err))
			continue
		}
		for _, m := range decoded.Methods {
			methods = append(methods, methodInfo{
				Method:   m.QualifiedName(),
				File:     f,
				Blocks:   len(m.Blocks),
				Handlers: len(m.Handlers),
			})
		}
	}

	jsonData, err := json.Marshal(map[string]interface{}{
		"files":   len(files),
		"methods": methods,
		"errors":  errs,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func formatStructureSummary(result *domain.StructureResponse) map[string]interface{} {
	methods := make([]map[string]interface{}, 0, len(result.Methods))
	for _, m := range result.Methods {
		entry := map[string]interface{}{
			"method": m.Method,
			"file":   m.File,
			"status": m.Status,
			"dump":   m.Dump,
		}
		if len(m.Diagnostics) > 0 {
			entry["diagnostics"] = m.Diagnostics
		}
		if m.ErrorCode != "" {
			entry["error_code"] = m.ErrorCode
			entry["error"] = m.Error
		}
		methods = append(methods, entry)
	}

	return map[string]interface{}{
		"summary": map[string]interface{}{
			"files_processed":    result.Summary.FilesProcessed,
			"total_methods":      result.Summary.TotalMethods,
			"structured_methods": result.Summary.StructuredMethods,
			"partial_methods":    result.Summary.PartialMethods,
			"failed_methods":     result.Summary.FailedMethods,
			"success_rate":       result.Summary.SuccessRate(),
		},
		"methods": methods,
		"errors":  result.Errors,
	}
}
