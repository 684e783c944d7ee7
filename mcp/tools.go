package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers the bcflow MCP tools with the server
func RegisterTools(s *server.MCPServer, h *HandlerSet) {
	s.AddTool(mcp.NewTool("structure_method",
		mcp.WithDescription("Recover structured Java-like control flow (if/else, loops, try/catch, synchronized) from decoded bytecode method files"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a method file (.yaml, .yml, .json) or a directory of method files")),
		mcp.WithString("method",
			mcp.Description("Qualified method name (Class.method) to return; default: every method")),
		mcp.WithBoolean("declarations",
			mcp.Description("Print variable declarations in the structured dump (default: from config)")),
		mcp.WithBoolean("check_every_step",
			mcp.Description("Run the consistency check after every reduction (default: false)")),
		mcp.WithNumber("max_steps",
			mcp.Description("Abort a method after this many reduction steps, 0 = no limit")),
		mcp.WithString("output_mode",
			mcp.Enum("summary", "full"),
			mcp.Description("summary returns status and dump per method; full returns the whole response (default: summary)")),
	), h.HandleStructureMethod)

	s.AddTool(mcp.NewTool("list_methods",
		mcp.WithDescription("List the methods contained in bytecode method files without structuring them"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a method file or a directory of method files")),
	), h.HandleListMethods)
}
