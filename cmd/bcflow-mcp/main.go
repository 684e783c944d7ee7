package main

import (
	"fmt"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	flag "github.com/spf13/pflag"

	"github.com/ludo-technologies/bcflow/internal/config"
	"github.com/ludo-technologies/bcflow/internal/logging"
	"github.com/ludo-technologies/bcflow/internal/version"
	"github.com/ludo-technologies/bcflow/mcp"
)

const serverName = "bcflow"

func main() {
	configPath := flag.StringP("config", "c", "", "Configuration file path (default: discover .bcflow.toml)")
	verbose := flag.BoolP("verbose", "v", false, "Log engine traces to stderr")
	flag.Parse()

	// MCP uses stdout for JSON-RPC, logs go to stderr
	logger := logging.Must(*verbose)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	server := mcpserver.NewMCPServer(
		serverName,
		version.Short(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)

	handlers := mcp.NewHandlerSet(mcp.NewDependencies(cfg, *configPath, logger))
	mcp.RegisterTools(server, handlers)

	logger.Infow("starting MCP server", "name", serverName, "version", version.Short(),
		"tools", []string{"structure_method", "list_methods"})

	if err := mcpserver.ServeStdio(server); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
