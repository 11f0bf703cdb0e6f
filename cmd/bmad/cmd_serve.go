package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/logging"
	mcpserver "bmad/internal/mcp"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio for agent integration",
	Long: `Starts an MCP server over stdin/stdout. Coding agents connect via their
MCP configuration and call the pipeline tools (run_validate, run_build,
run_push, check_drift, get_status) directly.

The server monitors for parent process death. When the agent host disconnects
or restarts, the server self-terminates to prevent zombie processes.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	journal, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	srv := mcpserver.NewServer(cfg, version, journal)
	defer srv.Shutdown()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting bmad MCP server over stdio (parent watchdog active)")
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
