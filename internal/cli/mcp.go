package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/compliancewatch/internal/logging"
	cwmcp "github.com/ppiankov/compliancewatch/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs compliancewatch as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes assessment, scoring and knowledge-ingest tools plus policy:// and\n" +
		"case:// resources.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	logger := logging.Default()
	logger.Info("compliancewatch MCP server running on stdio",
		"version", version,
		"backend", a.Engine().BackendName(),
		"config_hash", a.ConfigHash(),
	)

	err = cwmcp.New(a.Engine(), version).Run(ctx)
	if ctx.Err() != nil {
		logger.Info("MCP server stopped")
		return nil
	}
	return err
}
