package main

import (
	"fmt"

	"github.com/aretw0/tendril/internal/cli"
	"github.com/aretw0/tendril/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the engine to MCP clients",
	Long: `Starts a Model Context Protocol server exposing render_component,
trigger_event, evaluate_formula and teardown_session tools. It speaks stdio by
default; --sse serves over HTTP instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if n, err := st.Engine.LoadAll(cmd.Context()); err != nil {
			st.Logger.Warn("some components failed to load", "loaded", n, "err", err)
		}

		srv := mcp.NewServer(st.Engine, mcp.WithLogger(st.Logger))

		addr, _ := cmd.Flags().GetString("sse")
		if addr == "" {
			return srv.ServeStdio()
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		baseURL, _ := cmd.Flags().GetString("base-url")
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost%s", addr)
		}
		return srv.ServeSSE(sigCtx, addr, baseURL)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("sse", "", "Serve over SSE on this address (e.g. :8081) instead of stdio")
	mcpCmd.Flags().String("base-url", "", "Public base URL announced to SSE clients")
}
