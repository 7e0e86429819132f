package main

import (
	"github.com/spf13/cobra"
)

const defaultConfigPath = "browseragent.yaml"

func buildServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP stdio server",
		Long: `Start the browser automation runtime as an MCP stdio server.

The server will:
1. Load configuration from the given file
2. Launch the shared browser session pool (lazily, on first browser_open)
3. Open (or create) the configured session/action-log store
4. Register all browser_* tools and serve them over stdio JSON-RPC

The process blocks until stdin closes or it is signalled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to YAML configuration file")
	return cmd
}

func buildMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations and exit",
		Long:  "Opens the configured SQLite store, which applies every pending goose migration on connect, then exits. No-op when store.driver is \"memory\".",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to YAML configuration file")
	return cmd
}
