package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sourcelens/semcode/internal/config"
	"github.com/sourcelens/semcode/internal/engine"
	"github.com/sourcelens/semcode/internal/mcpserver"
)

var rootDir string

// serveCmd starts the MCP server on stdio, wiring
// internal/config -> internal/engine -> internal/mcpserver in sequence.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `serve loads configuration from --root/.semcode/config.yaml
(overridable by SEMCODE_* environment variables), constructs the
search/indexing engine, and serves the five MCP tools on stdio until
interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigFromDir(rootDir)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		stateDir := cfg.StateDir
		if !filepath.IsAbs(stateDir) {
			stateDir = filepath.Join(rootDir, stateDir)
		}

		e := engine.New(cfg, stateDir)
		server := mcpserver.NewServer(e, cfg)

		return server.Serve(context.Background())
	},
}

func init() {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	serveCmd.Flags().StringVar(&rootDir, "root", wd, "project root directory to load .semcode/config.yaml from")
	rootCmd.AddCommand(serveCmd)
}
