package mcpserver

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/sourcelens/semcode/internal/config"
	"github.com/sourcelens/semcode/internal/engine"
)

// Server manages the MCP server lifecycle, grounded on the teacher's
// internal/mcp.MCPServer: a thin wrapper owning the mcp-go server plus
// whatever this domain needs instead of the teacher's searcher/watcher
// pair.
type Server struct {
	engine *engine.Engine
	cfg    *config.Config
	mcp    *server.MCPServer
}

// NewServer constructs a Server, registering all five tools against a
// fresh mcp-go server instance.
func NewServer(e *engine.Engine, cfg *config.Config) *Server {
	mcpServer := server.NewMCPServer(
		"semcode-mcpd",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	AddIndexCodebaseTool(mcpServer, e, cfg)
	AddSearchCodeTool(mcpServer, e, cfg)
	AddClearCollectionTool(mcpServer, e)
	AddGetIndexingStatusTool(mcpServer, e)
	AddListCollectionsTool(mcpServer, e)

	return &Server{engine: e, cfg: cfg, mcp: mcpServer}
}

// Serve starts the MCP server on stdio and blocks until a shutdown
// signal or a fatal server error.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting semcode-mcpd on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("mcp server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("received shutdown signal, stopping gracefully...")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
