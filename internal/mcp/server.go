package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/tabsync/internal/config"
	"github.com/dshills/tabsync/internal/crawler"
	"github.com/dshills/tabsync/internal/storage"
	"github.com/dshills/tabsync/internal/translation"
	"github.com/dshills/tabsync/internal/views"
)

const (
	// ServerName is the MCP server name
	ServerName = "tabsync"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	cfg     *config.Config
	open    storage.OpenFunc
	crawler *crawler.Crawler
	views   *views.Generator
	loader  *translation.Loader
	logger  *zap.Logger
}

// NewServer creates a new MCP server instance. Storage is opened per tool
// call, so a server can start before the database is reachable.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	open := storage.Opener(cfg.Storage())

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:     mcpServer,
		cfg:     cfg,
		open:    open,
		crawler: crawler.New(open, logger),
		views:   views.New(logger),
		loader:  translation.NewLoader(logger),
		logger:  logger,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving MCP on stdio", zap.String("server", ServerName), zap.String("version", ServerVersion))
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(ingestDirectoryTool(), s.handleIngestDirectory)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(listLedgerTool(), s.handleListLedger)
	s.mcp.AddTool(regenerateViewsTool(), s.handleRegenerateViews)
	return nil
}
