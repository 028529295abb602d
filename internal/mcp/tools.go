package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/tabsync/internal/crawler"
	"github.com/dshills/tabsync/internal/logging"
	"github.com/dshills/tabsync/internal/storage"
	"github.com/dshills/tabsync/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeCrawlInProgress = -32002 // Another crawl is already running
	ErrorCodeStorage         = -32005 // Storage could not be reached
)

// maxReportedErrors caps the per-file errors echoed back to the client
const maxReportedErrors = 5

// handleIngestDirectory handles the ingest_directory tool invocation
func (s *Server) handleIngestDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	cfg := s.cfg.Crawler()
	cfg.MappingDirectory = getStringDefault(args, "mapping_directory", cfg.MappingDirectory)
	cfg.ApplyFilters = getBoolDefault(args, "apply_filters", cfg.ApplyFilters)
	cfg.UpdateDatabase = getBoolDefault(args, "update_database", cfg.UpdateDatabase)

	stats, err := s.crawler.Crawl(ctx, path, cfg)
	if errors.Is(err, crawler.ErrCrawlInProgress) {
		return nil, newMCPError(ErrorCodeCrawlInProgress, "a crawl is already in progress", nil)
	}
	if err != nil {
		s.logger.Error("crawl failed", zap.String("path", path), zap.String("error", logging.SanitizeError(err)))
		return nil, newMCPError(ErrorCodeInternalError, "crawl failed", map[string]interface{}{
			"error": logging.SanitizeError(err),
		})
	}

	response := statisticsResponse(stats)
	response["ingested"] = true
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	response := map[string]interface{}{
		"running": s.crawler.Running(),
	}
	if last := s.crawler.LastRun(); last != nil {
		response["last_run"] = statisticsResponse(last)
	}

	store, err := s.open(ctx)
	if err != nil {
		s.logger.Warn("storage unreachable", zap.String("error", logging.SanitizeError(err)))
		response["health"] = map[string]interface{}{
			"database_accessible": false,
			"error":               logging.SanitizeError(err),
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	defer func() { _ = store.Close() }()

	entries, err := loadLedger(ctx, store, s.cfg.LedgerTable)
	if err != nil {
		return nil, newMCPError(ErrorCodeStorage, "failed to read ledger", map[string]interface{}{
			"error": logging.SanitizeError(err),
		})
	}

	raw, err := store.ListTables(ctx, storage.SchemaRaw)
	if err != nil {
		return nil, newMCPError(ErrorCodeStorage, "failed to list tables", map[string]interface{}{
			"error": logging.SanitizeError(err),
		})
	}

	response["statistics"] = map[string]interface{}{
		"ledger_entries": len(entries),
		"tables":         len(raw),
	}
	response["health"] = map[string]interface{}{
		"database_accessible": true,
		"driver":              store.Dialect().Name(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListLedger handles the list_ledger tool invocation
func (s *Server) handleListLedger(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	limit := getIntDefault(args, "limit", 100)
	if limit < 1 || limit > 1000 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 1000", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	store, err := s.open(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeStorage, "storage unreachable", map[string]interface{}{
			"error": logging.SanitizeError(err),
		})
	}
	defer func() { _ = store.Close() }()

	entries, err := loadLedger(ctx, store, s.cfg.LedgerTable)
	if err != nil {
		return nil, newMCPError(ErrorCodeStorage, "failed to read ledger", map[string]interface{}{
			"error": logging.SanitizeError(err),
		})
	}

	total := len(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}

	files := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		files = append(files, map[string]interface{}{
			"file_name":   e.FileName,
			"file_path":   e.FilePath,
			"modified":    formatTime(e.Modified),
			"created":     formatTime(e.Created),
			"fingerprint": e.Fingerprint,
		})
	}

	response := map[string]interface{}{
		"total": total,
		"files": files,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRegenerateViews handles the regenerate_views tool invocation
func (s *Server) handleRegenerateViews(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	if s.crawler.Running() {
		return nil, newMCPError(ErrorCodeCrawlInProgress, "a crawl is already in progress", nil)
	}

	dir := getStringDefault(args, "mapping_directory", s.cfg.MappingDirectory)
	m, err := s.loader.Load(ctx, dir, s.cfg.MappingFileName, s.cfg.DefaultMappingPath)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "failed to load translation map", map[string]interface{}{
			"param": "mapping_directory",
			"error": err.Error(),
		})
	}
	if len(m) == 0 {
		response := map[string]interface{}{
			"views_regenerated": 0,
			"message":           "No translation map found; no views written.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	store, err := s.open(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeStorage, "storage unreachable", map[string]interface{}{
			"error": logging.SanitizeError(err),
		})
	}
	defer func() { _ = store.Close() }()

	count, err := s.views.RegenerateAll(ctx, store, m)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to regenerate views", map[string]interface{}{
			"error":             logging.SanitizeError(err),
			"views_regenerated": count,
		})
	}

	response := map[string]interface{}{
		"views_regenerated": count,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// loadLedger reads the ledger table without taking ownership of it.
// A missing table reads as an empty ledger.
func loadLedger(ctx context.Context, store storage.Storage, table string) ([]types.LedgerEntry, error) {
	entries, err := store.LoadLedger(ctx, table)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return entries, err
}

// statisticsResponse formats crawl statistics for a tool result
func statisticsResponse(stats *crawler.Statistics) map[string]interface{} {
	response := map[string]interface{}{
		"run_id":            stats.RunID,
		"root":              stats.Root,
		"files_discovered":  stats.FilesDiscovered,
		"files_ingested":    stats.FilesIngested,
		"files_skipped":     stats.FilesSkipped,
		"files_failed":      stats.FilesFailed,
		"tables_written":    stats.TablesWritten,
		"views_regenerated": stats.ViewsRegenerated,
		"started_at":        stats.StartTime.Format(time.RFC3339),
		"duration_ms":       stats.Duration.Milliseconds(),
	}

	if errorCount := len(stats.ErrorMessages); errorCount > 0 {
		if errorCount > maxReportedErrors {
			response["errors"] = stats.ErrorMessages[:maxReportedErrors]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}
	return response
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that path is an absolute, readable directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatTime renders unix nanoseconds as RFC 3339
func formatTime(ns int64) string {
	return time.Unix(0, ns).UTC().Format(time.RFC3339Nano)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
