package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tabsync/internal/config"
	"github.com/dshills/tabsync/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		MappingFileName:      "field_translation.json",
		UpdateDatabase:       true,
		DetectByContent:      true,
		FingerprintAlgorithm: "highway128",
		FingerprintCacheSize: 64,
		LedgerTable:          "Files_Meta_Data",
		Database: config.DatabaseConfig{
			Driver: storage.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "tabsync.db"),
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(testConfig(t), nil)
	require.NoError(t, err)
	return s
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func decodeResult(t *testing.T, res *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func requireMCPError(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, code, mcpErr.Code)
}

func TestNewServer(t *testing.T) {
	t.Run("requires configuration", func(t *testing.T) {
		_, err := NewServer(nil, nil)
		assert.Error(t, err)
	})

	t.Run("server has all required components", func(t *testing.T) {
		s := newTestServer(t)
		assert.NotNil(t, s.mcp, "MCP server should be initialized")
		assert.NotNil(t, s.open, "Storage opener should be initialized")
		assert.NotNil(t, s.crawler, "Crawler should be initialized")
		assert.NotNil(t, s.views, "View generator should be initialized")
		assert.NotNil(t, s.loader, "Translation loader should be initialized")
	})
}

func TestHandleIngestDirectory(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests and reports statistics", func(t *testing.T) {
		s := newTestServer(t)
		root := t.TempDir()
		writeFile(t, root, "sales.csv", "id,qty\n1,5\n2,7\n")

		res, err := s.handleIngestDirectory(ctx, callRequest("ingest_directory", map[string]interface{}{
			"path": root,
		}))
		require.NoError(t, err)

		out := decodeResult(t, res)
		assert.Equal(t, true, out["ingested"])
		assert.Equal(t, float64(1), out["files_ingested"])
		assert.Equal(t, float64(1), out["tables_written"])
		assert.NotEmpty(t, out["run_id"])

		again, err := s.handleIngestDirectory(ctx, callRequest("ingest_directory", map[string]interface{}{
			"path": root,
		}))
		require.NoError(t, err)
		out = decodeResult(t, again)
		assert.Equal(t, float64(0), out["files_ingested"])
		assert.Equal(t, float64(1), out["files_skipped"])
	})

	t.Run("dry run writes no tables", func(t *testing.T) {
		s := newTestServer(t)
		root := t.TempDir()
		writeFile(t, root, "sales.csv", "id,qty\n1,5\n")

		res, err := s.handleIngestDirectory(ctx, callRequest("ingest_directory", map[string]interface{}{
			"path":            root,
			"update_database": false,
		}))
		require.NoError(t, err)
		assert.Equal(t, float64(0), decodeResult(t, res)["tables_written"])

		store, err := s.open(ctx)
		require.NoError(t, err)
		defer store.Close()
		tables, err := store.ListTables(ctx, storage.SchemaRaw)
		require.NoError(t, err)
		assert.Empty(t, tables)
	})

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing path", map[string]interface{}{}},
		{"empty path", map[string]interface{}{"path": ""}},
		{"relative path", map[string]interface{}{"path": "data"}},
		{"nonexistent path", map[string]interface{}{"path": "/nonexistent/tabsync/data"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			_, err := s.handleIngestDirectory(ctx, callRequest("ingest_directory", tt.args))
			requireMCPError(t, err, ErrorCodeInvalidParams)
		})
	}

	t.Run("rejects non-map arguments", func(t *testing.T) {
		s := newTestServer(t)
		req := callRequest("ingest_directory", nil)
		req.Params.Arguments = "not a map"
		_, err := s.handleIngestDirectory(ctx, req)
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})

	t.Run("rejects a file as root", func(t *testing.T) {
		s := newTestServer(t)
		dir := t.TempDir()
		writeFile(t, dir, "sales.csv", "id\n1\n")
		_, err := s.handleIngestDirectory(ctx, callRequest("ingest_directory", map[string]interface{}{
			"path": filepath.Join(dir, "sales.csv"),
		}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})
}

func TestHandleGetStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	res, err := s.handleGetStatus(ctx, callRequest("get_status", map[string]interface{}{}))
	require.NoError(t, err)
	out := decodeResult(t, res)
	assert.Equal(t, false, out["running"])
	assert.NotContains(t, out, "last_run")
	stats := out["statistics"].(map[string]interface{})
	assert.Equal(t, float64(0), stats["ledger_entries"])
	assert.Equal(t, float64(0), stats["tables"])

	root := t.TempDir()
	writeFile(t, root, "sales.csv", "id,qty\n1,5\n")
	writeFile(t, root, "stock.csv", "sku,count\nA,3\n")
	_, err = s.handleIngestDirectory(ctx, callRequest("ingest_directory", map[string]interface{}{"path": root}))
	require.NoError(t, err)

	res, err = s.handleGetStatus(ctx, callRequest("get_status", nil))
	require.NoError(t, err)
	out = decodeResult(t, res)
	assert.Contains(t, out, "last_run")
	stats = out["statistics"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["ledger_entries"])
	assert.Equal(t, float64(2), stats["tables"])
	health := out["health"].(map[string]interface{})
	assert.Equal(t, true, health["database_accessible"])
	assert.Equal(t, storage.DriverSQLite, health["driver"])
}

func TestHandleGetStatus_StorageUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Path = filepath.Join(t.TempDir(), "missing", "dir", "tabsync.db")
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)

	res, err := s.handleGetStatus(context.Background(), callRequest("get_status", nil))
	require.NoError(t, err)
	health := decodeResult(t, res)["health"].(map[string]interface{})
	assert.Equal(t, false, health["database_accessible"])
}

func TestHandleListLedger(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	res, err := s.handleListLedger(ctx, callRequest("list_ledger", nil))
	require.NoError(t, err)
	out := decodeResult(t, res)
	assert.Equal(t, float64(0), out["total"])

	root := t.TempDir()
	writeFile(t, root, "a.csv", "x\n1\n")
	writeFile(t, root, "b.csv", "y\n2\n")
	_, err = s.handleIngestDirectory(ctx, callRequest("ingest_directory", map[string]interface{}{"path": root}))
	require.NoError(t, err)

	res, err = s.handleListLedger(ctx, callRequest("list_ledger", map[string]interface{}{"limit": float64(1)}))
	require.NoError(t, err)
	out = decodeResult(t, res)
	assert.Equal(t, float64(2), out["total"])
	files := out["files"].([]interface{})
	require.Len(t, files, 1)
	entry := files[0].(map[string]interface{})
	assert.Contains(t, []interface{}{"a", "b"}, entry["file_name"])
	assert.NotEmpty(t, entry["fingerprint"])

	for _, limit := range []float64{0, 1001} {
		_, err := s.handleListLedger(ctx, callRequest("list_ledger", map[string]interface{}{"limit": limit}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	}
}

func TestHandleRegenerateViews(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	root := t.TempDir()
	writeFile(t, root, "sales.csv", "id,qty\n1,5\n")
	_, err := s.handleIngestDirectory(ctx, callRequest("ingest_directory", map[string]interface{}{"path": root}))
	require.NoError(t, err)

	t.Run("no translation map", func(t *testing.T) {
		res, err := s.handleRegenerateViews(ctx, callRequest("regenerate_views", nil))
		require.NoError(t, err)
		assert.Equal(t, float64(0), decodeResult(t, res)["views_regenerated"])
	})

	t.Run("creates translated views", func(t *testing.T) {
		mapping := t.TempDir()
		writeFile(t, mapping, "field_translation.json", `{"qty": "Quantity"}`)

		res, err := s.handleRegenerateViews(ctx, callRequest("regenerate_views", map[string]interface{}{
			"mapping_directory": mapping,
		}))
		require.NoError(t, err)
		assert.Equal(t, float64(1), decodeResult(t, res)["views_regenerated"])

		store, err := s.open(ctx)
		require.NoError(t, err)
		defer store.Close()
		rows, err := store.Execute(ctx, `SELECT "Quantity" FROM "raw.V_sales"`)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "5", rows[0][0])
	})

	t.Run("invalid translation file", func(t *testing.T) {
		mapping := t.TempDir()
		writeFile(t, mapping, "field_translation.json", `not json`)

		_, err := s.handleRegenerateViews(ctx, callRequest("regenerate_views", map[string]interface{}{
			"mapping_directory": mapping,
		}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.csv")
	require.NoError(t, os.WriteFile(file, []byte("a\n"), 0644))

	tests := []struct {
		name string
		path string
		want error
	}{
		{"empty", "", ErrPathRequired},
		{"relative", "data", ErrPathNotAbsolute},
		{"missing", filepath.Join(dir, "nope"), ErrPathNotFound},
		{"file", file, ErrNotDirectory},
		{"directory", dir, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, validatePath(tt.path), tt.want)
		})
	}
}
