// Package mcp implements the Model Context Protocol (MCP) server for tabsync.
//
// The MCP server exposes four tools to AI assistants:
//   - ingest_directory: Crawl a directory and ingest new or changed files
//   - get_status: Report crawl state, last run statistics and ledger size
//   - list_ledger: List the files recorded in the ingestion ledger
//   - regenerate_views: Recreate translated views from the translation file
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started via the serve command:
//
//	tabsync serve
//
// Storage is opened per tool call from the loaded configuration, so the
// server honors the same DB_DRIVER / CONN_STR settings as a command-line
// crawl.
//
// # Tool: ingest_directory
//
//	Request:
//	{
//	  "name": "ingest_directory",
//	  "arguments": {
//	    "path": "/data/exports",
//	    "mapping_directory": "/data/mapping",
//	    "apply_filters": false,
//	    "update_database": true
//	  }
//	}
//
//	Response:
//	{
//	  "ingested": true,
//	  "run_id": "5f0c...",
//	  "files_discovered": 12,
//	  "files_ingested": 3,
//	  "files_skipped": 9,
//	  "files_failed": 0,
//	  "tables_written": 3,
//	  "views_regenerated": 3,
//	  "duration_ms": 842
//	}
//
// Only one crawl runs per process; a second request while one is running
// fails with code -32002.
//
// # Tool: get_status
//
//	Response:
//	{
//	  "running": false,
//	  "last_run": {...},
//	  "statistics": {"ledger_entries": 12, "tables": 7},
//	  "health": {"database_accessible": true, "driver": "sqlite"}
//	}
//
// # Error Handling
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (crawl aborted)
//   - -32002: Crawl in progress
//   - -32005: Storage unreachable or unreadable
//
// Driver errors are passed through logging.SanitizeError before they reach
// the client, so connection credentials never leave the process.
//
// # Logging
//
// stdout is reserved for the protocol; the zap logger handed to NewServer
// must write to stderr.
package mcp
