package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ingestDirectoryTool returns the tool definition for ingest_directory
func ingestDirectoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_directory",
		Description: "Crawl a directory and ingest new or changed tabular files into the raw and clean schemas",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the directory to crawl",
				},
				"mapping_directory": map[string]interface{}{
					"type":        "string",
					"description": "Directory holding the field translation file (defaults to the configured one)",
				},
				"apply_filters": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, run scale correction, deduplication and interpolation before merging",
				},
				"update_database": map[string]interface{}{
					"type":        "boolean",
					"description": "If false, parse and record files without writing tables or views",
				},
			},
			Required: []string{"path"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report whether a crawl is running, the last crawl's statistics, and the size of the ledger",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// listLedgerTool returns the tool definition for list_ledger
func listLedgerTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_ledger",
		Description: "List files recorded in the ingestion ledger",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of entries to return (1-1000)",
					"default":     100,
					"minimum":     1,
					"maximum":     1000,
				},
			},
		},
	}
}

// regenerateViewsTool returns the tool definition for regenerate_views
func regenerateViewsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "regenerate_views",
		Description: "Recreate the translated V_ views of every stored table from the current translation file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"mapping_directory": map[string]interface{}{
					"type":        "string",
					"description": "Directory holding the field translation file (defaults to the configured one)",
				},
			},
		},
	}
}
