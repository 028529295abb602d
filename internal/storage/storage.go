package storage

import (
	"context"
	"errors"

	"github.com/dshills/tabsync/pkg/types"
)

var (
	// ErrNotFound is returned when a requested table doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrSchemaMismatch is returned when a stored table doesn't have the expected shape
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrInTransaction is returned when BeginTx is called on a transaction
	ErrInTransaction = errors.New("already in a transaction")
)

// Schema is a storage namespace. The empty schema is the store's default
// namespace, which holds metadata such as the ingestion ledger.
type Schema string

const (
	SchemaDefault Schema = ""
	SchemaRaw     Schema = "raw"
	SchemaClean   Schema = "clean"
)

// ColumnType is the storage type requested for a column
type ColumnType int

const (
	// ColumnText is variable-length text
	ColumnText ColumnType = iota
	// ColumnInteger is a 64-bit integer
	ColumnInteger
)

// ViewColumn is one projected column of a view
type ViewColumn struct {
	Source string // column in the source table
	Alias  string // output name; empty keeps Source
}

// Storage defines the operations the ingestion pipeline needs from a
// SQL-capable store.
type Storage interface {
	// Table operations
	ReadTable(ctx context.Context, schema Schema, name string) (*types.Table, error)
	WriteTable(ctx context.Context, schema Schema, name string, table *types.Table, hints map[string]ColumnType) error
	DropTable(ctx context.Context, schema Schema, name string) error
	ListTables(ctx context.Context, schema Schema) ([]string, error)
	TableColumns(ctx context.Context, schema Schema, name string) ([]string, error)
	CountRows(ctx context.Context, schema Schema, name string) (int64, error)

	// Ledger operations
	LoadLedger(ctx context.Context, table string) ([]types.LedgerEntry, error)
	ReplaceLedger(ctx context.Context, table string, entries []types.LedgerEntry) error
	DropLedger(ctx context.Context, table string) error

	// View operations
	ReplaceView(ctx context.Context, schema Schema, view, source string, columns []ViewColumn) error
	DropView(ctx context.Context, schema Schema, view string) error

	// Raw access
	Execute(ctx context.Context, query string, args ...any) ([][]any, error)

	// Database operations
	Dialect() Dialect
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// OpenFunc opens a new connection to the configured store
type OpenFunc func(ctx context.Context) (Storage, error)
