package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Dialect captures the SQL differences between supported stores
type Dialect interface {
	// Name returns the configured driver name (sqlite, sqlserver, postgres)
	Name() string
	// Quote quotes a single identifier
	Quote(ident string) string
	// Qualify returns the quoted, schema-qualified name of a table or view
	Qualify(schema Schema, name string) string
	// Placeholder returns the bind parameter for the n-th (1-based) argument
	Placeholder(n int) string
	// ColumnType returns the DDL type for a column type
	ColumnType(t ColumnType) string
	// DropTableSQL drops a table if it exists
	DropTableSQL(qualified string) string
	// DropViewSQL drops a view if it exists
	DropViewSQL(qualified string) string
	// CreateSchemaSQL creates a schema if missing; empty when schemas are emulated
	CreateSchemaSQL(schema Schema) string

	// listTablesQuery lists the base tables as the store names them
	listTablesQuery(schema Schema) (string, []any)
	// logicalName maps a listed table name to its name within schema.
	// ok is false for tables that belong elsewhere.
	logicalName(schema Schema, listed string) (name string, ok bool)
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// dialectFor returns the dialect for a configured driver name
func dialectFor(driver string) (Dialect, error) {
	switch driver {
	case "", DriverSQLite:
		return sqliteDialect{}, nil
	case DriverSQLServer:
		return sqlserverDialect{}, nil
	case DriverPostgres:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
