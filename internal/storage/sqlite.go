package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// sqliteDialect emulates schemas with a "<schema>." name prefix, so
// raw.Sales is stored as the table "raw.Sales" in a single database file.
type sqliteDialect struct{}

var emulatedSchemas = []Schema{SchemaRaw, SchemaClean}

func (sqliteDialect) Name() string { return DriverSQLite }

func (sqliteDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d sqliteDialect) Qualify(schema Schema, name string) string {
	if schema == SchemaDefault {
		return d.Quote(name)
	}
	return d.Quote(string(schema) + "." + name)
}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) ColumnType(t ColumnType) string {
	if t == ColumnInteger {
		return "INTEGER"
	}
	return "TEXT"
}

func (sqliteDialect) DropTableSQL(qualified string) string {
	return "DROP TABLE IF EXISTS " + qualified
}

func (sqliteDialect) DropViewSQL(qualified string) string {
	return "DROP VIEW IF EXISTS " + qualified
}

func (sqliteDialect) CreateSchemaSQL(Schema) string { return "" }

func (sqliteDialect) listTablesQuery(Schema) (string, []any) {
	return "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name", nil
}

func (sqliteDialect) logicalName(schema Schema, listed string) (string, bool) {
	if strings.HasPrefix(listed, "sqlite_") {
		return "", false
	}
	if schema != SchemaDefault {
		prefix := string(schema) + "."
		if !strings.HasPrefix(listed, prefix) {
			return "", false
		}
		return strings.TrimPrefix(listed, prefix), true
	}
	for _, s := range emulatedSchemas {
		if strings.HasPrefix(listed, string(s)+".") {
			return "", false
		}
	}
	return listed, true
}

// openSQLite opens a SQLite database with appropriate settings
func openSQLite(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := sql.Open(SQLiteDriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode so the ledger and table connections don't block each other
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}
