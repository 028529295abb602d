package storage

import (
	"database/sql"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql
)

// postgresDialect targets PostgreSQL with native raw/clean schemas
type postgresDialect struct{}

func (postgresDialect) Name() string { return DriverPostgres }

func (postgresDialect) Quote(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

func (postgresDialect) Qualify(schema Schema, name string) string {
	if schema == SchemaDefault {
		return pgx.Identifier{name}.Sanitize()
	}
	return pgx.Identifier{string(schema), name}.Sanitize()
}

func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) ColumnType(t ColumnType) string {
	if t == ColumnInteger {
		return "BIGINT"
	}
	return "TEXT"
}

// DropTableSQL cascades so that views over the table don't block the replace;
// they are recreated after every write.
func (postgresDialect) DropTableSQL(qualified string) string {
	return "DROP TABLE IF EXISTS " + qualified + " CASCADE"
}

func (postgresDialect) DropViewSQL(qualified string) string {
	return "DROP VIEW IF EXISTS " + qualified
}

func (d postgresDialect) CreateSchemaSQL(schema Schema) string {
	return "CREATE SCHEMA IF NOT EXISTS " + d.Quote(string(schema))
}

func (postgresDialect) listTablesQuery(schema Schema) (string, []any) {
	if schema == SchemaDefault {
		return `SELECT table_name FROM information_schema.tables
			WHERE table_type = 'BASE TABLE' AND table_schema = current_schema()
			ORDER BY table_name`, nil
	}
	return `SELECT table_name FROM information_schema.tables
		WHERE table_type = 'BASE TABLE' AND table_schema = $1
		ORDER BY table_name`, []any{string(schema)}
}

func (postgresDialect) logicalName(_ Schema, listed string) (string, bool) {
	return listed, true
}

// postgresDSN builds a postgres:// connection URL from discrete settings
func postgresDSN(cfg Config) string {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

func openPostgres(cfg Config) (*sql.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = postgresDSN(cfg)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open PostgreSQL connection: %w", err)
	}
	return db, nil
}
