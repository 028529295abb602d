package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
)

// sqlserverDialect targets SQL Server with native raw/clean schemas
type sqlserverDialect struct{}

func (sqlserverDialect) Name() string { return DriverSQLServer }

func (sqlserverDialect) Quote(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

func (d sqlserverDialect) Qualify(schema Schema, name string) string {
	if schema == SchemaDefault {
		return d.Quote(name)
	}
	return d.Quote(string(schema)) + "." + d.Quote(name)
}

func (sqlserverDialect) Placeholder(n int) string { return fmt.Sprintf("@p%d", n) }

func (sqlserverDialect) ColumnType(t ColumnType) string {
	if t == ColumnInteger {
		return "BIGINT"
	}
	return "NVARCHAR(MAX)"
}

func (sqlserverDialect) DropTableSQL(qualified string) string {
	return "DROP TABLE IF EXISTS " + qualified
}

func (sqlserverDialect) DropViewSQL(qualified string) string {
	return "DROP VIEW IF EXISTS " + qualified
}

func (d sqlserverDialect) CreateSchemaSQL(schema Schema) string {
	literal := strings.ReplaceAll(string(schema), "'", "''")
	create := strings.ReplaceAll("CREATE SCHEMA "+d.Quote(string(schema)), "'", "''")
	return fmt.Sprintf("IF SCHEMA_ID(N'%s') IS NULL EXEC('%s')", literal, create)
}

func (sqlserverDialect) listTablesQuery(schema Schema) (string, []any) {
	if schema == SchemaDefault {
		return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
			WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = SCHEMA_NAME()
			ORDER BY TABLE_NAME`, nil
	}
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = @p1
		ORDER BY TABLE_NAME`, []any{string(schema)}
}

func (sqlserverDialect) logicalName(_ Schema, listed string) (string, bool) {
	return listed, true
}

// sqlserverDSN builds a sqlserver:// connection URL from discrete settings
func sqlserverDSN(cfg Config) string {
	query := url.Values{}
	query.Add("database", cfg.Database)

	if cfg.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}

	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}

	if cfg.ConnectionTimeout > 0 {
		query.Add("connection timeout", fmt.Sprintf("%d", cfg.ConnectionTimeout))
	}

	port := cfg.Port
	if port == 0 {
		port = 1433
	}

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

func openSQLServer(cfg Config) (*sql.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = sqlserverDSN(cfg)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("open SQL Server connection: %w", err)
	}
	return db, nil
}
