package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Supported database drivers
const (
	DriverSQLite    = "sqlite"
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
)

// Config holds the connection settings for a store. DSN, when set, wins
// over the discrete fields; for SQLite it is the database file path.
type Config struct {
	Driver                 string
	DSN                    string
	Host                   string
	Port                   int
	User                   string
	Password               string
	Database               string
	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int    // seconds, SQL Server only
	SSLMode                string // PostgreSQL only
}

// Open connects to the configured store, verifies the connection and
// brings the metadata schema up to date.
func Open(ctx context.Context, cfg Config) (*SQLStorage, error) {
	dialect, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch dialect.Name() {
	case DriverSQLServer:
		db, err = openSQLServer(cfg)
	case DriverPostgres:
		db, err = openPostgres(cfg)
	default:
		db, err = openSQLite(cfg.DSN)
	}
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", dialect.Name(), err)
	}

	if err := ApplyMigrations(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return newSQLStorage(db, dialect), nil
}

// Opener returns an OpenFunc that opens a fresh connection per call
func Opener(cfg Config) OpenFunc {
	return func(ctx context.Context) (Storage, error) {
		s, err := Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
