package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the metadata schema version
	CurrentSchemaVersion = "1.0.0"

	schemaVersionTable = "schema_version"
)

// Migration represents a metadata schema migration. Statements are built
// per dialect since the stores disagree on DDL.
type Migration struct {
	Version string
	Up      func(d Dialect) []string
}

// AllMigrations contains all migrations in order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
	},
}

// migrationV1Up creates the version table and the raw and clean schemas
func migrationV1Up(d Dialect) []string {
	stmts := []string{
		fmt.Sprintf("CREATE TABLE %s (version %s, applied_at %s)",
			d.Qualify(SchemaDefault, schemaVersionTable),
			d.ColumnType(ColumnText),
			d.ColumnType(ColumnInteger)),
	}
	for _, s := range []Schema{SchemaRaw, SchemaClean} {
		if ddl := d.CreateSchemaSQL(s); ddl != "" {
			stmts = append(stmts, ddl)
		}
	}
	return stmts
}

// ApplyMigrations runs all pending migrations
func ApplyMigrations(ctx context.Context, db *sql.DB, d Dialect) error {
	store := executor{q: db, dialect: d}

	current, err := currentVersion(ctx, store)
	if err != nil {
		return err
	}

	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		// Skip if already applied
		if !current.LessThan(migrationVersion) {
			continue
		}

		for _, stmt := range migration.Up(d) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
			}
		}

		record := fmt.Sprintf("INSERT INTO %s (version, applied_at) VALUES (%s, %s)",
			d.Qualify(SchemaDefault, schemaVersionTable), d.Placeholder(1), d.Placeholder(2))
		if _, err := db.ExecContext(ctx, record, migration.Version, time.Now().Unix()); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		current = migrationVersion
	}

	return nil
}

// currentVersion returns the highest applied version, 0.0.0 on a fresh store
func currentVersion(ctx context.Context, store executor) (*semver.Version, error) {
	exists, err := store.tableExists(ctx, SchemaDefault, schemaVersionTable)
	if err != nil {
		return nil, fmt.Errorf("failed to check schema_version table: %w", err)
	}
	current := semver.MustParse("0.0.0")
	if !exists {
		return current, nil
	}

	rows, err := store.Execute(ctx, "SELECT version FROM "+store.dialect.Qualify(SchemaDefault, schemaVersionTable))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}
	for _, row := range rows {
		s, _ := row[0].(string)
		if s == "" {
			continue
		}
		v, err := semver.NewVersion(s)
		if err != nil {
			return nil, fmt.Errorf("invalid schema version %s: %w", s, err)
		}
		if v.GreaterThan(current) {
			current = v
		}
	}
	return current, nil
}
