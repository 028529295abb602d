package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/tabsync/pkg/types"
)

// Ledger table columns, in storage order
var ledgerColumns = []string{"File_name", "File_path", "Modification_date", "Creation_date", "File_md5"}

// SQLStorage implements the Storage interface over database/sql
type SQLStorage struct {
	executor
}

// executor runs operations against either the database or an open transaction
type executor struct {
	q       querier
	dialect Dialect
	db      *sql.DB // nil inside a transaction
}

// sqlTx wraps a SQL transaction
type sqlTx struct {
	executor
	tx *sql.Tx
}

// newSQLStorage wraps an open database handle
func newSQLStorage(db *sql.DB, dialect Dialect) *SQLStorage {
	return &SQLStorage{executor: executor{q: db, dialect: dialect, db: db}}
}

// Close closes the database connection
func (s *SQLStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{executor: executor{q: tx, dialect: s.dialect}, tx: tx}, nil
}

func (t *sqlTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback() error {
	return t.tx.Rollback()
}

// BeginTx is not supported on a transaction
func (t *sqlTx) BeginTx(context.Context) (Tx, error) {
	return nil, ErrInTransaction
}

// Close is a no-op; the owner of the transaction commits or rolls back
func (t *sqlTx) Close() error {
	return nil
}

// Dialect returns the SQL dialect of the store
func (e executor) Dialect() Dialect {
	return e.dialect
}

// atomic runs fn in a transaction, or directly when already inside one
func (e executor) atomic(ctx context.Context, fn func(executor) error) error {
	if e.db == nil {
		return fn(e)
	}
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(executor{q: tx, dialect: e.dialect}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Table operations

func (e executor) ListTables(ctx context.Context, schema Schema) ([]string, error) {
	query, args := e.dialect.listTablesQuery(schema)
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var listed string
		if err := rows.Scan(&listed); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		if name, ok := e.dialect.logicalName(schema, listed); ok {
			names = append(names, name)
		}
	}
	return names, rows.Err()
}

func (e executor) tableExists(ctx context.Context, schema Schema, name string) (bool, error) {
	names, err := e.ListTables(ctx, schema)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

func (e executor) TableColumns(ctx context.Context, schema Schema, name string) ([]string, error) {
	exists, err := e.tableExists(ctx, schema, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: table %s", ErrNotFound, e.dialect.Qualify(schema, name))
	}

	rows, err := e.q.QueryContext(ctx, "SELECT * FROM "+e.dialect.Qualify(schema, name)+" WHERE 1 = 0")
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return rows.Columns()
}

// ReadTable loads a stored table. Every value comes back as text; the
// persisted row index orders the rows and is not part of the result.
func (e executor) ReadTable(ctx context.Context, schema Schema, name string) (*types.Table, error) {
	columns, err := e.TableColumns(ctx, schema, name)
	if err != nil {
		return nil, err
	}

	query := "SELECT * FROM " + e.dialect.Qualify(schema, name)
	indexAt := -1
	for i, c := range columns {
		if c == types.IndexColumn {
			indexAt = i
			query += " ORDER BY " + e.dialect.Quote(types.IndexColumn)
			break
		}
	}

	rows, err := e.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err = rows.Columns()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(columns))
	for i, c := range columns {
		if i != indexAt {
			names = append(names, c)
		}
	}
	table := types.NewTable(names...)

	values := make([]sql.NullString, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", name, err)
		}
		row := make([]types.Cell, 0, len(names))
		for i, v := range values {
			if i == indexAt {
				continue
			}
			if v.Valid {
				row = append(row, types.Text(v.String))
			} else {
				row = append(row, types.Missing())
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// WriteTable replaces the named table with the given rows. Columns
// without a hint are stored as text.
func (e executor) WriteTable(ctx context.Context, schema Schema, name string, table *types.Table, hints map[string]ColumnType) error {
	if err := table.Validate(); err != nil {
		return err
	}
	if table.ColumnIndex(types.IndexColumn) >= 0 {
		return fmt.Errorf("%w: column name %q is reserved", types.ErrInvalidTable, types.IndexColumn)
	}

	qualified := e.dialect.Qualify(schema, name)
	colTypes := make([]ColumnType, len(table.Columns))
	defs := []string{e.dialect.Quote(types.IndexColumn) + " " + e.dialect.ColumnType(ColumnInteger)}
	quoted := []string{e.dialect.Quote(types.IndexColumn)}
	for i, c := range table.Columns {
		colTypes[i] = hints[c]
		defs = append(defs, e.dialect.Quote(c)+" "+e.dialect.ColumnType(colTypes[i]))
		quoted = append(quoted, e.dialect.Quote(c))
	}

	return e.atomic(ctx, func(x executor) error {
		if _, err := x.q.ExecContext(ctx, x.dialect.DropTableSQL(qualified)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", name, err)
		}
		create := fmt.Sprintf("CREATE TABLE %s (%s)", qualified, strings.Join(defs, ", "))
		if _, err := x.q.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("failed to create table %s: %w", name, err)
		}

		stmt, err := x.q.PrepareContext(ctx, x.insertSQL(qualified, quoted))
		if err != nil {
			return fmt.Errorf("failed to prepare insert into %s: %w", name, err)
		}
		defer func() { _ = stmt.Close() }()

		args := make([]any, len(quoted))
		for r, row := range table.Rows {
			args[0] = int64(r)
			for i, c := range row {
				args[i+1] = cellValue(c, colTypes[i])
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("failed to insert row %d into %s: %w", r, name, err)
			}
		}
		return nil
	})
}

func (e executor) DropTable(ctx context.Context, schema Schema, name string) error {
	if _, err := e.q.ExecContext(ctx, e.dialect.DropTableSQL(e.dialect.Qualify(schema, name))); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	return nil
}

func (e executor) CountRows(ctx context.Context, schema Schema, name string) (int64, error) {
	exists, err := e.tableExists(ctx, schema, name)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: table %s", ErrNotFound, e.dialect.Qualify(schema, name))
	}
	var n int64
	err = e.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+e.dialect.Qualify(schema, name)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", name, err)
	}
	return n, nil
}

// Ledger operations

// LoadLedger reads the ingestion ledger. A missing table yields ErrNotFound
// and a table of the wrong shape yields ErrSchemaMismatch; any other error
// comes from the connection itself.
func (e executor) LoadLedger(ctx context.Context, table string) ([]types.LedgerEntry, error) {
	exists, err := e.tableExists(ctx, SchemaDefault, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: ledger table %s", ErrNotFound, table)
	}

	quoted := make([]string, len(ledgerColumns))
	for i, c := range ledgerColumns {
		quoted[i] = e.dialect.Quote(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), e.dialect.Qualify(SchemaDefault, table))

	rows, err := e.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []types.LedgerEntry
	for rows.Next() {
		var (
			name, path, digest sql.NullString
			modified, created  sql.NullInt64
		)
		if err := rows.Scan(&name, &path, &modified, &created, &digest); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
		entries = append(entries, types.LedgerEntry{
			FileName:    name.String,
			FilePath:    path.String,
			Modified:    modified.Int64,
			Created:     created.Int64,
			Fingerprint: digest.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReplaceLedger rewrites the whole ledger table in one transaction
func (e executor) ReplaceLedger(ctx context.Context, table string, entries []types.LedgerEntry) error {
	qualified := e.dialect.Qualify(SchemaDefault, table)
	text := e.dialect.ColumnType(ColumnText)
	integer := e.dialect.ColumnType(ColumnInteger)

	defs := []string{
		e.dialect.Quote(types.IndexColumn) + " " + integer,
		e.dialect.Quote(ledgerColumns[0]) + " " + text,
		e.dialect.Quote(ledgerColumns[1]) + " " + text,
		e.dialect.Quote(ledgerColumns[2]) + " " + integer,
		e.dialect.Quote(ledgerColumns[3]) + " " + integer,
		e.dialect.Quote(ledgerColumns[4]) + " " + text,
	}
	quoted := []string{e.dialect.Quote(types.IndexColumn)}
	for _, c := range ledgerColumns {
		quoted = append(quoted, e.dialect.Quote(c))
	}

	return e.atomic(ctx, func(x executor) error {
		if _, err := x.q.ExecContext(ctx, x.dialect.DropTableSQL(qualified)); err != nil {
			return fmt.Errorf("failed to drop ledger: %w", err)
		}
		create := fmt.Sprintf("CREATE TABLE %s (%s)", qualified, strings.Join(defs, ", "))
		if _, err := x.q.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("failed to create ledger: %w", err)
		}

		stmt, err := x.q.PrepareContext(ctx, x.insertSQL(qualified, quoted))
		if err != nil {
			return fmt.Errorf("failed to prepare ledger insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, entry := range entries {
			_, err := stmt.ExecContext(ctx, int64(i), entry.FileName, entry.FilePath,
				entry.Modified, entry.Created, entry.Fingerprint)
			if err != nil {
				return fmt.Errorf("failed to insert ledger entry %s: %w", entry.FilePath, err)
			}
		}
		return nil
	})
}

func (e executor) DropLedger(ctx context.Context, table string) error {
	return e.DropTable(ctx, SchemaDefault, table)
}

// View operations

// ReplaceView drops and recreates a view projecting columns of source.
// The view and its source live in the same schema.
func (e executor) ReplaceView(ctx context.Context, schema Schema, view, source string, columns []ViewColumn) error {
	if len(columns) == 0 {
		return fmt.Errorf("view %s has no columns", view)
	}
	projection := make([]string, len(columns))
	for i, c := range columns {
		projection[i] = e.dialect.Quote(c.Source)
		if c.Alias != "" && c.Alias != c.Source {
			projection[i] += " AS " + e.dialect.Quote(c.Alias)
		}
	}
	qualified := e.dialect.Qualify(schema, view)
	create := fmt.Sprintf("CREATE VIEW %s AS SELECT %s FROM %s",
		qualified, strings.Join(projection, ", "), e.dialect.Qualify(schema, source))

	return e.atomic(ctx, func(x executor) error {
		if _, err := x.q.ExecContext(ctx, x.dialect.DropViewSQL(qualified)); err != nil {
			return fmt.Errorf("failed to drop view %s: %w", view, err)
		}
		if _, err := x.q.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("failed to create view %s: %w", view, err)
		}
		return nil
	})
}

func (e executor) DropView(ctx context.Context, schema Schema, view string) error {
	if _, err := e.q.ExecContext(ctx, e.dialect.DropViewSQL(e.dialect.Qualify(schema, view))); err != nil {
		return fmt.Errorf("failed to drop view %s: %w", view, err)
	}
	return nil
}

// Execute runs a query and returns every row. Byte slices are returned
// as strings.
func (e executor) Execute(ctx context.Context, query string, args ...any) ([][]any, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}
	return out, rows.Err()
}

func (e executor) insertSQL(qualified string, quoted []string) string {
	placeholders := make([]string, len(quoted))
	for i := range quoted {
		placeholders[i] = e.dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		qualified, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

// cellValue converts a cell to a driver argument for a column of type t
func cellValue(c types.Cell, t ColumnType) any {
	if c.IsMissing() {
		return nil
	}
	if t == ColumnInteger {
		if v, ok := c.Numeric(); ok {
			return int64(v)
		}
	}
	return c.String()
}

// IsNotFound reports whether err means a table is absent
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
