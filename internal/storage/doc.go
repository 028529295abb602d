// Package storage persists ingested tables, the file ledger and the
// derived views in a SQL store.
//
// Three drivers are supported: SQLite (the default, either the cgo
// mattn/go-sqlite3 driver or the pure Go modernc.org/sqlite driver
// selected by build tags), SQL Server and PostgreSQL.
//
// # Namespaces
//
// Tables live in one of two schemas. The raw schema holds the merged
// tables exactly as ingested; the clean schema holds the same tables after
// text cleanup. The ingestion ledger and the schema_version table live in
// the store's default schema. SQLite has no schemas, so raw.Sales is
// stored as a table literally named "raw.Sales".
//
// Every stored table carries an "index" column holding the row position.
//
// # Basic Usage
//
//	store, err := storage.Open(ctx, storage.Config{Driver: storage.DriverSQLite, DSN: "tabsync.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.WriteTable(ctx, storage.SchemaRaw, "Sales", table, nil)
//
// # Transactions
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	if err := tx.WriteTable(ctx, storage.SchemaRaw, "Sales", raw, nil); err != nil {
//	    return err
//	}
//	if err := tx.WriteTable(ctx, storage.SchemaClean, "Sales", clean, hints); err != nil {
//	    return err
//	}
//	return tx.Commit()
//
// # Build Modes
//
//	go build -tags sqlite_cgo ./cmd/tabsync   # mattn/go-sqlite3
//	go build -tags purego ./cmd/tabsync       # modernc.org/sqlite (default)
package storage
