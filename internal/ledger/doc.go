// Package ledger tracks which files have already been ingested.
//
// The ledger is loaded from storage when opened and written back as a
// whole when closed. Use With to guarantee the write-back even when the
// ingestion loop fails:
//
//	err := ledger.With(ctx, storage.Opener(cfg), ledger.Options{}, func(l *ledger.Ledger) error {
//	    seen, err := l.Exists(path)
//	    if err != nil || seen {
//	        return err
//	    }
//	    // ingest the file ...
//	    return l.Record(path)
//	})
//
// A file counts as already ingested when an entry matches its logical
// name, absolute path, modification time and creation time, and the
// recorded fingerprint matches its current content.
package ledger
