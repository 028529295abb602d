package types

import "time"

// LedgerEntry records one successfully ingested file. Entries are never
// updated in place: a changed file produces a new entry.
type LedgerEntry struct {
	FileName    string // logical name: base name without extension
	FilePath    string // absolute path
	Modified    int64  // modification time, unix nanoseconds
	Created     int64  // creation (or status change) time, unix nanoseconds
	Fingerprint string // hex content digest
}

// SameFile reports whether e describes the file identified by the
// metadata tuple, ignoring the fingerprint.
func (e LedgerEntry) SameFile(name, path string, modified, created int64) bool {
	return e.FileName == name && e.FilePath == path && e.Modified == modified && e.Created == created
}

// ModifiedTime returns the modification timestamp as a time.Time
func (e LedgerEntry) ModifiedTime() time.Time {
	return time.Unix(0, e.Modified)
}

// CreatedTime returns the creation timestamp as a time.Time
func (e LedgerEntry) CreatedTime() time.Time {
	return time.Unix(0, e.Created)
}
