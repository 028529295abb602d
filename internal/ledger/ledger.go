package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/tabsync/internal/fingerprint"
	"github.com/dshills/tabsync/internal/storage"
	"github.com/dshills/tabsync/pkg/types"
)

// DefaultTable is the name of the persisted ledger table
const DefaultTable = "Files_Meta_Data"

// ErrClosed is returned by operations on a closed ledger
var ErrClosed = errors.New("ledger is closed")

// Options configures a Ledger
type Options struct {
	Table  string              // ledger table name, DefaultTable when empty
	Hasher *fingerprint.Hasher // shared fingerprint memo; a default one when nil
	Logger *zap.Logger
}

// Ledger is the in-memory record of ingested files, loaded from storage
// on Open and written back wholesale on Close
type Ledger struct {
	mu      sync.Mutex
	store   storage.Storage
	table   string
	hasher  *fingerprint.Hasher
	logger  *zap.Logger
	entries []types.LedgerEntry
	closed  bool
}

// Open connects to storage and loads the ledger table. A missing or
// malformed ledger table starts an empty ledger; connection errors are
// returned.
func Open(ctx context.Context, open storage.OpenFunc, opts Options) (*Ledger, error) {
	if opts.Table == "" {
		opts.Table = DefaultTable
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Hasher == nil {
		h, err := fingerprint.New(fingerprint.DefaultAlgorithm, fingerprint.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		opts.Hasher = h
	}

	store, err := open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger storage: %w", err)
	}

	entries, err := store.LoadLedger(ctx, opts.Table)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		opts.Logger.Info("no ledger table yet, starting empty", zap.String("table", opts.Table))
		entries = nil
	case errors.Is(err, storage.ErrSchemaMismatch):
		opts.Logger.Warn("unreadable ledger table, starting empty",
			zap.String("table", opts.Table), zap.Error(err))
		entries = nil
	case err != nil:
		_ = store.Close()
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	return &Ledger{
		store:   store,
		table:   opts.Table,
		hasher:  opts.Hasher,
		logger:  opts.Logger,
		entries: entries,
	}, nil
}

// With opens a ledger, runs fn and closes the ledger on every exit path,
// so entries recorded before fn fails are still persisted.
func With(ctx context.Context, open storage.OpenFunc, opts Options, fn func(*Ledger) error) (err error) {
	l, err := Open(ctx, open, opts)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, l.Close(ctx))
	}()
	return fn(l)
}

// Close writes the in-memory ledger back as a wholesale replace and
// releases the connection. Closing twice is a no-op. The flush ignores
// cancellation of ctx.
func (l *Ledger) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	flushErr := l.store.ReplaceLedger(context.WithoutCancel(ctx), l.table, l.entries)
	if flushErr != nil {
		flushErr = fmt.Errorf("failed to persist ledger: %w", flushErr)
	} else {
		l.logger.Debug("ledger persisted", zap.Int("entries", len(l.entries)))
	}
	return errors.Join(flushErr, l.store.Close())
}

// Exists reports whether the file at path is recorded with the same
// logical name, path and timestamps, and with the same content.
func (l *Ledger) Exists(path string) (bool, error) {
	meta, err := stat(path)
	if err != nil {
		return false, err
	}

	l.mu.Lock()
	var candidates []types.LedgerEntry
	for _, e := range l.entries {
		if e.SameFile(meta.FileName, meta.FilePath, meta.Modified, meta.Created) {
			candidates = append(candidates, e)
		}
	}
	l.mu.Unlock()

	if len(candidates) == 0 {
		return false, nil
	}

	digest, err := l.hasher.Fingerprint(meta.FilePath)
	if err != nil {
		return false, err
	}
	for _, e := range candidates {
		if e.Fingerprint == string(digest) {
			return true, nil
		}
	}
	return false, nil
}

// ExistsByContent reports whether any recorded file has the same content
// as the file at path, wherever it lives and whatever it is called.
func (l *Ledger) ExistsByContent(path string) (bool, error) {
	digest, err := l.hasher.Fingerprint(path)
	if err != nil {
		return false, err
	}
	return l.HasFingerprint(string(digest)), nil
}

// HasFingerprint reports whether any entry carries digest
func (l *Ledger) HasFingerprint(digest string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.Fingerprint == digest {
			return true
		}
	}
	return false
}

// Record appends an entry for the file at path built from its current
// metadata and content, then drops exact duplicate entries.
func (l *Ledger) Record(path string) error {
	meta, err := stat(path)
	if err != nil {
		return err
	}
	digest, err := l.hasher.Fingerprint(meta.FilePath)
	if err != nil {
		return err
	}
	meta.Fingerprint = string(digest)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.entries = dedupe(append(l.entries, meta))
	return nil
}

// Reset drops the persisted ledger table and empties the ledger
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if err := l.store.DropLedger(ctx, l.table); err != nil {
		return fmt.Errorf("failed to drop ledger: %w", err)
	}
	l.entries = nil
	return nil
}

// Entries returns a copy of the in-memory ledger
func (l *Ledger) Entries() []types.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// stat builds an entry for path from live filesystem metadata, without
// the fingerprint
func stat(path string) (types.LedgerEntry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return types.LedgerEntry{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return types.LedgerEntry{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	base := filepath.Base(abs)
	return types.LedgerEntry{
		FileName: strings.TrimSuffix(base, filepath.Ext(base)),
		FilePath: abs,
		Modified: fi.ModTime().UnixNano(),
		Created:  createdAt(fi),
	}, nil
}

func dedupe(entries []types.LedgerEntry) []types.LedgerEntry {
	seen := make(map[types.LedgerEntry]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
