package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/tabsync/internal/storage"
	"github.com/dshills/tabsync/pkg/types"
)

func opener(t *testing.T) storage.OpenFunc {
	t.Helper()
	return storage.Opener(storage.Config{
		Driver: storage.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "ledger.db"),
	})
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestOpen_EmptyWhenNoTable(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	l, err := Open(context.Background(), opener(t), Options{Logger: zap.New(core)})
	require.NoError(t, err)
	defer l.Close(context.Background())

	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 1, logs.FilterMessage("no ledger table yet, starting empty").Len())
}

func TestOpen_PropagatesConnectionErrors(t *testing.T) {
	failing := func(context.Context) (storage.Storage, error) {
		return nil, errors.New("connection refused")
	}

	_, err := Open(context.Background(), failing, Options{})
	assert.ErrorContains(t, err, "connection refused")
}

func TestOpen_SchemaMismatchStartsEmpty(t *testing.T) {
	ctx := context.Background()
	open := opener(t)

	store, err := open(ctx)
	require.NoError(t, err)
	_, err = store.Execute(ctx, `CREATE TABLE "Files_Meta_Data" (unrelated TEXT)`)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	core, logs := observer.New(zap.WarnLevel)
	l, err := Open(ctx, open, Options{Logger: zap.New(core)})
	require.NoError(t, err)
	defer l.Close(ctx)

	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 1, logs.FilterMessage("unreadable ledger table, starting empty").Len())
}

func TestRecordExistsAndPersist(t *testing.T) {
	ctx := context.Background()
	open := opener(t)
	path := writeFile(t, t.TempDir(), "Sales.csv", "id\n1\n")

	l, err := Open(ctx, open, Options{})
	require.NoError(t, err)

	seen, err := l.Exists(path)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, l.Record(path))
	require.NoError(t, l.Record(path))
	assert.Equal(t, 1, l.Len(), "identical entries are deduplicated")

	seen, err = l.Exists(path)
	require.NoError(t, err)
	assert.True(t, seen)

	entry := l.Entries()[0]
	assert.Equal(t, "Sales", entry.FileName)
	assert.True(t, filepath.IsAbs(entry.FilePath))
	assert.NotEmpty(t, entry.Fingerprint)
	assert.NotZero(t, entry.Modified)

	require.NoError(t, l.Close(ctx))
	require.NoError(t, l.Close(ctx), "second close is a no-op")

	reopened, err := Open(ctx, open, Options{})
	require.NoError(t, err)
	defer reopened.Close(ctx)
	assert.Equal(t, []types.LedgerEntry{entry}, reopened.Entries())

	seen, err = reopened.Exists(path)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestExists_ModifiedFile(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "Sales.csv", "id\n1\n")

	l, err := Open(ctx, opener(t), Options{})
	require.NoError(t, err)
	defer l.Close(ctx)
	require.NoError(t, l.Record(path))

	require.NoError(t, os.WriteFile(path, []byte("id\n2\n"), 0644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	seen, err := l.Exists(path)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestExistsByContent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	original := writeFile(t, dir, "Sales.csv", "id\n1\n")
	copied := writeFile(t, dir, "Renamed Copy.csv", "id\n1\n")
	changed := writeFile(t, dir, "Changed.csv", "id\n2\n")

	l, err := Open(ctx, opener(t), Options{})
	require.NoError(t, err)
	defer l.Close(ctx)
	require.NoError(t, l.Record(original))

	seen, err := l.Exists(copied)
	require.NoError(t, err)
	assert.False(t, seen, "metadata differs")

	seen, err = l.ExistsByContent(copied)
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = l.ExistsByContent(changed)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestExists_MissingFile(t *testing.T) {
	ctx := context.Background()
	l, err := Open(ctx, opener(t), Options{})
	require.NoError(t, err)
	defer l.Close(ctx)

	_, err = l.Exists(filepath.Join(t.TempDir(), "gone.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWith_FlushesOnError(t *testing.T) {
	ctx := context.Background()
	open := opener(t)
	path := writeFile(t, t.TempDir(), "Sales.csv", "id\n1\n")
	boom := errors.New("pipeline failed")

	err := With(ctx, open, Options{}, func(l *Ledger) error {
		if err := l.Record(path); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	l, err := Open(ctx, open, Options{})
	require.NoError(t, err)
	defer l.Close(ctx)
	assert.Equal(t, 1, l.Len())
}

func TestWith_FlushesOnCancelledContext(t *testing.T) {
	open := opener(t)
	path := writeFile(t, t.TempDir(), "Sales.csv", "id\n1\n")
	ctx, cancel := context.WithCancel(context.Background())

	err := With(ctx, open, Options{}, func(l *Ledger) error {
		require.NoError(t, l.Record(path))
		cancel()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)

	l, err := Open(context.Background(), open, Options{})
	require.NoError(t, err)
	defer l.Close(context.Background())
	assert.Equal(t, 1, l.Len())
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	open := opener(t)
	path := writeFile(t, t.TempDir(), "Sales.csv", "id\n1\n")

	require.NoError(t, With(ctx, open, Options{}, func(l *Ledger) error {
		return l.Record(path)
	}))

	l, err := Open(ctx, open, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, l.Len())
	require.NoError(t, l.Reset(ctx))
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.HasFingerprint("anything"))
	require.NoError(t, l.Close(ctx))

	l, err = Open(ctx, open, Options{})
	require.NoError(t, err)
	defer l.Close(ctx)
	assert.Equal(t, 0, l.Len())
}

func TestRecord_AfterClose(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "Sales.csv", "id\n1\n")

	l, err := Open(ctx, opener(t), Options{})
	require.NoError(t, err)
	require.NoError(t, l.Close(ctx))

	assert.ErrorIs(t, l.Record(path), ErrClosed)
}
