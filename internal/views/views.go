package views

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/tabsync/internal/storage"
	"github.com/dshills/tabsync/internal/translation"
	"github.com/dshills/tabsync/pkg/types"
)

// Prefix starts the name of every generated view
const Prefix = "V_"

// Name returns the view name for a logical table
func Name(table string) string {
	return Prefix + strings.ReplaceAll(table, " ", "_")
}

// Columns projects a table's columns through m: the index first, then the
// translated columns under their display names, then the untranslated
// ones. An untranslated column that shares its name with a display name,
// and any repeated display name, is left out so view columns stay unique.
func Columns(columns []string, m translation.Map) []storage.ViewColumn {
	used := map[string]bool{types.IndexColumn: true}
	out := []storage.ViewColumn{{Source: types.IndexColumn}}

	for _, c := range columns {
		alias, ok := m.Translate(c)
		if !ok || c == types.IndexColumn || used[alias] {
			continue
		}
		used[alias] = true
		out = append(out, storage.ViewColumn{Source: c, Alias: alias})
	}

	targets := m.Targets()
	for _, c := range columns {
		if _, ok := m.Translate(c); ok || targets[c] || used[c] {
			continue
		}
		used[c] = true
		out = append(out, storage.ViewColumn{Source: c})
	}
	return out
}

// Generator maintains the translated views over stored tables
type Generator struct {
	logger *zap.Logger
}

// New creates a Generator
func New(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// Regenerate recreates the raw and clean views of the named table in one
// transaction. Tables sharing no column with m get no view; the returned
// bool reports whether views were written.
func (g *Generator) Regenerate(ctx context.Context, store storage.Storage, m translation.Map, name string) (bool, error) {
	if len(m) == 0 {
		return false, nil
	}

	columns, err := store.TableColumns(ctx, storage.SchemaRaw, name)
	if err != nil {
		return false, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	if !m.Intersects(columns) {
		g.logger.Debug("no translated columns, skipping views", zap.String("table", name))
		return false, nil
	}

	projection := Columns(columns, m)
	view := Name(name)

	tx, err := store.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, schema := range []storage.Schema{storage.SchemaRaw, storage.SchemaClean} {
		if err := tx.ReplaceView(ctx, schema, view, name, projection); err != nil {
			return false, fmt.Errorf("failed to replace view %s.%s: %w", schema, view, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit views of %s: %w", name, err)
	}

	g.logger.Info("views regenerated", zap.String("table", name), zap.String("view", view))
	return true, nil
}

// RegenerateAll regenerates the views of every stored raw table and
// returns how many tables got views
func (g *Generator) RegenerateAll(ctx context.Context, store storage.Storage, m translation.Map) (int, error) {
	tables, err := store.ListTables(ctx, storage.SchemaRaw)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, name := range tables {
		ok, err := g.Regenerate(ctx, store, m, name)
		if err != nil {
			return count, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}
