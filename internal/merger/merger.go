package merger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/tabsync/internal/storage"
	"github.com/dshills/tabsync/pkg/types"
)

// missingToken is how a missing cell reads in the clean tier before it is
// turned back into a missing value
const missingToken = "nan"

// stripChars are removed from every clean-tier value
var stripChars = strings.NewReplacer("-", "", "_", "", "/", "", `\`, "")

// Result is the outcome of merging one table into its stored counterpart
type Result struct {
	Name  string
	Raw   *types.Table
	Clean *types.Table
	Hints map[string]storage.ColumnType

	ExistingRows int
	NewRows      int
	MergedRows   int
}

// Merger reconciles freshly normalized tables with the stored raw tier
type Merger struct {
	logger *zap.Logger
}

// New creates a new Merger instance
func New(logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{logger: logger}
}

// Merge unions t beneath the stored raw table of the same name, coerces
// numeric cells, drops duplicate rows and derives the clean tier. Nothing
// is written; see Persist. A name with no stored table merges against an
// empty table.
func (m *Merger) Merge(ctx context.Context, store storage.Storage, name string, t *types.Table) (*Result, error) {
	existing, err := store.ReadTable(ctx, storage.SchemaRaw, name)
	if errors.Is(err, storage.ErrNotFound) {
		m.logger.Info("no stored table, starting empty", zap.String("table", name))
		existing = types.NewTable()
	} else if err != nil {
		return nil, fmt.Errorf("failed to read stored table %s: %w", name, err)
	}

	union := Union(existing, t)
	raw := Coerce(union).DropDuplicateRows()
	clean := Clean(raw)

	hints := make(map[string]storage.ColumnType, len(raw.Columns))
	for _, c := range raw.Columns {
		hints[c] = storage.ColumnText
	}

	if ce := m.logger.Check(zap.DebugLevel, "column classification"); ce != nil {
		ce.Write(zap.String("table", name), zap.Strings("numeric_columns", NumericColumns(raw)))
	}

	return &Result{
		Name:         name,
		Raw:          raw,
		Clean:        clean,
		Hints:        hints,
		ExistingRows: existing.NumRows(),
		NewRows:      t.NumRows(),
		MergedRows:   raw.NumRows(),
	}, nil
}

// Persist replaces the raw and clean tables of r in one transaction
func (m *Merger) Persist(ctx context.Context, store storage.Storage, r *Result) error {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.WriteTable(ctx, storage.SchemaRaw, r.Name, r.Raw, r.Hints); err != nil {
		return fmt.Errorf("failed to write raw table %s: %w", r.Name, err)
	}
	if err := tx.WriteTable(ctx, storage.SchemaClean, r.Name, r.Clean, r.Hints); err != nil {
		return fmt.Errorf("failed to write clean table %s: %w", r.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit table %s: %w", r.Name, err)
	}

	m.logger.Info("table persisted",
		zap.String("table", r.Name),
		zap.Int("existing_rows", r.ExistingRows),
		zap.Int("new_rows", r.NewRows),
		zap.Int("merged_rows", r.MergedRows))
	return nil
}

// Union stacks b beneath a. The result has a's columns followed by the
// columns only b has; cells a row's source lacks are missing.
func Union(a, b *types.Table) *types.Table {
	columns := append([]string(nil), a.Columns...)
	for _, c := range b.Columns {
		if a.ColumnIndex(c) < 0 {
			columns = append(columns, c)
		}
	}

	out := types.NewTable(columns...)
	for _, src := range []*types.Table{a, b} {
		pos := make([]int, len(src.Columns))
		for i, c := range src.Columns {
			pos[i] = out.ColumnIndex(c)
		}
		for _, row := range src.Rows {
			r := make([]types.Cell, len(columns))
			for i, c := range row {
				r[pos[i]] = c
			}
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Coerce converts every text cell that parses as a number into a number
// cell. Numbers, including zero, and missing cells keep their variant, so
// a stored "0" and a fresh 0 compare equal and a blank never reads as a
// failed parse.
func Coerce(t *types.Table) *types.Table {
	return t.Map(func(_ int, c types.Cell) types.Cell {
		switch c.Kind() {
		case types.CellText:
			if v, ok := types.ParseNumber(c.String()); ok {
				return types.Number(v)
			}
			return c
		case types.CellNumber, types.CellMissing:
			return c
		default:
			return c
		}
	})
}

// Clean derives the clean tier: every cell as text with - _ / \ removed.
// A cell that ends up as "nan", including every missing cell, is missing.
func Clean(t *types.Table) *types.Table {
	return t.Map(func(_ int, c types.Cell) types.Cell {
		text := missingToken
		if !c.IsMissing() {
			text = c.String()
		}
		text = stripChars.Replace(text)
		if text == missingToken {
			return types.Missing()
		}
		return types.Text(text)
	})
}

// Classify reports, per column, whether every non-missing cell is numeric.
// Columns with no values at all are not numeric.
func Classify(t *types.Table) map[string]bool {
	out := make(map[string]bool, len(t.Columns))
	for c, name := range t.Columns {
		numeric, seen := true, false
		for _, row := range t.Rows {
			if row[c].IsMissing() {
				continue
			}
			seen = true
			if _, ok := row[c].Numeric(); !ok {
				numeric = false
				break
			}
		}
		out[name] = numeric && seen
	}
	return out
}

// NumericColumns lists the columns Classify reports as numeric, in order
func NumericColumns(t *types.Table) []string {
	classes := Classify(t)
	var out []string
	for _, c := range t.Columns {
		if classes[c] {
			out = append(out, c)
		}
	}
	return out
}
