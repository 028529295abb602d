package filter

import (
	"math"
	"strings"

	"github.com/dshills/tabsync/pkg/types"
)

const (
	// ScaleThreshold is the magnitude from which a value is taken to be
	// entered one decade too large
	ScaleThreshold = 1000
	// ScaleDivisor corrects a mis-scaled value
	ScaleDivisor = 10
)

// Step transforms a table and returns the result as a new table
type Step func(*types.Table) *types.Table

// Pipeline is the fixed filter order. Changing it changes results: scale
// correction must run before deduplication so corrected values compare
// equal, and interpolation must see the deduplicated rows.
var Pipeline = []Step{CorrectScale, DropDuplicates, Interpolate}

// Apply runs every step of the pipeline in order
func Apply(t *types.Table) *types.Table {
	for _, step := range Pipeline {
		t = step(t)
	}
	return t
}

// CorrectScale turns blank cells into missing ones and divides every
// numeric value of magnitude ScaleThreshold or more by ScaleDivisor.
// Text that parses as a number counts as numeric.
func CorrectScale(t *types.Table) *types.Table {
	return t.Map(func(_ int, c types.Cell) types.Cell {
		if c.Kind() == types.CellText && strings.TrimSpace(c.String()) == "" {
			return types.Missing()
		}
		if v, ok := c.Numeric(); ok && math.Abs(v) >= ScaleThreshold {
			return types.Number(v / ScaleDivisor)
		}
		return c
	})
}

// DropDuplicates removes rows identical to an earlier row
func DropDuplicates(t *types.Table) *types.Table {
	return t.DropDuplicateRows()
}

// Interpolate fills missing cells with the mean of their column's numeric
// values. Columns without any numeric value keep their missing cells.
func Interpolate(t *types.Table) *types.Table {
	means := make([]types.Cell, len(t.Columns))
	for c := range t.Columns {
		var sum float64
		var count int
		for _, row := range t.Rows {
			if v, ok := row[c].Numeric(); ok {
				sum += v
				count++
			}
		}
		if count > 0 {
			means[c] = types.Number(sum / float64(count))
		}
	}

	return t.Map(func(col int, c types.Cell) types.Cell {
		if c.IsMissing() {
			return means[col]
		}
		return c
	})
}
