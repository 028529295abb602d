package normalizer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dshills/tabsync/pkg/types"
)

const (
	// Separator joins the words of a cleaned column name
	Separator = '_'

	// HeaderSlack is how many named columns a header row may lack before
	// the row is judged to be data and the next row is tried
	HeaderSlack = 2
)

// Normalizer turns a freshly parsed sheet into a table with one real
// header row and clean column names
type Normalizer struct{}

// New creates a new Normalizer instance
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize runs the three normalization steps in order: drop empty
// columns and rows, promote data rows until a plausible header is found,
// then clean the column names. The input table is not modified.
func (n *Normalizer) Normalize(t *types.Table) *types.Table {
	out := DropEmpty(t)
	out, _ = PromoteHeader(out)
	out.Columns = CleanColumns(out.Columns)
	return out
}

// DropEmpty removes columns whose cells are all missing, then rows whose
// remaining cells are all missing.
func DropEmpty(t *types.Table) *types.Table {
	keep := make([]int, 0, len(t.Columns))
	for c := range t.Columns {
		for _, row := range t.Rows {
			if !row[c].IsMissing() {
				keep = append(keep, c)
				break
			}
		}
	}

	cols := make([]string, len(keep))
	for i, c := range keep {
		cols[i] = t.Columns[c]
	}
	out := types.NewTable(cols...)

	for _, row := range t.Rows {
		r := make([]types.Cell, len(keep))
		empty := true
		for i, c := range keep {
			r[i] = row[c]
			if !r[i].IsMissing() {
				empty = false
			}
		}
		if !empty {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// IsUnnamed reports whether a column name is absent or a reader placeholder
func IsUnnamed(name string) bool {
	return strings.TrimSpace(name) == "" || strings.Contains(name, types.UnnamedPrefix)
}

// CountUnnamed returns the number of absent or placeholder column names
func CountUnnamed(columns []string) int {
	n := 0
	for _, c := range columns {
		if IsUnnamed(c) {
			n++
		}
	}
	return n
}

// needsPromotion reports whether the current header looks like data. A
// header with every column named is always kept, so narrow tables of one
// or two named columns are not consumed row by row.
func needsPromotion(columns []string) bool {
	unnamed := CountUnnamed(columns)
	return unnamed > 0 && unnamed >= len(columns)-HeaderSlack
}

// PromoteHeader repeatedly replaces the header with the first data row
// while the header looks like data. It stops when the header looks real
// or the rows run out, and never runs more times than the table had rows.
// It returns the resulting table and the number of promotions.
func PromoteHeader(t *types.Table) (*types.Table, int) {
	out := t.Clone()
	limit := len(out.Rows)
	promoted := 0

	for promoted < limit && len(out.Rows) > 0 && needsPromotion(out.Columns) {
		header := out.Rows[0]
		for i, c := range header {
			out.Columns[i] = c.String()
		}
		out.Rows = out.Rows[1:]
		promoted++
	}
	return out, promoted
}

// CleanName canonicalizes a column name. Line breaks become separators,
// runs of whitespace strictly between two non-separator characters become
// one separator, other whitespace is removed, and leading or trailing
// separators are trimmed.
func CleanName(name string) string {
	sep := string(Separator)
	name = strings.NewReplacer("\r\n", sep, "\n", sep, "\r", sep).Replace(name)

	runes := []rune(name)
	var b strings.Builder
	for i := 0; i < len(runes); {
		if !unicode.IsSpace(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if i > 0 && j < len(runes) && runes[i-1] != Separator && runes[j] != Separator {
			b.WriteRune(Separator)
		}
		i = j
	}
	return strings.Trim(b.String(), sep)
}

// CleanColumns cleans every name and makes the result usable as storage
// column names: empty names get a positional placeholder and repeats,
// including the reserved index column, get a numeric suffix.
func CleanColumns(columns []string) []string {
	out := make([]string, len(columns))
	seen := map[string]bool{types.IndexColumn: true}
	for i, c := range columns {
		name := CleanName(c)
		if name == "" {
			name = types.UnnamedPrefix + string(Separator) + strconv.Itoa(i)
		}
		if seen[name] {
			base := name
			for k := 1; ; k++ {
				name = base + string(Separator) + strconv.Itoa(k)
				if !seen[name] {
					break
				}
			}
		}
		seen[name] = true
		out[i] = name
	}
	return out
}
