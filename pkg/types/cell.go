package types

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// CellKind identifies which variant a Cell holds
type CellKind uint8

const (
	CellMissing CellKind = iota
	CellNumber
	CellText
)

// String returns the kind name
func (k CellKind) String() string {
	switch k {
	case CellNumber:
		return "number"
	case CellText:
		return "text"
	default:
		return "missing"
	}
}

// Cell is a single table value: a number, a piece of text, or missing.
// The zero value is a missing cell.
type Cell struct {
	kind CellKind
	num  float64
	text string
}

// Missing returns a missing cell
func Missing() Cell {
	return Cell{}
}

// Number returns a numeric cell
func Number(v float64) Cell {
	return Cell{kind: CellNumber, num: v}
}

// Text returns a text cell
func Text(s string) Cell {
	return Cell{kind: CellText, text: s}
}

// Infer builds a cell from raw text as a reader sees it: blank text is
// missing, text that parses as a finite number is numeric, anything else
// stays text.
func Infer(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Missing()
	}
	if v, ok := ParseNumber(s); ok {
		return Number(v)
	}
	return Text(s)
}

// Kind returns the cell variant
func (c Cell) Kind() CellKind {
	return c.kind
}

// IsMissing reports whether the cell holds no value
func (c Cell) IsMissing() bool {
	return c.kind == CellMissing
}

// Float returns the numeric value of a number cell
func (c Cell) Float() (float64, bool) {
	if c.kind != CellNumber {
		return 0, false
	}
	return c.num, true
}

// Numeric returns the value of a number cell, or of a text cell whose
// content parses as a number.
func (c Cell) Numeric() (float64, bool) {
	switch c.kind {
	case CellNumber:
		return c.num, true
	case CellText:
		return ParseNumber(c.text)
	default:
		return 0, false
	}
}

// String renders the cell as text. Missing cells render as "".
func (c Cell) String() string {
	switch c.kind {
	case CellNumber:
		return FormatNumber(c.num)
	case CellText:
		return c.text
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same variant and value.
// Two missing cells are equal.
func (c Cell) Equal(o Cell) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case CellNumber:
		return c.num == o.num
	case CellText:
		return c.text == o.text
	default:
		return true
	}
}

// key is a collision-free encoding of the cell used for row hashing
func (c Cell) key() string {
	switch c.kind {
	case CellNumber:
		if c.num == 0 {
			return "n0"
		}
		return "n" + strconv.FormatFloat(c.num, 'g', -1, 64)
	case CellText:
		return "t" + c.text
	default:
		return "m"
	}
}

// ParseNumber parses s as a finite float64. Surrounding whitespace is
// ignored; NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatNumber renders a float with the minimal digits needed to
// round-trip it, without exponent notation for ordinary magnitudes.
func FormatNumber(v float64) string {
	if abs := math.Abs(v); v == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
