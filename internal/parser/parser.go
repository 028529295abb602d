package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dshills/tabsync/pkg/types"
)

// FlatExtensions are read as a single delimited-text table
var FlatExtensions = []string{".csv"}

// ContainerExtensions are spreadsheet workbooks holding one table per sheet
var ContainerExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}

// lockFilePrefix marks the owner files office suites leave next to open workbooks
const lockFilePrefix = "~$"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser reads tabular files into sheets
type Parser struct{}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{}
}

// ParseFile reads every table in the file at path. Failures that concern a
// single sheet are recorded in the result; failures that make the whole
// file unreadable are returned.
func (p *Parser) ParseFile(path string) (*types.ParseResult, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case contains(FlatExtensions, ext):
		return p.parseCSV(path)
	case contains(ContainerExtensions, ext):
		return p.parseWorkbook(path)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedExtension, ext)
	}
}

// Supported reports whether path has an extension the parser reads.
// Matching ignores case.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return contains(FlatExtensions, ext) || contains(ContainerExtensions, ext)
}

// IsLockFile reports whether name is an office lock file such as ~$Book.xlsx
func IsLockFile(name string) bool {
	return strings.HasPrefix(filepath.Base(name), lockFilePrefix)
}

// LogicalName returns the table name of a flat file: its base name
// without extension.
func LogicalName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (p *Parser) parseCSV(path string) (*types.ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		records = append(records, rec)
	}

	result := &types.ParseResult{Path: path, Flat: true}
	name := LogicalName(path)
	table, err := buildTable(records)
	if err != nil {
		result.AddError(name, err)
		return result, nil
	}
	result.Sheets = append(result.Sheets, types.Sheet{Name: name, Table: table})
	return result, nil
}

func (p *Parser) parseWorkbook(path string) (*types.ParseResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	result := &types.ParseResult{Path: path}
	for _, sheet := range f.GetSheetList() {
		// raw values keep numbers unformatted ("1234.5" rather than "1,234.50")
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			result.AddError(sheet, fmt.Errorf("failed to read sheet: %w", err))
			continue
		}
		table, err := buildTable(dropBlankRows(rows))
		if err != nil {
			result.AddError(sheet, err)
			continue
		}
		result.Sheets = append(result.Sheets, types.Sheet{Name: sheet, Table: table})
	}
	return result, nil
}

// buildTable takes the first record as the provisional header and types
// the remaining cells.
func buildTable(records [][]string) (*types.Table, error) {
	if len(records) == 0 {
		return nil, types.ErrEmptySheet
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	table := types.NewTable(headerNames(records[0], width)...)
	for _, rec := range records[1:] {
		cells := make([]types.Cell, len(rec))
		for i, v := range rec {
			cells[i] = types.Infer(v)
		}
		if err := table.AppendRow(cells...); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// headerNames assigns a placeholder to every empty header cell and makes
// duplicates unique with a numeric suffix: a, a.1, a.2.
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := range names {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if strings.TrimSpace(name) == "" {
			name = types.UnnamedPrefix + ": " + strconv.Itoa(i)
		}

		if last, dup := seen[name]; dup {
			base := name
			for k := last + 1; ; k++ {
				candidate := base + "." + strconv.Itoa(k)
				if _, taken := seen[candidate]; !taken {
					seen[base] = k
					name = candidate
					break
				}
			}
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
