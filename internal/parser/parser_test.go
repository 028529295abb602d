package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dshills/tabsync/pkg/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseFile_CSV(t *testing.T) {
	path := writeFile(t, "Sales Q1.csv", "\xEF\xBB\xBFid,name,amount\n1,alpha,10.5\n\n2, beta ,\n")

	result, err := New().ParseFile(path)
	require.NoError(t, err)
	assert.True(t, result.Flat)
	assert.False(t, result.HasErrors())
	require.Len(t, result.Sheets, 1)

	sheet := result.Sheets[0]
	assert.Equal(t, "Sales Q1", sheet.Name)
	assert.Equal(t, []string{"id", "name", "amount"}, sheet.Table.Columns)
	require.Equal(t, 2, sheet.Table.NumRows())
	assert.Equal(t, types.Number(1), sheet.Table.Rows[0][0])
	assert.Equal(t, types.Text("alpha"), sheet.Table.Rows[0][1])
	assert.Equal(t, types.Number(10.5), sheet.Table.Rows[0][2])
	assert.Equal(t, types.Text(" beta "), sheet.Table.Rows[1][1])
	assert.True(t, sheet.Table.Rows[1][2].IsMissing())
}

func TestParseFile_CSVHeaderPlaceholders(t *testing.T) {
	path := writeFile(t, "report.csv", "a,,a\n1,2,3,4\n")

	result, err := New().ParseFile(path)
	require.NoError(t, err)
	require.Len(t, result.Sheets, 1)
	assert.Equal(t, []string{"a", "Unnamed: 1", "a.1", "Unnamed: 3"}, result.Sheets[0].Table.Columns)
	assert.Equal(t, types.Number(4), result.Sheets[0].Table.Rows[0][3])
}

func TestParseFile_EmptyCSV(t *testing.T) {
	path := writeFile(t, "empty.csv", "")

	result, err := New().ParseFile(path)
	require.NoError(t, err)
	assert.Empty(t, result.Sheets)
	require.True(t, result.HasErrors())
	assert.ErrorIs(t, &result.Errors[0], types.ErrEmptySheet)
}

func TestParseFile_Unsupported(t *testing.T) {
	path := writeFile(t, "notes.txt", "hello")

	_, err := New().ParseFile(path)
	assert.ErrorIs(t, err, types.ErrUnsupportedExtension)
}

func TestParseFile_MissingFile(t *testing.T) {
	_, err := New().ParseFile(filepath.Join(t.TempDir(), "gone.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseFile_Workbook(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "id"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "name"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", 1))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "alpha"))
	require.NoError(t, f.SetCellValue("Sheet1", "A4", 2))
	_, err := f.NewSheet("Blank")
	require.NoError(t, err)
	_, err = f.NewSheet("Stock")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Stock", "A1", "sku"))
	require.NoError(t, f.SetCellValue("Stock", "A2", "X-1"))

	path := filepath.Join(t.TempDir(), "Book.XLSX")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	result, err := New().ParseFile(path)
	require.NoError(t, err)
	assert.False(t, result.Flat)

	require.Len(t, result.Sheets, 2)
	assert.Equal(t, "Sheet1", result.Sheets[0].Name)
	assert.Equal(t, []string{"id", "name"}, result.Sheets[0].Table.Columns)
	// the blank third row is dropped
	require.Equal(t, 2, result.Sheets[0].Table.NumRows())
	assert.Equal(t, types.Number(2), result.Sheets[0].Table.Rows[1][0])
	assert.True(t, result.Sheets[0].Table.Rows[1][1].IsMissing())
	assert.Equal(t, "Stock", result.Sheets[1].Name)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Blank", result.Errors[0].Sheet)
	assert.ErrorIs(t, &result.Errors[0], types.ErrEmptySheet)
}

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.csv", true},
		{"a.CSV", true},
		{"a.xlsx", true},
		{"a.Xlsm", true},
		{"a.xltx", true},
		{"a.xltm", true},
		{"a.xls", false},
		{"a.txt", false},
		{"csv", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Supported(tt.path))
		})
	}
}

func TestIsLockFile(t *testing.T) {
	assert.True(t, IsLockFile("/data/~$Book.xlsx"))
	assert.False(t, IsLockFile("/data/Book.xlsx"))
}

func TestLogicalName(t *testing.T) {
	assert.Equal(t, "Sales Q1", LogicalName("/data/Sales Q1.csv"))
	assert.Equal(t, "archive.2023", LogicalName("archive.2023.csv"))
}

func TestHeaderNames_DuplicateSuffixCollision(t *testing.T) {
	got := headerNames([]string{"a.1", "a", "a"}, 3)
	assert.Equal(t, []string{"a.1", "a", "a.2"}, got)
}
