// Package parser reads delimited text and spreadsheet workbooks into
// tables.
//
// A CSV file yields one sheet named after the file; a workbook yields one
// sheet per worksheet, named after the worksheet. The first record of
// every sheet is taken as its provisional header; locating the real header
// row is left to the normalizer.
//
// # Basic Usage
//
//	p := parser.New()
//	result, err := p.ParseFile("/data/sales.xlsx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, sheet := range result.Sheets {
//	    fmt.Printf("%s: %d rows\n", sheet.Name, sheet.Table.NumRows())
//	}
//
// # Cell Typing
//
// Blank cells become missing values, cells that parse as finite numbers
// become numbers, and everything else is kept as text.
package parser
