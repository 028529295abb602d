// Package types provides shared type definitions for tabsync.
//
// # Cells
//
// A Cell is a tagged variant holding a number, a piece of text, or nothing:
//
//	types.Number(500)   // numeric
//	types.Text("Haifa") // text
//	types.Missing()     // missing (also the zero value)
//
// Readers build cells with Infer, which maps blank text to Missing and
// numeric-looking text to Number. Cells never coerce implicitly; callers
// switch on Kind or use Numeric to read text that holds a number.
//
// # Tables
//
// Table stores named columns row-major. Every row is exactly as wide as the
// header, and after normalization column names are unique. Tables are
// treated as values: transforming helpers such as Map and DropDuplicateRows
// return new tables.
//
// # Ledger
//
// LedgerEntry is one row of the ingestion ledger: the logical file name,
// absolute path, modification and creation timestamps, and a content
// fingerprint.
package types
