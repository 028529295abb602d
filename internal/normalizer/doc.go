// Package normalizer locates the real header row of a hand-authored sheet
// and cleans its column names.
//
// Spreadsheets often start with title rows, blank rows or multi-row
// headers, so the first row a reader sees is not necessarily the header.
// When nearly every column of the current header is unnamed, the first
// data row is promoted to header and the check repeats.
package normalizer
