package types

// ParseResult represents the output of reading one tabular file
type ParseResult struct {
	Path string
	Flat bool // single-table text format rather than a sheet container

	// One entry per readable sheet, in file order
	Sheets []Sheet

	// Errors encountered for individual sheets
	Errors []ParseError
}

// Sheet is one logical table inside a file
type Sheet struct {
	Name  string // logical table name
	Table *Table
}

// ParseError represents an error that occurred while reading one sheet
type ParseError struct {
	File    string
	Sheet   string
	Message string
	Err     error
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	if pe.Sheet == "" {
		return pe.Message
	}
	return pe.Sheet + ": " + pe.Message
}

// Unwrap returns the underlying error
func (pe *ParseError) Unwrap() error {
	return pe.Err
}

// HasErrors returns true if any sheet failed to parse
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0
}

// AddError records a failure for one sheet
func (pr *ParseResult) AddError(sheet string, err error) {
	pr.Errors = append(pr.Errors, ParseError{
		File:    pr.Path,
		Sheet:   sheet,
		Message: err.Error(),
		Err:     err,
	})
}
