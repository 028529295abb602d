package types

import "errors"

// Domain errors for tables and files
var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrEmptySheet           = errors.New("sheet has no rows")
	ErrInvalidTable         = errors.New("invalid table")
	ErrDuplicateColumn      = errors.New("duplicate column name")
)
