package remap

import "errors"

// Sentinel kinds for key-table errors.
var (
	ErrEmptyKeyTable    = errors.New("empty variable key table")
	ErrInvalidEntry     = errors.New("invalid key table entry")
	ErrDuplicateMapping = errors.New("duplicate key table mapping")
)
