package csvfile

import "errors"

// Sentinel kinds for file I/O errors.
var (
	ErrRead   = errors.New("read file failed")
	ErrWrite  = errors.New("write file failed")
	ErrHeader = errors.New("missing required columns")
)
