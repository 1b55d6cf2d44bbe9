package synth

import "errors"

// ErrInvalidConfig indicates the requested dataset shape is unusable.
var ErrInvalidConfig = errors.New("invalid generator configuration")

// ErrWrite indicates a dataset file could not be written.
var ErrWrite = errors.New("failed to write dataset file")
