package reshape

import (
	"errors"
	"fmt"
)

// ErrDuplicateKey signals a non-unique (participant, time, variable) key.
// This indicates an upstream filter defect and is fatal for the block.
var ErrDuplicateKey = errors.New("duplicate pivot key")

// DuplicateKeyError names the offending key and its occurrence count.
type DuplicateKeyError struct {
	Table    string
	Moniker  string
	Time     string
	Variable string
	Count    int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s: table=%s moniker=%s time=%s variable=%s occurrences=%d",
		ErrDuplicateKey.Error(), e.Table, e.Moniker, e.Time, e.Variable, e.Count)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }
