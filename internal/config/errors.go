package config

import (
	"errors"
)

// Sentinel error kinds for this package, checked via errors.Is from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
