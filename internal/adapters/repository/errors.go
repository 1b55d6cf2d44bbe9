package repository

import "errors"

// Sentinel kinds for artifact-store errors.
var (
	ErrNotFound        = errors.New("artifact not found")
	ErrAlreadyExists   = errors.New("artifact already registered")
	ErrInvalidArtifact = errors.New("invalid artifact")
)
