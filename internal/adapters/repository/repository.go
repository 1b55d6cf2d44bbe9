// Package repository defines the named-artifact store interface and errors.
// Pipeline stages register their outputs here as immutable snapshots; the
// exporter and downstream consumers read them back by name.
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Kind classifies stored artifacts.
type Kind string

const (
	KindLongTable   Kind = "long_table"
	KindWideTable   Kind = "wide_table"
	KindReport      Kind = "report"
	KindInstability Kind = "instability"
)

// Artifact is one named pipeline output. Value is treated as an immutable
// snapshot: stages produce new tables rather than mutating stored ones.
type Artifact struct {
	Name  string
	Kind  Kind
	Value any
}

// Store provides access to named pipeline artifacts.
type Store interface {
	// Put registers an artifact. Registering an existing name fails:
	// artifacts are snapshots, recomputed and re-registered under new
	// names rather than overwritten.
	Put(ctx context.Context, artifact Artifact) error

	// Get returns the artifact with the given name.
	// Returns ErrNotFound if the name is unknown.
	Get(ctx context.Context, name string) (Artifact, error)

	// List returns all registered artifact names, sorted.
	List(ctx context.Context) []string

	// Count returns the number of registered artifacts.
	Count(ctx context.Context) int
}

// inMemoryStore implements Store with a mutex-guarded map.
type inMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]Artifact
}

// NewInMemoryStore creates an empty artifact store.
func NewInMemoryStore() Store {
	return &inMemoryStore{artifacts: make(map[string]Artifact)}
}

func (s *inMemoryStore) Put(_ context.Context, artifact Artifact) error {
	if artifact.Name == "" {
		return fmt.Errorf("%w: empty artifact name", ErrInvalidArtifact)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.artifacts[artifact.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, artifact.Name)
	}
	s.artifacts[artifact.Name] = artifact
	return nil
}

func (s *inMemoryStore) Get(_ context.Context, name string) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifact, ok := s.artifacts[name]
	if !ok {
		return Artifact{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return artifact, nil
}

func (s *inMemoryStore) List(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.artifacts))
	for name := range s.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *inMemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}
