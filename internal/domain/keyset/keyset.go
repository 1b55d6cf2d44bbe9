// Package keyset defines the interface for key-uniqueness tracking.
package keyset

import (
	"context"
	"sync"
)

// Tracker records seen keys so callers can detect duplicates.
type Tracker interface {
	// SeenAndRecord atomically checks if key was seen and records it.
	// Returns true if key was already seen, false if newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Count returns how many times a key has been recorded.
	Count(ctx context.Context, key string) int

	// Size returns the number of distinct keys recorded.
	Size() int
}

// inMemoryTracker implements Tracker with a plain occurrence map. The
// pipeline's key space (participant x time x variable) fits in memory, so no
// eviction is needed.
type inMemoryTracker struct {
	mu   sync.RWMutex
	seen map[string]int
}

// NewInMemoryTracker creates an in-memory tracker with configuration options.
func NewInMemoryTracker(opts ...Option) Tracker {
	t := &inMemoryTracker{}

	cfg := options{capacityHint: 0}
	for _, opt := range opts {
		opt(&cfg)
	}

	t.seen = make(map[string]int, cfg.capacityHint)
	return t
}

func (t *inMemoryTracker) SeenAndRecord(_ context.Context, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := t.seen[key]
	t.seen[key] = count + 1
	return count > 0
}

func (t *inMemoryTracker) Count(_ context.Context, key string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.seen[key]
}

func (t *inMemoryTracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.seen)
}
