// Package remap joins normalized observations against the variable-key
// lookup, replacing item codes with canonical variable names.
package remap

import (
	"context"
	"fmt"

	"github.com/okian/esmtidy/internal/domain/model"
	"github.com/okian/esmtidy/pkg/logger"
	"github.com/okian/esmtidy/pkg/metrics"
)

// itemKey identifies one survey question within a block.
type itemKey struct {
	block int
	item  string
}

// Entry is one row of the variable-key file.
type Entry struct {
	Block    int
	Item     string
	Variable string
}

// KeyTable maps (block, item-code) pairs to canonical variable names.
// Two tables exist in the source codebook: plain integer codes and codes
// carrying a suffix letter disambiguating extended/chronometry/efficacy
// questions ("5t", "16e"). Loaded once, immutable afterwards.
type KeyTable struct {
	plain    map[itemKey]string
	suffixed map[itemKey]string
}

// BuildKeyTable constructs an immutable KeyTable from codebook entries.
// A duplicate (block, item-code) mapping is a load error: remapping must be
// injective per key.
func BuildKeyTable(entries []Entry) (*KeyTable, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyKeyTable
	}
	t := &KeyTable{
		plain:    make(map[itemKey]string),
		suffixed: make(map[itemKey]string),
	}
	for _, e := range entries {
		if e.Item == "" || e.Variable == "" {
			return nil, fmt.Errorf("%w: block=%d item=%q variable=%q", ErrInvalidEntry, e.Block, e.Item, e.Variable)
		}
		key := itemKey{block: e.Block, item: e.Item}
		target := t.suffixed
		if isPlainCode(e.Item) {
			target = t.plain
		}
		if existing, ok := target[key]; ok {
			return nil, fmt.Errorf("%w: block=%d item=%q maps to both %q and %q",
				ErrDuplicateMapping, e.Block, e.Item, existing, e.Variable)
		}
		target[key] = e.Variable
	}
	return t, nil
}

// Lookup resolves an item code to its canonical variable name.
func (t *KeyTable) Lookup(block int, item string) (string, bool) {
	key := itemKey{block: block, item: item}
	if isPlainCode(item) {
		name, ok := t.plain[key]
		return name, ok
	}
	name, ok := t.suffixed[key]
	return name, ok
}

// Size returns the number of known (block, item-code) keys.
func (t *KeyTable) Size() int {
	return len(t.plain) + len(t.suffixed)
}

// isPlainCode reports whether an item code is a bare integer.
func isPlainCode(item string) bool {
	for _, r := range item {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(item) > 0
}

// Remap left-joins observations against the key table. Unmatched item codes
// are dropped and counted: the lookup's contract is to keep known variables
// only, so a join miss is a documented drop, not an error.
func Remap(ctx context.Context, obs []model.Observation, table *KeyTable) ([]model.CleanedObservation, int) {
	out := make([]model.CleanedObservation, 0, len(obs))
	dropped := 0
	for _, o := range obs {
		name, ok := table.Lookup(o.Block, o.Item)
		if !ok {
			dropped++
			continue
		}
		out = append(out, model.CleanedObservation{
			Moniker:  o.Moniker,
			Block:    o.Block,
			Variable: name,
			Answer:   o.Answer,
			Time:     o.Time,
			Seq:      o.Seq,
		})
	}

	metrics.RecordRowsDropped(metrics.ReasonUnknownItem, dropped)
	logger.Named("remap").Info(ctx, "remapped observations",
		logger.Int("in", len(obs)),
		logger.Int("out", len(out)),
		logger.Int("unknownItem", dropped),
	)
	return out, dropped
}
