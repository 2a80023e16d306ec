// Package reftable implements the single-threaded reference dictionary:
// the baseline used both as a correctness oracle for the concurrent
// variants and as the initial state of
// [github.com/calvinalkan/epochtable/adaptive.Table] before any writer
// contention has been observed.
//
// Table is NOT safe for concurrent use. It carries no locks, no atomics,
// and no SMR reservation; every operation is a plain linear probe
// against an in-process slice.
package reftable

import (
	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/internal/storemath"
)

// Table is the single-threaded reference implementation of [dict.Table].
type Table struct {
	store     *store
	nextEpoch uint64
}

// compile-time interface satisfaction check.
var _ dict.Table = (*Table)(nil)

// New constructs an empty Table.
func New(opts dict.Options) (*Table, error) {
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	return &Table{store: newStore(norm.MinSize)}, nil
}

// Get returns the item stored for hv, or (nil, false) if absent.
func (t *Table) Get(hv fingerprint.Hv) (any, bool) {
	idx, found := t.store.probe(hv)
	if !found {
		return nil, false
	}

	b := &t.store.buckets[idx]
	if b.deleted {
		return nil, false
	}

	return b.item, true
}

// Put stores item for hv unconditionally, returning the item it
// displaced.
func (t *Table) Put(hv fingerprint.Hv, item any) (any, bool) {
	return t.set(hv, item, setPut)
}

// Replace stores item for hv only if a live record already exists.
func (t *Table) Replace(hv fingerprint.Hv, item any) (any, bool) {
	return t.set(hv, item, setReplace)
}

// Add stores item for hv only if no live record currently exists.
func (t *Table) Add(hv fingerprint.Hv, item any) bool {
	_, found := t.set(hv, item, setAdd)

	return found
}

// Remove tombstones hv's record, returning the item it removed.
func (t *Table) Remove(hv fingerprint.Hv) (any, bool) {
	idx, found := t.store.probe(hv)
	if !found {
		return nil, false
	}

	b := &t.store.buckets[idx]
	if b.deleted {
		return nil, false
	}

	old := b.item
	b.item = nil
	b.deleted = true
	t.store.del++

	return old, true
}

// Len returns the number of live records.
func (t *Table) Len() uint64 {
	return t.store.used - t.store.del
}

// View returns every live entry. The reference table has nothing to
// linearize against, since it is single-threaded, so the snapshot is
// always exactly consistent; sortResult only controls output order.
func (t *Table) View(sortResult bool) []dict.Entry {
	entries := make([]dict.Entry, 0, t.Len())

	for i := range t.store.buckets {
		b := &t.store.buckets[i]
		if b.hv.IsZero() || b.deleted {
			continue
		}

		entries = append(entries, dict.Entry{Hv: b.hv, Item: b.item, SortEpoch: b.epoch})
	}

	if sortResult {
		dict.SortByEpoch(entries)
	}

	return entries
}

// setKind distinguishes Put/Replace/Add's otherwise-identical probe path.
type setKind int

const (
	setPut setKind = iota
	setReplace
	setAdd
)

func (t *Table) set(hv fingerprint.Hv, item any, kind setKind) (any, bool) {
	idx, found := t.store.probe(hv)
	b := &t.store.buckets[idx]

	if found && !b.deleted {
		switch kind {
		case setAdd:
			return nil, false
		case setPut, setReplace:
			old := b.item
			b.item = item
			// Overwriting a live record inherits its create epoch (open
			// question #1, resolved for reftable: only a live record's
			// create epoch survives).
			return old, true
		}
	}

	if kind == setReplace {
		return nil, false
	}

	wasTombstone := found && b.deleted

	if !found {
		if t.store.used+1 > t.store.threshold {
			t.migrate()
			idx, _ = t.store.probe(hv) // hv is still absent; migration preserves that
		}

		b = &t.store.buckets[idx]
		b.hv = hv
		t.store.used++
	}

	b.item = item
	b.deleted = false
	b.epoch = t.nextEpoch
	t.nextEpoch++

	if wasTombstone {
		t.store.del--
	}

	// No live record was displaced. Add reports that it stored.
	return nil, kind == setAdd
}

// migrate rehashes every live entry into a freshly sized store. Growth
// is synchronous: it happens on the writer's own goroutine the instant
// an insertion would cross the resize threshold.
func (t *Table) migrate() {
	live := t.Len()
	next := newStore(storemath.NewSize(t.store.lastSlot+1, live+1, false))

	for i := range t.store.buckets {
		b := &t.store.buckets[i]
		if b.hv.IsZero() || b.deleted {
			continue
		}

		idx, _ := next.probe(b.hv)
		next.buckets[idx] = *b
		next.used++
	}

	t.store = next
}

// Snapshot returns every live entry (in insertion order) and the current
// next_epoch counter, for
// [github.com/calvinalkan/epochtable/adaptive.Table] to seed a concurrent
// variant with when it detects writer contention.
func (t *Table) Snapshot() (entries []dict.Entry, nextEpoch uint64) {
	entries = t.View(true)

	return entries, t.nextEpoch
}
