package locktable

import (
	"sync"
	"sync/atomic"

	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/internal/storemath"
	"github.com/calvinalkan/epochtable/smr"
)

// Unordered is the per-bucket-locked, multi-writer table whose View
// offers no ordering guarantee beyond "each bucket observed atomically."
// Reads never take a bucket lock; they pin an SMR reservation and load
// the bucket's record pointer.
type Unordered struct {
	opts dict.Options
	smr  *smr.Manager

	store atomic.Pointer[unorderedStore]

	migrateMu sync.Mutex
}

var _ dict.Table = (*Unordered)(nil)

// NewUnordered constructs an empty Unordered table.
func NewUnordered(opts dict.Options) (*Unordered, error) {
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mgr, err := smr.NewManager(smr.Options{MaxThreads: norm.MaxThreads})
	if err != nil {
		return nil, err
	}

	t := &Unordered{opts: norm, smr: mgr}
	t.store.Store(newUnorderedStore(norm.MinSize))

	return t, nil
}

// NewUnorderedSeeded builds an Unordered table pre-populated with
// entries, for the adaptive table's one-shot migration off the
// single-threaded reference implementation. baselineEpoch must be >=
// every entry's SortEpoch; the table's SMR manager is fast-forwarded to
// it so sort ordering stays monotonic across the transition. entries
// must contain at most one record per distinct Hv.
func NewUnorderedSeeded(opts dict.Options, entries []dict.Entry, baselineEpoch uint64) (*Unordered, error) {
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mgr, err := smr.NewManager(smr.Options{MaxThreads: norm.MaxThreads})
	if err != nil {
		return nil, err
	}

	t := &Unordered{opts: norm, smr: mgr}
	t.store.Store(newUnorderedStore(storemath.NewSize(norm.MinSize, uint64(len(entries)), false)))
	mgr.FastForward(baselineEpoch)

	store := t.store.Load()
	for _, e := range entries {
		idx, _ := store.probe(e.Hv)
		b := &store.buckets[idx]

		hvCopy := e.Hv
		b.hv.Store(&hvCopy)
		store.used.Add(1)

		rec := &unorderedRecord{item: e.Item}
		mgr.SetCreateEpoch(&rec.Header, e.SortEpoch)
		mgr.CommitWrite(&rec.Header)
		b.rec.Store(rec)
	}

	return t, nil
}

// Get returns the item stored for hv, or (nil, false) if absent.
func (t *Unordered) Get(hv fingerprint.Hv) (item any, found bool) {
	t.smr.Do(func(id int) {
		t.smr.StartOp(id)
		defer t.smr.EndOp(id)

		store := t.store.Load()

		idx, ok := store.probe(hv)
		if !ok {
			return
		}

		rec := store.buckets[idx].rec.Load()
		if rec == nil || rec.deleted {
			return
		}

		item, found = rec.item, true
	})

	return item, found
}

// Put stores item for hv unconditionally.
func (t *Unordered) Put(hv fingerprint.Hv, item any) (old any, found bool) {
	return t.write(hv, item, setPut)
}

// Replace stores item for hv only if a live record already exists.
func (t *Unordered) Replace(hv fingerprint.Hv, item any) (old any, found bool) {
	return t.write(hv, item, setReplace)
}

// Add stores item for hv only if no live record currently exists.
func (t *Unordered) Add(hv fingerprint.Hv, item any) bool {
	_, found := t.write(hv, item, setAdd)

	return found
}

// Remove tombstones hv's record.
func (t *Unordered) Remove(hv fingerprint.Hv) (old any, found bool) {
	return t.write(hv, nil, setRemove)
}

// Len returns the number of live records in the current store.
func (t *Unordered) Len() uint64 {
	store := t.store.Load()

	return store.used.Load() - store.del.Load()
}

// View returns every live entry. Unordered makes no atomicity promise
// across buckets: the result is a possibly not atomically consistent
// enumeration, useful for diagnostics, not for set algebra.
func (t *Unordered) View(sortResult bool) []dict.Entry {
	var entries []dict.Entry

	t.smr.Do(func(id int) {
		t.smr.StartOp(id)
		defer t.smr.EndOp(id)

		store := t.store.Load()
		entries = make([]dict.Entry, 0, store.used.Load())

		for i := range store.buckets {
			hv := store.buckets[i].hv.Load()
			if hv == nil {
				continue
			}

			rec := store.buckets[i].rec.Load()
			if rec == nil || rec.deleted {
				continue
			}

			entries = append(entries, dict.Entry{Hv: *hv, Item: rec.item, SortEpoch: rec.CreateEpoch()})
		}
	})

	if sortResult {
		dict.SortByEpoch(entries)
	}

	return entries
}

type setMode int

const (
	setPut setMode = iota
	setReplace
	setAdd
	setRemove
)

// write implements Put/Replace/Add/Remove, which differ only in their
// precondition and in what candidate record they build.
func (t *Unordered) write(hv fingerprint.Hv, item any, mode setMode) (old any, found bool) {
	t.smr.Do(func(id int) {
		for {
			store := t.store.Load()

			idx, wasClaimed := store.probe(hv)
			b := &store.buckets[idx]

			b.mu.Lock()

			if b.migrated.Load() {
				b.mu.Unlock()

				continue // retry against the table's current store
			}

			if !wasClaimed && b.hv.Load() != nil {
				b.mu.Unlock()

				continue // claimed by another writer since our probe; re-probe
			}

			prev := b.rec.Load()
			prevLive := prev != nil && !prev.deleted

			switch mode {
			case setAdd:
				if prevLive {
					b.mu.Unlock()

					return
				}
			case setReplace:
				if !prevLive {
					b.mu.Unlock()

					return
				}
			case setRemove:
				if !prevLive {
					b.mu.Unlock()

					return
				}
			case setPut:
			}

			epoch := t.smr.StartLinearizedOp(id)

			next := &unorderedRecord{item: item, deleted: mode == setRemove}
			t.smr.CommitWrite(&next.Header)

			if prevLive {
				t.smr.CopyCreateEpoch(&next.Header, &prev.Header)
			} else {
				t.smr.SetCreateEpoch(&next.Header, epoch)
			}

			if !wasClaimed {
				hvCopy := hv
				b.hv.Store(&hvCopy)
				store.used.Add(1)
			}

			b.rec.Store(next)
			b.mu.Unlock()

			if prev != nil {
				t.smr.RetireStandard(id, func() { _ = prev })
			}

			if prevLive {
				old, found = prev.item, true

				if mode == setRemove {
					store.del.Add(1)
				}
			} else if prev != nil && prev.deleted {
				store.del.Add(^uint64(0)) // -1: a tombstone became live again
			}

			if mode == setAdd {
				found = true // Add reports that it stored
			}

			if !wasClaimed && store.used.Load() > store.threshold {
				t.migrate(id)
			}

			return
		}
	})

	return old, found
}
