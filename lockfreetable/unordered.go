package lockfreetable

import (
	"sync/atomic"

	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/internal/storemath"
	"github.com/calvinalkan/epochtable/smr"
)

// Unordered is the lock-free, wait-free-escalating table whose View
// offers no cross-bucket ordering guarantee: each bucket is read
// atomically, but the overall enumeration may be inconsistent under
// concurrent writes.
type Unordered struct {
	opts dict.Options
	smr  *smr.Manager

	store atomic.Pointer[unorderedStore]

	helpNeeded atomic.Int64
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
// it so sort ordering stays monotonic across the transition.
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

// Get returns the item stored for hv, or (nil, false) if absent. It
// never takes a lock and never blocks on a migration in progress; it
// simply reads whatever record is currently published.
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

// View returns every live entry without any cross-bucket consistency
// guarantee. Use [Ordered] when a linearized snapshot is required.
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

// write implements Put/Replace/Add/Remove as the CAS-based writer state
// machine: probe, claim the bucket if unused, build a candidate record,
// and CAS it into place. A lost hv claim re-probes the same store, and a
// bucket frozen by a concurrent migration retries against the table's
// current store; a lost record CAS on a bucket that is not frozen does
// not retry (see below). Once migrate-and-retry cycles reach
// opts.RetryThreshold, the writer registers with the help-needed counter
// so that the next migration is forced to double the store rather than
// size-fit it.
func (t *Unordered) write(hv fingerprint.Hv, item any, mode setMode) (old any, found bool) {
	t.smr.Do(func(id int) {
		retries := 0
		helping := false

		defer func() {
			if helping {
				t.helpNeeded.Add(-1)
			}
		}()

		retryAfterMigration := func(store *unorderedStore) {
			t.migrate(id, store)

			retries++
			if retries >= t.opts.RetryThreshold && !helping {
				helping = true

				t.helpNeeded.Add(1)
			}
		}

		for {
			store := t.store.Load()

			idx, claimed := store.probe(hv)
			b := &store.buckets[idx]

			if !claimed {
				hvCopy := hv
				if !b.hv.CompareAndSwap(nil, &hvCopy) {
					continue // lost the claim race; re-probe against this store
				}

				if store.used.Add(1) > store.threshold {
					retryAfterMigration(store)

					continue
				}
			}

			rec := b.rec.Load()
			if rec != nil && rec.moving {
				retryAfterMigration(store)

				continue
			}

			prevLive := rec != nil && !rec.deleted

			switch mode {
			case setAdd:
				if prevLive {
					return
				}
			case setReplace:
				if !prevLive {
					return
				}
			case setRemove:
				if !prevLive {
					return
				}
			case setPut:
			}

			epoch := t.smr.StartLinearizedOp(id)

			next := &unorderedRecord{item: item, deleted: mode == setRemove}
			t.smr.CommitWrite(&next.Header)

			if prevLive {
				t.smr.CopyCreateEpoch(&next.Header, &rec.Header)
			} else {
				t.smr.SetCreateEpoch(&next.Header, epoch)
			}

			if !b.rec.CompareAndSwap(rec, next) {
				if cur := b.rec.Load(); cur != nil && cur.moving {
					retryAfterMigration(store)

					continue
				}

				// Someone else's write landed first. Per the documented
				// linearization, treat ours as having happened immediately
				// before theirs: hand the caller their own item back and
				// report found=true rather than retrying, which could
				// reorder us after writes that logically followed ours.
				old, found = item, true

				return
			}

			if rec != nil {
				t.smr.RetireStandard(id, func() { _ = rec })
			}

			if prevLive {
				old, found = rec.item, true

				if mode == setRemove {
					store.del.Add(1)
				}
			} else if rec != nil && rec.deleted {
				store.del.Add(^uint64(0)) // -1: a tombstone became live again
			}

			if mode == setAdd {
				found = true // Add reports that it stored
			}

			return
		}
	})

	return old, found
}
