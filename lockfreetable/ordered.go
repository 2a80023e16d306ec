package lockfreetable

import (
	"sync/atomic"

	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/internal/storemath"
	"github.com/calvinalkan/epochtable/smr"
)

// Ordered is the lock-free table whose View is a true linearized
// snapshot: each bucket's reverse-temporal chain lets a view taken at
// epoch E reconstruct what was live at E, not just what's live now.
type Ordered struct {
	opts dict.Options
	smr  *smr.Manager

	store atomic.Pointer[orderedStore]

	helpNeeded atomic.Int64
}

var _ dict.Table = (*Ordered)(nil)

// NewOrdered constructs an empty Ordered table.
func NewOrdered(opts dict.Options) (*Ordered, error) {
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mgr, err := smr.NewManager(smr.Options{MaxThreads: norm.MaxThreads})
	if err != nil {
		return nil, err
	}

	t := &Ordered{opts: norm, smr: mgr}
	t.store.Store(newOrderedStore(norm.MinSize))

	return t, nil
}

// NewOrderedSeeded builds an Ordered table pre-populated with entries,
// for the adaptive table's one-shot migration off the single-threaded
// reference implementation. See [NewUnorderedSeeded] for the epoch
// contract.
func NewOrderedSeeded(opts dict.Options, entries []dict.Entry, baselineEpoch uint64) (*Ordered, error) {
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mgr, err := smr.NewManager(smr.Options{MaxThreads: norm.MaxThreads})
	if err != nil {
		return nil, err
	}

	t := &Ordered{opts: norm, smr: mgr}
	t.store.Store(newOrderedStore(storemath.NewSize(norm.MinSize, uint64(len(entries)), false)))
	mgr.FastForward(baselineEpoch)

	store := t.store.Load()
	for _, e := range entries {
		idx, _ := store.probe(e.Hv)
		b := &store.buckets[idx]

		hvCopy := e.Hv
		b.hv.Store(&hvCopy)
		store.used.Add(1)

		rec := &orderedRecord{item: e.Item}
		mgr.SetCreateEpoch(&rec.Header, e.SortEpoch)
		mgr.CommitWrite(&rec.Header)
		b.head.Store(rec)
	}

	return t, nil
}

// Get returns the most recently written live item for hv.
func (t *Ordered) Get(hv fingerprint.Hv) (item any, found bool) {
	t.smr.Do(func(id int) {
		t.smr.StartOp(id)
		defer t.smr.EndOp(id)

		store := t.store.Load()

		idx, ok := store.probe(hv)
		if !ok {
			return
		}

		head := store.buckets[idx].head.Load()
		if head == nil || head.deleted {
			return
		}

		item, found = head.item, true
	})

	return item, found
}

// Put stores item for hv unconditionally.
func (t *Ordered) Put(hv fingerprint.Hv, item any) (old any, found bool) {
	return t.write(hv, item, setPut)
}

// Replace stores item for hv only if a live record already exists.
func (t *Ordered) Replace(hv fingerprint.Hv, item any) (old any, found bool) {
	return t.write(hv, item, setReplace)
}

// Add stores item for hv only if no live record currently exists.
func (t *Ordered) Add(hv fingerprint.Hv, item any) bool {
	_, found := t.write(hv, item, setAdd)

	return found
}

// Remove tombstones hv's record.
func (t *Ordered) Remove(hv fingerprint.Hv) (old any, found bool) {
	return t.write(hv, nil, setRemove)
}

// Len returns the number of live records in the current store.
func (t *Ordered) Len() uint64 {
	store := t.store.Load()

	return store.used.Load() - store.del.Load()
}

// View returns a linearized snapshot at a single target epoch obtained
// from StartLinearizedOp. Because a record's write epoch is always
// stamped via CommitWrite before the CAS that publishes it, any head a
// reader can observe already carries its final write epoch, so this walk
// needs no extra step to materialize a concurrent writer's epoch before
// comparing against it.
func (t *Ordered) View(sortResult bool) []dict.Entry {
	var entries []dict.Entry

	t.smr.Do(func(id int) {
		t.smr.StartOp(id)
		defer t.smr.EndOp(id)

		target := t.smr.StartLinearizedOp(id)

		store := t.store.Load()
		entries = make([]dict.Entry, 0, store.used.Load())

		for i := range store.buckets {
			b := &store.buckets[i]

			hv := b.hv.Load()
			if hv == nil {
				continue
			}

			rec := findAsOf(b.head.Load(), target)
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

// write implements Put/Replace/Add/Remove by CAS-ing a new orderedRecord
// head whose next points at the previously observed head.
func (t *Ordered) write(hv fingerprint.Hv, item any, mode setMode) (old any, found bool) {
	t.smr.Do(func(id int) {
		retries := 0
		helping := false

		defer func() {
			if helping {
				t.helpNeeded.Add(-1)
			}
		}()

		retryAfterMigration := func(store *orderedStore) {
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
					continue
				}

				if store.used.Add(1) > store.threshold {
					retryAfterMigration(store)

					continue
				}
			}

			head := b.head.Load()
			if head != nil && head.moving {
				retryAfterMigration(store)

				continue
			}

			prevLive := head != nil && !head.deleted

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

			next := &orderedRecord{item: item, deleted: mode == setRemove, next: head}
			t.smr.CommitWrite(&next.Header)

			if prevLive {
				t.smr.CopyCreateEpoch(&next.Header, &head.Header)
			} else {
				t.smr.SetCreateEpoch(&next.Header, epoch)
			}

			if !b.head.CompareAndSwap(head, next) {
				if cur := b.head.Load(); cur != nil && cur.moving {
					retryAfterMigration(store)

					continue
				}

				old, found = item, true

				return
			}

			if prevLive {
				old, found = head.item, true

				if mode == setRemove {
					store.del.Add(1)
				}
			} else if head != nil && head.deleted {
				store.del.Add(^uint64(0))
			}

			if mode == setAdd {
				found = true // Add reports that it stored
			}

			return
		}
	})

	return old, found
}
