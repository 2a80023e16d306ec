package locktable

import (
	"sync"
	"sync/atomic"

	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/internal/storemath"
	"github.com/calvinalkan/epochtable/smr"
)

// Ordered is the per-bucket-locked, multi-writer table whose View is a
// true linearized snapshot: every bucket keeps its reverse-temporal
// history of records, so a view taken at epoch E can reconstruct "what
// was live in this bucket at E" even if the bucket has since been
// overwritten many times.
type Ordered struct {
	opts dict.Options
	smr  *smr.Manager

	store atomic.Pointer[orderedStore]

	migrateMu sync.Mutex
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

		rec := &chainRecord{item: e.Item}
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

		b := &store.buckets[idx]

		b.mu.Lock()
		head := b.head.Load()
		b.mu.Unlock()

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

// View returns a linearized snapshot: the target epoch is fixed once
// via StartLinearizedOp, then every bucket's chain is walked to find the
// record that was current as of that epoch. Because writers always
// stamp write_epoch before publishing a new head (Ordered has no
// lock-free CAS race to recover from, unlike [lockfreetable]), no
// help-commit step is needed here.
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

			b.mu.Lock()
			rec := findAsOf(b.head.Load(), target)
			b.mu.Unlock()

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

// findAsOf walks a bucket's reverse-temporal chain for the newest record
// whose write epoch is not after target.
func findAsOf(head *chainRecord, target uint64) *chainRecord {
	for r := head; r != nil; r = r.next {
		if r.WriteEpoch() <= target {
			return r
		}
	}

	return nil
}

// write implements Put/Replace/Add/Remove by prepending a new chainRecord
// to the bucket's history.
func (t *Ordered) write(hv fingerprint.Hv, item any, mode setMode) (old any, found bool) {
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

			prev := b.head.Load()
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

			next := &chainRecord{item: item, deleted: mode == setRemove, next: prev}
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

			b.head.Store(next)
			b.mu.Unlock()

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
