package lockfreetable

import "github.com/calvinalkan/epochtable/internal/storemath"

// migrate grows the table. Unlike locktable's single-winner-holds-a-mutex
// protocol, any number of threads may be inside migrate for the same old
// store at once; every step below is a CAS that either this caller or a
// concurrent caller can win, and losing a step just means the work was
// already done. old must be the store the caller observed as current
// when it decided to migrate (guards against an already-superseded
// migrate call doing redundant work, though even that would be safe).
func (t *Unordered) migrate(id int, old *unorderedStore) {
	if t.store.Load() != old {
		return // already migrated past this store
	}

	// Freeze phase: CAS every bucket's record to a twin with moving set.
	// After this loop, no further writes to old can land.
	for i := range old.buckets {
		b := &old.buckets[i]

		for {
			rec := b.rec.Load()
			if rec != nil && rec.moving {
				break
			}

			// An empty bucket freezes as a tombstone, so the copy phase
			// only marks it moved instead of copying a value it never held.
			frozen := &unorderedRecord{moving: true, deleted: true}
			if rec != nil {
				frozen.item, frozen.deleted = rec.item, rec.deleted
				t.smr.CloneHeader(&frozen.Header, &rec.Header)
			}

			if b.rec.CompareAndSwap(rec, frozen) {
				if rec != nil {
					t.smr.RetireStandard(id, func() { _ = rec })
				}

				break
			}
		}
	}

	// Install-successor phase.
	next := old.storeNext.Load()
	if next == nil {
		live := old.used.Load() - old.del.Load()
		size := storemath.NewSize(old.lastSlot+1, live, t.helpNeeded.Load() > 0)
		candidate := newUnorderedStore(size)

		if old.storeNext.CompareAndSwap(nil, candidate) {
			next = candidate
		} else {
			t.smr.RetireUnused(func() { _ = candidate })

			next = old.storeNext.Load()
		}
	}

	// Copy phase: every source bucket becomes MOVED exactly once; losing
	// the destination-install CAS is itself success, since it means some
	// other thread already copied this bucket across.
	for i := range old.buckets {
		b := &old.buckets[i]

		for {
			rec := b.rec.Load()
			if rec == nil || rec.moved {
				break
			}

			if rec.deleted {
				moved := &unorderedRecord{item: rec.item, deleted: true, moving: true, moved: true}
				t.smr.CloneHeader(&moved.Header, &rec.Header)

				if b.rec.CompareAndSwap(rec, moved) {
					t.smr.RetireStandard(id, func() { _ = rec })

					break
				}

				continue
			}

			hv := b.hv.Load()

			didx, _ := next.probe(*hv)
			nb := &next.buckets[didx]

			if nb.hv.Load() == nil {
				hvCopy := *hv
				nb.hv.CompareAndSwap(nil, &hvCopy)
			}

			if cur := nb.hv.Load(); cur == nil || !cur.Equal(*hv) {
				// Another key claimed this destination slot first (two
				// source buckets can race for the same home index). Our
				// probe is now stale; re-probe from the top of the loop
				// instead of installing our record under someone else's
				// fingerprint.
				continue
			}

			clone := &unorderedRecord{item: rec.item, deleted: rec.deleted}
			t.smr.CloneHeader(&clone.Header, &rec.Header)

			if nb.rec.CompareAndSwap(nil, clone) {
				next.used.Add(1)
			}

			moved := &unorderedRecord{item: rec.item, deleted: rec.deleted, moving: true, moved: true}
			t.smr.CloneHeader(&moved.Header, &rec.Header)

			if b.rec.CompareAndSwap(rec, moved) {
				t.smr.RetireStandard(id, func() { _ = rec })

				break
			}
		}
	}

	if t.store.CompareAndSwap(old, next) {
		t.smr.RetireStandard(id, func() { _ = old })
	}
}
