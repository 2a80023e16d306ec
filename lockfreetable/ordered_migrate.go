package lockfreetable

import "github.com/calvinalkan/epochtable/internal/storemath"

// migrate grows the table, mirroring [Unordered.migrate]. Only each
// bucket's current head is copied across. The successor store never
// needs the chain below it, since any view already walking that chain
// holds an SMR reservation that keeps the whole old store (and
// everything reachable from it) alive for as long as it needs, and any
// view started after this migration requests a target epoch at or after
// the migration itself.
func (t *Ordered) migrate(id int, old *orderedStore) {
	if t.store.Load() != old {
		return
	}

	for i := range old.buckets {
		b := &old.buckets[i]

		for {
			head := b.head.Load()
			if head != nil && head.moving {
				break
			}

			// An empty bucket freezes as a tombstone, so the copy phase
			// only marks it moved instead of copying a value it never held.
			frozen := &orderedRecord{moving: true, deleted: true}
			if head != nil {
				frozen.item, frozen.deleted, frozen.next = head.item, head.deleted, head.next
				t.smr.CloneHeader(&frozen.Header, &head.Header)
			}

			if b.head.CompareAndSwap(head, frozen) {
				break
			}
		}
	}

	next := old.storeNext.Load()
	if next == nil {
		live := old.used.Load() - old.del.Load()
		size := storemath.NewSize(old.lastSlot+1, live, t.helpNeeded.Load() > 0)
		candidate := newOrderedStore(size)

		if old.storeNext.CompareAndSwap(nil, candidate) {
			next = candidate
		} else {
			t.smr.RetireUnused(func() { _ = candidate })

			next = old.storeNext.Load()
		}
	}

	for i := range old.buckets {
		b := &old.buckets[i]

		for {
			head := b.head.Load()
			if head == nil || head.moved {
				break
			}

			if head.deleted {
				moved := &orderedRecord{item: head.item, deleted: true, moving: true, moved: true, next: head.next}
				t.smr.CloneHeader(&moved.Header, &head.Header)

				if b.head.CompareAndSwap(head, moved) {
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

			clone := &orderedRecord{item: head.item, deleted: head.deleted}
			t.smr.CloneHeader(&clone.Header, &head.Header)

			if nb.head.CompareAndSwap(nil, clone) {
				next.used.Add(1)
			}

			moved := &orderedRecord{item: head.item, deleted: head.deleted, moving: true, moved: true, next: head.next}
			t.smr.CloneHeader(&moved.Header, &head.Header)

			if b.head.CompareAndSwap(head, moved) {
				break
			}
		}
	}

	if t.store.CompareAndSwap(old, next) {
		t.smr.RetireStandard(id, func() { _ = old })
	}
}
