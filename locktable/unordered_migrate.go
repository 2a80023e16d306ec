package locktable

import "github.com/calvinalkan/epochtable/internal/storemath"

// migrate grows the table. It is called by whichever writer's insertion
// pushed used past threshold; migrateMu ensures only one migration runs
// at a time; every other writer either already finished observing the
// pre-migration store or will retry once it sees its bucket marked
// migrated.
func (t *Unordered) migrate(id int) {
	t.migrateMu.Lock()
	defer t.migrateMu.Unlock()

	old := t.store.Load()
	if old.used.Load() <= old.threshold {
		return // another writer already migrated; nothing to do
	}

	// Lock every bucket simultaneously. This both gives us a consistent
	// live count and drains any writer currently blocked waiting for one
	// of these locks; they'll see migrated=true once we set it below and
	// retry against the new store.
	for i := range old.buckets {
		old.buckets[i].mu.Lock()
	}

	live := old.used.Load() - old.del.Load()
	next := newUnorderedStore(storemath.NewSize(old.lastSlot+1, live, false))

	for i := range old.buckets {
		b := &old.buckets[i]
		b.migrated.Store(true)

		hv := b.hv.Load()
		if hv == nil {
			continue
		}

		rec := b.rec.Load()
		if rec == nil || rec.deleted {
			if rec != nil {
				t.smr.RetireStandard(id, func() { _ = rec })
			}

			continue
		}

		idx, _ := next.probe(*hv)
		nb := &next.buckets[idx]

		hvCopy := *hv
		nb.hv.Store(&hvCopy)
		nb.rec.Store(rec)
		next.used.Add(1)
	}

	t.store.Store(next)

	for i := range old.buckets {
		old.buckets[i].mu.Unlock()
	}

	t.smr.RetireStandard(id, func() { _ = old })
}
