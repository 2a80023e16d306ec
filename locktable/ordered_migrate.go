package locktable

import "github.com/calvinalkan/epochtable/internal/storemath"

// migrate grows the table, mirroring [Unordered.migrate]. The new store
// only needs each bucket's current head record, not its full history:
// any View already in flight against the old store keeps it alive via
// SMR for as long as it needs the chain, and every View started after
// this migration requests a target epoch >= the migration itself, so a
// single-node chain suffices to answer it.
func (t *Ordered) migrate(id int) {
	t.migrateMu.Lock()
	defer t.migrateMu.Unlock()

	old := t.store.Load()
	if old.used.Load() <= old.threshold {
		return // another writer already migrated; nothing to do
	}

	for i := range old.buckets {
		old.buckets[i].mu.Lock()
	}

	live := old.used.Load() - old.del.Load()
	next := newOrderedStore(storemath.NewSize(old.lastSlot+1, live, false))

	for i := range old.buckets {
		b := &old.buckets[i]
		b.migrated.Store(true)

		hv := b.hv.Load()
		if hv == nil {
			continue
		}

		head := b.head.Load()
		if head == nil || head.deleted {
			continue
		}

		idx, _ := next.probe(*hv)
		nb := &next.buckets[idx]

		hvCopy := *hv
		nb.hv.Store(&hvCopy)

		nr := &chainRecord{item: head.item}
		t.smr.CloneHeader(&nr.Header, &head.Header)
		nb.head.Store(nr)
		next.used.Add(1)
	}

	t.store.Store(next)

	for i := range old.buckets {
		old.buckets[i].mu.Unlock()
	}

	t.smr.RetireStandard(id, func() { _ = old })
}
