package locktable

import (
	"sync"
	"sync/atomic"

	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/internal/storemath"
	"github.com/calvinalkan/epochtable/smr"
)

// chainRecord is one link in an orderedBucket's reverse-temporal history:
// each record's write epoch is >= its successor's. New writes prepend;
// nothing is ever mutated in place once published.
type chainRecord struct {
	smr.Header

	item    any
	deleted bool
	next    *chainRecord
}

// orderedBucket keeps its whole history so [Ordered.View] can find,
// for any target epoch, the record that was current at that moment.
// Structural mutation (prepending a record) requires the bucket's mutex;
// a reader walking the chain takes the same mutex briefly, since chain
// traversal during a concurrent prepend is not safe without exclusion
// (the prepend only ever changes head->next links that are already
// published, but the head pointer swap itself needs a lock boundary to
// keep "head" and "the rest of the chain as of head" coherent for a
// walking reader).
type orderedBucket struct {
	mu sync.Mutex

	hv   atomic.Pointer[fingerprint.Hv]
	head atomic.Pointer[chainRecord]

	migrated atomic.Bool
}

type orderedStore struct {
	lastSlot  uint64
	threshold uint64
	buckets   []orderedBucket
	used      atomic.Uint64
	del       atomic.Uint64
}

func newOrderedStore(size uint64) *orderedStore {
	return &orderedStore{
		lastSlot:  size - 1,
		threshold: storemath.ComputeThreshold(size),
		buckets:   make([]orderedBucket, size),
	}
}

func (s *orderedStore) probe(hv fingerprint.Hv) (idx uint64, found bool) {
	bix := storemath.BucketIndex(hv.Lo, s.lastSlot)

	for range s.lastSlot + 1 {
		b := &s.buckets[bix]

		cur := b.hv.Load()
		if cur == nil {
			return bix, false
		}

		if cur.Equal(hv) {
			return bix, true
		}

		bix = storemath.NextIndex(bix, s.lastSlot)
	}

	panic("locktable: ordered store probe wrapped without finding hv or an unused bucket")
}
