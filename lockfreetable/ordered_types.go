package lockfreetable

import (
	"sync/atomic"

	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/internal/storemath"
	"github.com/calvinalkan/epochtable/smr"
)

// orderedRecord is one link in a bucket's reverse-temporal history.
// next is set once, at construction, to the head this record displaced,
// and is never mutated afterward. The chain below any published head
// is immutable, so walking it needs no synchronization beyond holding an
// SMR reservation that keeps the head's store alive.
type orderedRecord struct {
	smr.Header

	item    any
	deleted bool
	moving  bool
	moved   bool
	next    *orderedRecord
}

type orderedBucket struct {
	hv   atomic.Pointer[fingerprint.Hv]
	head atomic.Pointer[orderedRecord]
}

type orderedStore struct {
	lastSlot  uint64
	threshold uint64
	buckets   []orderedBucket
	used      atomic.Uint64
	del       atomic.Uint64
	storeNext atomic.Pointer[orderedStore]
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

	panic("lockfreetable: ordered store probe wrapped without finding hv or an unused bucket")
}

// findAsOf walks a bucket's reverse-temporal chain for the newest record
// whose write epoch is not after target.
func findAsOf(head *orderedRecord, target uint64) *orderedRecord {
	for r := head; r != nil; r = r.next {
		if r.WriteEpoch() <= target {
			return r
		}
	}

	return nil
}
