package lockfreetable

import (
	"sync/atomic"

	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/internal/storemath"
	"github.com/calvinalkan/epochtable/smr"
)

// unorderedRecord is the immutable allocation a bucket's record slot
// points to. moving and moved are plain fields on the value the pointer
// references rather than tag bits packed into the pointer itself, since
// the record is never mutated after CAS-publication anyway.
type unorderedRecord struct {
	smr.Header

	item    any
	deleted bool
	moving  bool
	moved   bool
}

type unorderedBucket struct {
	hv  atomic.Pointer[fingerprint.Hv]
	rec atomic.Pointer[unorderedRecord]
}

// unorderedStore is a fixed-size bucket array. storeNext is the
// one-shot install-or-observe slot the migration protocol races to
// fill; once non-nil it never changes.
type unorderedStore struct {
	lastSlot  uint64
	threshold uint64
	buckets   []unorderedBucket
	used      atomic.Uint64
	del       atomic.Uint64
	storeNext atomic.Pointer[unorderedStore]
}

func newUnorderedStore(size uint64) *unorderedStore {
	return &unorderedStore{
		lastSlot:  size - 1,
		threshold: storemath.ComputeThreshold(size),
		buckets:   make([]unorderedBucket, size),
	}
}

// probe locates hv's bucket, returning its index and whether hv is
// already claimed there. Buckets mid-migration are still found by hv,
// since the moving/moved flags live on the record rather than the hv
// slot; callers decide what to do once they load the record.
func (s *unorderedStore) probe(hv fingerprint.Hv) (idx uint64, found bool) {
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

	panic("lockfreetable: unordered store probe wrapped without finding hv or an unused bucket")
}
