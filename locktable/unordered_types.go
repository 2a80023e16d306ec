package locktable

import (
	"sync"
	"sync/atomic"

	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/internal/storemath"
	"github.com/calvinalkan/epochtable/smr"
)

// unorderedRecord is the single value-bearing allocation an
// unorderedBucket ever points to at once. Overwriting a bucket retires its
// previous record via SMR rather than mutating it in place, so a reader
// that already loaded the old pointer keeps a consistent view. The
// embedded [smr.Header] carries create/write epoch metadata.
type unorderedRecord struct {
	smr.Header

	item    any
	deleted bool
}

// unorderedBucket holds exactly one record slot behind an atomic pointer,
// so reads never need the bucket's mutex; only writers and the
// migration protocol take it.
type unorderedBucket struct {
	mu sync.Mutex

	// hv is written once (while mu is held, the first time this bucket is
	// claimed) and never cleared within a store's lifetime. Readers load
	// it without the lock; the atomic publish is what makes that safe.
	hv atomic.Pointer[fingerprint.Hv]

	rec atomic.Pointer[unorderedRecord]

	// migrated is set by the migration protocol while holding mu. A
	// writer that observes it after acquiring mu must release and retry
	// against the table's current store.
	migrated atomic.Bool
}

// unorderedStore is a fixed-size bucket array. Locked migration is
// serialized by Unordered.migrateMu, so (unlike the lock-free variants)
// there is never a race to install a successor store and no store_next
// slot is needed.
type unorderedStore struct {
	lastSlot  uint64
	threshold uint64
	buckets   []unorderedBucket
	used      atomic.Uint64
	del       atomic.Uint64
}

func newUnorderedStore(size uint64) *unorderedStore {
	return &unorderedStore{
		lastSlot:  size - 1,
		threshold: storemath.ComputeThreshold(size),
		buckets:   make([]unorderedBucket, size),
	}
}

// probe locates hv's bucket, returning its index and whether hv is
// already claimed there. Never blocks; hv is read atomically.
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

	panic("locktable: unordered store probe wrapped without finding hv or an unused bucket")
}
