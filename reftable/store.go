package reftable

import (
	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/internal/storemath"
)

// bucket is a single reference-table slot. Unlike the concurrent
// variants there is exactly one bucket shape here: single-threaded access
// means no tagged pointers, no per-bucket locks, nothing but the fields
// the dictionary protocol needs.
type bucket struct {
	hv      fingerprint.Hv
	item    any
	epoch   uint64 // create epoch; doubles as the record's only epoch stamp
	deleted bool
}

// store is a fixed-size, power-of-two bucket array. Growth always
// replaces the whole store; a store's size never changes in place.
type store struct {
	lastSlot  uint64
	threshold uint64
	buckets   []bucket
	used      uint64 // buckets whose hv has ever been claimed in this store
	del       uint64 // tombstoned entries
}

func newStore(size uint64) *store {
	return &store{
		lastSlot:  size - 1,
		threshold: storemath.ComputeThreshold(size),
		buckets:   make([]bucket, size),
	}
}

// probe locates hv's bucket. found reports whether hv is already present
// in the store (live or tombstoned); idx is either that bucket's index or,
// if not found, the first unused bucket hv would be inserted into.
//
// A full wrap without finding a match or an unused bucket is an invariant
// violation: used_count < size is maintained by migrating before it can
// happen, so reaching the end of this loop means that invariant broke.
func (s *store) probe(hv fingerprint.Hv) (idx uint64, found bool) {
	bix := storemath.BucketIndex(hv.Lo, s.lastSlot)

	for range s.lastSlot + 1 {
		b := &s.buckets[bix]

		if b.hv.IsZero() {
			return bix, false
		}

		if b.hv.Equal(hv) {
			return bix, true
		}

		bix = storemath.NextIndex(bix, s.lastSlot)
	}

	panic("reftable: store probe wrapped without finding hv or an unused bucket")
}
