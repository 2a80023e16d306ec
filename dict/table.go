// Package dict defines the uniform key/value dictionary contract every
// epochtable table variant implements, plus the handful of types shared
// across variants: entries, view-consistency modes, and construction
// options. It owns no concurrency machinery itself; that lives in [smr]
// and in each variant's own package. This package is only the vocabulary
// they agree on.
package dict

import "github.com/calvinalkan/epochtable/fingerprint"

// Table is the dictionary protocol implemented by every variant:
// [github.com/calvinalkan/epochtable/reftable.Table],
// [github.com/calvinalkan/epochtable/locktable.Unordered]/Ordered,
// [github.com/calvinalkan/epochtable/lockfreetable.Unordered]/Ordered, and
// [github.com/calvinalkan/epochtable/adaptive.Table].
//
// Keys are never stored; identity is the 128-bit [fingerprint.Hv] the
// caller derives from its own key before every call. A nil item is a
// valid value; "found" is the only way to distinguish "stored nil" from
// "absent."
type Table interface {
	// Get returns the item stored for hv, or (nil, false) if absent.
	Get(hv fingerprint.Hv) (item any, found bool)

	// Put stores item for hv unconditionally, returning the item it
	// displaced (nil, false if hv was previously absent or tombstoned).
	Put(hv fingerprint.Hv, item any) (old any, found bool)

	// Replace stores item for hv only if a live record already exists.
	// Returns (nil, false) without effect if hv is absent or tombstoned.
	Replace(hv fingerprint.Hv, item any) (old any, found bool)

	// Add stores item for hv only if no live record currently exists
	// (absent or tombstoned both qualify). Returns true iff it stored.
	Add(hv fingerprint.Hv, item any) bool

	// Remove tombstones hv's record, returning the item it removed
	// (nil, false if hv was already absent or tombstoned).
	Remove(hv fingerprint.Hv) (old any, found bool)

	// Len returns the number of live (non-tombstoned) records.
	Len() uint64

	// View returns every live (hv, item) pair as of some consistent
	// moment, paired with the sort epoch [Entry.SortEpoch] callers can
	// use to recover insertion order. If sortResult is true, the returned
	// slice is ordered by non-decreasing SortEpoch.
	View(sortResult bool) []Entry
}
