package dict

import (
	"sort"

	"github.com/calvinalkan/epochtable/fingerprint"
)

// Entry is one (value, sort position) pair returned by [Table.View].
type Entry struct {
	// Hv is the fingerprint this entry was stored under.
	Hv fingerprint.Hv

	// Item is the stored value.
	Item any

	// SortEpoch is the record's create epoch: the epoch at which this key
	// first entered the table, inherited across overwrites. Sorting a
	// view by non-decreasing SortEpoch recovers insertion order even
	// across updates (see spec scenario S2).
	SortEpoch uint64
}

// SortByEpoch sorts entries in place by non-decreasing SortEpoch. Ties
// (impossible for distinct live keys under a single SMR instance, since
// create epochs are issued from one monotonic counter, but possible when
// merging views from independent tables) break by Hv for determinism.
func SortByEpoch(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SortEpoch != entries[j].SortEpoch {
			return entries[i].SortEpoch < entries[j].SortEpoch
		}

		if entries[i].Hv.Hi != entries[j].Hv.Hi {
			return entries[i].Hv.Hi < entries[j].Hv.Hi
		}

		return entries[i].Hv.Lo < entries[j].Hv.Lo
	})
}

// SortByHv sorts entries in place by fingerprint, the ordering every
// [github.com/calvinalkan/epochtable/hashset] algorithm merges on.
func SortByHv(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Hv.Hi != entries[j].Hv.Hi {
			return entries[i].Hv.Hi < entries[j].Hv.Hi
		}

		return entries[i].Hv.Lo < entries[j].Hv.Lo
	})
}
