// Package hashset builds set algebra atop [lockfreetable.Ordered]'s
// linearized view. Every cross-set operation takes exactly one view from
// each operand up front and merges those two frozen snapshots. It never
// re-queries either table mid-algorithm, so the result reflects a single
// consistent epoch per operand even though the two sets are backed by
// independent tables with independent epoch spaces.
//
// Every algorithm below first sorts both views by fingerprint and merges
// them in one linear pass, except Union, which instead sorts the merged
// result by sort_epoch so the output preserves insertion order.
package hashset

import (
	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/lockfreetable"
)

// Set is a dictionary used as a set: membership is what matters, but the
// stored item travels along so Items can double as a keyed collection.
type Set struct {
	tbl *lockfreetable.Ordered
}

// New constructs an empty Set.
func New(opts dict.Options) (*Set, error) {
	tbl, err := lockfreetable.NewOrdered(opts)
	if err != nil {
		return nil, err
	}

	return &Set{tbl: tbl}, nil
}

// Contains reports whether hv is currently a live member.
func (s *Set) Contains(hv fingerprint.Hv) bool {
	_, found := s.tbl.Get(hv)

	return found
}

// Put stores item for hv unconditionally.
func (s *Set) Put(hv fingerprint.Hv, item any) (old any, found bool) {
	return s.tbl.Put(hv, item)
}

// Add stores item for hv only if hv is not already a member.
func (s *Set) Add(hv fingerprint.Hv, item any) bool {
	return s.tbl.Add(hv, item)
}

// Remove evicts hv.
func (s *Set) Remove(hv fingerprint.Hv) (old any, found bool) {
	return s.tbl.Remove(hv)
}

// Len returns the number of live members.
func (s *Set) Len() uint64 {
	return s.tbl.Len()
}

// Items returns every member without ordering guarantees beyond what a
// single linearized view provides (insertion order is NOT implied).
func (s *Set) Items() []dict.Entry {
	return s.tbl.View(false)
}

// ItemsSort returns every member ordered by insertion (create_epoch).
func (s *Set) ItemsSort() []dict.Entry {
	return s.tbl.View(true)
}

// byHv returns a linearized view of s sorted by fingerprint, the
// ordering every merge algorithm below requires.
func (s *Set) byHv() []dict.Entry {
	v := s.tbl.View(false)
	dict.SortByHv(v)

	return v
}

func hvLess(a, b fingerprint.Hv) bool {
	if a.Hi != b.Hi {
		return a.Hi < b.Hi
	}

	return a.Lo < b.Lo
}

// IsEq reports whether s and other contain exactly the same fingerprints.
func (s *Set) IsEq(other *Set) bool {
	a, b := s.byHv(), other.byHv()
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i].Hv != b[i].Hv {
			return false
		}
	}

	return true
}

// IsSuperset reports whether every member of other is a member of s. If
// proper is true, s must also contain at least one fingerprint other
// lacks.
func (s *Set) IsSuperset(other *Set, proper bool) bool {
	a, b := s.byHv(), other.byHv()

	i, j := 0, 0
	extra := false

	for i < len(a) && j < len(b) {
		switch {
		case hvLess(a[i].Hv, b[j].Hv):
			extra = true

			i++
		case hvLess(b[j].Hv, a[i].Hv):
			return false
		default:
			i++
			j++
		}
	}

	if j < len(b) {
		return false
	}

	extra = extra || i < len(a)

	if proper {
		return extra
	}

	return true
}

// IsSubset reports whether every member of s is a member of other. If
// proper is true, other must also contain at least one fingerprint s
// lacks.
func (s *Set) IsSubset(other *Set, proper bool) bool {
	return other.IsSuperset(s, proper)
}

// IsDisjoint reports whether s and other share no member.
func (s *Set) IsDisjoint(other *Set) bool {
	a, b := s.byHv(), other.byHv()

	i, j := 0, 0

	for i < len(a) && j < len(b) {
		switch {
		case hvLess(a[i].Hv, b[j].Hv):
			i++
		case hvLess(b[j].Hv, a[i].Hv):
			j++
		default:
			return false
		}
	}

	return true
}

// Difference returns the members of s that are not members of other.
func (s *Set) Difference(other *Set) []dict.Entry {
	a, b := s.byHv(), other.byHv()

	out := make([]dict.Entry, 0, len(a))

	i, j := 0, 0

	for i < len(a) {
		for j < len(b) && hvLess(b[j].Hv, a[i].Hv) {
			j++
		}

		if j < len(b) && a[i].Hv == b[j].Hv {
			i++

			continue
		}

		out = append(out, a[i])
		i++
	}

	return out
}

// Union returns every member present in s or other (or both), ordered
// by insertion epoch. When a fingerprint is present in both, s's item
// wins and s's sort_epoch is kept.
func (s *Set) Union(other *Set) []dict.Entry {
	a, b := s.byHv(), other.byHv()

	out := make([]dict.Entry, 0, len(a)+len(b))

	i, j := 0, 0

	for i < len(a) && j < len(b) {
		switch {
		case hvLess(a[i].Hv, b[j].Hv):
			out = append(out, a[i])
			i++
		case hvLess(b[j].Hv, a[i].Hv):
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}

	out = append(out, a[i:]...)
	out = append(out, b[j:]...)

	dict.SortByEpoch(out)

	return out
}

// Intersection returns the members present in both s and other. s's item
// wins for the returned entry.
func (s *Set) Intersection(other *Set) []dict.Entry {
	a, b := s.byHv(), other.byHv()

	out := make([]dict.Entry, 0, min(len(a), len(b)))

	i, j := 0, 0

	for i < len(a) && j < len(b) {
		switch {
		case hvLess(a[i].Hv, b[j].Hv):
			i++
		case hvLess(b[j].Hv, a[i].Hv):
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}

	return out
}

// Disjunction returns the members present in exactly one of s or other
// (the symmetric difference).
func (s *Set) Disjunction(other *Set) []dict.Entry {
	a, b := s.byHv(), other.byHv()

	out := make([]dict.Entry, 0, len(a)+len(b))

	i, j := 0, 0

	for i < len(a) && j < len(b) {
		switch {
		case hvLess(a[i].Hv, b[j].Hv):
			out = append(out, a[i])
			i++
		case hvLess(b[j].Hv, a[i].Hv):
			out = append(out, b[j])
			j++
		default:
			i++
			j++
		}
	}

	out = append(out, a[i:]...)
	out = append(out, b[j:]...)

	return out
}
