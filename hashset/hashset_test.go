package hashset_test

import (
	"fmt"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/hashset"
)

func hv(i int) fingerprint.Hv {
	return fingerprint.FromBytes([]byte(fmt.Sprintf("key-%06d", i)))
}

func fill(t *testing.T, from, to int) *hashset.Set {
	t.Helper()

	s, err := hashset.New(dict.Options{MinSize: 16})
	require.NoError(t, err)

	for i := from; i <= to; i++ {
		s.Add(hv(i), i)
	}

	return s
}

func hvs(entries []dict.Entry) []fingerprint.Hv {
	out := make([]fingerprint.Hv, len(entries))
	for i, e := range entries {
		out[i] = e.Hv
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Hi != out[j].Hi {
			return out[i].Hi < out[j].Hi
		}

		return out[i].Lo < out[j].Lo
	})

	return out
}

func TestSet_IsEq(t *testing.T) {
	t.Parallel()

	a := fill(t, 1, 10)
	b := fill(t, 1, 10)
	c := fill(t, 1, 9)

	require.True(t, a.IsEq(b))
	require.False(t, a.IsEq(c))
}

func TestSet_SupersetSubset(t *testing.T) {
	t.Parallel()

	a := fill(t, 1, 20)
	b := fill(t, 1, 10)

	require.True(t, a.IsSuperset(b, false))
	require.True(t, a.IsSuperset(b, true))
	require.False(t, b.IsSuperset(a, false))

	require.True(t, b.IsSubset(a, true))
	require.True(t, a.IsSuperset(a, false))
	require.False(t, a.IsSuperset(a, true))
}

func TestSet_Disjoint(t *testing.T) {
	t.Parallel()

	a := fill(t, 1, 10)
	b := fill(t, 11, 20)
	c := fill(t, 10, 15)

	require.True(t, a.IsDisjoint(b))
	require.False(t, a.IsDisjoint(c))
}

func TestSet_Difference(t *testing.T) {
	t.Parallel()

	a := fill(t, 1, 10)
	b := fill(t, 5, 15)

	diff := a.Difference(b)

	want := make([]dict.Entry, 0, 4)
	for i := 1; i <= 4; i++ {
		want = append(want, dict.Entry{Hv: hv(i)})
	}

	if diff := cmp.Diff(hvs(want), hvs(diff)); diff != "" {
		t.Errorf("Difference mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_Intersection(t *testing.T) {
	t.Parallel()

	a := fill(t, 1, 10)
	b := fill(t, 5, 15)

	inter := a.Intersection(b)

	want := make([]dict.Entry, 0, 6)
	for i := 5; i <= 10; i++ {
		want = append(want, dict.Entry{Hv: hv(i)})
	}

	if diff := cmp.Diff(hvs(want), hvs(inter)); diff != "" {
		t.Errorf("Intersection mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_Union(t *testing.T) {
	t.Parallel()

	a := fill(t, 1, 10)
	b := fill(t, 5, 15)

	union := a.Union(b)

	want := make([]fingerprint.Hv, 0, 15)
	for i := 1; i <= 15; i++ {
		want = append(want, hv(i))
	}

	got := make([]fingerprint.Hv, len(union))
	for i, e := range union {
		got[i] = e.Hv
	}

	sortedGot := append([]fingerprint.Hv(nil), got...)
	sort.Slice(sortedGot, func(i, j int) bool {
		if sortedGot[i].Hi != sortedGot[j].Hi {
			return sortedGot[i].Hi < sortedGot[j].Hi
		}

		return sortedGot[i].Lo < sortedGot[j].Lo
	})

	sortedWant := append([]fingerprint.Hv(nil), want...)
	sort.Slice(sortedWant, func(i, j int) bool {
		if sortedWant[i].Hi != sortedWant[j].Hi {
			return sortedWant[i].Hi < sortedWant[j].Hi
		}

		return sortedWant[i].Lo < sortedWant[j].Lo
	})

	if diff := cmp.Diff(sortedWant, sortedGot, cmpopts.EquateComparable()); diff != "" {
		t.Errorf("Union mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, union, 15)
}

func TestSet_Disjunction(t *testing.T) {
	t.Parallel()

	a := fill(t, 1, 10)
	b := fill(t, 5, 15)

	disj := a.Disjunction(b)

	want := make([]dict.Entry, 0, 9)
	for i := 1; i <= 4; i++ {
		want = append(want, dict.Entry{Hv: hv(i)})
	}

	for i := 11; i <= 15; i++ {
		want = append(want, dict.Entry{Hv: hv(i)})
	}

	if diff := cmp.Diff(hvs(want), hvs(disj)); diff != "" {
		t.Errorf("Disjunction mismatch (-want +got):\n%s", diff)
	}
}
