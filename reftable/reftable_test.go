package reftable_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/reftable"
)

func hv(i int) fingerprint.Hv {
	return fingerprint.FromBytes([]byte(fmt.Sprintf("key-%06d", i)))
}

// S1: basic put/get/remove round trip across a resize.
func TestS1_Basic(t *testing.T) {
	t.Parallel()

	tbl, err := reftable.New(dict.Options{MinSize: 16})
	require.NoError(t, err)

	for i := 1; i <= 1000; i++ {
		old, found := tbl.Put(hv(i), i)
		require.False(t, found)
		require.Nil(t, old)
	}

	for i := 1; i <= 1000; i++ {
		item, found := tbl.Get(hv(i))
		require.True(t, found)
		require.Equal(t, i, item)
	}

	for i := 1; i <= 500; i++ {
		_, found := tbl.Remove(hv(i))
		require.True(t, found)
	}

	for i := 1; i <= 1000; i++ {
		item, found := tbl.Get(hv(i))
		if i <= 500 {
			require.False(t, found)
		} else {
			require.True(t, found)
			require.Equal(t, i, item)
		}
	}

	require.EqualValues(t, 500, tbl.Len())
}

// S2: create-epoch survives overwrite of a live record; reinsertion after
// a delete gets a fresh epoch, producing the documented ordering.
func TestS2_Ordering(t *testing.T) {
	t.Parallel()

	tbl, err := reftable.New(dict.Options{MinSize: 16})
	require.NoError(t, err)

	for i := 1; i <= 100; i++ {
		tbl.Put(hv(i), i)
	}

	for i := 1; i <= 50; i++ {
		tbl.Remove(hv(i))
	}

	for i := 1; i <= 100; i++ {
		tbl.Put(hv(i), i)
	}

	view := tbl.View(true)
	require.Len(t, view, 100)

	got := make([]int, len(view))
	for i, e := range view {
		got[i] = e.Item.(int)
	}

	want := make([]int, 0, 100)
	for i := 51; i <= 100; i++ {
		want = append(want, i)
	}

	for i := 1; i <= 50; i++ {
		want = append(want, i)
	}

	require.Equal(t, want, got)
}

// S3: add semantics.
func TestS3_AddSemantics(t *testing.T) {
	t.Parallel()

	tbl, err := reftable.New(dict.Options{MinSize: 16})
	require.NoError(t, err)

	for i := 1; i <= 100; i++ {
		require.True(t, tbl.Add(hv(i), i))
	}

	for i := 1; i <= 100; i++ {
		require.False(t, tbl.Add(hv(i), -i))
	}

	for i := 1; i <= 100; i++ {
		item, found := tbl.Get(hv(i))
		require.True(t, found)
		require.Equal(t, i, item)
	}

	for i := 1; i <= 100; i++ {
		_, found := tbl.Remove(hv(i))
		require.True(t, found)
	}

	for i := 1; i <= 100; i++ {
		require.True(t, tbl.Add(hv(i), i+1))
	}

	for i := 1; i <= 100; i++ {
		item, found := tbl.Get(hv(i))
		require.True(t, found)
		require.Equal(t, i+1, item)
	}
}

func TestReplace_OnlyIfPresent(t *testing.T) {
	t.Parallel()

	tbl, err := reftable.New(dict.Options{MinSize: 16})
	require.NoError(t, err)

	_, found := tbl.Replace(hv(1), "x")
	require.False(t, found)

	tbl.Put(hv(1), "a")

	old, found := tbl.Replace(hv(1), "b")
	require.True(t, found)
	require.Equal(t, "a", old)

	item, _ := tbl.Get(hv(1))
	require.Equal(t, "b", item)
}

func TestLen_TracksTombstones(t *testing.T) {
	t.Parallel()

	tbl, err := reftable.New(dict.Options{MinSize: 16})
	require.NoError(t, err)

	for i := 1; i <= 10; i++ {
		tbl.Put(hv(i), i)
	}

	require.EqualValues(t, 10, tbl.Len())

	tbl.Remove(hv(1))
	require.EqualValues(t, 9, tbl.Len())
}

func TestMigration_PreservesAllEntries(t *testing.T) {
	t.Parallel()

	tbl, err := reftable.New(dict.Options{MinSize: 16})
	require.NoError(t, err)

	const n = 5000

	for i := range n {
		tbl.Put(hv(i), i)
	}

	require.EqualValues(t, n, tbl.Len())

	for i := range n {
		item, found := tbl.Get(hv(i))
		require.True(t, found)
		require.Equal(t, i, item)
	}
}

func TestSnapshot_ReturnsMonotonicEpoch(t *testing.T) {
	t.Parallel()

	tbl, err := reftable.New(dict.Options{MinSize: 16})
	require.NoError(t, err)

	for i := 1; i <= 10; i++ {
		tbl.Put(hv(i), i)
	}

	entries, nextEpoch := tbl.Snapshot()
	require.Len(t, entries, 10)
	require.EqualValues(t, 10, nextEpoch)
}
