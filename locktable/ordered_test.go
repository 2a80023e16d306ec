package locktable_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/locktable"
)

func TestOrdered_Basic(t *testing.T) {
	t.Parallel()

	tbl, err := locktable.NewOrdered(dict.Options{MinSize: 16})
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

	require.EqualValues(t, 500, tbl.Len())
}

// S2: create-epoch survives overwrite of a live record, and
// reinsertion after a delete gets a fresh epoch; the view's sort order
// reflects that.
func TestOrdered_EpochOrdering(t *testing.T) {
	t.Parallel()

	tbl, err := locktable.NewOrdered(dict.Options{MinSize: 16})
	require.NoError(t, err)

	for i := 1; i <= 100; i++ {
		tbl.Put(hv(i), i)
	}

	for i := 1; i <= 50; i++ {
		tbl.Remove(hv(i))
	}

	for i := 1; i <= 50; i++ {
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

func TestOrdered_AddSemantics(t *testing.T) {
	t.Parallel()

	tbl, err := locktable.NewOrdered(dict.Options{MinSize: 16})
	require.NoError(t, err)

	require.True(t, tbl.Add(hv(1), "a"))
	require.False(t, tbl.Add(hv(1), "b"))

	item, _ := tbl.Get(hv(1))
	require.Equal(t, "a", item)
}

func TestOrdered_ReplaceOnlyIfPresent(t *testing.T) {
	t.Parallel()

	tbl, err := locktable.NewOrdered(dict.Options{MinSize: 16})
	require.NoError(t, err)

	_, found := tbl.Replace(hv(1), "x")
	require.False(t, found)

	tbl.Put(hv(1), "a")

	old, found := tbl.Replace(hv(1), "b")
	require.True(t, found)
	require.Equal(t, "a", old)
}

// A view taken after several overwrites of one key returns only the
// newest record of that bucket's history chain.
func TestOrdered_ViewReflectsMostRecentState(t *testing.T) {
	t.Parallel()

	tbl, err := locktable.NewOrdered(dict.Options{MinSize: 16})
	require.NoError(t, err)

	tbl.Put(hv(1), "v1")
	tbl.Put(hv(1), "v2")
	tbl.Put(hv(1), "v3")

	view := tbl.View(false)
	require.Len(t, view, 1)
	require.Equal(t, "v3", view[0].Item)
}

func TestOrdered_MigrationPreservesAllEntries(t *testing.T) {
	t.Parallel()

	tbl, err := locktable.NewOrdered(dict.Options{MinSize: 16})
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

	view := tbl.View(false)
	require.Len(t, view, n)
}

// S4/S6: heavy concurrent writes to overlapping keys while a linearized
// view is repeatedly taken; the view must always be internally
// consistent (every entry's key distinct, count never exceeds the
// maximum possible live set) even while Len is moving underneath it.
func TestOrdered_ViewUnderConcurrentWrites(t *testing.T) {
	t.Parallel()

	tbl, err := locktable.NewOrdered(dict.Options{MinSize: 16})
	require.NoError(t, err)

	const (
		keys    = 64
		workers = 8
		rounds  = 300
	)

	var wg sync.WaitGroup

	stop := make(chan struct{})

	for w := range workers {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			for r := range rounds {
				k := hv((r + w) % keys)

				if r%4 == 0 {
					tbl.Remove(k)
				} else {
					tbl.Put(k, r)
				}
			}
		}(w)
	}

	go func() {
		defer close(stop)

		wg.Wait()
	}()

	for {
		view := tbl.View(false)

		seen := make(map[[2]uint64]bool, len(view))

		for _, e := range view {
			key := [2]uint64{e.Hv.Hi, e.Hv.Lo}
			require.False(t, seen[key], "duplicate key in linearized view")
			seen[key] = true
		}

		require.LessOrEqual(t, len(view), keys)

		select {
		case <-stop:
			return
		default:
		}
	}
}
