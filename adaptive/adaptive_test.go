package adaptive_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/epochtable/adaptive"
	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/fingerprint"
)

func hv(i int) fingerprint.Hv {
	return fingerprint.FromBytes([]byte(fmt.Sprintf("key-%06d", i)))
}

func TestAdaptive_SingleThreadedNeverMigrates(t *testing.T) {
	t.Parallel()

	tbl, err := adaptive.New(dict.Options{MinSize: 16}, adaptive.TargetLockfreeUnordered)
	require.NoError(t, err)

	for i := 1; i <= 100; i++ {
		tbl.Put(hv(i), i)
	}

	require.False(t, tbl.Migrated())
	require.EqualValues(t, 100, tbl.Len())
}

func TestAdaptive_BasicRoundTrip(t *testing.T) {
	t.Parallel()

	for _, target := range []adaptive.Target{
		adaptive.TargetLockedUnordered,
		adaptive.TargetLockedOrdered,
		adaptive.TargetLockfreeUnordered,
		adaptive.TargetLockfreeOrdered,
	} {
		tbl, err := adaptive.New(dict.Options{MinSize: 16}, target)
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

		require.EqualValues(t, 1000, tbl.Len())
	}
}

// S10: concurrent writers force the migration off the reference table;
// afterward every entry must still be reachable and ordering by
// create_epoch must be preserved across the transition.
func TestAdaptive_MigratesUnderContentionAndPreservesOrder(t *testing.T) {
	t.Parallel()

	tbl, err := adaptive.New(dict.Options{MinSize: 16}, adaptive.TargetLockfreeOrdered)
	require.NoError(t, err)

	for i := 1; i <= 50; i++ {
		tbl.Put(hv(i), i)
	}

	const (
		workers = 8
		perKey  = 50
	)

	var wg sync.WaitGroup

	for w := range workers {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			base := 51 + w*perKey

			for i := range perKey {
				tbl.Put(hv(base+i), base+i)
			}
		}(w)
	}

	wg.Wait()

	require.True(t, tbl.Migrated())
	require.EqualValues(t, 50+workers*perKey, tbl.Len())

	for i := 1; i <= 50+workers*perKey; i++ {
		item, found := tbl.Get(hv(i))
		require.True(t, found)
		require.Equal(t, i, item)
	}

	view := tbl.View(true)
	require.Len(t, view, 50+workers*perKey)

	for i, e := range view[:50] {
		require.Equal(t, i+1, e.Item, "pre-migration entries must keep their original create_epoch order")
	}
}
