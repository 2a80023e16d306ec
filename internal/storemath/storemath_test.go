package storemath_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/epochtable/internal/storemath"
)

func TestBucketIndex_WithinRange(t *testing.T) {
	t.Parallel()

	lastSlot := uint64(63) // size 64
	for lo := uint64(0); lo < 1000; lo++ {
		bix := storemath.BucketIndex(lo, lastSlot)
		require.LessOrEqual(t, bix, lastSlot)
	}
}

func TestNextIndex_Wraps(t *testing.T) {
	t.Parallel()

	lastSlot := uint64(7)
	require.Equal(t, uint64(0), storemath.NextIndex(7, lastSlot))
	require.Equal(t, uint64(5), storemath.NextIndex(4, lastSlot))
}

func TestComputeThreshold(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint64(48), storemath.ComputeThreshold(64))
	require.Equal(t, uint64(12), storemath.ComputeThreshold(16))
}

func TestNewSize_FittedGrowth(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint64(storemath.MinSize), storemath.NewSize(16, 1, false))
	require.Equal(t, uint64(64), storemath.NewSize(16, 30, false))
	require.Equal(t, uint64(256), storemath.NewSize(16, 100, false))
}

func TestNewSize_ForceDoubleIgnoresLiveCount(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint64(32), storemath.NewSize(16, 1, true))
	require.Equal(t, uint64(32), storemath.NewSize(16, 1_000_000, true))
}

func TestIsPowerOfTwo(t *testing.T) {
	t.Parallel()

	for _, n := range []uint64{1, 2, 4, 16, 1024} {
		require.True(t, storemath.IsPowerOfTwo(n))
	}

	for _, n := range []uint64{0, 3, 5, 100} {
		require.False(t, storemath.IsPowerOfTwo(n))
	}
}
