package dict_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/fingerprint"
)

func TestSortByEpoch(t *testing.T) {
	t.Parallel()

	entries := []dict.Entry{
		{Hv: fingerprint.Hv{Lo: 1}, Item: "c", SortEpoch: 3},
		{Hv: fingerprint.Hv{Lo: 2}, Item: "a", SortEpoch: 1},
		{Hv: fingerprint.Hv{Lo: 3}, Item: "b", SortEpoch: 2},
	}

	dict.SortByEpoch(entries)

	require.Equal(t, []any{"a", "b", "c"}, []any{entries[0].Item, entries[1].Item, entries[2].Item})
}

func TestSortByHv(t *testing.T) {
	t.Parallel()

	entries := []dict.Entry{
		{Hv: fingerprint.Hv{Hi: 2, Lo: 0}},
		{Hv: fingerprint.Hv{Hi: 1, Lo: 5}},
		{Hv: fingerprint.Hv{Hi: 1, Lo: 2}},
	}

	dict.SortByHv(entries)

	require.Equal(t, uint64(1), entries[0].Hv.Hi)
	require.Equal(t, uint64(2), entries[0].Hv.Lo)
	require.Equal(t, uint64(1), entries[1].Hv.Hi)
	require.Equal(t, uint64(5), entries[1].Hv.Lo)
	require.Equal(t, uint64(2), entries[2].Hv.Hi)
}

func TestOptions_Normalize(t *testing.T) {
	t.Parallel()

	out, err := dict.Options{}.Normalize()
	require.NoError(t, err)
	require.Positive(t, out.MinSize)
	require.Positive(t, out.RetryThreshold)
	require.Positive(t, out.MaxThreads)

	_, err = dict.Options{MinSize: 3}.Normalize()
	require.ErrorIs(t, err, dict.ErrInvalidInput)
}
