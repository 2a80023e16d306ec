package fingerprint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/epochtable/fingerprint"
)

func TestFromBytes_NeverZero(t *testing.T) {
	t.Parallel()

	for _, key := range [][]byte{nil, {}, {0}, []byte("hello"), []byte("world")} {
		hv := fingerprint.FromBytes(key)
		require.False(t, hv.IsZero(), "FromBytes(%q) produced the reserved zero fingerprint", key)
	}
}

func TestFromBytes_Deterministic(t *testing.T) {
	t.Parallel()

	a := fingerprint.FromBytes([]byte("same-key"))
	b := fingerprint.FromBytes([]byte("same-key"))
	require.True(t, a.Equal(b))
}

func TestFromBytes_Distinguishes(t *testing.T) {
	t.Parallel()

	a := fingerprint.FromBytes([]byte("key-a"))
	b := fingerprint.FromBytes([]byte("key-b"))
	require.False(t, a.Equal(b))
}

func TestZero(t *testing.T) {
	t.Parallel()

	require.True(t, fingerprint.Zero.IsZero())
}
