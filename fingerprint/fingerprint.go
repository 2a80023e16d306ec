// Package fingerprint defines the 128-bit key identity used throughout
// epochtable. Tables never store or compare caller keys directly; every
// lookup, insert, and delete operates on an [Hv] that the caller derives
// from its own key outside the table.
package fingerprint

import "github.com/cespare/xxhash/v2"

// Hv is a 128-bit opaque fingerprint, split into two 64-bit halves.
//
// The all-zero value is reserved to mean "bucket unused"; it must never be
// produced as a real fingerprint. [FromBytes] guards against this by
// flipping a bit when the underlying hash collides with zero.
type Hv struct {
	Hi uint64
	Lo uint64
}

// Zero is the reserved "unused bucket" fingerprint.
var Zero = Hv{}

// IsZero reports whether hv is the reserved unused-bucket value.
func (hv Hv) IsZero() bool {
	return hv.Hi == 0 && hv.Lo == 0
}

// Equal reports bitwise equality between two fingerprints.
func (hv Hv) Equal(other Hv) bool {
	return hv.Hi == other.Hi && hv.Lo == other.Lo
}

// FromBytes derives an [Hv] from an arbitrary byte slice.
//
// This is a convenience helper, not a requirement: callers are free to
// build an Hv from any well-distributed 128-bit source. This
// implementation composes two differently seeded instances of
// [xxhash.Sum64] into one 128-bit value, since no true 128-bit hash is
// wired in as a dependency.
func FromBytes(key []byte) Hv {
	lo := xxhash.Sum64(key)

	hi := xxhash.New()
	_, _ = hi.Write(key)
	_, _ = hi.Write(hiSalt[:])

	hv := Hv{Hi: hi.Sum64(), Lo: lo}
	if hv.IsZero() {
		// Collision with the reserved sentinel is astronomically unlikely
		// but must never be allowed to reach a bucket.
		hv.Lo = 1
	}

	return hv
}

// hiSalt decorrelates the high half from the low half; it has no
// significance beyond being a fixed, non-zero constant.
var hiSalt = [8]byte{0x9e, 0x37, 0x79, 0xb9, 0x7f, 0x4a, 0x7c, 0x15}
