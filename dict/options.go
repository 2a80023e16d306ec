package dict

import (
	"fmt"

	"github.com/calvinalkan/epochtable/internal/storemath"
	"github.com/calvinalkan/epochtable/smr"
)

// ViewMode selects the consistency/cost tradeoff for [Table.View].
type ViewMode int

const (
	// ViewFast returns a possibly-not-atomically-consistent enumeration:
	// cheaper, appropriate for diagnostics, not for set algebra.
	ViewFast ViewMode = iota

	// ViewConsistent returns a linearized, single-epoch-consistent
	// snapshot, as the Ordered variants' View always does.
	ViewConsistent
)

// defaultRetryThreshold is the wait-free help protocol's escalation
// point. Any small positive constant suffices for wait-freedom.
const defaultRetryThreshold = 8

// Options configures construction of any table variant.
type Options struct {
	// MinSize is the smallest store size ever allocated. Must be a power
	// of two if non-zero; zero selects [storemath.MinSize].
	MinSize uint64

	// RetryThreshold bounds how many migrate-and-retry cycles a
	// lock-free writer tolerates before engaging the wait-free help
	// protocol. Zero selects the package default.
	RetryThreshold int

	// MaxThreads bounds the number of goroutines that may be registered
	// with a variant's internal [github.com/calvinalkan/epochtable/smr.Manager]
	// at once. Zero selects [smr.DefaultMaxThreads].
	MaxThreads int

	// ViewMode records a preferred consistency mode for [Table.View]. No
	// table variant reads it: each variant's View has a fixed
	// consistency (linearized for the Ordered variants, not atomically
	// consistent for the Unordered ones) whatever this field holds.
	ViewMode ViewMode
}

// Normalize returns a copy of opts with every zero field replaced by its
// package default, validating the rest.
func (opts Options) Normalize() (Options, error) {
	out := opts

	if out.MinSize == 0 {
		out.MinSize = storemath.MinSize
	} else if !storemath.IsPowerOfTwo(out.MinSize) {
		return Options{}, fmt.Errorf("min size %d is not a power of two: %w", out.MinSize, ErrInvalidInput)
	}

	if out.RetryThreshold == 0 {
		out.RetryThreshold = defaultRetryThreshold
	} else if out.RetryThreshold < 0 {
		return Options{}, fmt.Errorf("retry threshold must be >= 0, got %d: %w", out.RetryThreshold, ErrInvalidInput)
	}

	if out.MaxThreads == 0 {
		out.MaxThreads = smr.DefaultMaxThreads()
	} else if out.MaxThreads < 0 {
		return Options{}, fmt.Errorf("max threads must be >= 0, got %d: %w", out.MaxThreads, ErrInvalidInput)
	}

	return out, nil
}
