// Package lockfreetable implements the lock-free, wait-free-escalating
// table variants: [Unordered] and [Ordered].
//
// Both replace locktable's per-bucket mutex with a CAS loop over an
// immutable record: no allocation is ever mutated after publication, so
// a reader that already loaded a record pointer always sees a coherent
// value even while writers race to replace it. Where a tagged-pointer
// implementation would pack USED/DELETED/MOVING/MOVED bits into spare
// pointer bits, the bucket slot here is an ordinary immutable struct
// referenced through atomic.Pointer, with those four states expressed as
// plain fields (deleted, moving, moved) plus presence-of-pointer for
// USED. That shape is what unorderedRecord and orderedRecord use here.
//
// A writer retries on contention; once it has retried RetryThreshold
// times without linearizing, it registers itself with the table's
// help-needed counter for the remainder of its attempt. Any migration
// that observes help-needed > 0 doubles the store unconditionally
// rather than sizing to the live count, bounding the number of
// migrations any single writer can be forced through and making
// progress wait-free in practice.
//
// Migration itself is cooperative: any thread that notices a bucket
// needs to move can freeze it, install a successor store, and copy
// buckets across, and every step is idempotent, so multiple threads
// racing through the same migration never conflict. They simply do
// some of the same work, and whoever's CAS lands first wins that step.
package lockfreetable
