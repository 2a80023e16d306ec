// Package locktable implements the per-bucket-locked, multi-writer table
// variants: [Unordered] and [Ordered].
//
// Both share the same writer protocol shape: probe for the bucket, lock
// it, re-validate it hasn't been marked migrated by a concurrent
// migration, mutate, stamp the new record via [smr.Manager.CommitWrite],
// unlock. They differ only in what a bucket holds, and so in what happens
// to the displaced record: Unordered retires it, Ordered keeps it in the
// bucket's chain. Unordered keeps exactly one record slot per bucket, so readers
// never need the lock. Ordered keeps a reverse-temporal chain of records
// per bucket (readers need a brief lock to walk it safely), which lets
// its View build a true linearized snapshot.
//
// These are deliberately two distinct bucket shapes rather than one
// generalized "maybe has history" shape: unifying them would obscure the
// very different reader story each one has.
//
// Migration (growing the store) is protocol-identical between the two
// variants modulo the bucket shape it copies: a single writer wins
// migrateMu, locks every bucket (which also drains any writer currently
// waiting on that bucket), counts live entries, allocates a successor
// store, copies every live bucket across (tombstones are dropped),
// publishes the new store, and releases every lock.
package locktable
