package smr

import "sync/atomic"

// Header is the epoch metadata every SMR-managed allocation carries.
//
// Table implementations embed Header by value in their own record/store
// types, rather than through a hidden allocator-owned block ahead of the
// payload. All methods are safe for concurrent use; a reader holding
// only a basic-op reservation may call [Header.WriteEpoch] and
// [Header.CreateEpoch] without additional synchronization.
type Header struct {
	allocEpoch  atomic.Uint64
	writeEpoch  atomic.Uint64
	createEpoch atomic.Uint64
}

// AllocEpoch returns the epoch at which this object was allocated
// (stamped by [Manager.AllocCommitted], zero if it was never passed to
// AllocCommitted).
func (h *Header) AllocEpoch() uint64 {
	return h.allocEpoch.Load()
}

// WriteEpoch returns the epoch at which this record was last committed.
func (h *Header) WriteEpoch() uint64 {
	return h.writeEpoch.Load()
}

// CreateEpoch returns the epoch at which the key this record represents
// first entered the table (inherited across overwrites by
// [Manager.CopyCreateEpoch]).
func (h *Header) CreateEpoch() uint64 {
	return h.createEpoch.Load()
}
