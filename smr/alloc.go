package smr

// AllocCommitted stamps h.AllocEpoch with the current global epoch. Use
// this when the allocation itself is the linearization point (e.g. a
// brand-new store published under a lock).
func (m *Manager) AllocCommitted(h *Header) {
	h.allocEpoch.Store(m.globalEpoch.Load())
}

// CommitWrite stamps h.WriteEpoch with the current global epoch via a
// monotonic compare-and-swap: if a cooperative helper has already bumped
// the write epoch past what we observe, we never move it backwards.
func (m *Manager) CommitWrite(h *Header) uint64 {
	for {
		cur := m.globalEpoch.Load()
		old := h.writeEpoch.Load()

		if cur <= old {
			return old
		}

		if h.writeEpoch.CompareAndSwap(old, cur) {
			return cur
		}
	}
}

// CopyCreateEpoch inherits src's create epoch into dst, so that an
// overwrite keeps the original insertion's sort position.
func (m *Manager) CopyCreateEpoch(dst, src *Header) {
	dst.createEpoch.Store(src.createEpoch.Load())
}

// SetCreateEpoch stamps dst's create epoch with an explicit value, used on
// fresh inserts (including a delete-then-reinsert, which is treated as a
// brand new key by the variants that document that choice).
func (m *Manager) SetCreateEpoch(dst *Header, epoch uint64) {
	dst.createEpoch.Store(epoch)
}

// CloneHeader copies every epoch field from src into dst. Unlike a plain
// struct assignment (which go vet rejects, since Header embeds
// sync/atomic values), this copies through Load/Store. Use this when
// republishing a record's existing identity under a new allocation
// rather than recording a new write event. Migration is the only
// caller: it moves live records to a successor store without that move
// itself counting as a write.
func (m *Manager) CloneHeader(dst, src *Header) {
	dst.allocEpoch.Store(src.allocEpoch.Load())
	dst.writeEpoch.Store(src.writeEpoch.Load())
	dst.createEpoch.Store(src.createEpoch.Load())
}
