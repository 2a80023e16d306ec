package smr

import "log/slog"

// reclaimBatchThreshold amortizes reclamation: RetireStandard only sweeps
// the calling thread's own retire list once it has accumulated this many
// pending entries, instead of scanning on every single retire.
const reclaimBatchThreshold = 64

// RetireStandard places obj's cleanup on thread id's retire list, tagged
// with the current global epoch. The manager frees obj (by invoking
// cleanup) once every active reservation's epoch is strictly greater than
// this retire epoch. Periodically triggers [Manager.Reclaim] on the
// calling thread to bound retire-list growth.
func (m *Manager) RetireStandard(id int, cleanup func()) {
	slot := &m.slots[id]
	slot.retireList = append(slot.retireList, retireEntry{
		retireEpoch: m.globalEpoch.Load(),
		cleanup:     cleanup,
	})

	if len(slot.retireList) >= reclaimBatchThreshold {
		m.Reclaim(id)
	}
}

// RetireFast behaves like [Manager.RetireStandard], except that it first
// checks whether any thread currently holds a reservation at all. If none
// does, nothing could possibly still observe obj, so cleanup runs
// immediately instead of being queued. This is the common case for a
// table that is not under concurrent read pressure.
func (m *Manager) RetireFast(id int, cleanup func()) {
	if _, active := m.minReservedEpoch(); !active {
		cleanup()

		return
	}

	m.RetireStandard(id, cleanup)
}

// RetireUnused runs cleanup immediately. The caller must know that no
// other thread can possibly still reach obj, for example a candidate
// successor store that lost the install-or-observe CAS during migration
// and was never published. SMR performs no bookkeeping for this case; it
// exists purely so table code can express "this was never shared" without
// going through the retire-list machinery.
func (m *Manager) RetireUnused(cleanup func()) {
	cleanup()
}

// Reclaim scans thread id's retire list and frees (invokes cleanup on)
// every entry whose retire epoch is strictly less than the minimum epoch
// held by any active reservation across the whole manager. A reservation
// slot holding [noReservation] (no thread currently mid-operation) does
// not constrain reclamation.
//
// [Manager.RetireStandard] calls this once the thread's retire list
// reaches reclaimBatchThreshold entries, rather than after every single
// retire, so the cost of scanning amortizes.
func (m *Manager) Reclaim(id int) {
	slot := &m.slots[id]
	if len(slot.retireList) == 0 {
		return
	}

	minEpoch, constrained := m.minReservedEpoch()

	kept := slot.retireList[:0]
	freed := 0

	for _, entry := range slot.retireList {
		if constrained && entry.retireEpoch >= minEpoch {
			kept = append(kept, entry)

			continue
		}

		entry.cleanup()
		freed++
	}

	slot.retireList = kept

	if freed > 0 {
		m.logger.Debug("smr: reclaimed",
			slog.Int("thread_id", id),
			slog.Int("freed", freed),
			slog.Int("retained", len(kept)),
		)
	}
}

// PendingRetireCount returns the number of entries still queued on thread
// id's retire list. Diagnostic only.
func (m *Manager) PendingRetireCount(id int) int {
	return len(m.slots[id].retireList)
}
