package smr

import "runtime"

// Do registers the calling goroutine for the duration of fn and
// unregisters it on return.
//
// Classic epoch-based reclamation treats thread registration as a call a
// long-lived OS thread makes once, up front. Go goroutines have no
// equivalent of a stable OS thread id, and a table operation (a single
// Get/Put/etc. call) is the natural unit of "a thread's visit" instead, so
// every dictionary-level operation in epochtable registers for just its
// own duration via Do rather than requiring callers to manage a
// long-lived handle. If every reservation slot is momentarily taken (the
// configured [Options.MaxThreads] concurrent calls are all in flight at
// once), Do retries with [runtime.Gosched] until one frees; slots are
// held only for the duration of one operation, so this resolves quickly
// under any realistic MaxThreads sizing.
func (m *Manager) Do(fn func(id int)) {
	for {
		id, err := m.Register()
		if err == nil {
			fn(id)
			m.Unregister(id)

			return
		}

		runtime.Gosched()
	}
}
