// Package smr implements the epoch-based safe memory reclamation subsystem
// shared by every concurrent table variant in epochtable.
//
// A [Manager] owns a monotonic global epoch counter, a fixed array of
// per-thread reservation slots, and per-thread retire lists. Threads
// register once (obtaining a stable numeric id), open a reservation before
// touching shared structures, and retire objects they logically remove so
// the manager can free them once no reservation can still reach them.
//
// SMR never fails at the API level: every operation either succeeds or
// defers. The only errors are thread-registry exhaustion and invalid
// configuration, both of which are programming errors surfaced at
// [Manager.Register] / [NewManager] time.
package smr

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"
)

// noReservation is the reservation-slot sentinel meaning "this thread is
// not inside an operation right now." It must not collide with any real
// epoch value; the global epoch never reaches it in practice.
const noReservation = ^uint64(0)

// Options configures a [Manager].
type Options struct {
	// MaxThreads bounds the number of threads that may be registered
	// simultaneously. Must be >= 1.
	MaxThreads int

	// Logger receives diagnostic events (thread registration, reclamation
	// batch sizes). Never called on a path that must stay allocation-free
	// under contention. Defaults to a disabled logger.
	Logger *slog.Logger
}

// retireEntry is one pending free: an object retired at retireEpoch whose
// cleanup runs once no reservation can still observe it.
type retireEntry struct {
	retireEpoch uint64
	cleanup     func()
}

// threadSlot is one reservation slot plus its private retire list.
//
// The retire list is only ever touched by the thread that owns the slot
// (threads never retire on each other's behalf), so it needs no locking
// beyond what guards slot reuse across register/unregister.
type threadSlot struct {
	reservation atomic.Uint64
	retireList  []retireEntry
}

// Manager is the process-wide (per-table, in practice: tables each own
// one) SMR service.
type Manager struct {
	globalEpoch atomic.Uint64

	slots []threadSlot

	freeMu  sync.Mutex
	free    []int // stack of unused slot indices
	taken   []bool
	logger  *slog.Logger
}

// NewManager constructs a Manager with the given options.
func NewManager(opts Options) (*Manager, error) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		// The global epoch and every reservation slot are accessed via
		// sync/atomic 64-bit operations. Go guarantees these are atomic
		// and properly aligned on supported platforms, but the module's
		// design assumes a 64-bit epoch space large enough to never wrap
		// in practice; a 32-bit address space is not a target platform.
		return nil, fmt.Errorf("smr requires a 64-bit platform: %w", ErrInvalidInput)
	}

	if opts.MaxThreads < 1 {
		return nil, fmt.Errorf("max threads must be >= 1, got %d: %w", opts.MaxThreads, ErrInvalidInput)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	m := &Manager{
		slots:  make([]threadSlot, opts.MaxThreads),
		free:   make([]int, opts.MaxThreads),
		taken:  make([]bool, opts.MaxThreads),
		logger: logger,
	}

	for i := range m.slots {
		m.slots[i].reservation.Store(noReservation)
		m.free[i] = opts.MaxThreads - 1 - i
	}

	return m, nil
}

// Register obtains a stable thread id for the calling goroutine. The
// caller must call [Manager.Unregister] with the returned id before the
// goroutine exits.
func (m *Manager) Register() (int, error) {
	m.freeMu.Lock()
	defer m.freeMu.Unlock()

	if len(m.free) == 0 {
		return 0, ErrThreadLimitExceeded
	}

	id := m.free[len(m.free)-1]
	m.free = m.free[:len(m.free)-1]
	m.taken[id] = true

	m.logger.Debug("smr: thread registered", slog.Int("thread_id", id))

	return id, nil
}

// Unregister releases a thread id obtained from [Manager.Register].
//
// The thread must have called [Manager.EndOp] (or never started an op) on
// this id before unregistering; Unregister clears the reservation
// defensively regardless.
func (m *Manager) Unregister(id int) {
	m.slots[id].reservation.Store(noReservation)

	m.freeMu.Lock()
	defer m.freeMu.Unlock()

	if !m.taken[id] {
		return
	}

	m.taken[id] = false
	m.free = append(m.free, id)

	m.logger.Debug("smr: thread unregistered", slog.Int("thread_id", id))
}

// StartOp opens a basic (non-linearized) reservation for thread id,
// snapshotting the current global epoch. Any object not yet retired at
// this moment, or retired in a later epoch, is guaranteed to remain alive
// until the matching [Manager.EndOp].
func (m *Manager) StartOp(id int) uint64 {
	e := m.globalEpoch.Load()
	m.slots[id].reservation.Store(e)

	return e
}

// StartLinearizedOp advances the global epoch by one and reserves the new
// value for thread id. The returned epoch is the operation's
// linearization point: every ordered view taken at or after this call
// that observes epoch E sees this operation's effects iff E >= the
// returned epoch.
func (m *Manager) StartLinearizedOp(id int) uint64 {
	e := m.globalEpoch.Add(1)
	m.slots[id].reservation.Store(e)

	return e
}

// EndOp clears thread id's reservation, allowing objects it was
// protecting to become reclaimable once no other reservation covers them.
func (m *Manager) EndOp(id int) {
	m.slots[id].reservation.Store(noReservation)
}

// FastForward advances the global epoch to at least target, without
// disturbing it if it's already past target. This exists solely for the
// adaptive table's one-shot migration off the single-threaded reference
// implementation: the reference table's own next_epoch counter must
// keep numbering sort order monotonically once a concurrent variant
// takes over, so the concurrent variant's SMR-driven epochs need to
// start at least where the reference table left off. No other caller
// should ever need to move the epoch backward-relative-to-nothing like
// this; ordinary operation only ever advances it by one at a time via
// [Manager.StartLinearizedOp].
func (m *Manager) FastForward(target uint64) {
	for {
		cur := m.globalEpoch.Load()
		if cur >= target {
			return
		}

		if m.globalEpoch.CompareAndSwap(cur, target) {
			return
		}
	}
}

// GlobalEpoch returns the current value of the monotonic epoch counter.
// Useful for diagnostics; table logic should prefer the epoch returned by
// [Manager.StartOp]/[Manager.StartLinearizedOp].
func (m *Manager) GlobalEpoch() uint64 {
	return m.globalEpoch.Load()
}

// minReservedEpoch returns the lowest epoch any currently-active
// reservation holds, or (math.MaxUint64, false) if no thread currently
// holds a reservation, in which case nothing constrains reclamation.
func (m *Manager) minReservedEpoch() (uint64, bool) {
	min := noReservation
	found := false

	for i := range m.slots {
		e := m.slots[i].reservation.Load()
		if e == noReservation {
			continue
		}

		found = true

		if e < min {
			min = e
		}
	}

	return min, found
}
