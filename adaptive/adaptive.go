// Package adaptive implements the table variant that starts as the
// single-threaded reference table and migrates, exactly once, to a
// concurrent variant the moment it detects a second writer.
//
// The runtime algorithm switch is modeled as a single polymorphic swap
// point rather than ambient virtual dispatch: [Table] holds an
// atomic.Pointer to a [dict.Table] interface value (an interface value
// already carries an implementation plus its method set), and that
// pointer is written exactly once, by whichever caller's mutex
// contention first reveals that more than one goroutine wants in.
package adaptive

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/lockfreetable"
	"github.com/calvinalkan/epochtable/locktable"
	"github.com/calvinalkan/epochtable/reftable"
)

// Target selects which concurrent variant an adaptive table migrates to
// the first time it detects contention.
type Target int

const (
	TargetLockedUnordered Target = iota
	TargetLockedOrdered
	TargetLockfreeUnordered
	TargetLockfreeOrdered
)

// Table starts single-threaded and migrates to Target on first detected
// writer contention. Every operation goes through enter, which is also
// the contention-detection point: a failed TryLock on the reference
// table's guard mutex is the signal that a second writer has shown up.
type Table struct {
	opts   dict.Options
	target Target

	mu  sync.Mutex
	ref *reftable.Table

	impl atomic.Pointer[dict.Table]
}

var _ dict.Table = (*Table)(nil)

// New constructs an adaptive table that starts single-threaded and, on
// first detected contention, migrates to target.
func New(opts dict.Options, target Target) (*Table, error) {
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	ref, err := reftable.New(norm)
	if err != nil {
		return nil, err
	}

	return &Table{opts: norm, target: target, ref: ref}, nil
}

// enter returns the concurrent implementation to dispatch the current
// call through. A nil return means no migration has happened and the
// caller holds mu and must run against t.ref directly, unlocking when
// done.
func (t *Table) enter() dict.Table {
	if impl := t.impl.Load(); impl != nil {
		return *impl
	}

	if t.mu.TryLock() {
		if impl := t.impl.Load(); impl != nil {
			t.mu.Unlock()

			return *impl
		}

		return nil
	}

	// Someone else is inside the reference table's critical section
	// right now: a second participant, concurrent with the first. This
	// is the failed-TryLock detection path; block for exclusive access,
	// then migrate, unless whoever held the lock already did.
	t.mu.Lock()

	if t.impl.Load() == nil {
		t.swap()
	}

	t.mu.Unlock()

	return *t.impl.Load()
}

// swap builds the configured concurrent target from a snapshot of the
// reference table and publishes it. Must be called with mu held and
// only once per Table.
func (t *Table) swap() {
	entries, nextEpoch := t.ref.Snapshot()

	var (
		built dict.Table
		err   error
	)

	switch t.target {
	case TargetLockedUnordered:
		built, err = locktable.NewUnorderedSeeded(t.opts, entries, nextEpoch)
	case TargetLockedOrdered:
		built, err = locktable.NewOrderedSeeded(t.opts, entries, nextEpoch)
	case TargetLockfreeUnordered:
		built, err = lockfreetable.NewUnorderedSeeded(t.opts, entries, nextEpoch)
	case TargetLockfreeOrdered:
		built, err = lockfreetable.NewOrderedSeeded(t.opts, entries, nextEpoch)
	default:
		err = fmt.Errorf("adaptive: unknown target %d", t.target)
	}

	if err != nil {
		// Options were already validated at New time and the snapshot
		// came from a table built with the same options; this can only
		// mean a programming error in this package.
		panic("adaptive: building concurrent target: " + err.Error())
	}

	t.impl.Store(&built)
}

func (t *Table) Get(hv fingerprint.Hv) (item any, found bool) {
	if impl := t.enter(); impl != nil {
		return impl.Get(hv)
	}
	defer t.mu.Unlock()

	return t.ref.Get(hv)
}

func (t *Table) Put(hv fingerprint.Hv, item any) (old any, found bool) {
	if impl := t.enter(); impl != nil {
		return impl.Put(hv, item)
	}
	defer t.mu.Unlock()

	return t.ref.Put(hv, item)
}

func (t *Table) Replace(hv fingerprint.Hv, item any) (old any, found bool) {
	if impl := t.enter(); impl != nil {
		return impl.Replace(hv, item)
	}
	defer t.mu.Unlock()

	return t.ref.Replace(hv, item)
}

func (t *Table) Add(hv fingerprint.Hv, item any) bool {
	if impl := t.enter(); impl != nil {
		return impl.Add(hv, item)
	}
	defer t.mu.Unlock()

	return t.ref.Add(hv, item)
}

func (t *Table) Remove(hv fingerprint.Hv) (old any, found bool) {
	if impl := t.enter(); impl != nil {
		return impl.Remove(hv)
	}
	defer t.mu.Unlock()

	return t.ref.Remove(hv)
}

func (t *Table) Len() uint64 {
	if impl := t.enter(); impl != nil {
		return impl.Len()
	}
	defer t.mu.Unlock()

	return t.ref.Len()
}

func (t *Table) View(sortResult bool) []dict.Entry {
	if impl := t.enter(); impl != nil {
		return impl.View(sortResult)
	}
	defer t.mu.Unlock()

	return t.ref.View(sortResult)
}

// Migrated reports whether the table has already swapped to its
// concurrent target. Diagnostic only.
func (t *Table) Migrated() bool {
	return t.impl.Load() != nil
}
