package smr_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/epochtable/smr"
)

func newManager(t *testing.T, maxThreads int) *smr.Manager {
	t.Helper()

	m, err := smr.NewManager(smr.Options{MaxThreads: maxThreads})
	require.NoError(t, err)

	return m
}

func TestNewManager_RejectsBadOptions(t *testing.T) {
	t.Parallel()

	_, err := smr.NewManager(smr.Options{MaxThreads: 0})
	require.ErrorIs(t, err, smr.ErrInvalidInput)
}

func TestRegister_ExhaustsAndRecyclesSlots(t *testing.T) {
	t.Parallel()

	m := newManager(t, 2)

	id0, err := m.Register()
	require.NoError(t, err)

	id1, err := m.Register()
	require.NoError(t, err)
	require.NotEqual(t, id0, id1)

	_, err = m.Register()
	require.ErrorIs(t, err, smr.ErrThreadLimitExceeded)

	m.Unregister(id0)

	id2, err := m.Register()
	require.NoError(t, err)
	require.Equal(t, id0, id2)

	m.Unregister(id1)
	m.Unregister(id2)
}

func TestStartLinearizedOp_MonotonicallyAdvances(t *testing.T) {
	t.Parallel()

	m := newManager(t, 1)

	id, err := m.Register()
	require.NoError(t, err)

	e1 := m.StartLinearizedOp(id)
	m.EndOp(id)
	e2 := m.StartLinearizedOp(id)
	m.EndOp(id)

	require.Greater(t, e2, e1)
}

func TestCommitWrite_NeverMovesBackwards(t *testing.T) {
	t.Parallel()

	m := newManager(t, 1)

	id, err := m.Register()
	require.NoError(t, err)

	h := &smr.Header{}

	m.StartLinearizedOp(id) // bump global epoch
	e1 := m.CommitWrite(h)
	require.Equal(t, e1, h.WriteEpoch())

	// A second commit observing the same (or an earlier) global epoch must
	// not regress WriteEpoch.
	e2 := m.CommitWrite(h)
	require.GreaterOrEqual(t, e2, e1)
	require.Equal(t, e2, h.WriteEpoch())
}

func TestCopyCreateEpoch(t *testing.T) {
	t.Parallel()

	m := newManager(t, 1)

	id, err := m.Register()
	require.NoError(t, err)

	src := &smr.Header{}
	m.SetCreateEpoch(src, m.StartLinearizedOp(id))
	m.EndOp(id)

	dst := &smr.Header{}
	m.CopyCreateEpoch(dst, src)

	require.Equal(t, src.CreateEpoch(), dst.CreateEpoch())
}

func TestReclaim_HeldReservationBlocksReclamation(t *testing.T) {
	t.Parallel()

	m := newManager(t, 2)

	reader, err := m.Register()
	require.NoError(t, err)

	writer, err := m.Register()
	require.NoError(t, err)

	m.StartOp(reader) // reader holds a reservation at the current epoch

	var freed atomic.Bool

	m.StartLinearizedOp(writer)
	m.RetireStandard(writer, func() { freed.Store(true) })
	m.EndOp(writer)

	m.Reclaim(writer)
	require.False(t, freed.Load(), "object retired while a reservation could still observe it was freed early")

	m.EndOp(reader)
	m.Reclaim(writer)
	require.True(t, freed.Load())
}

func TestRetireFast_ImmediateWhenNoActiveReservations(t *testing.T) {
	t.Parallel()

	m := newManager(t, 1)

	id, err := m.Register()
	require.NoError(t, err)

	var freed bool

	m.RetireFast(id, func() { freed = true })

	require.True(t, freed)
}

func TestRetireUnused_RunsImmediately(t *testing.T) {
	t.Parallel()

	m := newManager(t, 1)

	var freed bool
	m.RetireUnused(func() { freed = true })

	require.True(t, freed)
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	t.Parallel()

	m := newManager(t, 8)

	var wg sync.WaitGroup

	for range 32 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				id, err := m.Register()
				if err != nil {
					continue
				}

				e := m.StartOp(id)
				_ = e
				m.EndOp(id)
				m.Unregister(id)
			}
		}()
	}

	wg.Wait()
}
