package poller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSingleReaderReadableEvent covers the base case: one waiter, one
// direction, one readiness bit, delivered on the next Wait.
func TestSingleReaderReadableEvent(t *testing.T) {
	p, backend, resumer := newTestPoller()

	require.NoError(t, p.Add(5, EventRead, "coro-a"))
	mustWait(t, p, 0)

	require.Equal(t, []int{5}, backend.installs)
	assert.Equal(t, Event(EventRead), backend.installed[5])

	backend.inject(5, ReadinessRead)
	mustWait(t, p, 0)

	require.Len(t, resumer.calls, 1)
	assert.Equal(t, "coro-a", resumer.calls[0].handle)
	assert.Equal(t, ReadinessRead, resumer.calls[0].readiness)
}

// TestSplitResumption covers a descriptor with distinct read and write
// waiters: each is woken independently, with only its own readiness bit.
func TestSplitResumption(t *testing.T) {
	p, backend, resumer := newTestPoller()

	require.NoError(t, p.Add(7, EventRead, "reader"))
	require.NoError(t, p.Add(7, EventWrite, "writer"))
	mustWait(t, p, 0)
	assert.Equal(t, Event(EventRead|EventWrite), backend.installed[7])

	backend.inject(7, ReadinessRead|ReadinessWrite)
	mustWait(t, p, 0)

	require.Len(t, resumer.calls, 2)
	byHandle := map[Handle]Readiness{}
	for _, c := range resumer.calls {
		byHandle[c.handle] = c.readiness
	}
	assert.Equal(t, ReadinessRead, byHandle["reader"])
	assert.Equal(t, ReadinessWrite, byHandle["writer"])
}

// TestCoalescedResumption covers a descriptor where the same coroutine
// waits on both directions: readiness on both is delivered in a single
// Resume call carrying both bits.
func TestCoalescedResumption(t *testing.T) {
	p, backend, resumer := newTestPoller()

	require.NoError(t, p.Add(9, EventRead|EventWrite, "coro-both"))
	mustWait(t, p, 0)

	backend.inject(9, ReadinessRead|ReadinessWrite)
	mustWait(t, p, 0)

	require.Len(t, resumer.calls, 1)
	assert.Equal(t, "coro-both", resumer.calls[0].handle)
	assert.Equal(t, ReadinessRead|ReadinessWrite, resumer.calls[0].readiness)
}

// TestErrorFanOut covers error fan-out: an error/hangup readiness is
// delivered to both waiters of a descriptor, even though they subscribed to
// different directions.
func TestErrorFanOut(t *testing.T) {
	p, backend, resumer := newTestPoller()

	require.NoError(t, p.Add(11, EventRead, "reader"))
	require.NoError(t, p.Add(11, EventWrite, "writer"))
	mustWait(t, p, 0)

	backend.inject(11, ReadinessError)
	mustWait(t, p, 0)

	require.Len(t, resumer.calls, 2)
	for _, c := range resumer.calls {
		assert.Equal(t, ReadinessError, c.readiness)
	}
}

// TestReconciliationCoalescing covers a coroutine that adds a read waiter
// and then, before any Wait, removes it again: the change list must
// collapse this to nothing, never touching the kernel at all.
func TestReconciliationCoalescing(t *testing.T) {
	p, backend, _ := newTestPoller()

	require.NoError(t, p.Add(13, EventRead, "coro-a"))
	require.NoError(t, p.Rm(13, EventRead))
	mustWait(t, p, 0)

	assert.Empty(t, backend.installs)
	assert.Empty(t, backend.modifies)
	assert.Empty(t, backend.removes)
}

// TestAddThenModifyCollapsesToOneCall covers a coroutine that adds a read
// waiter, then a write waiter, in the same scheduling turn: reconcile must
// issue a single Install with the combined mask, not an Install followed by
// a Modify.
func TestAddThenModifyCollapsesToOneCall(t *testing.T) {
	p, backend, _ := newTestPoller()

	require.NoError(t, p.Add(17, EventRead, "coro-a"))
	require.NoError(t, p.Add(17, EventWrite, "coro-a"))
	mustWait(t, p, 0)

	assert.Equal(t, []int{17}, backend.installs)
	assert.Empty(t, backend.modifies)
	assert.Equal(t, Event(EventRead|EventWrite), backend.installed[17])
}

// TestRmNarrowsInstalledMask covers removing one direction while the other
// remains active: reconcile must Modify down to the remaining direction,
// not Remove entirely.
func TestRmNarrowsInstalledMask(t *testing.T) {
	p, backend, _ := newTestPoller()

	require.NoError(t, p.Add(19, EventRead|EventWrite, "coro-a"))
	mustWait(t, p, 0)

	require.NoError(t, p.Rm(19, EventWrite))
	mustWait(t, p, 0)

	assert.Equal(t, []int{19}, backend.modifies)
	assert.Equal(t, Event(EventRead), backend.installed[19])
}

// TestAddMultipleWaitersPanics covers invariant 1: two coroutines waiting
// on the same direction of the same descriptor is a programmer error.
func TestAddMultipleWaitersPanics(t *testing.T) {
	p, _, _ := newTestPoller()

	require.NoError(t, p.Add(23, EventRead, "coro-a"))
	assert.Panics(t, func() {
		_ = p.Add(23, EventRead, "coro-b")
	})
}

// TestAddMultipleWaitersRecoverableWithoutOrphan covers a caller that adds
// both directions in one call where only the write direction already has a
// waiter: the panic must be recoverable without leaving the read direction
// silently set on the slot but never enqueued onto the change list, which
// would orphan the read waiter forever.
func TestAddMultipleWaitersRecoverableWithoutOrphan(t *testing.T) {
	p, backend, _ := newTestPoller()

	require.NoError(t, p.Add(53, EventWrite, "coro-a"))

	func() {
		defer func() { _ = recover() }()
		_ = p.Add(53, EventRead|EventWrite, "coro-b")
	}()

	s := p.table.lookup(53)
	require.NotNil(t, s)
	assert.Nil(t, s.inWaiter, "read direction must not be set when the write-direction conflict aborted the Add")
	assert.Equal(t, "coro-a", s.outWaiter)

	mustWait(t, p, 0)
	assert.Equal(t, Event(EventWrite), backend.installed[53])
}

// TestCleanWithWaiterPanics covers invariant 4's precondition.
func TestCleanWithWaiterPanics(t *testing.T) {
	p, _, _ := newTestPoller()

	require.NoError(t, p.Add(29, EventRead, "coro-a"))
	assert.Panics(t, func() {
		_ = p.Clean(29)
	})
}

// TestCleanRemovesEvenWithoutPriorRm resolves the open question of whether
// Clean must scan-and-remove defensively: a slot whose installed mask is
// out of sync with the kernel (simulated here by installing directly on the
// backend without going through reconcile) must still be removed by Clean.
func TestCleanRemovesEvenWithoutPriorRm(t *testing.T) {
	p, backend, _ := newTestPoller()

	require.NoError(t, backend.Install(31, EventRead))
	require.NoError(t, p.Clean(31))

	assert.Equal(t, []int{31}, backend.removes)
	_, stillInstalled := backend.installed[31]
	assert.False(t, stillInstalled)
}

// TestCleanUnknownDescriptorIsNotAnError covers Clean on a descriptor the
// table has never seen: it must tolerate the backend reporting ErrNotFound.
func TestCleanUnknownDescriptorIsNotAnError(t *testing.T) {
	p, _, _ := newTestPoller()
	assert.NoError(t, p.Clean(37))
}

// TestScannedTableFreesIdleSlots covers the scanned Wait Table's dynamic
// lifecycle: once a descriptor is fully removed and idle, its slot is
// forgotten rather than retained forever.
func TestScannedTableFreesIdleSlots(t *testing.T) {
	p, _, _ := newTestPoller()

	require.NoError(t, p.Add(41, EventRead, "coro-a"))
	mustWait(t, p, 0)
	require.NoError(t, p.Rm(41, EventRead))
	mustWait(t, p, 0)

	st := p.table.(*scannedTable)
	_, exists := st.slots[41]
	assert.False(t, exists)
}

// TestOperationsAfterCloseReturnErrClosed covers Close's contract.
func TestOperationsAfterCloseReturnErrClosed(t *testing.T) {
	p, _, _ := newTestPoller()
	require.NoError(t, p.Close())

	assert.ErrorIs(t, p.Add(43, EventRead, "coro-a"), ErrClosed)
	assert.ErrorIs(t, p.Rm(43, EventRead), ErrClosed)
	assert.ErrorIs(t, p.Clean(43), ErrClosed)
	_, err := p.Wait(0)
	assert.ErrorIs(t, err, ErrClosed)
}

// TestAddEmptyMaskRejected covers Add's argument validation.
func TestAddEmptyMaskRejected(t *testing.T) {
	p, _, _ := newTestPoller()
	assert.ErrorIs(t, p.Add(47, 0, "coro-a"), ErrNoEvents)
}
