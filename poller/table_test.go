package poller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexedTableRejectsOutOfRangeFD(t *testing.T) {
	tb := newIndexedTable(4)
	_, err := tb.slot(4)
	assert.ErrorIs(t, err, ErrFDOutOfRange)
	_, err = tb.slot(-1)
	assert.ErrorIs(t, err, ErrFDOutOfRange)
}

func TestIndexedTableSlotIsStableAcrossCalls(t *testing.T) {
	tb := newIndexedTable(4)
	a, err := tb.slot(2)
	require.NoError(t, err)
	b, err := tb.slot(2)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestIndexedTableNeverFreesSlots(t *testing.T) {
	tb := newIndexedTable(4)
	s, err := tb.slot(2)
	require.NoError(t, err)
	tb.free(2)
	assert.Same(t, s, tb.lookup(2))
}

func TestScannedTableGrowsOnDemand(t *testing.T) {
	tb := newScannedTable()
	assert.Nil(t, tb.lookup(1000))
	s, err := tb.slot(1000)
	require.NoError(t, err)
	assert.Same(t, s, tb.lookup(1000))
}

func TestScannedTableFreeOnlyReclaimsIdleSlots(t *testing.T) {
	tb := newScannedTable()
	s, err := tb.slot(5)
	require.NoError(t, err)
	s.inWaiter = "coro-a"

	tb.free(5)
	assert.NotNil(t, tb.lookup(5), "must not free a slot with a waiter attached")

	s.inWaiter = nil
	tb.free(5)
	assert.Nil(t, tb.lookup(5))
}

func TestForEachInstalledVisitsOnlyNonEmptyMasks(t *testing.T) {
	tb := newIndexedTable(8)
	s1, _ := tb.slot(1)
	s1.installed = EventRead
	_, _ = tb.slot(2) // never installed

	visited := map[int]Event{}
	tb.forEachInstalled(func(fd int, mask Event) { visited[fd] = mask })

	assert.Equal(t, map[int]Event{1: EventRead}, visited)
}
