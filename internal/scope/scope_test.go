package scope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnterExitBalancesDepth(t *testing.T) {
	sc := New("scope1")
	assert.Equal(t, 0, sc.Depth())

	a := sc.Enter()
	assert.Equal(t, 1, sc.Depth())
	assert.Equal(t, 1, a.Depth)
	assert.Empty(t, string(a.ParentID))

	b := sc.Enter()
	assert.Equal(t, 2, sc.Depth())
	assert.Equal(t, a.ID, b.ParentID)

	sc.Exit(b)
	assert.Equal(t, 1, sc.Depth())

	sc.Exit(a)
	assert.Equal(t, 0, sc.Depth())
}

func TestMarkUnawaitedDrainsIntoNextEnter(t *testing.T) {
	sc := New("scope1")
	sc.MarkUnawaited()

	sc.Enter()
	assert.True(t, sc.FrameUnawaited())

	sc.Enter()
	assert.False(t, sc.FrameUnawaited())
}

func TestConfirmAwaitedCancelsPendingMark(t *testing.T) {
	sc := New("scope1")
	sc.MarkUnawaited()
	sc.ConfirmAwaited()

	sc.Enter()
	assert.False(t, sc.FrameUnawaited())
}

func TestConfirmAwaitedIsNoOpWhenNothingPending(t *testing.T) {
	sc := New("scope1")
	assert.NotPanics(t, sc.ConfirmAwaited)
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	sc := New("scope1")
	sc.Enter()
	snap := sc.Snapshot()
	require.Len(t, snap, 1)

	sc.Enter()
	assert.Len(t, snap, 1, "snapshot must not observe later mutation")
	assert.Equal(t, 2, sc.Depth())
}

func TestForkForUnawaitedExcludesSuspended(t *testing.T) {
	sc := New("scope1")
	a := sc.Enter()
	b := sc.Enter()
	sc.Suspend(b)

	fork := sc.ForkForUnawaited()
	require.Len(t, fork.stack, 1)
	assert.Equal(t, a.ID, fork.stack[0].ID)
	assert.Equal(t, sc.ID, fork.ID)
}

func TestForkFromSnapshotRebuildsStack(t *testing.T) {
	sc := New("scope1")
	sc.Enter()
	sc.Enter()
	snap := sc.Snapshot()

	fork := ForkFromSnapshot(sc.ID, snap, 0)
	assert.Equal(t, 2, fork.Depth())
}

func TestForkFromSnapshotCarriesClockOffset(t *testing.T) {
	fork := ForkFromSnapshot("scope1", nil, 5*time.Second)
	assert.Equal(t, 5*time.Second, fork.ClockOffset())
}

func TestStoreRunRestoresPreviousScope(t *testing.T) {
	store := NewStore()
	outer := New("outer")
	inner := New("inner")

	store.Run(outer, func() {
		assert.Equal(t, outer, store.Current())
		store.Run(inner, func() {
			assert.Equal(t, inner, store.Current())
		})
		assert.Equal(t, outer, store.Current())
	})
	assert.Nil(t, store.Current())
}
