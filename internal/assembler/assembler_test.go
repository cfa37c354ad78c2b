package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelens/agent/internal/bus"
	"github.com/tracelens/agent/internal/telemetry/ids"
)

func enter(spanID, parentID string, depth int) bus.Event {
	return bus.Event{Phase: bus.PhaseEnter, SpanID: ids.SpanID(spanID), ParentSpanID: ids.SpanID(parentID), Depth: depth, ScopeID: "s1"}
}

func exit(spanID string, depth int) bus.Event {
	return bus.Event{Phase: bus.PhaseExit, SpanID: ids.SpanID(spanID), Depth: depth, ScopeID: "s1"}
}

func TestBalanceAddsSyntheticExitForUnmatchedEnter(t *testing.T) {
	events := []bus.Event{enter("a", "", 1)}
	out := balance(events)

	require.Len(t, out, 2)
	assert.Equal(t, bus.PhaseExit, out[1].Phase)
	assert.True(t, out[1].Unawaited)
	assert.True(t, out[1].Synthetic)
	assert.Equal(t, out[0].SpanID, out[1].SpanID)
}

func TestBalanceLeavesMatchedPairsUntouched(t *testing.T) {
	events := []bus.Event{enter("a", "", 1), exit("a", 1)}
	out := balance(events)
	assert.Len(t, out, 2)
}

func TestReorderLinearizesOutOfOrderEmission(t *testing.T) {
	// child's enter/exit physically emitted before the parent's exit —
	// reorder must produce enter(root), enter(child), exit(child),
	// exit(root).
	events := []bus.Event{
		enter("root", "", 1),
		enter("child", "root", 2),
		exit("child", 2),
		exit("root", 1),
	}
	out := reorder(events)

	require.Len(t, out, 4)
	assert.Equal(t, ids.SpanID("root"), out[0].SpanID)
	assert.Equal(t, bus.PhaseEnter, out[0].Phase)
	assert.Equal(t, ids.SpanID("child"), out[1].SpanID)
	assert.Equal(t, bus.PhaseEnter, out[1].Phase)
	assert.Equal(t, ids.SpanID("child"), out[2].SpanID)
	assert.Equal(t, bus.PhaseExit, out[2].Phase)
	assert.Equal(t, ids.SpanID("root"), out[3].SpanID)
	assert.Equal(t, bus.PhaseExit, out[3].Phase)
}

func TestReorderSortsSiblingsByFirstEmission(t *testing.T) {
	events := []bus.Event{
		enter("root", "", 1),
		enter("b", "root", 2),
		enter("a", "root", 2),
		exit("a", 2),
		exit("b", 2),
		exit("root", 1),
	}
	out := reorder(events)

	require.Len(t, out, 6)
	assert.Equal(t, ids.SpanID("b"), out[1].SpanID)
	assert.Equal(t, ids.SpanID("a"), out[3].SpanID)
}

func TestSplitTagsBatchesWithIndexAndTotal(t *testing.T) {
	events := make([]bus.Event, 5)
	for i := range events {
		events[i] = enter("a", "", 1)
	}
	batches := split("s1", events, 2)

	require.Len(t, batches, 3)
	for i, b := range batches {
		assert.Equal(t, "s1", b.ScopeID)
		assert.Equal(t, i, b.Index)
		assert.Equal(t, 3, b.Total)
	}
	assert.Len(t, batches[0].Events, 2)
	assert.Len(t, batches[2].Events, 1)
}

func TestAssembleEndToEnd(t *testing.T) {
	events := []bus.Event{
		enter("root", "", 1),
		enter("child", "root", 2),
		// child never exits — balance must synthesize it.
		exit("root", 1),
	}
	a := New(Config{BatchSize: 10})
	batches := a.Assemble("s1", events)

	require.Len(t, batches, 1)
	require.Len(t, batches[0].Events, 4)
	assert.True(t, batches[0].Events[2].Synthetic)

	encoded, err := a.EncodeBatch(batches[0])
	require.NoError(t, err)
	assert.Contains(t, encoded, "root")
}
