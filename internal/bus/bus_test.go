package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToAllSubscribersInOrder(t *testing.T) {
	b := New()
	var order []int

	b.Subscribe(func(e Event) { order = append(order, 1) })
	b.Subscribe(func(e Event) { order = append(order, 2) })

	b.Publish(Event{Phase: PhaseEnter})
	assert.Equal(t, []int{1, 2}, order)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	var received int
	id := b.Subscribe(func(e Event) { received++ })

	b.Publish(Event{})
	b.Unsubscribe(id)
	b.Publish(Event{})

	assert.Equal(t, 1, received)
}

func TestPublishGuardsAgainstReentrantEmission(t *testing.T) {
	b := New()
	var calls int
	b.Subscribe(func(e Event) {
		calls++
		if calls == 1 {
			b.Publish(Event{}) // must be dropped by the re-entrancy guard
		}
	})

	b.Publish(Event{})
	assert.Equal(t, 1, calls)
}

func TestFilterDropsByFileSubstring(t *testing.T) {
	f := NewFilter().WithFilePattern(FilePattern{Kind: FileSubstring, Value: "node_modules"})
	assert.True(t, f.Drop(Event{File: "/repo/node_modules/lodash/index.js"}))
	assert.False(t, f.Drop(Event{File: "/repo/src/app.js"}))
}

func TestFilterDropsByKind(t *testing.T) {
	f := NewFilter().WithDroppedKind(KindGetter)
	assert.True(t, f.Drop(Event{Kind: KindGetter}))
	assert.False(t, f.Drop(Event{Kind: KindMethod}))
}

func TestFilterDropsByCompoundRule(t *testing.T) {
	f := NewFilter().WithRule(Rule{FuncName: "internalHelper", Phase: PhaseEnter})
	assert.True(t, f.Drop(Event{FuncName: "internalHelper", Phase: PhaseEnter}))
	assert.False(t, f.Drop(Event{FuncName: "internalHelper", Phase: PhaseExit}))
}

func TestFilterDropsByPredicate(t *testing.T) {
	f := NewFilter().WithPredicate(func(e Event) bool { return e.Depth > 5 })
	assert.True(t, f.Drop(Event{Depth: 6}))
	assert.False(t, f.Drop(Event{Depth: 3}))
}

func TestInferLibraryFindsFirstSegment(t *testing.T) {
	assert.Equal(t, "lodash", InferLibrary("/repo/node_modules/lodash/index.js"))
	assert.Equal(t, "@scope/pkg", InferLibrary("/repo/node_modules/@scope/pkg/index.js"))
	assert.Equal(t, "", InferLibrary("/repo/src/app.js"))
}

func TestFilterWrapForwardsUndroppedEvents(t *testing.T) {
	f := NewFilter().WithDroppedKind(KindGetter)
	var got []Event
	sub := f.Wrap(func(e Event) { got = append(got, e) })

	sub(Event{Kind: KindGetter})
	sub(Event{Kind: KindMethod})

	require.Len(t, got, 1)
	assert.Equal(t, KindMethod, got[0].Kind)
}
