/*
Package bus implements the single-process event bus (C6) that every
rewritten function body and every dispatcher decision emits through.

	b := bus.New()
	id := b.Subscribe(filter.Wrap(func(e bus.Event) { ... }))
	defer b.Unsubscribe(id)

	b.Publish(bus.Event{Phase: bus.PhaseEnter, ...})

Subscribers never see events published from inside their own callback —
Publish's re-entrancy guard drops those rather than recursing.
*/
package bus
