package dispatch

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelens/agent/internal/bus"
	"github.com/tracelens/agent/internal/origin"
	"github.com/tracelens/agent/internal/sanitize"
	"github.com/tracelens/agent/internal/scope"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *scope.Store, *bus.Bus, *goja.Runtime) {
	t.Helper()
	vm := goja.New()
	store := scope.NewStore()
	b := bus.New()
	d := New(store, b, sanitize.New(sanitize.DefaultConfig()), nil)
	d.BindRuntime(vm)
	return d, store, b, vm
}

func TestEnterExitEmitsBalancedEvents(t *testing.T) {
	d, store, b, vm := newTestDispatcher(t)
	var events []bus.Event
	b.Subscribe(func(e bus.Event) { events = append(events, e) })

	sc := scope.New("scope1")
	store.Run(sc, func() {
		argsObj, err := vm.RunString("(function(){ return arguments; })(1,2)")
		require.NoError(t, err)

		f := d.Enter("foo", "/app/a.js", 10, "function", argsObj)
		d.Exit(f)
	})

	require.Len(t, events, 2)
	assert.Equal(t, bus.PhaseEnter, events[0].Phase)
	assert.Equal(t, bus.PhaseExit, events[1].Phase)
	assert.Equal(t, events[0].SpanID, events[1].SpanID)
}

func TestExitThrowMarksThrewAndCapturesError(t *testing.T) {
	d, store, b, vm := newTestDispatcher(t)
	var events []bus.Event
	b.Subscribe(func(e bus.Event) { events = append(events, e) })

	sc := scope.New("scope1")
	store.Run(sc, func() {
		argsObj, err := vm.RunString("(function(){ return arguments; })()")
		require.NoError(t, err)
		f := d.Enter("boom", "/app/a.js", 1, "function", argsObj)
		d.ExitThrow(f, vm.ToValue("kaboom"))
	})

	require.Len(t, events, 2)
	assert.True(t, events[1].Threw)
	assert.Equal(t, "kaboom", events[1].Error)
}

func TestCallMarksScopeUnawaitedBeforeCalleeRuns(t *testing.T) {
	d, store, b, vm := newTestDispatcher(t)
	sc := scope.New("scope1")
	var events []bus.Event
	b.Subscribe(func(e bus.Event) { events = append(events, e) })

	store.Run(sc, func() {
		v, err := vm.RunString(`(function() { return {then: function(){}}; })`)
		require.NoError(t, err)
		// unawaited=true is the literal the transformer would splice in
		// for a call that isn't in an awaited position.
		wrapped := d.Call("/app/a.js", 1, v, true)
		fn, ok := goja.AssertFunction(wrapped)
		require.True(t, ok)
		_, err = fn(goja.Undefined())
		require.NoError(t, err)
	})

	// The mark is queued before the callee runs, so the callee's own
	// enter carries it — it doesn't depend on the callee having returned
	// a thenable — and it is consumed there instead of leaking onto the
	// caller's next Enter.
	require.NotEmpty(t, events)
	assert.True(t, events[0].Unawaited)
	sc.Enter()
	assert.False(t, sc.FrameUnawaited())
}

func TestCallDoesNotMarkScopeWhenAwaited(t *testing.T) {
	d, store, _, vm := newTestDispatcher(t)
	sc := scope.New("scope1")

	store.Run(sc, func() {
		v, err := vm.RunString(`(function() { return {then: function(){}}; })`)
		require.NoError(t, err)
		wrapped := d.Call("/app/a.js", 1, v, false)
		fn, ok := goja.AssertFunction(wrapped)
		require.True(t, ok)
		_, err = fn(goja.Undefined())
		require.NoError(t, err)
	})

	sc.Enter()
	assert.False(t, sc.FrameUnawaited())
}

func TestAwaitCancelsUnawaitedMark(t *testing.T) {
	d, store, _, vm := newTestDispatcher(t)
	sc := scope.New("scope1")

	store.Run(sc, func() {
		v, err := vm.RunString(`(function() { return {then: function(){}}; })`)
		require.NoError(t, err)
		// The transform's call-site wrap defaults a call to unawaited=true
		// when it can't prove a later await reaches it directly (e.g. the
		// result is stashed in a variable first); once that result is
		// awaited on a later line, no un-awaited mark may be left over to
		// land on the next Enter.
		wrapped := d.Call("/app/a.js", 1, v, true)
		fn, ok := goja.AssertFunction(wrapped)
		require.True(t, ok)
		result, err := fn(goja.Undefined())
		require.NoError(t, err)

		d.Await(result)
	})

	sc.Enter()
	assert.False(t, sc.FrameUnawaited())
}

func TestCallMethodPreservesReceiver(t *testing.T) {
	d, store, _, vm := newTestDispatcher(t)
	sc := scope.New("scope1")

	store.Run(sc, func() {
		obj, err := vm.RunString(`({ name: "widget", greet: function() { return "hi " + this.name; } })`)
		require.NoError(t, err)
		wrapped := d.CallMethod("/app/a.js", 1, obj, "greet", false)
		fn, ok := goja.AssertFunction(wrapped)
		require.True(t, ok)
		result, err := fn(goja.Undefined())
		require.NoError(t, err)
		assert.Equal(t, "hi widget", result.String())
	})
}

func TestCallEmitsOwnEnterExitForNonSelfTracedCallee(t *testing.T) {
	d, store, b, vm := newTestDispatcher(t)
	sc := scope.New("scope1")
	var events []bus.Event
	b.Subscribe(func(e bus.Event) { events = append(events, e) })

	store.Run(sc, func() {
		obj, err := vm.RunString(`({ find: function() { return 42; } })`)
		require.NoError(t, err)
		wrapped := d.CallMethod("/app/a.js", 1, obj, "find", false)
		fn, ok := goja.AssertFunction(wrapped)
		require.True(t, ok)
		result, err := fn(goja.Undefined())
		require.NoError(t, err)
		assert.Equal(t, int64(42), result.ToInteger())
	})

	require.Len(t, events, 2)
	assert.Equal(t, bus.PhaseEnter, events[0].Phase)
	assert.Equal(t, bus.PhaseExit, events[1].Phase)
	assert.Equal(t, "find", events[0].FuncName)
}

func TestCallForksScopeForUnawaitedSelfTracedCallee(t *testing.T) {
	d, store, _, vm := newTestDispatcher(t)
	sc := scope.New("scope1")

	store.Run(sc, func() {
		// Simulate a body-traced callee: it opens and closes its own span
		// the way transform's prologue/epilogue would, the same shape
		// notify() has in the un-awaited fire-and-forget scenario.
		require.NoError(t, vm.Set("__tlDispatch", map[string]interface{}{
			"enter": d.Enter,
			"exit":  d.Exit,
		}))
		calleeVal, err := vm.RunString(`(function() {
			var span = __tlDispatch.enter("notify", "/app/notify.js", 1, "function", arguments);
			__tlDispatch.exit(span);
			return 1;
		})`)
		require.NoError(t, err)
		calleeObj, ok := calleeVal.(*goja.Object)
		require.True(t, ok)
		origin.AttachOrSideTable(vm, calleeObj, origin.Origin{BodyTraced: true})

		before := sc.Depth()
		wrapped := d.Call("/app/a.js", 1, calleeVal, true)
		fn, ok := goja.AssertFunction(wrapped)
		require.True(t, ok)
		_, err = fn(goja.Undefined())
		require.NoError(t, err)
		assert.Equal(t, before, sc.Depth(), "caller's live depth must be unaffected by the forked callee's own span")
	})
}

func TestCallMethodDefersQueryBuilderExitToFinalizer(t *testing.T) {
	d, store, b, vm := newTestDispatcher(t)
	sc := scope.New("scope1")
	var events []bus.Event
	b.Subscribe(func(e bus.Event) { events = append(events, e) })

	store.Run(sc, func() {
		query, err := vm.RunString(`(function() {
			var q = {
				execCount: 0,
				find: function() { return q; },
				exec: function() {
					q.execCount++;
					return { then: function(onResolve) { onResolve([1, 2]); } };
				},
			};
			return q;
		})()`)
		require.NoError(t, err)
		queryObj, ok := query.(*goja.Object)
		require.True(t, ok)

		// find() returns the same query object, which is thenable-shaped
		// (carries exec) — it must not be resolved here, only queued.
		queryObj.Set("then", vm.ToValue(func(call goja.FunctionCall) goja.Value { return goja.Undefined() }))
		findWrapped := d.CallMethod("/app/a.js", 1, queryObj, "find", false)
		findFn, ok := goja.AssertFunction(findWrapped)
		require.True(t, ok)
		findResult, err := findFn(goja.Undefined())
		require.NoError(t, err)
		assert.Same(t, queryObj, findResult.(*goja.Object))

		// find's own exit must already have been published, carrying the
		// builder, before exec ever runs.
		require.Len(t, events, 2)
		assert.Equal(t, "find", events[0].FuncName)
		assert.Equal(t, bus.PhaseExit, events[1].Phase)

		execWrapped := d.CallMethod("/app/a.js", 2, queryObj, "exec", false)
		execFn, ok := goja.AssertFunction(execWrapped)
		require.True(t, ok)
		_, err = execFn(goja.Undefined())
		require.NoError(t, err)

		execCount := queryObj.Get("execCount").ToInteger()
		assert.Equal(t, int64(1), execCount, "query must execute exactly once")
	})

	// find's exit (immediate) plus a drained re-emission once exec's
	// promise settles, plus exec's own enter/exit.
	require.Len(t, events, 5)
	assert.Equal(t, "find", events[0].FuncName)
	assert.Equal(t, bus.PhaseExit, events[1].Phase)
	assert.Equal(t, "exec", events[2].FuncName)
	assert.Equal(t, bus.PhaseEnter, events[2].Phase)
}
