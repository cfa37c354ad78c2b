package origin

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelens/agent/internal/match"
)

func appMatcher() *match.Matcher {
	return match.NewMatcher([]string{"/app/**"}, []string{"/app/**/node_modules/**"})
}

func TestWalkTagsTopLevelFunction(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`(function handler() {})`)
	require.NoError(t, err)

	Walk(vm, v, "/app/src/handlers.js", appMatcher(), true)

	obj := v.(*goja.Object)
	o, ok := Read(obj)
	require.True(t, ok)
	assert.Equal(t, "/app/src/handlers.js", o.DefiningFile)
	assert.True(t, o.IsApp)
	assert.True(t, o.BodyTraced)
}

func TestWalkTagsPrototypeMethods(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`
		(function() {
			function Widget() {}
			Widget.prototype.render = function() {}
			return Widget
		})()
	`)
	require.NoError(t, err)

	Walk(vm, v, "/app/node_modules/widget/index.js", appMatcher(), false)

	ctor := v.(*goja.Object)
	proto := ctor.Get("prototype").(*goja.Object)
	method := proto.Get("render").(*goja.Object)

	o, ok := Read(method)
	require.True(t, ok)
	assert.False(t, o.IsApp)
}

func TestWalkDoesNotInfiniteLoopOnCycle(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`
		(function() {
			var fn = function self() {}
			fn.self = fn
			return fn
		})()
	`)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		Walk(vm, v, "/app/src/cyclic.js", appMatcher(), false)
	})
}

func TestReadReturnsFalseForUntaggedObject(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`({})`)
	require.NoError(t, err)

	_, ok := Read(v.(*goja.Object))
	assert.False(t, ok)
}
