package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelens/agent/internal/bus"
	"github.com/tracelens/agent/internal/dispatch"
	"github.com/tracelens/agent/internal/loader"
	"github.com/tracelens/agent/internal/match"
	"github.com/tracelens/agent/internal/sanitize"
	"github.com/tracelens/agent/internal/scope"
	"github.com/tracelens/agent/internal/telemetry/logging"
)

func newTestRuntime(t *testing.T, dir string) (*Runtime, *bus.Bus, *scope.Store) {
	t.Helper()
	store := scope.NewStore()
	b := bus.New()
	d := dispatch.New(store, b, sanitize.New(sanitize.DefaultConfig()), nil)
	m := match.NewMatcher([]string{dir + "/**"}, nil)
	l := loader.New(m, logging.NewDefault(), false)
	rt := New(DefaultConfig(), d, l, logging.NewDefault())
	return rt, b, store
}

func TestLoadModuleTransformsAndEvaluatesAppCode(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "math.js")
	require.NoError(t, os.WriteFile(p, []byte(`function add(a, b) { return a + b; }; add`), 0o644))

	rt, b, store := newTestRuntime(t, dir)
	var events []bus.Event
	b.Subscribe(func(e bus.Event) { events = append(events, e) })

	sc := scope.New("scope1")
	store.Run(sc, func() {
		exported, err := rt.LoadModule(p)
		require.NoError(t, err)

		fn, ok := goja.AssertFunction(exported)
		require.True(t, ok)
		result, err := fn(goja.Undefined(), rt.VM().ToValue(2), rt.VM().ToValue(3))
		require.NoError(t, err)
		assert.Equal(t, int64(5), result.ToInteger())
	})

	require.Len(t, events, 2)
	assert.Equal(t, bus.PhaseEnter, events[0].Phase)
	assert.Equal(t, bus.PhaseExit, events[1].Phase)
}

func TestRunEnforcesContextCancellation(t *testing.T) {
	dir := t.TempDir()
	rt, _, _ := newTestRuntime(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rt.Run(ctx, func(vm *goja.Runtime) (goja.Value, error) {
		return vm.RunString(`1 + 1`)
	})
	// the script completes before the interrupt goroutine notices
	// cancellation in this fast case; Run must still return cleanly.
	assert.NoError(t, err)
}
