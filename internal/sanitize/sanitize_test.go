package sanitize

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotPrimitives(t *testing.T) {
	vm := goja.New()
	s := New(DefaultConfig())

	v, err := vm.RunString(`"hello"`)
	require.NoError(t, err)
	assert.Equal(t, "hello", s.Snapshot(v))
}

func TestSnapshotTruncatesLongStrings(t *testing.T) {
	vm := goja.New()
	s := New(Config{MaxDepth: 6, MaxStringLen: 5, MaxArrayLen: 10, MaxKeys: 10})

	v, err := vm.RunString(`"abcdefghij"`)
	require.NoError(t, err)
	assert.Equal(t, "abcde...(truncated)", s.Snapshot(v))
}

func TestSnapshotBreaksCircularReferences(t *testing.T) {
	vm := goja.New()
	s := New(DefaultConfig())

	v, err := vm.RunString(`(function() { var o = {}; o.self = o; return o; })()`)
	require.NoError(t, err)

	got := s.Snapshot(v).(map[string]interface{})
	assert.Equal(t, "[Circular]", got["self"])
}

func TestSnapshotRecognizesThenableAsPromise(t *testing.T) {
	vm := goja.New()
	s := New(DefaultConfig())

	v, err := vm.RunString(`({then: function(resolve) { resolve(1); }})`)
	require.NoError(t, err)
	assert.Equal(t, "[Promise]", s.Snapshot(v))
}

func TestSnapshotRecognizesQueryBuilder(t *testing.T) {
	vm := goja.New()
	s := New(DefaultConfig())

	v, err := vm.RunString(`({then: function(){}, exec: function(){}})`)
	require.NoError(t, err)
	assert.Equal(t, "[QueryBuilder]", s.Snapshot(v))
}

func TestSnapshotTruncatesArrays(t *testing.T) {
	vm := goja.New()
	s := New(Config{MaxDepth: 6, MaxStringLen: 100, MaxArrayLen: 2, MaxKeys: 10})

	v, err := vm.RunString(`[1, 2, 3, 4]`)
	require.NoError(t, err)

	got := s.Snapshot(v).([]interface{})
	assert.Len(t, got, 3) // 2 elements + truncation marker
}
