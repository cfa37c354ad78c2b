package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformWrapsFunctionBody(t *testing.T) {
	src := `function add(a, b) {
  return a + b;
}`
	result, err := Transform(src, Options{FilePath: "/app/src/math.js"})
	require.NoError(t, err)

	assert.Contains(t, result.Code, "__tlDispatch.enter(\"add\"")
	assert.Contains(t, result.Code, "__tlDispatch.result(")
	assert.Contains(t, result.Code, "__tlDispatch.exit(")
	assert.True(t, strings.Contains(result.Code, "finally"))
}

func TestTransformWrapsCallSitesWhenEnabled(t *testing.T) {
	src := `function run() {
  return helper(1, 2);
}`
	result, err := Transform(src, Options{FilePath: "/app/src/run.js", WrapCallSites: true})
	require.NoError(t, err)

	assert.Contains(t, result.Code, "__tlDispatch.call(")
}

func TestTransformPromotesConciseArrowBodyAndWraps(t *testing.T) {
	src := `const run = h => worker(h);`
	result, err := Transform(src, Options{FilePath: "/app/src/run.js"})
	require.NoError(t, err)

	assert.Contains(t, result.Code, "__tlDispatch.enter(\"(anonymous)\"")
	assert.Contains(t, result.Code, "__tlDispatch.result(")
	assert.Contains(t, result.Code, "__tlDispatch.exit(")
	assert.Contains(t, result.Code, "return __tlDispatch.result(")
	assert.True(t, strings.Contains(result.Code, "finally"))
}

func TestTransformLeavesPlainSourceStructurallyIntact(t *testing.T) {
	src := `function noop() {}`
	result, err := Transform(src, Options{FilePath: "/app/src/noop.js"})
	require.NoError(t, err)
	assert.Contains(t, result.Code, "function noop()")
}

func TestTransformReturnsErrorOnSyntaxError(t *testing.T) {
	_, err := Transform("function( {{{", Options{FilePath: "/app/src/broken.js"})
	assert.Error(t, err)
}
