package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcherIsAppIncludeAndExclude(t *testing.T) {
	m := NewMatcher(
		[]string{"**/src/**"},
		[]string{"**/node_modules/**"},
	)

	assert.True(t, m.IsApp("/repo/src/controllers/user.js"))
	assert.False(t, m.IsApp("/repo/src/node_modules/left-pad/index.js"))
	assert.False(t, m.IsApp("/repo/lib/util.js"))
}

func TestMatcherRegexPattern(t *testing.T) {
	m := NewMatcher([]string{`^/repo/app/.*\.js$`}, nil)
	assert.True(t, m.IsApp("/repo/app/controllers/user.js"))
	assert.False(t, m.IsApp("/repo/vendor/lib.js"))
}

func TestMatcherNoIncludeMatchesNothing(t *testing.T) {
	m := NewMatcher(nil, nil)
	assert.False(t, m.IsApp("/repo/app/controllers/user.js"))
}

func TestNormalizeWindowsSeparators(t *testing.T) {
	assert.NotPanics(t, func() { Normalize(`a\b\c`) })
}
