package ids

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpanIDIsPrefixedAndValid(t *testing.T) {
	id := NewSpanID()
	require.True(t, strings.HasPrefix(id.String(), SpanPrefix+"_"))
	assert.True(t, IsValidSpan(id.String()))
}

func TestNewSpanIDsAreDistinct(t *testing.T) {
	a := NewSpanID()
	b := NewSpanID()
	assert.NotEqual(t, a, b)
}

func TestNewScopeIDFromHeader(t *testing.T) {
	id := NewScopeID("1700000000000")
	assert.Equal(t, ScopeID("1700000000000"), id)
}

func TestNewScopeIDFallsBackToUUID(t *testing.T) {
	a := NewScopeID("")
	b := NewScopeID("not-a-number")
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a.String())
}

func TestIsValidSpanRejectsGarbage(t *testing.T) {
	assert.False(t, IsValidSpan("not-a-span"))
	assert.False(t, IsValidSpan(""))
}
