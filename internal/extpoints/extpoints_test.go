package extpoints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelens/agent/internal/scope"
)

func TestEmitDBQueryRecordsAgainstActiveScope(t *testing.T) {
	store := scope.NewStore()
	sink := NewFakeSink()
	sc := scope.New("scope1")

	store.Run(sc, func() {
		EmitDBQuery(store, sink, "users", "find", map[string]interface{}{"id": 1}, map[string]interface{}{"count": 1}, 12)
	})

	require.Len(t, sink.DBs, 1)
	assert.Equal(t, scope.ScopeID("scope1"), sink.DBs[0].ScopeID)
	assert.Equal(t, "users", sink.DBs[0].Collection)
	assert.Equal(t, "find", sink.DBs[0].Operation)
}

func TestEmitDBQueryIsNoOpWithoutActiveScope(t *testing.T) {
	store := scope.NewStore()
	sink := NewFakeSink()

	EmitDBQuery(store, sink, "users", "find", nil, nil, 1)

	assert.Empty(t, sink.DBs)
}

func TestEmitEmailRecordsAgainstActiveScope(t *testing.T) {
	store := scope.NewStore()
	sink := NewFakeSink()
	sc := scope.New("scope1")

	store.Run(sc, func() {
		EmitEmail(store, sink, []string{"a@example.com"}, "noreply@example.com", "hello")
	})

	require.Len(t, sink.Emails, 1)
	assert.Equal(t, "hello", sink.Emails[0].Subject)
}
