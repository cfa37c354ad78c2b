// Package extpoints implements the Go-side half of §6's "Extension
// points consumed from collaborators": EmitDBQuery and EmitEmail, the
// contract an out-of-scope ORM plugin or mail patcher would call after
// observing an operation. Both do the same scope/session lookup the
// ingest middleware uses, so a collaborator never needs its own
// request-correlation logic.
//
// Neither a real ORM integration nor a real mail-library patch is in
// scope here (spec.md §1's Non-goals) — this package is the contract
// plus a minimal in-memory fake (fake.go) exercised only by tests.
package extpoints

import (
	"time"

	"github.com/tracelens/agent/internal/scope"
)

// DBQueryEvent is the normalized shape of one observed ORM operation,
// matching the `db` entry field's intended content in §6's Egress
// format.
type DBQueryEvent struct {
	ScopeID    scope.ScopeID `json:"scopeId"`
	Collection string        `json:"collection"`
	Operation  string        `json:"operation"`
	Query      interface{}   `json:"query,omitempty"`
	ResultMeta interface{}   `json:"resultMeta,omitempty"`
	DurMs      int64         `json:"durMs"`
	At         time.Time    `json:"-"`
}

// EmailEvent is the normalized shape of one observed outbound message,
// matching the `email` entry field's intended content.
type EmailEvent struct {
	ScopeID scope.ScopeID `json:"scopeId"`
	To      []string      `json:"to,omitempty"`
	From    string        `json:"from,omitempty"`
	Subject string        `json:"subject,omitempty"`
	At      time.Time    `json:"-"`
}

// Sink receives normalized extension-point events for eventual inclusion
// in the egress envelope alongside the scope's trace batches.
type Sink interface {
	DBQuery(DBQueryEvent)
	Email(EmailEvent)
}

// EmitDBQuery is the contract function an ORM plugin calls per observed
// operation. It looks up the currently active scope via store and does
// nothing if there isn't one — an operation observed outside any request
// scope has nothing to correlate to.
func EmitDBQuery(store *scope.Store, sink Sink, collection, operation string, query, resultMeta interface{}, durMs int64) {
	sc := store.Current()
	if sc == nil || sink == nil {
		return
	}
	sink.DBQuery(DBQueryEvent{
		ScopeID:    sc.ID,
		Collection: collection,
		Operation:  operation,
		Query:      query,
		ResultMeta: resultMeta,
		DurMs:      durMs,
		At:         time.Now(),
	})
}

// EmitEmail is the contract function a mail patcher calls with normalized
// message metadata after observing an outbound send.
func EmitEmail(store *scope.Store, sink Sink, to []string, from, subject string) {
	sc := store.Current()
	if sc == nil || sink == nil {
		return
	}
	sink.Email(EmailEvent{
		ScopeID: sc.ID,
		To:      to,
		From:    from,
		Subject: subject,
		At:      time.Now(),
	})
}
