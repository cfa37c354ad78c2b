package extpoints

import "sync"

// FakeSink is a minimal in-memory Sink used only by tests that exercise
// EmitDBQuery/EmitEmail without a real assembler/transport pipeline
// wired up.
type FakeSink struct {
	mu     sync.Mutex
	DBs    []DBQueryEvent
	Emails []EmailEvent
}

// NewFakeSink creates an empty FakeSink.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

func (f *FakeSink) DBQuery(e DBQueryEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DBs = append(f.DBs, e)
}

func (f *FakeSink) Email(e EmailEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Emails = append(f.Emails, e)
}
