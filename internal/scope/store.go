package scope

// Store is the task-local storage primitive of §4.5. Because the whole
// system runs cooperatively on one goja.Runtime driven by one goroutine
// (internal/runtime's event loop), the store does not need a real
// OS-thread-local: it is a save/restore stack of "current scope" pointers
// installed around every re-entry point — every place the dispatcher
// schedules a promise continuation or wraps a callback argument. This is
// the simplification spec §9 sanctions in place of a genuine task-local
// primitive.
type Store struct {
	current *Scope
}

// NewStore creates an empty store with no active scope.
func NewStore() *Store {
	return &Store{}
}

// Current returns the scope most recently installed by Run and not yet
// restored, or nil. The store holds one pointer shared by every
// goroutine; it is not goroutine-local.
func (s *Store) Current() *Scope {
	return s.current
}

// Run installs sc as current for the duration of fn, restoring whatever
// was current beforehand once fn returns — the save/restore primitive
// every dispatcher re-entry point uses instead of true task-local storage.
func (s *Store) Run(sc *Scope, fn func()) {
	prev := s.current
	s.current = sc
	defer func() { s.current = prev }()
	fn()
}

// Open runs fn inside a fresh Scope whose id is scopeID — §4.5 `open`.
func (s *Store) Open(scopeID ScopeID, fn func(*Scope)) {
	sc := New(scopeID)
	s.Run(sc, func() { fn(sc) })
}
