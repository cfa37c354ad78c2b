package origin

import (
	"sync"

	"github.com/dop251/goja"
)

// table is the fallback store keyed by *goja.Object pointer identity, used
// when Attach cannot define a property on a frozen or non-extensible
// object. *goja.Object values are stable and comparable for the lifetime
// of the runtime that created them, so pointer identity is a safe map key.
type table struct {
	mu sync.RWMutex
	m  map[*goja.Object]Origin
}

var sideTable = &table{m: make(map[*goja.Object]Origin)}

func (t *table) get(obj *goja.Object) (Origin, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	o, ok := t.m[obj]
	return o, ok
}

func (t *table) set(obj *goja.Object, o Origin) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[obj] = o
}

// Forget removes obj's side-table entry. Call this when a runtime is torn
// down so the table doesn't retain objects past the VM's own lifetime.
func Forget(obj *goja.Object) {
	sideTable.mu.Lock()
	defer sideTable.mu.Unlock()
	delete(sideTable.m, obj)
}
