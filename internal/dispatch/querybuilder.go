package dispatch

import (
	"sync"

	"github.com/dop251/goja"
)

// queryFinalizers is the side table of pending exit re-emissions keyed by
// query-builder object identity, mirroring internal/origin's sidetable
// pattern. A query-builder chain call (find/sort/lean) enqueues its own
// frame here instead of attaching a promise continuation, since the
// builder must never be implicitly resolved; the chain's eventual exec
// call drains the queue once its own promise actually settles, per spec
// §4.4.
var (
	queryFinalizersMu sync.Mutex
	queryFinalizers   = make(map[*goja.Object][]*frame)
)

func enqueueFinalizer(obj *goja.Object, f *frame) {
	if obj == nil || f == nil {
		return
	}
	queryFinalizersMu.Lock()
	defer queryFinalizersMu.Unlock()
	queryFinalizers[obj] = append(queryFinalizers[obj], f)
}

// drainFinalizers removes and returns every frame queued against obj. A
// nil or never-queued obj yields nil.
func drainFinalizers(obj *goja.Object) []*frame {
	if obj == nil {
		return nil
	}
	queryFinalizersMu.Lock()
	defer queryFinalizersMu.Unlock()
	out := queryFinalizers[obj]
	delete(queryFinalizers, obj)
	return out
}
