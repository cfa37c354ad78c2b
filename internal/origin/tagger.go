package origin

import (
	"github.com/dop251/goja"

	"github.com/tracelens/agent/internal/match"
)

// DefaultMaxDepth caps how deep Walk descends into an object graph before
// giving up, per spec §4.3's "depth-capped ... graph walk" — this is what
// keeps a pathological object graph (e.g. a deeply nested config object)
// from blowing the Go call stack.
const DefaultMaxDepth = 12

// Walk descends root's object graph, tagging every function value (and
// every method reachable off a "prototype" property) with an Origin whose
// DefiningFile is file and whose IsApp is computed from matcher. bodyTraced
// should be true when transform.Transform already rewrote file, so the
// dispatcher knows not to emit a second enter/exit for functions defined
// there. Cycles are broken by tracking visited objects; depth is capped at
// DefaultMaxDepth.
func Walk(vm *goja.Runtime, root goja.Value, file string, matcher *match.Matcher, bodyTraced bool) {
	w := &walker{
		vm:         vm,
		file:       file,
		isApp:      matcher.IsApp(file),
		bodyTraced: bodyTraced,
		visited:    make(map[*goja.Object]bool),
	}
	w.walk(root, 0)
}

type walker struct {
	vm         *goja.Runtime
	file       string
	isApp      bool
	bodyTraced bool
	visited    map[*goja.Object]bool
}

func (w *walker) walk(v goja.Value, depth int) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) || depth > DefaultMaxDepth {
		return
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return
	}
	if w.visited[obj] {
		return
	}
	w.visited[obj] = true

	if isCallable(obj) {
		w.tag(obj)
	}

	if proto := obj.Get("prototype"); proto != nil && !goja.IsUndefined(proto) {
		if protoObj, ok := proto.(*goja.Object); ok {
			w.walkMethods(protoObj, depth+1)
		}
	}

	for _, key := range obj.Keys() {
		if key == "prototype" || key == "constructor" {
			continue
		}
		w.walk(obj.Get(key), depth+1)
	}
}

// walkMethods tags every own method hung off a class prototype without
// recursing into unrelated prototype-chain properties.
func (w *walker) walkMethods(proto *goja.Object, depth int) {
	if w.visited[proto] {
		return
	}
	w.visited[proto] = true
	for _, key := range proto.Keys() {
		if key == "constructor" {
			continue
		}
		w.walk(proto.Get(key), depth+1)
	}
}

func (w *walker) tag(obj *goja.Object) {
	if _, ok := Read(obj); ok {
		return // already tagged by an earlier pass over the same object
	}
	AttachOrSideTable(w.vm, obj, Origin{
		DefiningFile: w.file,
		IsApp:        w.isApp,
		BodyTraced:   w.bodyTraced,
	})
}

func isCallable(obj *goja.Object) bool {
	_, ok := goja.AssertFunction(obj)
	return ok
}
