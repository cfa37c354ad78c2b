// Package origin implements the origin tagger (C3): it walks an exported
// value graph and attaches "defining file" and "is application code"
// marks to functions and prototype methods.
package origin

import "github.com/dop251/goja"

// Origin is the FunctionOrigin record of spec §3: {defining file, isApp,
// skipWrap, bodyTraced}.
type Origin struct {
	// DefiningFile is the path the function was compiled from, or "" when
	// unknown (e.g. a native function).
	DefiningFile string
	// IsApp is true iff DefiningFile falls under an include-pattern and
	// outside every exclude-pattern.
	IsApp bool
	// SkipWrap marks a function the dispatcher must invoke directly,
	// bypassing tracing entirely (e.g. the dispatcher's own entry point).
	SkipWrap bool
	// BodyTraced is true iff the same file was successfully source-
	// rewritten, so the dispatcher must not emit a second enter/exit.
	BodyTraced bool
}

// markSymbol is the private Symbol used as the hidden property key so the
// mark never collides with, or becomes visible to, user property
// enumeration (for..in, Object.keys, JSON.stringify).
var markSymbol = goja.NewSymbol("tracelens.origin")

// Attach attaches o to obj as a hidden, non-enumerable, configurable own
// property keyed by markSymbol, per spec §4.3. Returns false when obj
// rejects the definition (frozen or non-extensible) — callers fall back
// to the side table (sidetable.go) in that case, per spec §9's "if the
// target language does not permit attaching arbitrary metadata to
// functions, maintain a side table keyed by function identity".
func Attach(vm *goja.Runtime, obj *goja.Object, o Origin) bool {
	if obj == nil {
		return false
	}
	val := vm.ToValue(&o)
	err := obj.DefineDataPropertySymbol(markSymbol, val, goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	return err == nil
}

// Read retrieves the mark attached to obj via Attach, falling back to the
// side table when no direct mark is present. Returns ok=false when
// neither source has a mark for obj.
func Read(obj *goja.Object) (Origin, bool) {
	if obj == nil {
		return Origin{}, false
	}
	if val := obj.GetSymbol(markSymbol); val != nil && !goja.IsUndefined(val) {
		if o, ok := val.Export().(*Origin); ok {
			return *o, true
		}
	}
	return sideTable.get(obj)
}

// AttachOrSideTable attempts Attach, recording into the side table when it
// fails.
func AttachOrSideTable(vm *goja.Runtime, obj *goja.Object, o Origin) {
	if !Attach(vm, obj, o) {
		sideTable.set(obj, o)
	}
}
