package sanitize

import (
	"fmt"

	"github.com/dop251/goja"
)

// recognizeSpecial returns a canonical placeholder for object shapes that
// don't serialize meaningfully through a generic key walk: dates, regexes,
// errors, promises, and common ORM query-builder/model shapes.
func recognizeSpecial(obj *goja.Object) (interface{}, bool) {
	switch obj.ClassName() {
	case "Date":
		if toISO, ok := goja.AssertFunction(obj.Get("toISOString")); ok {
			if v, err := toISO(obj); err == nil {
				return v.Export(), true
			}
		}
		return "[Date]", true
	case "RegExp":
		return fmt.Sprintf("/%v/", obj.Get("source").Export()), true
	case "Error":
		return errorPlaceholder(obj), true
	case "Promise":
		return "[Promise]", true
	}

	if isQueryBuilder(obj) {
		return queryBuilderPlaceholder(obj), true
	}
	if isThenable(obj) {
		return "[Promise]", true
	}
	if toJSON, ok := goja.AssertFunction(obj.Get("toJSON")); ok {
		if v, err := toJSON(obj); err == nil {
			return v.Export(), true
		}
	}
	return nil, false
}

func errorPlaceholder(obj *goja.Object) map[string]interface{} {
	out := map[string]interface{}{}
	if name := obj.Get("name"); name != nil && !goja.IsUndefined(name) {
		out["name"] = name.String()
	}
	if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
		out["message"] = msg.String()
	}
	return out
}

// isThenable reports whether obj carries a callable "then" — the
// structural definition of a promise, per spec §4.2's dispatcher
// classification.
func isThenable(obj *goja.Object) bool {
	_, ok := goja.AssertFunction(obj.Get("then"))
	return ok
}

// isQueryBuilder applies the heuristic spec §4.2 describes for ORM query
// builders: thenable, but also carrying a method that executes the query
// independently of `then` (so awaiting isn't the only way to run it).
func isQueryBuilder(obj *goja.Object) bool {
	if !isThenable(obj) {
		return false
	}
	for _, name := range []string{"exec", "toSQL", "clone"} {
		if _, ok := goja.AssertFunction(obj.Get(name)); ok {
			return true
		}
	}
	return false
}

func queryBuilderPlaceholder(obj *goja.Object) string {
	if toSQL, ok := goja.AssertFunction(obj.Get("toSQL")); ok {
		if v, err := toSQL(obj); err == nil {
			return fmt.Sprintf("[QueryBuilder: %v]", v.Export())
		}
	}
	return "[QueryBuilder]"
}
