// Package sanitize implements the argument/result snapshot sanitizer of
// spec §4.7.1: turning an arbitrary live JS value into a bounded, JSON-
// safe, circular-reference-free Go value fit for the outbound event
// batch.
package sanitize

import (
	"fmt"
	"strconv"

	"github.com/dop251/goja"
	"github.com/microcosm-cc/bluemonday"
)

// Config bounds how much of a value Snapshot will walk and keep.
type Config struct {
	MaxDepth     int
	MaxStringLen int
	MaxArrayLen  int
	MaxKeys      int
	StripHTML    bool
}

// DefaultConfig matches the conservative bounds spec §4.7.1 implies for
// an argument snapshot that rides along on every span.
func DefaultConfig() Config {
	return Config{
		MaxDepth:     6,
		MaxStringLen: 2000,
		MaxArrayLen:  100,
		MaxKeys:      100,
		StripHTML:    true,
	}
}

// Sanitizer converts goja values into bounded plain Go values.
type Sanitizer struct {
	cfg    Config
	policy *bluemonday.Policy
}

// New creates a Sanitizer. A zero Config uses DefaultConfig.
func New(cfg Config) *Sanitizer {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	var policy *bluemonday.Policy
	if cfg.StripHTML {
		policy = bluemonday.StrictPolicy()
	}
	return &Sanitizer{cfg: cfg, policy: policy}
}

// Snapshot converts v into a JSON-safe Go value. An object already on the
// current recursion path (a circular reference) is replaced with a
// "[Circular]" placeholder; an object reached again through a separate
// branch is walked again.
func (s *Sanitizer) Snapshot(v goja.Value) interface{} {
	return s.snapshot(v, 0, make(map[*goja.Object]bool))
}

// SnapshotArgs converts a FunctionCall-style argument list in one pass.
func (s *Sanitizer) SnapshotArgs(args []goja.Value) []interface{} {
	out := make([]interface{}, len(args))
	seen := make(map[*goja.Object]bool)
	for i, a := range args {
		out[i] = s.snapshot(a, 0, seen)
	}
	return out
}

func (s *Sanitizer) snapshot(v goja.Value, depth int, seen map[*goja.Object]bool) interface{} {
	if v == nil || goja.IsUndefined(v) {
		return nil
	}
	if goja.IsNull(v) {
		return nil
	}

	if depth >= s.cfg.MaxDepth {
		return "[MaxDepth]"
	}

	switch {
	case isPrimitive(v):
		return s.snapshotPrimitive(v)
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return fmt.Sprintf("%v", v.Export())
	}
	if seen[obj] {
		return "[Circular]"
	}
	seen[obj] = true
	defer delete(seen, obj)

	if placeholder, ok := recognizeSpecial(obj); ok {
		return placeholder
	}

	if fn, ok := goja.AssertFunction(obj); ok {
		_ = fn
		return fmt.Sprintf("[Function: %s]", functionName(obj))
	}

	className := obj.ClassName()
	switch className {
	case "Array":
		return s.snapshotArray(obj, depth, seen)
	default:
		return s.snapshotObject(obj, depth, seen)
	}
}

func isPrimitive(v goja.Value) bool {
	switch v.ExportType().Kind().String() {
	case "string", "bool", "int64", "float64", "int", "int32":
		return true
	default:
		return false
	}
}

func (s *Sanitizer) snapshotPrimitive(v goja.Value) interface{} {
	exported := v.Export()
	str, ok := exported.(string)
	if !ok {
		return exported
	}
	if len(str) > s.cfg.MaxStringLen {
		str = str[:s.cfg.MaxStringLen] + "...(truncated)"
	}
	if s.policy != nil {
		str = s.policy.Sanitize(str)
	}
	return str
}

func (s *Sanitizer) snapshotArray(obj *goja.Object, depth int, seen map[*goja.Object]bool) interface{} {
	length := int(obj.Get("length").ToInteger())
	n := length
	truncated := false
	if n > s.cfg.MaxArrayLen {
		n = s.cfg.MaxArrayLen
		truncated = true
	}
	out := make([]interface{}, 0, n+1)
	for i := 0; i < n; i++ {
		out = append(out, s.snapshot(obj.Get(strconv.Itoa(i)), depth+1, seen))
	}
	if truncated {
		out = append(out, fmt.Sprintf("...(%d more)", length-n))
	}
	return out
}

func (s *Sanitizer) snapshotObject(obj *goja.Object, depth int, seen map[*goja.Object]bool) interface{} {
	keys := obj.Keys()
	out := make(map[string]interface{}, len(keys))
	truncatedKeys := 0
	for i, k := range keys {
		if i >= s.cfg.MaxKeys {
			truncatedKeys = len(keys) - i
			break
		}
		out[k] = s.snapshot(obj.Get(k), depth+1, seen)
	}
	if truncatedKeys > 0 {
		out["..."] = fmt.Sprintf("(%d more keys)", truncatedKeys)
	}
	return out
}

func functionName(obj *goja.Object) string {
	if name := obj.Get("name"); name != nil && !goja.IsUndefined(name) {
		if s, ok := name.Export().(string); ok && s != "" {
			return s
		}
	}
	return "(anonymous)"
}
