package transform

import (
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
)

// site is one function-shaped node discovered by the walker, ready to be
// wrapped.
type site struct {
	name string
	kind string
	body *ast.BlockStatement
	line int
}

// WrapFunctions finds every function, arrow function, and class method in
// program and splices a dispatcher prologue/epilogue around its body, per
// spec §4.1. The prologue opens a span with the dispatcher and the
// epilogue closes it; a function's own (non-nested) return statements are
// rewritten so their value passes through the dispatcher's result-capture
// hook before propagating.
//
// idx-as-byte-offset assumes an ASCII/single-byte source file; a source
// file with multi-byte identifiers before a wrapped function would shift
// splice points. TODO: switch to file.FileSet-aware byte offsets if this
// surfaces in practice with real UTF-8-heavy sources.
func WrapFunctions(program *ast.Program, fset *file.FileSet, buf *Buffer, filePath string) {
	v := &visitor{}
	v.onFunction = func(node ast.Node, name string, params *ast.ParameterList, body *ast.BlockStatement, kind string) {
		line := fset.Position(node.Idx0()).Line
		wrapOne(buf, site{name: name, kind: kind, body: body, line: line}, filePath)
	}
	v.onConciseArrow = func(node ast.Node, params *ast.ParameterList, body ast.Expression) {
		line := fset.Position(node.Idx0()).Line
		wrapConciseArrow(buf, body, line, filePath)
	}
	walkProgram(program, v)
}

func wrapOne(buf *Buffer, s site, filePath string) {
	bodyStart := int(s.body.LeftBrace) - 1
	bodyEnd := int(s.body.RightBrace) - 1
	if bodyStart < 0 || bodyEnd < bodyStart {
		return
	}

	spanVar := fmt.Sprintf("__tlSpan%d", bodyStart)
	name := s.name
	if name == "" {
		name = "(anonymous)"
	}

	prologue := fmt.Sprintf(
		"{\nvar %s = __tlDispatch.enter(%q, %q, %d, %q, arguments);\ntry {\n",
		spanVar, name, filePath, s.line, s.kind,
	)
	buf.Replace(bodyStart, bodyStart+1, prologue)

	for _, ret := range ownReturns(s.body) {
		wrapReturn(buf, ret, spanVar)
	}

	epilogue := fmt.Sprintf(
		"\n} catch (__tlErr) {\n__tlDispatch.exitThrow(%s, __tlErr);\nthrow __tlErr;\n} finally {\n__tlDispatch.exit(%s);\n}\n}",
		spanVar, spanVar,
	)
	buf.Replace(bodyEnd, bodyEnd+1, epilogue)
}

func wrapReturn(buf *Buffer, ret *ast.ReturnStatement, spanVar string) {
	if ret.Argument == nil {
		return
	}
	start := int(ret.Argument.Idx0()) - 1
	end := int(ret.Argument.Idx1()) - 1
	if start < 0 || end < start {
		return
	}
	buf.Insert(start, fmt.Sprintf("__tlDispatch.result(%s, (", spanVar))
	buf.Insert(end, "))")
}

// wrapConciseArrow promotes an arrow's expression body to a block and
// wraps it like any other function, per spec §4.1 step 6. "x => x + 1"
// becomes the equivalent of "x => { return __tlDispatch.result(span, (x
// + 1)); }" with the same enter/try/catch/finally/exit prologue and
// epilogue wrapOne splices around a real block body.
func wrapConciseArrow(buf *Buffer, body ast.Expression, line int, filePath string) {
	start := int(body.Idx0()) - 1
	end := int(body.Idx1()) - 1
	if start < 0 || end < start {
		return
	}

	spanVar := fmt.Sprintf("__tlSpan%d", start)
	prologue := fmt.Sprintf(
		"{\nvar %s = __tlDispatch.enter(%q, %q, %d, %q, arguments);\ntry {\nreturn __tlDispatch.result(%s, (",
		spanVar, "(anonymous)", filePath, line, "arrow", spanVar,
	)
	epilogue := fmt.Sprintf(
		"));\n} catch (__tlErr) {\n__tlDispatch.exitThrow(%s, __tlErr);\nthrow __tlErr;\n} finally {\n__tlDispatch.exit(%s);\n}\n}",
		spanVar, spanVar,
	)
	buf.Insert(start, prologue)
	buf.Insert(end, epilogue)
}

// ownReturns collects return statements belonging directly to body's
// scope, stopping at any nested function/arrow/class boundary so a
// nested function's returns are rewritten only when that function is
// itself visited by the walker.
func ownReturns(body *ast.BlockStatement) []*ast.ReturnStatement {
	var out []*ast.ReturnStatement
	var walk func(s ast.Statement)
	walk = func(s ast.Statement) {
		switch n := s.(type) {
		case *ast.BlockStatement:
			for _, st := range n.List {
				walk(st)
			}
		case *ast.ReturnStatement:
			out = append(out, n)
		case *ast.IfStatement:
			walk(n.Consequent)
			walk(n.Alternate)
		case *ast.ForStatement:
			walk(n.Body)
		case *ast.ForInStatement:
			walk(n.Body)
		case *ast.ForOfStatement:
			walk(n.Body)
		case *ast.WhileStatement:
			walk(n.Body)
		case *ast.DoWhileStatement:
			walk(n.Body)
		case *ast.TryStatement:
			if n.Body != nil {
				walk(n.Body)
			}
			if n.Catch != nil && n.Catch.Body != nil {
				walk(n.Catch.Body)
			}
			if n.Finally != nil {
				walk(n.Finally)
			}
		case *ast.SwitchStatement:
			for _, c := range n.Body {
				for _, st := range c.Consequent {
					walk(st)
				}
			}
		case *ast.LabelledStatement:
			walk(n.Statement)
		}
	}
	for _, st := range body.List {
		walk(st)
	}
	return out
}
