package transform

import (
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
)

// WrapCalls splices a call-site wrap around every call expression in
// program, per spec §4.1's call-site wrap: the dispatcher needs to know,
// before the callee even runs, whether this call sits in an awaited
// position, so it can mark the right frame un-awaited instead of
// inferring it afterward from the return value. Only the operand of an
// await expression counts as an awaited position here: the operand of
// yield, the value an async function returns, and the right side of a
// for-await-of are all treated as un-awaited.
//
// awaited is traced down through the transparent wrapper node types spec
// §4.1 step 4 names: parenthesized groups (goja's parser doesn't keep a
// distinct node for these, so there's nothing to do), sequence
// expressions (last element only), conditionals, logical/binary
// operators, array/object literals, and member expressions (so a query
// chain's intermediate links — `a.find()` inside `a.find().exec()` —
// aren't misclassified as un-awaited just because the outer `.exec()` is
// the literal await operand). Assignment right-hand sides, constructor
// arguments, and plain function arguments are never awaited positions.
// Generators/tagged templates aren't traced through; a call inside one
// degrades to unawaited=false the same way unreachable-by-this-walk code
// always has, which only narrows coverage, it never corrupts output.
//
// new-expressions are deliberately left unwrapped: a constructor's
// return value is never awaited, so there's nothing for the dispatcher
// to intercept.
func WrapCalls(program *ast.Program, fset *file.FileSet, buf *Buffer, src string, filePath string) {
	var walk func(e ast.Expression, awaited bool)
	var walkStatement func(s ast.Statement)
	walk = func(e ast.Expression, awaited bool) {
		if e == nil {
			return
		}
		switch n := e.(type) {
		case *ast.CallExpression:
			walk(n.Callee, awaited)
			for _, a := range n.ArgumentList {
				walk(a, false)
			}
			wrapCallSite(buf, n, fset, src, filePath, !awaited)
		case *ast.AwaitExpression:
			walk(n.Argument, true)
			wrapAwait(buf, n, src)
		case *ast.AssignExpression:
			walk(n.Left, false)
			walk(n.Right, false)
		case *ast.BinaryExpression:
			walk(n.Left, awaited)
			walk(n.Right, awaited)
		case *ast.UnaryExpression:
			walk(n.Operand, false)
		case *ast.ConditionalExpression:
			walk(n.Test, false)
			walk(n.Consequent, awaited)
			walk(n.Alternate, awaited)
		case *ast.SequenceExpression:
			last := len(n.Sequence) - 1
			for i, e := range n.Sequence {
				walk(e, awaited && i == last)
			}
		case *ast.NewExpression:
			walk(n.Callee, false)
			for _, a := range n.ArgumentList {
				walk(a, false)
			}
		case *ast.ArrayLiteral:
			for _, el := range n.Value {
				walk(el, awaited)
			}
		case *ast.ObjectLiteral:
			for _, p := range n.Value {
				if kv, ok := p.(*ast.PropertyKeyed); ok {
					walk(kv.Value, awaited)
				}
			}
		case *ast.DotExpression:
			walk(n.Left, awaited)
		case *ast.BracketExpression:
			walk(n.Left, awaited)
			walk(n.Member, false)
		case *ast.FunctionLiteral:
			walkStatement(n.Body)
		case *ast.ArrowFunctionLiteral:
			if body, ok := n.Body.(*ast.BlockStatement); ok {
				walkStatement(body)
			} else if eb, ok := n.Body.(*ast.ExpressionBody); ok {
				walk(eb.Expression, false)
			}
		}
	}

	walkStatement = func(s ast.Statement) {
		switch n := s.(type) {
		case *ast.BlockStatement:
			for _, st := range n.List {
				walkStatement(st)
			}
		case *ast.ExpressionStatement:
			walk(n.Expression, false)
		case *ast.VariableStatement:
			for _, b := range n.List {
				if b != nil {
					walk(b.Initializer, false)
				}
			}
		case *ast.LexicalDeclaration:
			for _, b := range n.List {
				if b != nil {
					walk(b.Initializer, false)
				}
			}
		case *ast.ReturnStatement:
			walk(n.Argument, false)
		case *ast.IfStatement:
			walk(n.Test, false)
			walkStatement(n.Consequent)
			walkStatement(n.Alternate)
		case *ast.ForStatement:
			walkStatement(n.Body)
		case *ast.ForInStatement:
			walkStatement(n.Body)
		case *ast.ForOfStatement:
			walkStatement(n.Body)
		case *ast.WhileStatement:
			walk(n.Test, false)
			walkStatement(n.Body)
		case *ast.DoWhileStatement:
			walk(n.Test, false)
			walkStatement(n.Body)
		case *ast.TryStatement:
			if n.Body != nil {
				walkStatement(n.Body)
			}
			if n.Catch != nil && n.Catch.Body != nil {
				walkStatement(n.Catch.Body)
			}
			if n.Finally != nil {
				walkStatement(n.Finally)
			}
		case *ast.SwitchStatement:
			walk(n.Discriminant, false)
			for _, c := range n.Body {
				for _, st := range c.Consequent {
					walkStatement(st)
				}
			}
		case *ast.LabelledStatement:
			walkStatement(n.Statement)
		case *ast.FunctionDeclaration:
			if n.Function != nil {
				walkStatement(n.Function.Body)
			}
		case *ast.ThrowStatement:
			walk(n.Argument, false)
		}
	}

	for _, s := range program.Body {
		walkStatement(s)
	}
}

// wrapCallSite rewrites a call expression's callee into a dispatcher-
// wrapped callable; the original argument list is left untouched, so the
// dispatcher's wrapper must itself be a function taking the original
// arguments. Plain calls ("foo()") wrap the callee directly. Non-computed
// member calls ("obj.method()") wrap through callMethod, passing the
// receiver and property name separately so `this` binding survives —
// wrapping the callee expression as a whole would evaluate obj.method
// into a detached function reference and lose it. Computed member calls
// ("obj[expr]()") are left unwrapped: splicing them safely would require
// evaluating expr exactly once into a temporary, which this pass doesn't
// attempt. unawaited is the literal spliced as the dispatch call's last
// argument, per spec §4.1 step 4.
func wrapCallSite(buf *Buffer, call *ast.CallExpression, fset *file.FileSet, src string, filePath string, unawaited bool) {
	calleeStart := int(call.Callee.Idx0()) - 1
	calleeEnd := int(call.Callee.Idx1()) - 1
	if calleeStart < 0 || calleeEnd > len(src) || calleeEnd < calleeStart {
		return
	}
	line := fset.Position(call.Callee.Idx0()).Line

	if dot, ok := call.Callee.(*ast.DotExpression); ok {
		objStart := int(dot.Left.Idx0()) - 1
		objEnd := int(dot.Left.Idx1()) - 1
		if objStart < 0 || objEnd > len(src) || objEnd < objStart {
			return
		}
		// The receiver's own source is left in place, so edits recorded
		// inside it (an inner call of a chain) still apply.
		buf.Insert(calleeStart, fmt.Sprintf("__tlDispatch.callMethod(%q, %d, ", filePath, line))
		buf.Replace(objEnd, calleeEnd, fmt.Sprintf(", %q, %t)", dot.Identifier.Name.String(), unawaited))
		return
	}
	if _, ok := call.Callee.(*ast.BracketExpression); ok {
		return // computed member call, left unwrapped
	}

	buf.Insert(calleeStart, fmt.Sprintf("__tlDispatch.call(%q, %d, ", filePath, line))
	buf.Insert(calleeEnd, fmt.Sprintf(", %t)", unawaited))
}

// wrapAwait splices the awaited expression through the dispatcher's
// await hook, which drops a pending un-awaited marker still queued on
// the scope, per scope's pending-unawaited/frame-unawaited bookkeeping
// (internal/scope).
func wrapAwait(buf *Buffer, a *ast.AwaitExpression, src string) {
	if a.Argument == nil {
		return
	}
	start := int(a.Argument.Idx0()) - 1
	end := int(a.Argument.Idx1()) - 1
	if start < 0 || end > len(src) || end < start {
		return
	}
	buf.Insert(start, "__tlDispatch.await((")
	buf.Insert(end, "))")
}
