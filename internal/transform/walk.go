package transform

import "github.com/dop251/goja/ast"

// visitor receives every function-shaped node transform discovers, along
// with the BlockStatement of its enclosing scope's own statements (used
// when rewriting that scope's own return statements; nested functions are
// visited independently and never have their returns rewritten by an
// outer call).
type visitor struct {
	onFunction func(node ast.Node, name string, params *ast.ParameterList, body *ast.BlockStatement, kind string)
	// onConciseArrow fires for an arrow whose body is a bare expression
	// ("x => x + 1") instead of a block, per spec §4.1 step 6: the
	// expression body is promoted to a block in the rewritten form, so
	// this gets its own splice path rather than onFunction's brace-based
	// one.
	onConciseArrow func(node ast.Node, params *ast.ParameterList, body ast.Expression)
}

// walkProgram performs a best-effort recursive descent over the common
// ES5+class+arrow subset goja's parser produces, calling v.onFunction for
// every function declaration, function expression, arrow function, and
// class method it finds. Constructs outside this subset (generators,
// destructuring patterns, for-await) are left untouched — their bodies
// are not traced, which only narrows coverage, it never corrupts output.
func walkProgram(p *ast.Program, v *visitor) {
	for _, s := range p.Body {
		walkStatement(s, v)
	}
}

func walkStatement(s ast.Statement, v *visitor) {
	if s == nil {
		return
	}
	switch n := s.(type) {
	case *ast.BlockStatement:
		for _, st := range n.List {
			walkStatement(st, v)
		}
	case *ast.ExpressionStatement:
		walkExpression(n.Expression, v)
	case *ast.VariableStatement:
		for _, b := range n.List {
			walkBinding(b, v)
		}
	case *ast.LexicalDeclaration:
		for _, b := range n.List {
			walkBinding(b, v)
		}
	case *ast.ClassDeclaration:
		walkClassLiteral(n.Class, v)
	case *ast.ReturnStatement:
		walkExpression(n.Argument, v)
	case *ast.IfStatement:
		walkExpression(n.Test, v)
		walkStatement(n.Consequent, v)
		walkStatement(n.Alternate, v)
	case *ast.ForStatement:
		walkStatement(n.Body, v)
	case *ast.ForInStatement:
		walkStatement(n.Body, v)
	case *ast.ForOfStatement:
		walkStatement(n.Body, v)
	case *ast.WhileStatement:
		walkExpression(n.Test, v)
		walkStatement(n.Body, v)
	case *ast.DoWhileStatement:
		walkExpression(n.Test, v)
		walkStatement(n.Body, v)
	case *ast.TryStatement:
		if n.Body != nil {
			walkStatement(n.Body, v)
		}
		if n.Catch != nil && n.Catch.Body != nil {
			walkStatement(n.Catch.Body, v)
		}
		if n.Finally != nil {
			walkStatement(n.Finally, v)
		}
	case *ast.SwitchStatement:
		walkExpression(n.Discriminant, v)
		for _, c := range n.Body {
			for _, st := range c.Consequent {
				walkStatement(st, v)
			}
		}
	case *ast.LabelledStatement:
		walkStatement(n.Statement, v)
	case *ast.FunctionDeclaration:
		walkFunctionLiteral(n.Function, v)
	case *ast.ThrowStatement:
		walkExpression(n.Argument, v)
	}
}

func walkBinding(b *ast.Binding, v *visitor) {
	if b == nil {
		return
	}
	walkExpression(b.Initializer, v)
}

func walkExpression(e ast.Expression, v *visitor) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.FunctionLiteral:
		walkFunctionLiteral(n, v)
	case *ast.ArrowFunctionLiteral:
		walkArrowLiteral(n, v)
	case *ast.ClassLiteral:
		walkClassLiteral(n, v)
	case *ast.AssignExpression:
		walkExpression(n.Left, v)
		walkExpression(n.Right, v)
	case *ast.BinaryExpression:
		walkExpression(n.Left, v)
		walkExpression(n.Right, v)
	case *ast.UnaryExpression:
		walkExpression(n.Operand, v)
	case *ast.ConditionalExpression:
		walkExpression(n.Test, v)
		walkExpression(n.Consequent, v)
		walkExpression(n.Alternate, v)
	case *ast.SequenceExpression:
		for _, e := range n.Sequence {
			walkExpression(e, v)
		}
	case *ast.CallExpression:
		walkExpression(n.Callee, v)
		for _, a := range n.ArgumentList {
			walkExpression(a, v)
		}
	case *ast.AwaitExpression:
		walkExpression(n.Argument, v)
	case *ast.NewExpression:
		walkExpression(n.Callee, v)
		for _, a := range n.ArgumentList {
			walkExpression(a, v)
		}
	case *ast.ArrayLiteral:
		for _, el := range n.Value {
			walkExpression(el, v)
		}
	case *ast.ObjectLiteral:
		for _, p := range n.Value {
			if kv, ok := p.(*ast.PropertyKeyed); ok {
				walkExpression(kv.Value, v)
			}
		}
	case *ast.DotExpression:
		walkExpression(n.Left, v)
	case *ast.BracketExpression:
		walkExpression(n.Left, v)
		walkExpression(n.Member, v)
	}
}

func walkFunctionLiteral(fn *ast.FunctionLiteral, v *visitor) {
	if fn == nil || fn.Body == nil {
		return
	}
	name := ""
	if fn.Name != nil {
		name = fn.Name.Name.String()
	}
	v.onFunction(fn, name, fn.ParameterList, fn.Body, "function")
	for _, st := range fn.Body.List {
		walkStatement(st, v)
	}
}

func walkArrowLiteral(fn *ast.ArrowFunctionLiteral, v *visitor) {
	if fn == nil {
		return
	}
	if body, ok := fn.Body.(*ast.BlockStatement); ok {
		v.onFunction(fn, "", fn.ParameterList, body, "arrow")
		for _, st := range body.List {
			walkStatement(st, v)
		}
		return
	}
	// concise-body arrow ("x => x + 1"): promoted to a block by
	// onConciseArrow's splice, then walked for nested functions the same
	// way a block body's statements are.
	if eb, ok := fn.Body.(*ast.ExpressionBody); ok && eb.Expression != nil {
		expr := eb.Expression
		if v.onConciseArrow != nil {
			v.onConciseArrow(fn, fn.ParameterList, expr)
		}
		walkExpression(expr, v)
	}
}

func walkClassLiteral(cls *ast.ClassLiteral, v *visitor) {
	if cls == nil {
		return
	}
	for _, el := range cls.Body {
		m, ok := el.(*ast.MethodDefinition)
		if !ok || m.Body == nil {
			continue
		}
		kind := "method"
		if m.Static {
			kind = "static-method"
		}
		if m.Key != nil {
			if id, ok := m.Key.(*ast.Identifier); ok && id.Name.String() == "constructor" {
				kind = "constructor"
			}
		}
		switch m.Kind {
		case ast.PropertyKindGet:
			kind = "getter"
		case ast.PropertyKindSet:
			kind = "setter"
		}
		name := ""
		if id, ok := m.Key.(*ast.Identifier); ok {
			name = id.Name.String()
		}
		v.onFunction(m.Body, name, m.Body.ParameterList, m.Body.Body, kind)
		for _, st := range m.Body.Body.List {
			walkStatement(st, v)
		}
	}
}
