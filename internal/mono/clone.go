package mono

import (
	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/types"
)

// substMap builds the type-parameter-name -> concrete-type substitution
// for one instantiation.
func substMap(params []ast.TypeParamDecl, args []*types.Type) map[string]*types.Type {
	m := make(map[string]*types.Type, len(params))
	for i, p := range params {
		if i < len(args) {
			m[p.Name] = args[i]
		}
	}
	return m
}

func substType(te *ast.TypeExpr, subst map[string]*types.Type) *ast.TypeExpr {
	if te == nil {
		return nil
	}
	if te.Kind == ast.TypeParam {
		if t, ok := subst[te.ParamName]; ok {
			return types.ToExpr(t)
		}
		return &ast.TypeExpr{Kind: te.Kind, Span: te.Span, ParamName: te.ParamName, Bounds: append([]string(nil), te.Bounds...)}
	}
	cp := *te
	cp.Elem = substType(te.Elem, subst)
	cp.Pointee = substType(te.Pointee, subst)
	cp.Ok = substType(te.Ok, subst)
	cp.Err = substType(te.Err, subst)
	if te.TypeArgs != nil {
		cp.TypeArgs = make([]*ast.TypeExpr, len(te.TypeArgs))
		for i, a := range te.TypeArgs {
			cp.TypeArgs[i] = substType(a, subst)
		}
	}
	return &cp
}

// cloneExpr deep-copies an expression tree, substituting any nested type
// annotation (a cast target) along the way. Monomorphized clones never
// share substructure with their generic template or with each other
// (spec §9 "avoid shared substructure").
func cloneExpr(e *ast.Expr, subst map[string]*types.Type) *ast.Expr {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Left = cloneExpr(e.Left, subst)
	cp.Right = cloneExpr(e.Right, subst)
	cp.Callee = cloneExpr(e.Callee, subst)
	cp.Receiver = cloneExpr(e.Receiver, subst)
	cp.Args = cloneExprSlice(e.Args, subst)
	cp.Object = cloneExpr(e.Object, subst)
	cp.Array = cloneExpr(e.Array, subst)
	cp.Index = cloneExpr(e.Index, subst)
	cp.Elems = cloneExprSlice(e.Elems, subst)
	cp.From = cloneExpr(e.From, subst)
	cp.To = cloneExpr(e.To, subst)
	cp.Target = cloneExpr(e.Target, subst)
	cp.CastType = substType(e.CastType, subst)
	cp.CastExpr = cloneExpr(e.CastExpr, subst)
	cp.Inner = cloneExpr(e.Inner, subst)
	if e.Fields != nil {
		cp.Fields = make([]ast.FieldInit, len(e.Fields))
		for i, f := range e.Fields {
			cp.Fields[i] = ast.FieldInit{Name: f.Name, Value: cloneExpr(f.Value, subst)}
		}
	}
	cp.Tuple = cloneExprSlice(e.Tuple, subst)
	if e.Fragments != nil {
		cp.Fragments = make([]ast.InterpFragment, len(e.Fragments))
		for i, f := range e.Fragments {
			cp.Fragments[i] = ast.InterpFragment{Text: f.Text, Expr: cloneExpr(f.Expr, subst)}
		}
	}
	cp.ResolvedType = nil
	return &cp
}

func cloneExprSlice(in []*ast.Expr, subst map[string]*types.Type) []*ast.Expr {
	if in == nil {
		return nil
	}
	out := make([]*ast.Expr, len(in))
	for i, e := range in {
		out[i] = cloneExpr(e, subst)
	}
	return out
}

func clonePattern(p ast.Pattern, subst map[string]*types.Type) ast.Pattern {
	cp := p
	cp.Lit = cloneExpr(p.Lit, subst)
	cp.Bindings = append([]string(nil), p.Bindings...)
	if p.Nested != nil {
		cp.Nested = make([]ast.Pattern, len(p.Nested))
		for i, n := range p.Nested {
			cp.Nested[i] = clonePattern(n, subst)
		}
	}
	return cp
}

func cloneStmt(st *ast.Stmt, subst map[string]*types.Type) *ast.Stmt {
	if st == nil {
		return nil
	}
	cp := *st
	cp.VarType = substType(st.VarType, subst)
	cp.VarValue = cloneExpr(st.VarValue, subst)
	cp.Cond = cloneExpr(st.Cond, subst)
	cp.Then = cloneStmtSlice(st.Then, subst)
	if st.Elifs != nil {
		cp.Elifs = make([]ast.ElifClause, len(st.Elifs))
		for i, el := range st.Elifs {
			cp.Elifs[i] = ast.ElifClause{Cond: cloneExpr(el.Cond, subst), Body: cloneStmtSlice(el.Body, subst)}
		}
	}
	cp.Else = cloneStmtSlice(st.Else, subst)
	cp.Body = cloneStmtSlice(st.Body, subst)
	cp.IterExpr = cloneExpr(st.IterExpr, subst)
	cp.Subject = cloneExpr(st.Subject, subst)
	if st.Arms != nil {
		cp.Arms = make([]ast.MatchArm, len(st.Arms))
		for i, arm := range st.Arms {
			cp.Arms[i] = ast.MatchArm{Pattern: clonePattern(arm.Pattern, subst), Body: cloneStmtSlice(arm.Body, subst)}
		}
	}
	cp.ReturnValue = cloneExpr(st.ReturnValue, subst)
	cp.Expr = cloneExpr(st.Expr, subst)
	return &cp
}

func cloneStmtSlice(in []*ast.Stmt, subst map[string]*types.Type) []*ast.Stmt {
	if in == nil {
		return nil
	}
	out := make([]*ast.Stmt, len(in))
	for i, s := range in {
		out[i] = cloneStmt(s, subst)
	}
	return out
}

func cloneFunctionDecl(fn *ast.FunctionDecl, subst map[string]*types.Type, newName string) *ast.FunctionDecl {
	cp := *fn
	cp.Name = newName
	cp.TypeParams = nil
	cp.Params = make([]ast.Param, len(fn.Params))
	for i, p := range fn.Params {
		cp.Params[i] = ast.Param{Name: p.Name, Type: substType(p.Type, subst)}
	}
	cp.ReturnType = substType(fn.ReturnType, subst)
	if fn.Receiver != nil {
		r := ast.Param{Name: fn.Receiver.Name, Type: substType(fn.Receiver.Type, subst)}
		cp.Receiver = &r
	}
	cp.Body = make([]ast.Stmt, len(fn.Body))
	for i := range fn.Body {
		cp.Body[i] = *cloneStmt(&fn.Body[i], subst)
	}
	return &cp
}

func cloneStructDecl(s *ast.StructDecl, subst map[string]*types.Type, newName string) *ast.StructDecl {
	cp := *s
	cp.Name = newName
	cp.TypeParams = nil
	cp.Fields = make([]ast.FieldDecl, len(s.Fields))
	for i, f := range s.Fields {
		cp.Fields[i] = ast.FieldDecl{Name: f.Name, Type: substType(f.Type, subst)}
	}
	// Methods are registered individually under "<mangled>.<method>"
	// (see monomorphizer.cloneAndRegisterMethod); the struct shell itself
	// carries none, matching how C1 already splits method storage from
	// struct shells into the function subspace.
	cp.Methods = nil
	return &cp
}

func cloneEnumDecl(e *ast.EnumDecl, subst map[string]*types.Type, newName string) *ast.EnumDecl {
	cp := *e
	cp.Name = newName
	cp.TypeParams = nil
	cp.Variants = make([]ast.VariantDecl, len(e.Variants))
	for i, v := range e.Variants {
		payload := make([]*ast.TypeExpr, len(v.Payload))
		for j, p := range v.Payload {
			payload[j] = substType(p, subst)
		}
		cp.Variants[i] = ast.VariantDecl{Name: v.Name, Payload: payload}
	}
	cp.Methods = nil
	return &cp
}
