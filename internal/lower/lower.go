// Package lower implements C5, the AST Lowerer (spec §4.5): after
// monomorphization every function body still contains method/extension
// calls and `??` propagation; this pass rewrites both into the
// free-function-call-and-explicit-control-flow form the later passes
// (hash derivation, type checking, borrow checking) operate on.
package lower

import (
	"fmt"

	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/symbols"
	"github.com/oxhq/sushic/internal/types"
)

// Result is C5's diagnostic output; the rewritten bodies are the real
// product, mutated in place on the symbol table's own declarations.
type Result struct {
	Bag *diag.Bag
}

// Lower rewrites every function registered in table (spec §4.5).
func Lower(table *symbols.Table) Result {
	l := &lowerer{table: table, bag: diag.NewBag()}

	extMethods := map[*ast.FunctionDecl]bool{}
	for _, ext := range table.AllExtensions() {
		for _, m := range ext.Decl.Methods {
			extMethods[m] = true
		}
	}

	for _, fn := range table.Functions() {
		l.lowerFunction(fn.Decl, extMethods[fn.Decl])
	}
	return Result{Bag: l.bag}
}

type typeEnv struct {
	vars map[string]*types.Type
}

func newTypeEnv() *typeEnv { return &typeEnv{vars: map[string]*types.Type{}} }

func (e *typeEnv) clone() *typeEnv {
	cp := newTypeEnv()
	for k, v := range e.vars {
		cp.vars[k] = v
	}
	return cp
}

type lowerer struct {
	table *symbols.Table
	bag   *diag.Bag
	fn    *ast.FunctionDecl
	tmp   int
}

func (l *lowerer) freshVar() string {
	l.tmp++
	return fmt.Sprintf("__prop%d", l.tmp)
}

func (l *lowerer) lowerFunction(fn *ast.FunctionDecl, isExt bool) {
	l.fn = fn
	env := newTypeEnv()
	if fn.Receiver != nil {
		env.vars[fn.Receiver.Name] = types.FromExpr(fn.Receiver.Type)
	}
	for _, p := range fn.Params {
		env.vars[p.Name] = types.FromExpr(p.Type)
	}

	lowered := make([]*ast.Stmt, 0, len(fn.Body))
	for i := range fn.Body {
		lowered = append(lowered, l.lowerStmt(&fn.Body[i], env, isExt)...)
	}
	newBody := make([]ast.Stmt, len(lowered))
	for i, st := range lowered {
		newBody[i] = *st
	}
	fn.Body = newBody
}

func (l *lowerer) lowerBlock(stmts []*ast.Stmt, env *typeEnv, isExt bool) []*ast.Stmt {
	var out []*ast.Stmt
	for _, st := range stmts {
		out = append(out, l.lowerStmt(st, env, isExt)...)
	}
	return out
}

// lowerStmt lowers one statement and returns its replacement(s): usually
// itself unchanged, but a statement-level `return`/`let`/`:=`/expr-
// statement whose sole value is a `??` expands into a `let` plus an
// explicit Result match (spec §4.5's `??` rule).
func (l *lowerer) lowerStmt(st *ast.Stmt, env *typeEnv, isExt bool) []*ast.Stmt {
	switch st.Kind {
	case ast.KindLet:
		l.lowerExpr(st.VarValue, env)
		if st.VarValue != nil && st.VarValue.Kind == ast.KindPropagate {
			if repl := l.rewritePropagate(st.VarValue, isExt, func(ok *ast.Expr) *ast.Stmt {
				return &ast.Stmt{Kind: ast.KindLet, Span: st.Span, VarName: st.VarName, VarType: st.VarType, VarValue: ok}
			}); repl != nil {
				return repl
			}
		}
		if st.VarType != nil {
			env.vars[st.VarName] = types.FromExpr(st.VarType)
		} else {
			env.vars[st.VarName] = nil
		}
		return []*ast.Stmt{st}

	case ast.KindRebind:
		l.lowerExpr(st.VarValue, env)
		if st.VarValue != nil && st.VarValue.Kind == ast.KindPropagate {
			if repl := l.rewritePropagate(st.VarValue, isExt, func(ok *ast.Expr) *ast.Stmt {
				return &ast.Stmt{Kind: ast.KindRebind, Span: st.Span, VarName: st.VarName, VarValue: ok}
			}); repl != nil {
				return repl
			}
		}
		return []*ast.Stmt{st}

	case ast.KindIf:
		l.lowerExpr(st.Cond, env)
		st.Then = l.lowerBlock(st.Then, env.clone(), isExt)
		for i := range st.Elifs {
			l.lowerExpr(st.Elifs[i].Cond, env)
			st.Elifs[i].Body = l.lowerBlock(st.Elifs[i].Body, env.clone(), isExt)
		}
		st.Else = l.lowerBlock(st.Else, env.clone(), isExt)
		return []*ast.Stmt{st}

	case ast.KindWhile:
		l.lowerExpr(st.Cond, env)
		st.Body = l.lowerBlock(st.Body, env.clone(), isExt)
		return []*ast.Stmt{st}

	case ast.KindForeach:
		l.lowerExpr(st.IterExpr, env)
		loopEnv := env.clone()
		loopEnv.vars[st.IterVar] = nil
		st.Body = l.lowerBlock(st.Body, loopEnv, isExt)
		return []*ast.Stmt{st}

	case ast.KindMatch:
		l.lowerExpr(st.Subject, env)
		for i := range st.Arms {
			st.Arms[i].Body = l.lowerBlock(st.Arms[i].Body, env.clone(), isExt)
		}
		return []*ast.Stmt{st}

	case ast.KindReturn:
		l.lowerExpr(st.ReturnValue, env)
		if st.ReturnValue != nil && st.ReturnValue.Kind == ast.KindPropagate {
			if repl := l.rewritePropagate(st.ReturnValue, isExt, func(ok *ast.Expr) *ast.Stmt {
				return &ast.Stmt{Kind: ast.KindReturn, Span: st.Span, ReturnValue: ok}
			}); repl != nil {
				return repl
			}
		}
		return []*ast.Stmt{st}

	case ast.KindExprStmt:
		l.lowerExpr(st.Expr, env)
		if st.Expr != nil && st.Expr.Kind == ast.KindPropagate {
			if repl := l.rewritePropagate(st.Expr, isExt, func(ok *ast.Expr) *ast.Stmt {
				return &ast.Stmt{Kind: ast.KindExprStmt, Span: st.Span, Expr: ok}
			}); repl != nil {
				return repl
			}
		}
		return []*ast.Stmt{st}
	}
	return []*ast.Stmt{st}
}

// rewritePropagate expands `let tmp := inner ??;`-shaped statements (spec
// §4.5's sole supported position: the propagate consumes a statement's
// entire value slot) into a `let` holding the raw Result plus an
// explicit match that returns `Err(e)` from the enclosing function on
// failure or continues with the unwrapped Ok payload otherwise. Returns
// nil (meaning "leave the statement as written") when `??` is used
// inside an extension method, which is rejected outright.
func (l *lowerer) rewritePropagate(prop *ast.Expr, isExt bool, buildOkStmt func(okIdent *ast.Expr) *ast.Stmt) []*ast.Stmt {
	if isExt {
		l.bag.Errorf(diag.CodePropagateInExtension, prop.Span, "`??` cannot be used inside an extension method")
		return nil
	}

	inner := prop.Inner
	calleeErr, known := l.calleeErrType(inner)
	encErr := errTypeOf(l.fn.ReturnType)
	if known {
		switch {
		case encErr == nil:
			l.bag.Warnf(diag.CodePropagationFromEntry, prop.Span,
				"`??` used in a function with no declared error type; the propagated error has nowhere to go")
		case calleeErr != nil && !types.Equal(encErr, calleeErr):
			l.bag.Errorf(diag.CodeErrorTypeMismatch, prop.Span,
				"`??` propagates error type %s but the enclosing function returns error type %s",
				calleeErr.String(), encErr.String())
		}
	}

	tmp, errVar, okVar := l.freshVar(), l.freshVar(), l.freshVar()

	letStmt := &ast.Stmt{Kind: ast.KindLet, Span: prop.Span, VarName: tmp, VarValue: inner}
	matchStmt := &ast.Stmt{
		Kind:    ast.KindMatch,
		Span:    prop.Span,
		Subject: &ast.Expr{Kind: ast.KindIdent, Name: tmp, Span: prop.Span},
		Arms: []ast.MatchArm{
			{
				Pattern: ast.Pattern{Kind: ast.PatternVariant, EnumName: "Result", Variant: "Err", Bindings: []string{errVar}},
				Body: []*ast.Stmt{{
					Kind: ast.KindReturn,
					Span: prop.Span,
					ReturnValue: &ast.Expr{
						Kind: ast.KindEnumLit, TypeName: "Result", Variant: "Err",
						Tuple: []*ast.Expr{{Kind: ast.KindIdent, Name: errVar}},
					},
				}},
			},
			{
				Pattern: ast.Pattern{Kind: ast.PatternVariant, EnumName: "Result", Variant: "Ok", Bindings: []string{okVar}},
				Body:    []*ast.Stmt{buildOkStmt(&ast.Expr{Kind: ast.KindIdent, Name: okVar, Span: prop.Span})},
			},
		},
	}
	return []*ast.Stmt{letStmt, matchStmt}
}

// errTypeOf extracts a declared return type's error component (`T | E`
// or explicit `Result<T, E>`); a bare `T` return type has no syntactic
// error component at this stage.
func errTypeOf(te *ast.TypeExpr) *types.Type {
	if te == nil {
		return nil
	}
	if te.Kind == ast.TypeResultShort || te.Kind == ast.TypeResult {
		return types.FromExpr(te.Err)
	}
	return nil
}

// calleeErrType looks up a free-function call's own declared error type,
// to check `??`'s "enclosing function's error type must equal E exactly"
// rule (spec §4.5). The bool return reports whether the callee's shape
// was known at all; false means the mismatch check is skipped rather
// than flagged, since there's nothing concrete to compare against.
func (l *lowerer) calleeErrType(inner *ast.Expr) (*types.Type, bool) {
	if inner == nil || inner.Kind != ast.KindCall || inner.Callee != nil || inner.Name == "" {
		return nil, false
	}
	fn, ok := l.table.Function(inner.Name)
	if !ok || fn.Decl.ReturnType == nil {
		return nil, false
	}
	rt := fn.Decl.ReturnType
	if rt.Kind == ast.TypeNominal && rt.Name == "Maybe" {
		// Maybe<T>::None widens to Err(StdError.Error) under the same
		// propagation rule (spec §4.5).
		return types.Nominal("StdError.Error"), true
	}
	return errTypeOf(rt), true
}

func (l *lowerer) lowerExpr(e *ast.Expr, env *typeEnv) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.KindBinary:
		l.lowerExpr(e.Left, env)
		l.lowerExpr(e.Right, env)
	case ast.KindUnary:
		l.lowerExpr(e.Left, env)
	case ast.KindCall:
		for _, a := range e.Args {
			l.lowerExpr(a, env)
		}
	case ast.KindMethodCall:
		l.lowerExpr(e.Receiver, env)
		for _, a := range e.Args {
			l.lowerExpr(a, env)
		}
		l.lowerMethodCall(e, env)
	case ast.KindFieldAccess:
		l.lowerExpr(e.Object, env)
	case ast.KindArrayIndex:
		l.lowerExpr(e.Array, env)
		l.lowerExpr(e.Index, env)
	case ast.KindArrayLiteral:
		for _, el := range e.Elems {
			l.lowerExpr(el, env)
		}
	case ast.KindRange:
		l.lowerExpr(e.From, env)
		l.lowerExpr(e.To, env)
		l.lowerRange(e)
	case ast.KindBorrow:
		l.lowerExpr(e.Target, env)
	case ast.KindCast:
		l.lowerExpr(e.CastExpr, env)
	case ast.KindPropagate:
		l.lowerExpr(e.Inner, env)
	case ast.KindStructLit:
		for _, f := range e.Fields {
			l.lowerExpr(f.Value, env)
		}
	case ast.KindEnumLit:
		for _, el := range e.Tuple {
			l.lowerExpr(el, env)
		}
	case ast.KindInterpolation:
		for _, frag := range e.Fragments {
			l.lowerExpr(frag.Expr, env)
		}
	}
}

// lowerMethodCall rewrites `x.m(args)` into `m__<ReceiverType>(x, args)`
// (spec §4.5). ReceiverType is read off the shallow type environment
// built from parameter/let annotations and struct/enum literal
// constructions; a receiver whose type can't be read syntactically at
// this stage (e.g. the result of an arbitrary field access or another
// method call) is left as a method call; see the DESIGN.md note on why
// full inference is deferred to C7.
func (l *lowerer) lowerMethodCall(e *ast.Expr, env *typeEnv) {
	recvType := inferReceiverType(e.Receiver, env)
	if recvType == nil {
		return
	}
	if recvType.Kind == types.KindReference {
		recvType = recvType.Pointee
	}
	name := e.Method + "__" + types.Mangle(recvType)

	args := make([]*ast.Expr, 0, len(e.Args)+1)
	args = append(args, e.Receiver)
	args = append(args, e.Args...)

	e.Kind = ast.KindCall
	e.Name = name
	e.Args = args
	e.Receiver = nil
	e.Method = ""
}

func inferReceiverType(recv *ast.Expr, env *typeEnv) *types.Type {
	if recv == nil {
		return nil
	}
	switch recv.Kind {
	case ast.KindIdent:
		return env.vars[recv.Name]
	case ast.KindBorrow:
		return inferReceiverType(recv.Target, env)
	case ast.KindStructLit, ast.KindEnumLit:
		return types.Nominal(recv.TypeName)
	}
	return nil
}

// lowerRange rewrites `a..b` / `a..=b` into a call to the runtime's
// directional range-iterator constructor (spec §4.5); direction is
// decided at the call site from the two (possibly non-constant) bounds
// rather than statically here.
func (l *lowerer) lowerRange(e *ast.Expr) {
	from, to, inclusive := e.From, e.To, e.Inclusive
	e.Kind = ast.KindCall
	e.Name = "iter__range"
	e.Args = []*ast.Expr{from, to, {Kind: ast.KindLiteral, LitKind: ast.LitBool, BoolVal: inclusive}}
	e.From = nil
	e.To = nil
}
