// Package typecheck implements C7, the Type Checker (spec §4.7): the
// largest pass in the pipeline, computing a type for every statement and
// expression in the lowered AST and verifying each context's
// expectation against it.
package typecheck

import (
	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/symbols"
	"github.com/oxhq/sushic/internal/types"
)

// Result is C7's diagnostic output.
type Result struct {
	Bag *diag.Bag
}

// Check type-checks every function registered in table.
func Check(table *symbols.Table) Result {
	c := &checker{table: table, bag: diag.NewBag()}
	for _, fn := range table.Functions() {
		c.checkFunction(fn.Decl)
	}
	return Result{Bag: c.bag}
}

type checker struct {
	table   *symbols.Table
	bag     *diag.Bag
	tvar    int
	fn      *ast.FunctionDecl
	fnRet   *types.Type // effective (always-wrapped) return type of the function under check
}

// freshTypeVar mints a type variable unique across the whole checking
// run — the shared per-run allocator the corpus's comparable analyzers
// use so fresh variables never collide across functions.
func (c *checker) freshTypeVar() *types.Type {
	c.tvar++
	return types.Param(tvarName(c.tvar))
}

func tvarName(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	s := ""
	for n > 0 || s == "" {
		s = string(letters[n%26]) + s
		n /= 26
		if n == 0 {
			break
		}
		n--
	}
	return "'" + s
}

// effectiveReturnType computes a function's true return type per §4.7's
// implicit-wrapping rule: `T` becomes `Result<T, StdError.Error>`, `T | E`
// becomes `Result<T, E>`, and an explicit `Result<T, E>` is accepted
// as-is unless T is itself a Result (double-wrapping, rejected).
func (c *checker) effectiveReturnType(te *ast.TypeExpr) *types.Type {
	if te == nil {
		return types.ResultOf(types.Prim(types.Unit), types.Nominal("StdError.Error"))
	}
	switch te.Kind {
	case ast.TypeResultShort:
		return types.ResultOf(types.FromExpr(te.Ok), types.FromExpr(te.Err))
	case ast.TypeResult:
		ok := types.FromExpr(te.Ok)
		if ok != nil && ok.Kind == types.KindResult {
			c.bag.Errorf(diag.CodeTypeMismatch, te.Span,
				"return type %s double-wraps Result; write the inner type directly", types.FromExpr(te).String())
		}
		return types.ResultOf(ok, types.FromExpr(te.Err))
	default:
		return types.ResultOf(types.FromExpr(te), types.Nominal("StdError.Error"))
	}
}

func (c *checker) checkFunction(fn *ast.FunctionDecl) {
	c.fn = fn
	c.fnRet = c.effectiveReturnType(fn.ReturnType)

	env := map[string]*types.Type{}
	if fn.Receiver != nil {
		env[fn.Receiver.Name] = types.FromExpr(fn.Receiver.Type)
	}
	for _, p := range fn.Params {
		env[p.Name] = types.FromExpr(p.Type)
	}
	for i := range fn.Body {
		c.checkStmt(&fn.Body[i], env)
	}
}

func (c *checker) checkBlock(stmts []*ast.Stmt, env map[string]*types.Type) {
	for _, st := range stmts {
		c.checkStmt(st, cloneEnv(env))
	}
}

func cloneEnv(env map[string]*types.Type) map[string]*types.Type {
	cp := make(map[string]*types.Type, len(env))
	for k, v := range env {
		cp[k] = v
	}
	return cp
}

func (c *checker) checkStmt(st *ast.Stmt, env map[string]*types.Type) {
	switch st.Kind {
	case ast.KindLet:
		valTy := c.typeOf(st.VarValue, env)
		if st.VarType != nil {
			declTy := types.FromExpr(st.VarType)
			// Assigning a Result<T,E> to a variable declared as plain T is
			// forbidden (§4.7) — the user must .realise() or `??` first.
			if valTy != nil && valTy.Kind == types.KindResult && declTy != nil && declTy.Kind != types.KindResult {
				c.bag.Errorf(diag.CodeUnwrappedResult, st.Span,
					"cannot assign %s to a variable declared %s without .realise() or `??`", valTy.String(), declTy.String())
			} else if valTy != nil && declTy != nil && !assignable(declTy, valTy) {
				c.bag.Errorf(diag.CodeTypeMismatch, st.Span, "cannot assign value of type %s to variable of type %s", valTy.String(), declTy.String())
			}
			env[st.VarName] = declTy
		} else {
			env[st.VarName] = valTy
		}

	case ast.KindRebind:
		c.typeOf(st.VarValue, env)

	case ast.KindIf:
		c.typeOf(st.Cond, env)
		c.checkBlock(st.Then, env)
		for i := range st.Elifs {
			c.typeOf(st.Elifs[i].Cond, env)
			c.checkBlock(st.Elifs[i].Body, env)
		}
		c.checkBlock(st.Else, env)

	case ast.KindWhile:
		c.typeOf(st.Cond, env)
		c.checkBlock(st.Body, env)

	case ast.KindForeach:
		iterTy := c.typeOf(st.IterExpr, env)
		loopEnv := cloneEnv(env)
		loopEnv[st.IterVar] = elementTypeOf(iterTy)
		c.checkBlock(st.Body, loopEnv)

	case ast.KindMatch:
		subjTy := c.typeOf(st.Subject, env)
		c.checkExhaustive(st, subjTy)
		for i := range st.Arms {
			armEnv := cloneEnv(env)
			bindPatternVars(st.Arms[i].Pattern, subjTy, armEnv, c.table)
			c.checkBlock(st.Arms[i].Body, armEnv)
		}

	case ast.KindReturn:
		retTy := c.typeOf(st.ReturnValue, env)
		c.checkReturnType(st, retTy)

	case ast.KindExprStmt:
		exprTy := c.typeOf(st.Expr, env)
		if exprTy != nil && exprTy.Kind == types.KindResult {
			c.bag.Warnf(diag.CodeUnusedResult, st.Span, "result of type %s is discarded", exprTy.String())
		}
	}
}

// checkReturnType compares a return value's type against the enclosing
// function's effective return type, component-wise when the value is a
// direct `Result::Ok`/`Result::Err` construction, and wholesale otherwise
// (e.g. `return otherFn()` where the callee already produces the same
// Result type). C5 does not rewrite other return shapes into a Result
// construction.
func (c *checker) checkReturnType(st *ast.Stmt, retTy *types.Type) {
	if retTy == nil || c.fnRet == nil {
		return
	}
	e := st.ReturnValue
	if e != nil && e.Kind == ast.KindEnumLit && e.TypeName == "Result" {
		switch e.Variant {
		case "Ok":
			if len(e.Tuple) == 1 {
				okTy := c.typeOf(e.Tuple[0], nil)
				if okTy != nil && c.fnRet.Args[0] != nil && !assignable(c.fnRet.Args[0], okTy) {
					c.bag.Errorf(diag.CodeTypeMismatch, st.Span,
						"returned Ok payload has type %s but function declares %s", okTy.String(), c.fnRet.Args[0].String())
				}
			}
		case "Err":
			if len(e.Tuple) == 1 {
				errTy := c.typeOf(e.Tuple[0], nil)
				if errTy != nil && c.fnRet.Args[1] != nil && !types.Equal(c.fnRet.Args[1], errTy) {
					c.bag.Errorf(diag.CodeErrorTypeMismatch, st.Span,
						"returned Err payload has type %s but function declares error type %s", errTy.String(), c.fnRet.Args[1].String())
				}
			}
		}
		return
	}
	if !types.Equal(c.fnRet, retTy) {
		c.bag.Errorf(diag.CodeTypeMismatch, st.Span, "return value has type %s but function returns %s", retTy.String(), c.fnRet.String())
	}
}

// checkExhaustive verifies a match over a nominal enum covers every
// declared variant, or carries a wildcard arm (§4.7's exhaustiveness
// rule). Matches over a non-enum subject, or an enum this table doesn't
// know the shape of (a built-in Result/Maybe), are not checked here.
func (c *checker) checkExhaustive(st *ast.Stmt, subjTy *types.Type) {
	if subjTy == nil || subjTy.Kind != types.KindNominal {
		return
	}
	enum, ok := c.table.Enum(subjTy.Name)
	if !ok {
		return
	}
	seen := map[string]bool{}
	hasWildcard := false
	for _, arm := range st.Arms {
		if arm.Pattern.Kind == ast.PatternWildcard {
			hasWildcard = true
			continue
		}
		seen[arm.Pattern.Variant] = true
	}
	if hasWildcard {
		return
	}
	for _, v := range enum.Decl.Variants {
		if !seen[v.Name] {
			c.bag.Errorf(diag.CodeNonExhaustiveMatch, st.Span, "match over %s is missing variant %q", subjTy.Name, v.Name)
		}
	}
}

func bindPatternVars(p ast.Pattern, subjTy *types.Type, env map[string]*types.Type, table *symbols.Table) {
	if p.Kind != ast.PatternVariant || subjTy == nil {
		return
	}
	if subjTy.Kind == types.KindResult {
		switch p.Variant {
		case "Ok":
			if len(p.Bindings) == 1 {
				env[p.Bindings[0]] = subjTy.Args[0]
			}
		case "Err":
			if len(p.Bindings) == 1 {
				env[p.Bindings[0]] = subjTy.Args[1]
			}
		}
		return
	}
	if subjTy.Kind == types.KindMaybe {
		if p.Variant == "Some" && len(p.Bindings) == 1 {
			env[p.Bindings[0]] = subjTy.Args[0]
		}
		return
	}
	if subjTy.Kind != types.KindNominal {
		return
	}
	enum, ok := table.Enum(subjTy.Name)
	if !ok {
		return
	}
	for _, v := range enum.Decl.Variants {
		if v.Name != p.Variant {
			continue
		}
		for i, binding := range p.Bindings {
			if binding == "_" || i >= len(v.Payload) {
				continue
			}
			env[binding] = types.FromExpr(v.Payload[i])
		}
	}
}

func elementTypeOf(t *types.Type) *types.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case types.KindDynArray, types.KindFixedArray, types.KindList:
		return t.Elem
	case types.KindIterator:
		return t.Args[0]
	}
	return nil
}

// assignable implements the one documented covariance rule (§4.7): a
// `&peek T` expectation accepts both `&peek T` and `&poke T`; a `&poke T`
// expectation accepts only `&poke T`. Everything else requires exact
// structural equality.
func assignable(expected, actual *types.Type) bool {
	if expected == nil || actual == nil {
		return true
	}
	if expected.Kind == types.KindReference && actual.Kind == types.KindReference {
		if expected.Mode == types.BorrowPoke && actual.Mode != types.BorrowPoke {
			return false
		}
		return assignable(expected.Pointee, actual.Pointee)
	}
	return types.Equal(expected, actual)
}
