// Package instantiate implements C3, the Instantiation Collector (spec
// §4.3): walking every syntactic site that names a generic type and
// recording the set of (template, type-argument-vector) pairs C4 must
// monomorphize.
package instantiate

import (
	"sort"
	"strings"

	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/symbols"
	"github.com/oxhq/sushic/internal/types"
)

// Instantiation is one required (template, type-argument-vector) pair,
// named by the generic struct/enum/function/builtin it instantiates.
type Instantiation struct {
	Template string
	Args     []*types.Type
}

// Key is the deduplication/sort key for an Instantiation.
func (i Instantiation) Key() string {
	parts := make([]string, len(i.Args))
	for idx, a := range i.Args {
		parts[idx] = a.String()
	}
	return i.Template + "<" + strings.Join(parts, ",") + ">"
}

// MethodObligation is a method or extension method that must be
// monomorphized as a consequence of its owner type being instantiated
// (spec §4.3 "instantiations cascade").
type MethodObligation struct {
	Owner  string
	Method string
	Args   []*types.Type
}

// Key is the deduplication/sort key for a MethodObligation.
func (m MethodObligation) Key() string {
	parts := make([]string, len(m.Args))
	for idx, a := range m.Args {
		parts[idx] = a.String()
	}
	return m.Owner + "." + m.Method + "<" + strings.Join(parts, ",") + ">"
}

// Result is C3's output.
type Result struct {
	Instantiations []Instantiation
	Methods        []MethodObligation
	Bag            *diag.Bag
}

type collector struct {
	table   *symbols.Table
	seenTy  map[string]bool
	seenM   map[string]bool
	out     []Instantiation
	methods []MethodObligation
	bag     *diag.Bag
}

// Collect walks every declaration in table and returns the deduplicated
// set of required instantiations, in a deterministic (sorted) order.
func Collect(table *symbols.Table) Result {
	c := &collector{table: table, seenTy: map[string]bool{}, seenM: map[string]bool{}, bag: diag.NewBag()}

	for _, fn := range table.Functions() {
		c.walkFunction(fn.Decl)
	}
	for _, s := range table.Structs() {
		for _, f := range s.Decl.Fields {
			c.walkTypeExpr(f.Type)
		}
		for _, m := range s.Decl.Methods {
			c.walkFunction(m)
		}
	}
	for _, e := range table.Enums() {
		for _, v := range e.Decl.Variants {
			for _, p := range v.Payload {
				c.walkTypeExpr(p)
			}
		}
		for _, m := range e.Decl.Methods {
			c.walkFunction(m)
		}
	}

	c.cascade()

	sort.Slice(c.out, func(i, j int) bool { return c.out[i].Key() < c.out[j].Key() })
	sort.Slice(c.methods, func(i, j int) bool { return c.methods[i].Key() < c.methods[j].Key() })
	return Result{Instantiations: c.out, Methods: c.methods, Bag: c.bag}
}

func (c *collector) walkFunction(fn *ast.FunctionDecl) {
	if fn.Receiver != nil {
		c.walkTypeExpr(fn.Receiver.Type)
	}
	for _, p := range fn.Params {
		c.walkTypeExpr(p.Type)
	}
	c.walkTypeExpr(fn.ReturnType)
	for i := range fn.Body {
		c.walkStmt(&fn.Body[i], fn)
	}
}

func (c *collector) walkBlock(stmts []*ast.Stmt, fn *ast.FunctionDecl) {
	for _, st := range stmts {
		c.walkStmt(st, fn)
	}
}

func (c *collector) walkStmt(st *ast.Stmt, fn *ast.FunctionDecl) {
	switch st.Kind {
	case ast.KindLet:
		c.walkTypeExpr(st.VarType)
		c.walkExpr(st.VarValue, fn)
	case ast.KindRebind:
		c.walkExpr(st.VarValue, fn)
	case ast.KindIf:
		c.walkExpr(st.Cond, fn)
		c.walkBlock(st.Then, fn)
		for _, el := range st.Elifs {
			c.walkExpr(el.Cond, fn)
			c.walkBlock(el.Body, fn)
		}
		c.walkBlock(st.Else, fn)
	case ast.KindWhile:
		c.walkExpr(st.Cond, fn)
		c.walkBlock(st.Body, fn)
	case ast.KindForeach:
		c.walkExpr(st.IterExpr, fn)
		c.walkBlock(st.Body, fn)
	case ast.KindMatch:
		c.walkExpr(st.Subject, fn)
		for _, arm := range st.Arms {
			c.walkBlock(arm.Body, fn)
		}
	case ast.KindReturn:
		c.walkExpr(st.ReturnValue, fn)
	case ast.KindExprStmt:
		c.walkExpr(st.Expr, fn)
	}
}

func (c *collector) walkExpr(e *ast.Expr, fn *ast.FunctionDecl) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.KindBinary:
		c.walkExpr(e.Left, fn)
		c.walkExpr(e.Right, fn)
	case ast.KindUnary:
		c.walkExpr(e.Left, fn)
	case ast.KindCall:
		c.walkCall(e, fn)
		for _, a := range e.Args {
			c.walkExpr(a, fn)
		}
	case ast.KindMethodCall:
		c.walkExpr(e.Receiver, fn)
		for _, a := range e.Args {
			c.walkExpr(a, fn)
		}
	case ast.KindFieldAccess:
		c.walkExpr(e.Object, fn)
	case ast.KindArrayIndex:
		c.walkExpr(e.Array, fn)
		c.walkExpr(e.Index, fn)
	case ast.KindArrayLiteral:
		for _, el := range e.Elems {
			c.walkExpr(el, fn)
		}
	case ast.KindRange:
		c.walkExpr(e.From, fn)
		c.walkExpr(e.To, fn)
	case ast.KindBorrow:
		c.walkExpr(e.Target, fn)
	case ast.KindCast:
		c.walkTypeExpr(e.CastType)
		c.walkExpr(e.CastExpr, fn)
	case ast.KindPropagate:
		c.walkExpr(e.Inner, fn)
	case ast.KindStructLit:
		for _, f := range e.Fields {
			c.walkExpr(f.Value, fn)
		}
	case ast.KindEnumLit:
		for _, el := range e.Tuple {
			c.walkExpr(el, fn)
		}
	case ast.KindInterpolation:
		for _, frag := range e.Fragments {
			c.walkExpr(frag.Expr, fn)
		}
	}
}

// walkCall handles a free-function call site: when the callee is
// declared generic, it tries to infer each type parameter from whichever
// parameter names it directly at the top level (spec §4.3 "syntactic
// top-level position"); anything else (method calls, where the receiver
// type isn't known without C7's type checker) is left uninstantiated
// here and picked up structurally once the receiver's own type is
// instantiated via the cascade below.
func (c *collector) walkCall(e *ast.Expr, fn *ast.FunctionDecl) {
	if e.Callee != nil || e.Name == "" {
		return
	}
	target, ok := c.table.Function(e.Name)
	if !ok || len(target.Decl.TypeParams) == 0 {
		return
	}
	args := make([]*types.Type, len(target.Decl.TypeParams))
	for pi, tp := range target.Decl.TypeParams {
		found := false
		for i, param := range target.Decl.Params {
			if param.Type != nil && param.Type.Kind == ast.TypeParam && param.Type.ParamName == tp.Name {
				if i < len(e.Args) {
					if t := inferArgType(e.Args[i]); t != nil {
						args[pi] = t
						found = true
					}
				}
				break
			}
		}
		if !found {
			c.bag.Errorf(diag.CodeUninferrableTypeParameter, e.Span,
				"cannot infer type parameter %q of %q from its call site", tp.Name, e.Name)
			return
		}
	}
	c.recordNominal(e.Name, args)
}

// inferArgType derives a concrete type from a call argument's own
// syntax, without consulting any declared variable type — only literals
// and explicit casts carry their type syntactically (everything else is
// uninferrable at this stage, by design).
func inferArgType(e *ast.Expr) *types.Type {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.KindLiteral:
		switch e.LitKind {
		case ast.LitInt:
			return types.Prim(types.I32)
		case ast.LitFloat:
			return types.Prim(types.F64)
		case ast.LitBool:
			return types.Prim(types.Bool)
		case ast.LitString:
			return types.Prim(types.String)
		}
	case ast.KindCast:
		return types.FromExpr(e.CastType)
	}
	return nil
}

func (c *collector) walkTypeExpr(te *ast.TypeExpr) {
	if te == nil {
		return
	}
	switch te.Kind {
	case ast.TypeFixedArray, ast.TypeDynArray:
		c.walkTypeExpr(te.Elem)
	case ast.TypeReference, ast.TypeOwn:
		c.walkTypeExpr(te.Pointee)
	case ast.TypeResultShort, ast.TypeResult:
		c.walkTypeExpr(te.Ok)
		c.walkTypeExpr(te.Err)
	case ast.TypeNominal:
		for _, a := range te.TypeArgs {
			c.walkTypeExpr(a)
		}
		if len(te.TypeArgs) > 0 {
			args := make([]*types.Type, len(te.TypeArgs))
			for i, a := range te.TypeArgs {
				args[i] = types.FromExpr(a)
			}
			c.recordNominal(te.Name, args)
		}
	}
}

func (c *collector) recordNominal(name string, args []*types.Type) {
	if name == "" {
		return
	}
	inst := Instantiation{Template: name, Args: args}
	key := inst.Key()
	if c.seenTy[key] {
		return
	}
	c.seenTy[key] = true
	c.out = append(c.out, inst)
}

// cascade forces every method of an instantiated struct/enum, and every
// matching extension, into the obligation set (spec §4.3 "instantiations
// cascade"). Built-in generics (List/HashMap/Maybe/Iterator/Result) have
// no user AST declaration to cascade into — only extensions a program
// declares on them do, and Extensions() already matches those by name.
func (c *collector) cascade() {
	for _, inst := range c.out {
		if s, ok := c.table.Struct(inst.Template); ok {
			for _, m := range s.Decl.Methods {
				c.obligateMethod(inst.Template, m.Name, inst.Args)
			}
		}
		if e, ok := c.table.Enum(inst.Template); ok {
			for _, m := range e.Decl.Methods {
				c.obligateMethod(inst.Template, m.Name, inst.Args)
			}
		}
		for _, ext := range c.table.Extensions(inst.Template) {
			if len(ext.Decl.TypeParams) != len(inst.Args) {
				continue
			}
			for _, m := range ext.Decl.Methods {
				c.obligateMethod(inst.Template, m.Name, inst.Args)
			}
		}
	}
}

func (c *collector) obligateMethod(owner, method string, args []*types.Type) {
	mo := MethodObligation{Owner: owner, Method: method, Args: args}
	key := mo.Key()
	if c.seenM[key] {
		return
	}
	c.seenM[key] = true
	c.methods = append(c.methods, mo)
}
