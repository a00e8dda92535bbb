// Package mono implements C4, the Monomorphizer (spec §4.4): cloning
// each generic declaration C3 found a required instantiation for,
// substituting type parameters throughout, and registering the result
// under a deterministic mangled name.
package mono

import (
	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/instantiate"
	"github.com/oxhq/sushic/internal/symbols"
	"github.com/oxhq/sushic/internal/types"
)

// Result is C4's diagnostic output; its real product is the set of
// concrete symbols it registers back into the table (spec §3
// "Monomorphizer outputs exclusively own their mangled clones").
type Result struct {
	Bag *diag.Bag
}

type monomorphizer struct {
	table *symbols.Table
	bag   *diag.Bag
	done  map[string]bool
}

// Monomorphize consumes C3's required-instantiation set and clones each
// generic function/struct/enum (and its methods) into the table under
// mangled names, skipping any instantiation whose type arguments fail a
// perk-bound check (spec §4.4).
func Monomorphize(table *symbols.Table, req instantiate.Result) Result {
	m := &monomorphizer{table: table, bag: diag.NewBag(), done: map[string]bool{}}

	for _, inst := range req.Instantiations {
		m.instantiateTemplate(inst.Template, inst.Args)
	}
	for _, mo := range req.Methods {
		m.instantiateMethod(mo.Owner, mo.Method, mo.Args)
	}

	return Result{Bag: m.bag}
}

func (m *monomorphizer) instantiateTemplate(name string, args []*types.Type) {
	if fn, ok := m.table.Function(name); ok && len(fn.Decl.TypeParams) > 0 {
		m.instantiateFunction(fn.Decl, args)
		return
	}
	if s, ok := m.table.Struct(name); ok && len(s.Decl.TypeParams) > 0 {
		m.instantiateStruct(s.Decl, args)
		return
	}
	if e, ok := m.table.Enum(name); ok && len(e.Decl.TypeParams) > 0 {
		m.instantiateEnum(e.Decl, args)
	}
	// A name with no generic shell of its own (a non-generic symbol, or
	// one of the built-in generics List/HashMap/Maybe/Iterator/Result
	// with no user AST) needs no clone.
}

func (m *monomorphizer) instantiateFunction(fn *ast.FunctionDecl, args []*types.Type) {
	if len(args) != len(fn.TypeParams) || !m.checkBounds(fn.TypeParams, args, fn.Span) {
		return
	}
	mangled := types.MangledName(fn.Name, args)
	if m.done[mangled] {
		return
	}
	m.done[mangled] = true
	subst := substMap(fn.TypeParams, args)
	cloned := cloneFunctionDecl(fn, subst, mangled)
	m.table.RegisterMonomorphized(mangled, &symbols.Function{Decl: cloned, Unit: fn.Unit})
}

func (m *monomorphizer) instantiateStruct(s *ast.StructDecl, args []*types.Type) {
	if len(args) != len(s.TypeParams) || !m.checkBounds(s.TypeParams, args, s.Span) {
		return
	}
	mangled := types.MangledName(s.Name, args)
	if !m.done[mangled] {
		m.done[mangled] = true
		subst := substMap(s.TypeParams, args)
		cloned := cloneStructDecl(s, subst, mangled)
		m.table.RegisterMonomorphizedStruct(mangled, &symbols.Struct{Decl: cloned, Unit: s.Unit})
		for _, meth := range s.Methods {
			m.cloneAndRegisterMethod(mangled, meth, subst)
		}
	}
}

func (m *monomorphizer) instantiateEnum(e *ast.EnumDecl, args []*types.Type) {
	if len(args) != len(e.TypeParams) || !m.checkBounds(e.TypeParams, args, e.Span) {
		return
	}
	mangled := types.MangledName(e.Name, args)
	if !m.done[mangled] {
		m.done[mangled] = true
		subst := substMap(e.TypeParams, args)
		cloned := cloneEnumDecl(e, subst, mangled)
		m.table.RegisterMonomorphizedEnum(mangled, &symbols.Enum{Decl: cloned, Unit: e.Unit})
		for _, meth := range e.Methods {
			m.cloneAndRegisterMethod(mangled, meth, subst)
		}
	}
}

func (m *monomorphizer) cloneAndRegisterMethod(mangledOwner string, meth *ast.FunctionDecl, subst map[string]*types.Type) {
	newName := mangledOwner + "." + meth.Name
	if m.done[newName] {
		return
	}
	m.done[newName] = true
	cloned := cloneFunctionDecl(meth, subst, newName)
	m.table.RegisterMonomorphized(newName, &symbols.Function{Decl: cloned, Unit: meth.Unit})
}

// instantiateMethod handles a MethodObligation cascaded from C3: a
// method (declared on the owner struct/enum itself, or via an
// extension) that must exist for one particular instantiation of its
// owner, even if no call site directly names it.
func (m *monomorphizer) instantiateMethod(owner, method string, args []*types.Type) {
	if s, ok := m.table.Struct(owner); ok {
		if len(args) != len(s.Decl.TypeParams) || !m.checkBounds(s.Decl.TypeParams, args, s.Decl.Span) {
			return
		}
		subst := substMap(s.Decl.TypeParams, args)
		for _, meth := range s.Decl.Methods {
			if meth.Name == method {
				m.cloneAndRegisterMethod(types.MangledName(owner, args), meth, subst)
				return
			}
		}
	}
	if e, ok := m.table.Enum(owner); ok {
		if len(args) != len(e.Decl.TypeParams) || !m.checkBounds(e.Decl.TypeParams, args, e.Decl.Span) {
			return
		}
		subst := substMap(e.Decl.TypeParams, args)
		for _, meth := range e.Decl.Methods {
			if meth.Name == method {
				m.cloneAndRegisterMethod(types.MangledName(owner, args), meth, subst)
				return
			}
		}
	}
	m.instantiateExtensionMethod(owner, method, args)
}

func (m *monomorphizer) instantiateExtensionMethod(owner, method string, args []*types.Type) {
	for _, ext := range m.table.Extensions(owner) {
		if len(ext.Decl.TypeParams) != len(args) || !m.checkBounds(ext.Decl.TypeParams, args, ext.Decl.Span) {
			continue
		}
		for _, meth := range ext.Decl.Methods {
			if meth.Name == method {
				subst := substMap(ext.Decl.TypeParams, args)
				m.cloneAndRegisterMethod(types.MangledName(owner, args), meth, subst)
				return
			}
		}
	}
}

// checkBounds verifies every type argument satisfies the perk bounds its
// corresponding type parameter declares (spec §4.4 "Perk-constraint
// check"), reporting CE4001 for each violation found rather than
// stopping at the first.
func (m *monomorphizer) checkBounds(params []ast.TypeParamDecl, args []*types.Type, span ast.Span) bool {
	ok := true
	for i, p := range params {
		if i >= len(args) {
			continue
		}
		for _, bound := range p.Bounds {
			if !m.argSatisfies(args[i], bound) {
				m.bag.Errorf(diag.CodeUnsatisfiedConstraint, span,
					"%s does not implement perk %q required by type parameter %q", args[i].String(), bound, p.Name)
				ok = false
			}
		}
	}
	return ok
}

func (m *monomorphizer) argSatisfies(t *types.Type, perk string) bool {
	name := nominalNameOf(t)
	if name == "" {
		// Structural/generic arguments (arrays, references, other
		// generics) have no impl table entry of their own to check;
		// treated as satisfying any bound rather than blocking
		// monomorphization on a question C7 is better positioned to
		// answer once full type information is available.
		return true
	}
	return m.table.HasImpl(perk, name)
}

func nominalNameOf(t *types.Type) string {
	switch t.Kind {
	case types.KindPrimitive:
		return t.Primitive
	case types.KindNominal:
		return t.Name
	}
	return ""
}
