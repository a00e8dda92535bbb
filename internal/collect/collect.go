// Package collect implements C1, the Declaration Collector (spec §4.1):
// building a single global symbol table from every parsed unit.
//
// Declarations register, detect conflicts, and keep going rather than
// aborting the whole unit, run as one sequential pass over an ordered
// unit slice per §5's single-threaded cooperative scheduling model.
package collect

import (
	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/consteval"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/symbols"
)

// Result is C1's output: the populated table, the per-unit index, and
// the diagnostic bag accumulated along the way (spec §4.1 "all errors
// are collected, not thrown").
type Result struct {
	Table *symbols.Table
	Index *symbols.UnitIndex
	Bag   *diag.Bag
}

// Collect builds a global symbol table from units, processing
// declarations in source order within each unit and units in the order
// given (the external loader's topological order, per §5). It never
// fails silently: every error surfaces in the returned bag, and the
// table is a best-effort result even when errors occurred, so later
// passes (conceptually) have more to look at — though the driver halts
// the pipeline before C2 whenever this bag is fatal (spec §4.1, §7).
func Collect(units []*ast.Unit) Result {
	res := Result{
		Table: symbols.NewTable(),
		Index: symbols.NewUnitIndex(),
		Bag:   diag.NewBag(),
	}

	// Pass 1: register shells (structs/enums/perks/functions) so that
	// constant expressions and later type references can see every
	// declaration regardless of unit order — a two-phase registration
	// (headers before bodies) the same way a header/body analyzer split
	// lets forward references resolve without a second file pass.
	for _, u := range units {
		collectShells(u, &res)
	}

	// Pass 2: evaluate constants in declaration order. A constant becomes
	// visible to other constants only once it has evaluated, so a
	// reference to a later constant fails as a non-constant expression,
	// and a constant that references itself is reported as circular.
	ev := consteval.New(res.Table)
	for _, u := range units {
		collectConstants(u, ev, &res)
	}

	return res
}

func collectShells(u *ast.Unit, res *Result) {
	for _, fn := range u.Functions {
		name := fn.Name
		if err := res.Table.DeclareFunction(name, &symbols.Function{Decl: fn, Unit: u.Path}); err != nil {
			addDuplicate(res.Bag, err)
			continue
		}
		res.Index.AddFunction(u.Path, name)
	}
	for _, s := range u.Structs {
		if err := res.Table.DeclareStruct(s.Name, &symbols.Struct{Decl: s, Unit: u.Path}); err != nil {
			addDuplicate(res.Bag, err)
			continue
		}
		res.Index.AddStruct(u.Path, s.Name)
		for _, m := range s.Methods {
			fname := s.Name + "." + m.Name
			if err := res.Table.DeclareFunction(fname, &symbols.Function{Decl: m, Unit: u.Path}); err != nil {
				addDuplicate(res.Bag, err)
			}
		}
	}
	for _, e := range u.Enums {
		if err := res.Table.DeclareEnum(e.Name, &symbols.Enum{Decl: e, Unit: u.Path}); err != nil {
			addDuplicate(res.Bag, err)
			continue
		}
		res.Index.AddEnum(u.Path, e.Name)
		for _, m := range e.Methods {
			fname := e.Name + "." + m.Name
			if err := res.Table.DeclareFunction(fname, &symbols.Function{Decl: m, Unit: u.Path}); err != nil {
				addDuplicate(res.Bag, err)
			}
		}
	}
	for _, p := range u.Perks {
		if err := res.Table.DeclarePerk(p.Name, &symbols.Perk{Decl: p, Unit: u.Path}); err != nil {
			addDuplicate(res.Bag, err)
			continue
		}
		res.Index.AddPerk(u.Path, p.Name)
	}
	for _, impl := range u.Impls {
		res.Table.AddImpl(impl.PerkName, &symbols.Impl{Decl: impl, Unit: u.Path})
		for _, m := range impl.Methods {
			fname := implMethodName(impl, m.Name)
			_ = res.Table.DeclareFunction(fname, &symbols.Function{Decl: m, Unit: u.Path})
		}
	}
	for _, ext := range u.Extensions {
		res.Table.AddExtension(&symbols.Extension{Decl: ext, Unit: u.Path})
		for _, m := range ext.Methods {
			fname := extMethodName(ext, m.Name)
			_ = res.Table.DeclareFunction(fname, &symbols.Function{Decl: m, Unit: u.Path})
		}
	}
}

func implMethodName(impl *ast.ImplDecl, method string) string {
	target := "?"
	if impl.ForType != nil {
		target = impl.ForType.Name
		if target == "" {
			target = impl.ForType.Primitive
		}
	}
	return impl.PerkName + "::" + target + "." + method
}

func extMethodName(ext *ast.ExtensionDecl, method string) string {
	target := "?"
	if ext.ForType != nil {
		target = ext.ForType.Name
		if target == "" {
			target = ext.ForType.Primitive
		}
	}
	return "ext::" + target + "." + method
}

func collectConstants(u *ast.Unit, ev *consteval.Evaluator, res *Result) {
	for _, c := range u.Consts {
		value, err := ev.EvalWithCycleGuard(c.Name, c.Value)
		if err != nil {
			if circ, ok := err.(*consteval.CircularError); ok {
				res.Bag.Errorf(diag.CodeCircularConstant, c.Span, "circular constant dependency: %v", circ.Cycle)
			} else {
				res.Bag.Errorf(diag.CodeNonConstExpression, c.Span, "%s is not a valid constant expression", c.Name)
			}
			continue
		}
		if err := res.Table.DeclareConstant(c.Name, &symbols.Constant{Decl: c, Value: value, Unit: u.Path}); err != nil {
			addDuplicate(res.Bag, err)
			continue
		}
		res.Index.AddConstant(u.Path, c.Name)
	}
}

func addDuplicate(bag *diag.Bag, err error) {
	dup, ok := err.(*symbols.DuplicateError)
	if !ok {
		return
	}
	bag.Add(diag.Diagnostic{
		Code:     diag.CodeDuplicateSymbol,
		Severity: diag.SeverityError,
		Primary:  dup.Duplicate,
		Secondary: []diag.Label{
			{Span: dup.First, Text: "first declared here"},
		},
		Message: dup.Error(),
	})
}
