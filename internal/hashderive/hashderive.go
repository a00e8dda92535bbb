// Package hashderive implements C6, the Hash Deriver (spec §4.6):
// synthesizing a `hash() -> u64` free function for every struct and enum
// in the table, built from a small fixed set of runtime-support calls
// (`fxhash_fold`, `fnv1a_bytes`, `hash_mix`) rather than executed here —
// this pass produces Sushi AST, it does not compute a hash value itself.
package hashderive

import (
	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/symbols"
)

// FNV-1a 64-bit constants (spec §4.6 "initialize with FNV offset basis").
const (
	fnvOffsetBasis int64 = -3750763034362895579 // 0xcbf29ce484222325 as signed i64
	fnvPrime       int64 = 1099511628211        // 0x100000001b3
)

// Result is C6's diagnostic output; the synthesized `hash__<Type>`
// functions are registered directly into the table.
type Result struct {
	Bag *diag.Bag
}

// Derive synthesizes a hash function for every struct and enum
// registered in table, skipping (with CE2007) any whose shape reaches a
// dynamic array, which spec §4.6 declares non-hashable.
func Derive(table *symbols.Table) Result {
	d := &deriver{table: table, bag: diag.NewBag(), done: map[string]bool{}}
	for _, s := range table.Structs() {
		d.deriveStruct(s.Decl)
	}
	for _, e := range table.Enums() {
		d.deriveEnum(e.Decl)
	}
	return Result{Bag: d.bag}
}

type deriver struct {
	table *symbols.Table
	bag   *diag.Bag
	done  map[string]bool
}

func (d *deriver) deriveStruct(s *ast.StructDecl) {
	name := "hash__" + s.Name
	if d.done[name] || len(s.TypeParams) > 0 {
		// Generic shells are skipped here; C4's monomorphized clones are
		// walked individually since each carries its own concrete fields.
		return
	}
	d.done[name] = true

	for _, f := range s.Fields {
		if containsDynArray(f.Type) {
			d.bag.Errorf(diag.CodeNonHashableKey, s.Span,
				"%s cannot be hashed: field %q has a dynamic-array type", s.Name, f.Name)
			return
		}
	}

	// acc := FNV_OFFSET_BASIS
	accStmt := &ast.Stmt{
		Kind: ast.KindLet, VarName: "acc",
		VarType:  &ast.TypeExpr{Kind: ast.TypePrimitive, Primitive: "u64"},
		VarValue: intLit(fnvOffsetBasis),
	}
	body := []ast.Stmt{accStmt}
	for _, f := range s.Fields {
		// acc = (acc ^ field.hash()) * FNV_PRIME
		fieldHash := &ast.Expr{
			Kind: ast.KindMethodCall,
			Receiver: &ast.Expr{
				Kind: ast.KindFieldAccess,
				Object: &ast.Expr{Kind: ast.KindIdent, Name: "self"},
				Field:  f.Name,
			},
			Method: "hash",
		}
		mixed := &ast.Expr{
			Kind: ast.KindBinary, Op: "*",
			Left: &ast.Expr{
				Kind: ast.KindBinary, Op: "^",
				Left:  &ast.Expr{Kind: ast.KindIdent, Name: "acc"},
				Right: fieldHash,
			},
			Right: intLit(fnvPrime),
		}
		body = append(body, ast.Stmt{Kind: ast.KindRebind, VarName: "acc", VarValue: mixed})
	}
	body = append(body, ast.Stmt{
		Kind:        ast.KindReturn,
		ReturnValue: &ast.Expr{Kind: ast.KindIdent, Name: "acc"},
	})

	fn := &ast.FunctionDecl{
		Name:       name,
		Receiver:   &ast.Param{Name: "self", Type: &ast.TypeExpr{Kind: ast.TypeNominal, Name: s.Name}},
		ReturnType: &ast.TypeExpr{Kind: ast.TypePrimitive, Primitive: "u64"},
		Body:       body,
		Span:       s.Span,
		Unit:       s.Unit,
	}
	d.table.RegisterMonomorphized(name, &symbols.Function{Decl: fn, Unit: s.Unit})
}

// deriveEnum synthesizes mixing the discriminant (the variant's
// declaration-order index) with the active variant's payload hash (spec
// §4.6 "mix the discriminant, then the active-variant payload's hash"),
// via one match arm per variant.
func (d *deriver) deriveEnum(e *ast.EnumDecl) {
	name := "hash__" + e.Name
	if d.done[name] || len(e.TypeParams) > 0 {
		return
	}
	d.done[name] = true

	for _, v := range e.Variants {
		for _, t := range v.Payload {
			if containsDynArray(t) {
				d.bag.Errorf(diag.CodeNonHashableKey, e.Span,
					"%s cannot be hashed: variant %q carries a dynamic-array payload", e.Name, v.Name)
				return
			}
		}
	}

	arms := make([]ast.MatchArm, 0, len(e.Variants))
	for i, v := range e.Variants {
		bindings := make([]string, len(v.Payload))
		// acc := discriminant
		armBody := []*ast.Stmt{{
			Kind: ast.KindLet, VarName: "acc",
			VarType:  &ast.TypeExpr{Kind: ast.TypePrimitive, Primitive: "u64"},
			VarValue: intLit(int64(i)),
		}}
		for j := range v.Payload {
			bindings[j] = payloadBindingName(j)
			mixed := &ast.Expr{
				Kind: ast.KindCall, Name: "hash_mix",
				Args: []*ast.Expr{
					{Kind: ast.KindIdent, Name: "acc"},
					{Kind: ast.KindMethodCall, Receiver: &ast.Expr{Kind: ast.KindIdent, Name: bindings[j]}, Method: "hash"},
				},
			}
			armBody = append(armBody, &ast.Stmt{Kind: ast.KindRebind, VarName: "acc", VarValue: mixed})
		}
		armBody = append(armBody, &ast.Stmt{Kind: ast.KindReturn, ReturnValue: &ast.Expr{Kind: ast.KindIdent, Name: "acc"}})

		arms = append(arms, ast.MatchArm{
			Pattern: ast.Pattern{Kind: ast.PatternVariant, EnumName: e.Name, Variant: v.Name, Bindings: bindings},
			Body:    armBody,
		})
	}

	fn := &ast.FunctionDecl{
		Name:       name,
		Receiver:   &ast.Param{Name: "self", Type: &ast.TypeExpr{Kind: ast.TypeNominal, Name: e.Name}},
		ReturnType: &ast.TypeExpr{Kind: ast.TypePrimitive, Primitive: "u64"},
		Body: []ast.Stmt{{
			Kind:    ast.KindMatch,
			Subject: &ast.Expr{Kind: ast.KindIdent, Name: "self"},
			Arms:    arms,
		}},
		Span: e.Span,
		Unit: e.Unit,
	}
	d.table.RegisterMonomorphized(name, &symbols.Function{Decl: fn, Unit: e.Unit})
}

func payloadBindingName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return string(letters[i])
	}
	return "p" + string(rune('0'+i))
}

func intLit(v int64) *ast.Expr {
	return &ast.Expr{Kind: ast.KindLiteral, LitKind: ast.LitInt, IntVal: v}
}

// containsDynArray reports whether t is, or structurally contains, a
// dynamic-array type (spec §4.6's hashability constraint), recursing
// through arrays, references, Own<T>, and nominal type arguments.
func containsDynArray(t *ast.TypeExpr) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case ast.TypeDynArray:
		return true
	case ast.TypeFixedArray:
		return containsDynArray(t.Elem)
	case ast.TypeReference, ast.TypeOwn:
		return containsDynArray(t.Pointee)
	case ast.TypeNominal:
		for _, a := range t.TypeArgs {
			if containsDynArray(a) {
				return true
			}
		}
	}
	return false
}
