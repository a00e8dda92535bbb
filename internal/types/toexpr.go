package types

import "github.com/oxhq/sushic/internal/ast"

// ToExpr renders a resolved Type back into parse-tree type syntax, the
// inverse of FromExpr. The monomorphizer (C4) uses this to splice a
// concrete type argument into a cloned generic declaration.
func ToExpr(t *Type) *ast.TypeExpr {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case KindPrimitive:
		return &ast.TypeExpr{Kind: ast.TypePrimitive, Primitive: t.Primitive}
	case KindFixedArray:
		return &ast.TypeExpr{Kind: ast.TypeFixedArray, Elem: ToExpr(t.Elem), Len: t.Len}
	case KindDynArray:
		return &ast.TypeExpr{Kind: ast.TypeDynArray, Elem: ToExpr(t.Elem)}
	case KindReference:
		return &ast.TypeExpr{Kind: ast.TypeReference, Mode: ast.BorrowMode(t.Mode), Pointee: ToExpr(t.Pointee)}
	case KindOwn:
		return &ast.TypeExpr{Kind: ast.TypeOwn, Pointee: ToExpr(t.Owned)}
	case KindTypeParam:
		return &ast.TypeExpr{Kind: ast.TypeParam, ParamName: t.ParamName, Bounds: append([]string(nil), t.Bounds...)}
	case KindResult:
		return &ast.TypeExpr{Kind: ast.TypeResult, Ok: ToExpr(t.Args[0]), Err: ToExpr(t.Args[1])}
	case KindMaybe:
		return &ast.TypeExpr{Kind: ast.TypeNominal, Name: "Maybe", TypeArgs: []*ast.TypeExpr{ToExpr(t.Args[0])}}
	case KindList:
		return &ast.TypeExpr{Kind: ast.TypeNominal, Name: "List", TypeArgs: []*ast.TypeExpr{ToExpr(t.Args[0])}}
	case KindHashMap:
		return &ast.TypeExpr{Kind: ast.TypeNominal, Name: "HashMap", TypeArgs: []*ast.TypeExpr{ToExpr(t.Args[0]), ToExpr(t.Args[1])}}
	case KindIterator:
		return &ast.TypeExpr{Kind: ast.TypeNominal, Name: "Iterator", TypeArgs: []*ast.TypeExpr{ToExpr(t.Args[0])}}
	case KindNominal:
		args := make([]*ast.TypeExpr, len(t.Args))
		for i, a := range t.Args {
			args[i] = ToExpr(a)
		}
		return &ast.TypeExpr{Kind: ast.TypeNominal, Name: t.Name, TypeArgs: args}
	}
	return nil
}
