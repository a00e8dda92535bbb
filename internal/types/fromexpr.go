package types

import "github.com/oxhq/sushic/internal/ast"

// FromExpr converts a parse-tree type annotation into a resolved Type.
// Nominal type arguments and bounds are carried over verbatim; it is C4's
// job to substitute type parameters away, and C7's job to verify bound
// satisfaction — this function only reshapes syntax into the algebra, it
// performs no validation.
func FromExpr(te *ast.TypeExpr) *Type {
	if te == nil {
		return nil
	}
	switch te.Kind {
	case ast.TypePrimitive:
		return Prim(te.Primitive)
	case ast.TypeFixedArray:
		return FixedArray(FromExpr(te.Elem), te.Len)
	case ast.TypeDynArray:
		return DynArray(FromExpr(te.Elem))
	case ast.TypeReference:
		return Reference(BorrowMode(te.Mode), FromExpr(te.Pointee))
	case ast.TypeOwn:
		return OwnOf(FromExpr(te.Pointee))
	case ast.TypeParam:
		return Param(te.ParamName, te.Bounds...)
	case ast.TypeResultShort:
		return ResultOf(FromExpr(te.Ok), FromExpr(te.Err))
	case ast.TypeResult:
		return ResultOf(FromExpr(te.Ok), FromExpr(te.Err))
	case ast.TypeNominal:
		return fromNominal(te)
	}
	return nil
}

func fromNominal(te *ast.TypeExpr) *Type {
	args := make([]*Type, len(te.TypeArgs))
	for i, a := range te.TypeArgs {
		args[i] = FromExpr(a)
	}
	switch te.Name {
	case "Maybe":
		if len(args) == 1 {
			return MaybeOf(args[0])
		}
	case "List":
		if len(args) == 1 {
			return ListOf(args[0])
		}
	case "HashMap":
		if len(args) == 2 {
			return HashMapOf(args[0], args[1])
		}
	case "Iterator":
		if len(args) == 1 {
			return IteratorOf(args[0])
		}
	case "Result":
		if len(args) == 2 {
			return ResultOf(args[0], args[1])
		}
	case "Own":
		if len(args) == 1 {
			return OwnOf(args[0])
		}
	}
	return &Type{Kind: KindNominal, Name: te.Name, Args: args}
}
