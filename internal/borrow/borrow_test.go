package borrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/symbols"
	"github.com/oxhq/sushic/internal/types"
)

func dynArrType() *ast.TypeExpr {
	return &ast.TypeExpr{Kind: ast.TypeDynArray, Elem: &ast.TypeExpr{Kind: ast.TypePrimitive, Primitive: "i32"}}
}

func identExpr(name string, ty *types.Type) *ast.Expr {
	return &ast.Expr{Kind: ast.KindIdent, Name: name, ResolvedType: ty}
}

func borrowExpr(mode ast.BorrowMode, target *ast.Expr) *ast.Expr {
	return &ast.Expr{Kind: ast.KindBorrow, Mode: mode, Target: target}
}

func TestBorrowTwoSharedBorrowsAllowed(t *testing.T) {
	table := symbols.NewTable()
	fn := &ast.FunctionDecl{
		Name:   "use",
		Params: []ast.Param{{Name: "x", Type: dynArrType()}},
		Body: []ast.Stmt{
			{Kind: ast.KindLet, VarName: "a", VarValue: borrowExpr(ast.BorrowPeek, &ast.Expr{Kind: ast.KindIdent, Name: "x"})},
			{Kind: ast.KindLet, VarName: "b", VarValue: borrowExpr(ast.BorrowPeek, &ast.Expr{Kind: ast.KindIdent, Name: "x"})},
		},
	}
	require.NoError(t, table.DeclareFunction("use", &symbols.Function{Decl: fn}))

	res := Check(table)
	assert.Equal(t, 0, res.Bag.Len())
}

func TestBorrowPokeWhileSharedConflict(t *testing.T) {
	table := symbols.NewTable()
	fn := &ast.FunctionDecl{
		Name:   "use",
		Params: []ast.Param{{Name: "x", Type: dynArrType()}},
		Body: []ast.Stmt{
			{Kind: ast.KindLet, VarName: "a", VarValue: borrowExpr(ast.BorrowPeek, &ast.Expr{Kind: ast.KindIdent, Name: "x"})},
			{Kind: ast.KindLet, VarName: "b", VarValue: borrowExpr(ast.BorrowPoke, &ast.Expr{Kind: ast.KindIdent, Name: "x"})},
		},
	}
	require.NoError(t, table.DeclareFunction("use", &symbols.Function{Decl: fn}))

	res := Check(table)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.CodeBorrowConflict, res.Bag.All()[0].Code)
}

func TestBorrowMoveWhileBorrowedConflict(t *testing.T) {
	table := symbols.NewTable()
	ty := types.DynArray(types.Prim("i32"))
	fn := &ast.FunctionDecl{
		Name:   "use",
		Params: []ast.Param{{Name: "x", Type: dynArrType()}},
		Body: []ast.Stmt{
			{Kind: ast.KindLet, VarName: "a", VarValue: borrowExpr(ast.BorrowPeek, &ast.Expr{Kind: ast.KindIdent, Name: "x"})},
			{Kind: ast.KindExprStmt, Expr: &ast.Expr{
				Kind: ast.KindCall, Name: "consume",
				Args: []*ast.Expr{identExpr("x", ty)},
			}},
		},
	}
	require.NoError(t, table.DeclareFunction("use", &symbols.Function{Decl: fn}))

	res := Check(table)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.CodeBorrowConflict, res.Bag.All()[0].Code)
}

func TestBorrowRebindWhileBorrowedConflict(t *testing.T) {
	table := symbols.NewTable()
	fn := &ast.FunctionDecl{
		Name:   "use",
		Params: []ast.Param{{Name: "x", Type: dynArrType()}},
		Body: []ast.Stmt{
			{Kind: ast.KindLet, VarName: "a", VarValue: borrowExpr(ast.BorrowPoke, &ast.Expr{Kind: ast.KindIdent, Name: "x"})},
			{Kind: ast.KindRebind, VarName: "x", VarValue: &ast.Expr{Kind: ast.KindArrayLiteral}},
		},
	}
	require.NoError(t, table.DeclareFunction("use", &symbols.Function{Decl: fn}))

	res := Check(table)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.CodeBorrowConflict, res.Bag.All()[0].Code)
}

func TestBorrowEndsAtBlockBoundary(t *testing.T) {
	table := symbols.NewTable()
	fn := &ast.FunctionDecl{
		Name:   "use",
		Params: []ast.Param{{Name: "x", Type: dynArrType()}},
		Body: []ast.Stmt{
			{
				Kind: ast.KindIf,
				Cond: &ast.Expr{Kind: ast.KindLiteral, LitKind: ast.LitBool, BoolVal: true},
				Then: []*ast.Stmt{
					{Kind: ast.KindLet, VarName: "a", VarValue: borrowExpr(ast.BorrowPoke, &ast.Expr{Kind: ast.KindIdent, Name: "x"})},
				},
			},
			{Kind: ast.KindLet, VarName: "b", VarValue: borrowExpr(ast.BorrowPeek, &ast.Expr{Kind: ast.KindIdent, Name: "x"})},
		},
	}
	require.NoError(t, table.DeclareFunction("use", &symbols.Function{Decl: fn}))

	res := Check(table)
	assert.Equal(t, 0, res.Bag.Len())
}

func TestBorrowWriteThroughSharedReported(t *testing.T) {
	table := symbols.NewTable()
	fn := &ast.FunctionDecl{
		Name: "use",
		Params: []ast.Param{
			{Name: "r", Type: &ast.TypeExpr{Kind: ast.TypeReference, Mode: ast.BorrowPeek, Pointee: &ast.TypeExpr{Kind: ast.TypePrimitive, Primitive: "i32"}}},
		},
		Body: []ast.Stmt{
			{Kind: ast.KindLet, VarName: "p", VarValue: borrowExpr(ast.BorrowPoke, &ast.Expr{Kind: ast.KindIdent, Name: "r"})},
		},
	}
	require.NoError(t, table.DeclareFunction("use", &symbols.Function{Decl: fn}))

	res := Check(table)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.CodeWriteThroughShared, res.Bag.All()[0].Code)
}

// A field access whose object is itself an inline borrow — (&peek
// s).field — must not panic: the object's ephemeral borrow has to be
// tracked and released through the same mechanism as any other inline
// borrow in the statement.
func TestBorrowFieldAccessOnInlineBorrowDoesNotPanic(t *testing.T) {
	table := symbols.NewTable()
	fn := &ast.FunctionDecl{
		Name:   "use",
		Params: []ast.Param{{Name: "s", Type: dynArrType()}},
		Body: []ast.Stmt{
			{Kind: ast.KindExprStmt, Expr: &ast.Expr{
				Kind:   ast.KindFieldAccess,
				Object: borrowExpr(ast.BorrowPeek, &ast.Expr{Kind: ast.KindIdent, Name: "s"}),
				Field:  "len",
			}},
		},
	}
	require.NoError(t, table.DeclareFunction("use", &symbols.Function{Decl: fn}))

	require.NotPanics(t, func() {
		res := Check(table)
		assert.Equal(t, 0, res.Bag.Len())
	})
}
