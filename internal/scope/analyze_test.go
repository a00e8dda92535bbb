package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/diag"
)

func ident(name string) *ast.Expr { return &ast.Expr{Kind: ast.KindIdent, Name: name} }

func exprStmt(e *ast.Expr) *ast.Stmt { return &ast.Stmt{Kind: ast.KindExprStmt, Expr: e} }

func callOf(name string, args ...*ast.Expr) *ast.Expr {
	return &ast.Expr{Kind: ast.KindCall, Name: name, Args: args}
}

func dynArrType() *ast.TypeExpr {
	return &ast.TypeExpr{Kind: ast.TypeDynArray, Elem: &ast.TypeExpr{Kind: ast.TypePrimitive, Primitive: "i32"}}
}

func TestAnalyzeUndefinedVariable(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "f",
		Body: []ast.Stmt{*exprStmt(callOf("use", ident("missing")))},
	}
	bag := diag.NewBag()
	NewAnalyzer(bag).Analyze(fn)
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diag.CodeUndefinedVariable, bag.All()[0].Code)
}

func TestAnalyzeUseAfterMoveOnOwnedArray(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "f",
		Body: []ast.Stmt{
			{Kind: ast.KindLet, VarName: "xs", VarType: dynArrType(), VarValue: &ast.Expr{Kind: ast.KindArrayLiteral}},
			*exprStmt(callOf("consume", ident("xs"))),
			*exprStmt(callOf("consume", ident("xs"))),
		},
	}
	bag := diag.NewBag()
	NewAnalyzer(bag).Analyze(fn)
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diag.CodeUseAfterMove, bag.All()[0].Code)
}

func TestAnalyzeLetBindingBareIdentMovesSource(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "f",
		Body: []ast.Stmt{
			{Kind: ast.KindLet, VarName: "a", VarType: dynArrType(), VarValue: &ast.Expr{Kind: ast.KindArrayLiteral}},
			{Kind: ast.KindLet, VarName: "b", VarType: dynArrType(), VarValue: ident("a")},
			*exprStmt(callOf("consume", ident("a"))),
		},
	}
	bag := diag.NewBag()
	NewAnalyzer(bag).Analyze(fn)
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diag.CodeUseAfterMove, bag.All()[0].Code)
}

func TestAnalyzeRebindBareIdentMovesSource(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "f",
		Body: []ast.Stmt{
			{Kind: ast.KindLet, VarName: "a", VarType: dynArrType(), VarValue: &ast.Expr{Kind: ast.KindArrayLiteral}},
			{Kind: ast.KindLet, VarName: "b", VarType: dynArrType(), VarValue: &ast.Expr{Kind: ast.KindArrayLiteral}},
			{Kind: ast.KindRebind, VarName: "b", VarValue: ident("a")},
			*exprStmt(callOf("consume", ident("a"))),
		},
	}
	bag := diag.NewBag()
	NewAnalyzer(bag).Analyze(fn)
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diag.CodeUseAfterMove, bag.All()[0].Code)
}

func TestAnalyzeBorrowDoesNotMove(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "f",
		Body: []ast.Stmt{
			{Kind: ast.KindLet, VarName: "xs", VarType: dynArrType(), VarValue: &ast.Expr{Kind: ast.KindArrayLiteral}},
			*exprStmt(callOf("peekIt", &ast.Expr{Kind: ast.KindBorrow, Mode: ast.BorrowPeek, Target: ident("xs")})),
			*exprStmt(callOf("peekIt", &ast.Expr{Kind: ast.KindBorrow, Mode: ast.BorrowPeek, Target: ident("xs")})),
		},
	}
	bag := diag.NewBag()
	NewAnalyzer(bag).Analyze(fn)
	assert.Equal(t, 0, bag.Len())
}

func TestAnalyzeRebindWithoutDeclare(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "f",
		Body: []ast.Stmt{
			{Kind: ast.KindRebind, VarName: "x", VarValue: &ast.Expr{Kind: ast.KindLiteral, LitKind: ast.LitInt, IntVal: 1}},
		},
	}
	bag := diag.NewBag()
	NewAnalyzer(bag).Analyze(fn)
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diag.CodeRebindWithoutDeclare, bag.All()[0].Code)
}

func TestAnalyzeMoveInOneIfBranchDoesNotAffectOther(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "f",
		Body: []ast.Stmt{
			{Kind: ast.KindLet, VarName: "xs", VarType: dynArrType(), VarValue: &ast.Expr{Kind: ast.KindArrayLiteral}},
			{
				Kind: ast.KindIf,
				Cond: &ast.Expr{Kind: ast.KindLiteral, LitKind: ast.LitBool, BoolVal: true},
				Then: []*ast.Stmt{exprStmt(callOf("consume", ident("xs")))},
				Else: []*ast.Stmt{exprStmt(callOf("consume", ident("xs")))},
			},
		},
	}
	bag := diag.NewBag()
	NewAnalyzer(bag).Analyze(fn)
	assert.Equal(t, 0, bag.Len())
}

func TestAnalyzeForeachBindsLoopVariable(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "f",
		Body: []ast.Stmt{
			{Kind: ast.KindLet, VarName: "xs", VarType: dynArrType(), VarValue: &ast.Expr{Kind: ast.KindArrayLiteral}},
			{
				Kind:     ast.KindForeach,
				IterVar:  "x",
				IterExpr: ident("xs"),
				Body:     []*ast.Stmt{exprStmt(callOf("use", ident("x")))},
			},
		},
	}
	bag := diag.NewBag()
	NewAnalyzer(bag).Analyze(fn)
	assert.Equal(t, 0, bag.Len())
}

func TestAnalyzeMatchArmBindingsScopedPerArm(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "f",
		Body: []ast.Stmt{
			{
				Kind:    ast.KindMatch,
				Subject: ident("v"),
				Arms: []ast.MatchArm{
					{
						Pattern: ast.Pattern{Kind: ast.PatternVariant, EnumName: "Maybe", Variant: "Some", Bindings: []string{"inner"}},
						Body:    []*ast.Stmt{exprStmt(callOf("use", ident("inner")))},
					},
					{
						Pattern: ast.Pattern{Kind: ast.PatternWildcard},
						Body:    []*ast.Stmt{exprStmt(callOf("use", ident("inner")))},
					},
				},
			},
		},
	}
	bag := diag.NewBag()
	NewAnalyzer(bag).Analyze(fn)
	// "v" is undefined (no param/let), and the second arm's "inner" is
	// undefined since bindings from the first arm don't leak into the
	// second.
	require.Equal(t, 2, bag.Len())
	for _, d := range bag.All() {
		assert.Equal(t, diag.CodeUndefinedVariable, d.Code)
	}
}
