package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/symbols"
)

func primType(name string) *ast.TypeExpr { return &ast.TypeExpr{Kind: ast.TypePrimitive, Primitive: name} }

func resultType(ok, errT *ast.TypeExpr) *ast.TypeExpr {
	return &ast.TypeExpr{Kind: ast.TypeResultShort, Ok: ok, Err: errT}
}

func TestLowerRewritesMethodCallToFreeFunction(t *testing.T) {
	table := symbols.NewTable()
	fn := &ast.FunctionDecl{
		Name:   "use",
		Params: []ast.Param{{Name: "b", Type: &ast.TypeExpr{Kind: ast.TypeNominal, Name: "Box"}}},
		Body: []ast.Stmt{
			{Kind: ast.KindExprStmt, Expr: &ast.Expr{
				Kind:     ast.KindMethodCall,
				Receiver: &ast.Expr{Kind: ast.KindIdent, Name: "b"},
				Method:   "unwrap",
			}},
		},
	}
	require.NoError(t, table.DeclareFunction("use", &symbols.Function{Decl: fn}))

	res := Lower(table)
	require.Equal(t, 0, res.Bag.Len())

	call := fn.Body[0].Expr
	assert.Equal(t, ast.KindCall, call.Kind)
	assert.Equal(t, "unwrap__Box", call.Name)
	require.Len(t, call.Args, 1)
	assert.Equal(t, "b", call.Args[0].Name)
}

func TestLowerRewritesRangeToIteratorCall(t *testing.T) {
	table := symbols.NewTable()
	fn := &ast.FunctionDecl{
		Name: "use",
		Body: []ast.Stmt{
			{Kind: ast.KindForeach, IterVar: "i", IterExpr: &ast.Expr{
				Kind:      ast.KindRange,
				From:      &ast.Expr{Kind: ast.KindLiteral, LitKind: ast.LitInt, IntVal: 0},
				To:        &ast.Expr{Kind: ast.KindLiteral, LitKind: ast.LitInt, IntVal: 10},
				Inclusive: false,
			}},
		},
	}
	require.NoError(t, table.DeclareFunction("use", &symbols.Function{Decl: fn}))

	res := Lower(table)
	require.Equal(t, 0, res.Bag.Len())

	iterExpr := fn.Body[0].IterExpr
	assert.Equal(t, ast.KindCall, iterExpr.Kind)
	assert.Equal(t, "iter__range", iterExpr.Name)
	require.Len(t, iterExpr.Args, 3)
	assert.Equal(t, false, iterExpr.Args[2].BoolVal)
}

func TestLowerStatementLevelPropagateExpandsToMatch(t *testing.T) {
	table := symbols.NewTable()
	callee := &ast.FunctionDecl{
		Name:       "parse",
		ReturnType: resultType(primType("i32"), &ast.TypeExpr{Kind: ast.TypeNominal, Name: "StdError.Error"}),
	}
	fn := &ast.FunctionDecl{
		Name:       "use",
		ReturnType: resultType(primType("bool"), &ast.TypeExpr{Kind: ast.TypeNominal, Name: "StdError.Error"}),
		Body: []ast.Stmt{
			{
				Kind:     ast.KindLet,
				VarName:  "n",
				VarValue: &ast.Expr{Kind: ast.KindPropagate, Inner: &ast.Expr{Kind: ast.KindCall, Name: "parse"}},
			},
		},
	}
	require.NoError(t, table.DeclareFunction("parse", &symbols.Function{Decl: callee}))
	require.NoError(t, table.DeclareFunction("use", &symbols.Function{Decl: fn}))

	res := Lower(table)
	require.Equal(t, 0, res.Bag.Len())

	require.Len(t, fn.Body, 2)
	assert.Equal(t, ast.KindLet, fn.Body[0].Kind)
	assert.Equal(t, ast.KindMatch, fn.Body[1].Kind)
	require.Len(t, fn.Body[1].Arms, 2)
	assert.Equal(t, "Err", fn.Body[1].Arms[0].Pattern.Variant)
	assert.Equal(t, ast.KindReturn, fn.Body[1].Arms[0].Body[0].Kind)
	assert.Equal(t, "Ok", fn.Body[1].Arms[1].Pattern.Variant)
	assert.Equal(t, ast.KindLet, fn.Body[1].Arms[1].Body[0].Kind)
	assert.Equal(t, "n", fn.Body[1].Arms[1].Body[0].VarName)
}

func TestLowerPropagateErrorTypeMismatchReported(t *testing.T) {
	table := symbols.NewTable()
	callee := &ast.FunctionDecl{
		Name:       "parse",
		ReturnType: resultType(primType("i32"), &ast.TypeExpr{Kind: ast.TypeNominal, Name: "ParseError"}),
	}
	fn := &ast.FunctionDecl{
		Name:       "use",
		ReturnType: resultType(primType("bool"), &ast.TypeExpr{Kind: ast.TypeNominal, Name: "StdError.Error"}),
		Body: []ast.Stmt{
			{
				Kind:     ast.KindLet,
				VarName:  "n",
				VarValue: &ast.Expr{Kind: ast.KindPropagate, Inner: &ast.Expr{Kind: ast.KindCall, Name: "parse"}},
			},
		},
	}
	require.NoError(t, table.DeclareFunction("parse", &symbols.Function{Decl: callee}))
	require.NoError(t, table.DeclareFunction("use", &symbols.Function{Decl: fn}))

	res := Lower(table)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.CodeErrorTypeMismatch, res.Bag.All()[0].Code)
}

func TestLowerPropagateInExtensionRejected(t *testing.T) {
	table := symbols.NewTable()
	method := &ast.FunctionDecl{
		Name:       "use",
		ReturnType: resultType(primType("bool"), &ast.TypeExpr{Kind: ast.TypeNominal, Name: "StdError.Error"}),
		Body: []ast.Stmt{
			{
				Kind:     ast.KindExprStmt,
				Expr:     &ast.Expr{Kind: ast.KindPropagate, Inner: &ast.Expr{Kind: ast.KindCall, Name: "parse"}},
			},
		},
	}
	ext := &ast.ExtensionDecl{
		ForType: &ast.TypeExpr{Kind: ast.TypeNominal, Name: "Widget"},
		Methods: []*ast.FunctionDecl{method},
	}
	table.AddExtension(&symbols.Extension{Decl: ext})
	require.NoError(t, table.DeclareFunction("use", &symbols.Function{Decl: method}))

	res := Lower(table)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.CodePropagateInExtension, res.Bag.All()[0].Code)
}
