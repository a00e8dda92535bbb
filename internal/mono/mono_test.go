package mono

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/instantiate"
	"github.com/oxhq/sushic/internal/symbols"
	"github.com/oxhq/sushic/internal/types"
)

func TestMonomorphizeFunctionRegistersMangledClone(t *testing.T) {
	table := symbols.NewTable()
	generic := &ast.FunctionDecl{
		Name:       "identity",
		TypeParams: []ast.TypeParamDecl{{Name: "T"}},
		Params:     []ast.Param{{Name: "x", Type: &ast.TypeExpr{Kind: ast.TypeParam, ParamName: "T"}}},
		ReturnType: &ast.TypeExpr{Kind: ast.TypeParam, ParamName: "T"},
	}
	require.NoError(t, table.DeclareFunction("identity", &symbols.Function{Decl: generic}))

	req := instantiate.Result{
		Instantiations: []instantiate.Instantiation{{Template: "identity", Args: []*types.Type{types.Prim("i32")}}},
		Bag:            diag.NewBag(),
	}
	res := Monomorphize(table, req)
	require.Equal(t, 0, res.Bag.Len())

	clone, ok := table.Function("identity__i32")
	require.True(t, ok)
	assert.Equal(t, "identity__i32", clone.Decl.Name)
	assert.Empty(t, clone.Decl.TypeParams)
	assert.Equal(t, ast.TypePrimitive, clone.Decl.Params[0].Type.Kind)
	assert.Equal(t, "i32", clone.Decl.Params[0].Type.Primitive)

	// original declaration is untouched
	assert.Equal(t, "T", generic.Params[0].Type.ParamName)
}

func TestMonomorphizeStructClonesFieldsAndMethods(t *testing.T) {
	table := symbols.NewTable()
	box := &ast.StructDecl{
		Name:       "Box",
		TypeParams: []ast.TypeParamDecl{{Name: "T"}},
		Fields:     []ast.FieldDecl{{Name: "value", Type: &ast.TypeExpr{Kind: ast.TypeParam, ParamName: "T"}}},
		Methods: []*ast.FunctionDecl{
			{Name: "unwrap", ReturnType: &ast.TypeExpr{Kind: ast.TypeParam, ParamName: "T"}},
		},
	}
	require.NoError(t, table.DeclareStruct("Box", &symbols.Struct{Decl: box}))

	req := instantiate.Result{
		Instantiations: []instantiate.Instantiation{{Template: "Box", Args: []*types.Type{types.Prim("f64")}}},
		Bag:            diag.NewBag(),
	}
	res := Monomorphize(table, req)
	require.Equal(t, 0, res.Bag.Len())

	concrete, ok := table.Struct("Box__f64")
	require.True(t, ok)
	assert.Equal(t, "f64", concrete.Decl.Fields[0].Type.Primitive)

	method, ok := table.Function("Box__f64.unwrap")
	require.True(t, ok)
	assert.Equal(t, "f64", method.Decl.ReturnType.Primitive)
}

func TestMonomorphizeRejectsUnsatisfiedConstraint(t *testing.T) {
	table := symbols.NewTable()
	fn := &ast.FunctionDecl{
		Name:       "describe",
		TypeParams: []ast.TypeParamDecl{{Name: "T", Bounds: []string{"Printable"}}},
		Params:     []ast.Param{{Name: "x", Type: &ast.TypeExpr{Kind: ast.TypeParam, ParamName: "T"}}},
	}
	require.NoError(t, table.DeclareFunction("describe", &symbols.Function{Decl: fn}))

	req := instantiate.Result{
		Instantiations: []instantiate.Instantiation{{Template: "describe", Args: []*types.Type{types.Prim("i32")}}},
		Bag:            diag.NewBag(),
	}
	res := Monomorphize(table, req)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.CodeUnsatisfiedConstraint, res.Bag.All()[0].Code)

	_, ok := table.Function("describe__i32")
	assert.False(t, ok)
}

func TestMonomorphizeAllowsSatisfiedConstraint(t *testing.T) {
	table := symbols.NewTable()
	fn := &ast.FunctionDecl{
		Name:       "describe",
		TypeParams: []ast.TypeParamDecl{{Name: "T", Bounds: []string{"Printable"}}},
		Params:     []ast.Param{{Name: "x", Type: &ast.TypeExpr{Kind: ast.TypeParam, ParamName: "T"}}},
	}
	require.NoError(t, table.DeclareFunction("describe", &symbols.Function{Decl: fn}))
	table.AddImpl("Printable", &symbols.Impl{Decl: &ast.ImplDecl{PerkName: "Printable", ForType: &ast.TypeExpr{Kind: ast.TypePrimitive, Primitive: "i32"}}})

	req := instantiate.Result{
		Instantiations: []instantiate.Instantiation{{Template: "describe", Args: []*types.Type{types.Prim("i32")}}},
		Bag:            diag.NewBag(),
	}
	res := Monomorphize(table, req)
	require.Equal(t, 0, res.Bag.Len())
	_, ok := table.Function("describe__i32")
	assert.True(t, ok)
}

func TestMonomorphizeMethodObligationCascades(t *testing.T) {
	table := symbols.NewTable()
	box := &ast.StructDecl{
		Name:       "Box",
		TypeParams: []ast.TypeParamDecl{{Name: "T"}},
		Methods:    []*ast.FunctionDecl{{Name: "unwrap"}},
	}
	require.NoError(t, table.DeclareStruct("Box", &symbols.Struct{Decl: box}))

	req := instantiate.Result{
		Methods: []instantiate.MethodObligation{{Owner: "Box", Method: "unwrap", Args: []*types.Type{types.Prim("bool")}}},
		Bag:     diag.NewBag(),
	}
	res := Monomorphize(table, req)
	require.Equal(t, 0, res.Bag.Len())
	_, ok := table.Function("Box__bool.unwrap")
	assert.True(t, ok)
}
